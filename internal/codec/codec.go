// Package codec implements the binary message catalogs exchanged between
// bartos, bartoc, and barto-cli (spec §4.C), grounded on
// original_source/libbarto/src/message/{server,cli}.rs. Each message type is
// a Go struct-of-variants with a u32 discriminator written first, mirroring
// the bincode tagged-union layout the Rust originals use.
package codec

import "github.com/rustyhorde/barto-sub000/barto/errors"

// ErrUnexpectedVariant is returned when a decoded discriminator falls
// outside a message type's known variant range.
var ErrUnexpectedVariant = errors.New("unexpected variant")

func unexpectedVariant(typeName string, min, max, found uint32) error {
	return errors.Wrapf(ErrUnexpectedVariant, "%s: allowed %d..%d, found %d", typeName, min, max, found)
}
