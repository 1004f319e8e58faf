// Package shared holds the message payload types carried inside the
// BartoCli / BartosToBartoCli / BartosToBartoc / Bartoc variant catalogs
// (spec §4.C), grounded on original_source/libbarto/src/message/shared/*.rs.
package shared

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rustyhorde/barto-sub000/internal/codec/wire"
)

// Timestamp wraps time.Time with an RFC3339-string wire encoding, matching
// original_source's OffsetDataTimeWrapper.
type Timestamp struct{ time.Time }

func (t Timestamp) Encode(w *wire.Writer) error {
	w.WriteString(t.Format(time.RFC3339Nano))
	return nil
}

func (t *Timestamp) Decode(r *wire.Reader) error {
	s, err := r.ReadString()
	if err != nil {
		return err
	}
	parsed, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return fmt.Errorf("failed to parse timestamp %q: %w", s, err)
	}
	t.Time = parsed
	return nil
}

// UUID wraps uuid.UUID with a string wire encoding, matching
// original_source's UuidWrapper.
type UUID struct{ uuid.UUID }

func (u UUID) Encode(w *wire.Writer) error {
	w.WriteString(u.String())
	return nil
}

func (u *UUID) Decode(r *wire.Reader) error {
	s, err := r.ReadString()
	if err != nil {
		return err
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return fmt.Errorf("failed to parse uuid %q: %w", s, err)
	}
	u.UUID = parsed
	return nil
}

// OutputKind distinguishes stdout from stderr lines.
type OutputKind uint8

const (
	OutputStdout OutputKind = iota
	OutputStderr
)

func (k OutputKind) String() string {
	if k == OutputStderr {
		return "stderr"
	}
	return "stdout"
}

func (k OutputKind) Encode(w *wire.Writer) error { w.WriteU8(uint8(k)); return nil }

func (k *OutputKind) Decode(r *wire.Reader) error {
	v, err := r.ReadU8()
	if err != nil {
		return err
	}
	*k = OutputKind(v)
	return nil
}

// Output is a single streamed output line from a running command.
type Output struct {
	Timestamp Timestamp
	UUID      UUID
	Kind      OutputKind
	Data      string
}

func (o Output) String() string {
	return fmt.Sprintf("(%s %s) => %s", o.UUID, o.Kind, o.Data)
}

func (o Output) Encode(w *wire.Writer) error {
	if err := o.Timestamp.Encode(w); err != nil {
		return err
	}
	if err := o.UUID.Encode(w); err != nil {
		return err
	}
	if err := o.Kind.Encode(w); err != nil {
		return err
	}
	w.WriteString(o.Data)
	return nil
}

func (o *Output) Decode(r *wire.Reader) error {
	if err := o.Timestamp.Decode(r); err != nil {
		return err
	}
	if err := o.UUID.Decode(r); err != nil {
		return err
	}
	if err := o.Kind.Decode(r); err != nil {
		return err
	}
	data, err := r.ReadString()
	if err != nil {
		return err
	}
	o.Data = data
	return nil
}

// FailedOutput is the result record of a command that exited non-zero.
type FailedOutput struct {
	Timestamp  *Timestamp
	BartocName *string
	CmdName    *string
	Data       *string
	ExitCode   uint8
	Success    int8
}

func (f FailedOutput) Encode(w *wire.Writer) error {
	encodeOptTimestamp(w, f.Timestamp)
	encodeOptString(w, f.BartocName)
	encodeOptString(w, f.CmdName)
	encodeOptString(w, f.Data)
	w.WriteU8(f.ExitCode)
	w.WriteU8(uint8(f.Success))
	return nil
}

func (f *FailedOutput) Decode(r *wire.Reader) error {
	var err error
	if f.Timestamp, err = decodeOptTimestamp(r); err != nil {
		return err
	}
	if f.BartocName, err = decodeOptString(r); err != nil {
		return err
	}
	if f.CmdName, err = decodeOptString(r); err != nil {
		return err
	}
	if f.Data, err = decodeOptString(r); err != nil {
		return err
	}
	if f.ExitCode, err = r.ReadU8(); err != nil {
		return err
	}
	success, err := r.ReadU8()
	if err != nil {
		return err
	}
	f.Success = int8(success)
	return nil
}

// ListOutput is the result record of one completed command invocation.
type ListOutput struct {
	Timestamp *Timestamp
	Data      *string
	ExitCode  uint8
	Success   int8
}

func (l ListOutput) Encode(w *wire.Writer) error {
	encodeOptTimestamp(w, l.Timestamp)
	encodeOptString(w, l.Data)
	w.WriteU8(l.ExitCode)
	w.WriteU8(uint8(l.Success))
	return nil
}

func (l *ListOutput) Decode(r *wire.Reader) error {
	var err error
	if l.Timestamp, err = decodeOptTimestamp(r); err != nil {
		return err
	}
	if l.Data, err = decodeOptString(r); err != nil {
		return err
	}
	if l.ExitCode, err = r.ReadU8(); err != nil {
		return err
	}
	success, err := r.ReadU8()
	if err != nil {
		return err
	}
	l.Success = int8(success)
	return nil
}

// QueryTypes enumerates the supported barto-cli ad-hoc query column types.
type QueryTypes uint8

const (
	QueryU64 QueryTypes = iota
	QueryODT
	QueryStr
	QueryUUID
)

// ParseQueryType maps a query-type name to its QueryTypes value. Only the
// listed spellings are accepted (lower-case, upper-case, and "Str"); other
// mixed-case forms are rejected.
func ParseQueryType(s string) (QueryTypes, error) {
	switch s {
	case "u64", "U64":
		return QueryU64, nil
	case "odt", "ODT":
		return QueryODT, nil
	case "str", "Str", "STR":
		return QueryStr, nil
	case "uuid", "UUID":
		return QueryUUID, nil
	default:
		return 0, fmt.Errorf("invalid query type: %q", s)
	}
}

func (q QueryTypes) Encode(w *wire.Writer) error { w.WriteU8(uint8(q)); return nil }

func (q *QueryTypes) Decode(r *wire.Reader) error {
	v, err := r.ReadU8()
	if err != nil {
		return err
	}
	*q = QueryTypes(v)
	return nil
}

// BartocInfo is a worker's self-reported system information.
type BartocInfo struct {
	Name          string
	Hostname      string
	OSVersion     string
	KernelVersion string
}

func (b BartocInfo) String() string {
	return fmt.Sprintf("%s %s %s", b.Name, b.OSVersion, b.KernelVersion)
}

func (b BartocInfo) Encode(w *wire.Writer) error {
	w.WriteString(b.Name)
	w.WriteString(b.Hostname)
	w.WriteString(b.OSVersion)
	w.WriteString(b.KernelVersion)
	return nil
}

func (b *BartocInfo) Decode(r *wire.Reader) error {
	var err error
	if b.Name, err = r.ReadString(); err != nil {
		return err
	}
	if b.Hostname, err = r.ReadString(); err != nil {
		return err
	}
	if b.OSVersion, err = r.ReadString(); err != nil {
		return err
	}
	if b.KernelVersion, err = r.ReadString(); err != nil {
		return err
	}
	return nil
}

// ClientData is the connected-client registry entry (spec §3).
type ClientData struct {
	Name       string
	IP         string
	BartocInfo *BartocInfo
}

func (c ClientData) String() string {
	if c.BartocInfo != nil {
		return c.BartocInfo.String()
	}
	return c.Name
}

func (c ClientData) Encode(w *wire.Writer) error {
	w.WriteString(c.Name)
	w.WriteString(c.IP)
	w.WriteBool(c.BartocInfo != nil)
	if c.BartocInfo != nil {
		if err := c.BartocInfo.Encode(w); err != nil {
			return err
		}
	}
	return nil
}

func (c *ClientData) Decode(r *wire.Reader) error {
	var err error
	if c.Name, err = r.ReadString(); err != nil {
		return err
	}
	if c.IP, err = r.ReadString(); err != nil {
		return err
	}
	present, err := r.ReadBool()
	if err != nil {
		return err
	}
	if present {
		var info BartocInfo
		if err := info.Decode(r); err != nil {
			return err
		}
		c.BartocInfo = &info
	}
	return nil
}

func encodeOptString(w *wire.Writer, s *string) {
	w.WriteBool(s != nil)
	if s != nil {
		w.WriteString(*s)
	}
}

func decodeOptString(r *wire.Reader) (*string, error) {
	present, err := r.ReadBool()
	if err != nil || !present {
		return nil, err
	}
	s, err := r.ReadString()
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func encodeOptTimestamp(w *wire.Writer, ts *Timestamp) {
	w.WriteBool(ts != nil)
	if ts != nil {
		_ = ts.Encode(w)
	}
}

func decodeOptTimestamp(r *wire.Reader) (*Timestamp, error) {
	present, err := r.ReadBool()
	if err != nil || !present {
		return nil, err
	}
	var ts Timestamp
	if err := ts.Decode(r); err != nil {
		return nil, err
	}
	return &ts, nil
}
