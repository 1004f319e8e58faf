package shared

import (
	"sort"

	"github.com/rustyhorde/barto-sub000/barto/errors"
	"github.com/rustyhorde/barto-sub000/internal/codec/wire"
)

// errUnexpectedVariant mirrors bincode's DecodeError::UnexpectedVariant.
var errUnexpectedVariant = errors.New("unexpected variant")

func unexpectedVariant(typeName string, min, max, found uint32) error {
	return errors.Wrapf(errUnexpectedVariant, "%s: allowed %d..%d, found %d", typeName, min, max, found)
}

// Garuda is one updated package line from a garuda-update report, grounded
// on original_source/libbarto/src/message/shared/update.rs.
type Garuda struct {
	Channel       string
	Package       string
	OldVersion    string
	NewVersion    string
	SizeChange    string
	DownloadSize  string
}

// Less orders Garuda entries by channel then package, matching the Rust Ord impl.
func (g Garuda) Less(o Garuda) bool {
	if g.Channel != o.Channel {
		return g.Channel < o.Channel
	}
	return g.Package < o.Package
}

func (g Garuda) Encode(w *wire.Writer) error {
	w.WriteString(g.Channel)
	w.WriteString(g.Package)
	w.WriteString(g.OldVersion)
	w.WriteString(g.NewVersion)
	w.WriteString(g.SizeChange)
	w.WriteString(g.DownloadSize)
	return nil
}

func (g *Garuda) Decode(r *wire.Reader) error {
	var err error
	if g.Channel, err = r.ReadString(); err != nil {
		return err
	}
	if g.Package, err = r.ReadString(); err != nil {
		return err
	}
	if g.OldVersion, err = r.ReadString(); err != nil {
		return err
	}
	if g.NewVersion, err = r.ReadString(); err != nil {
		return err
	}
	if g.SizeChange, err = r.ReadString(); err != nil {
		return err
	}
	if g.DownloadSize, err = r.ReadString(); err != nil {
		return err
	}
	return nil
}

// SortGarudas sorts in place by channel then package.
func SortGarudas(gs []Garuda) {
	sort.Slice(gs, func(i, j int) bool { return gs[i].Less(gs[j]) })
}

// Pacman is an Arch/CachyOS pacman update summary.
type Pacman struct {
	UpdateCount  uint64
	Packages     []string
	InstallSize  float64
	NetSize      float64
	DownloadSize float64
}

func (p Pacman) Encode(w *wire.Writer) error {
	w.WriteU64(p.UpdateCount)
	w.WriteU64(uint64(len(p.Packages)))
	for _, pkg := range p.Packages {
		w.WriteString(pkg)
	}
	w.WriteF64(p.InstallSize)
	w.WriteF64(p.NetSize)
	w.WriteF64(p.DownloadSize)
	return nil
}

func (p *Pacman) Decode(r *wire.Reader) error {
	var err error
	if p.UpdateCount, err = r.ReadU64(); err != nil {
		return err
	}
	n, err := r.ReadU64()
	if err != nil {
		return err
	}
	p.Packages = make([]string, 0, n)
	for i := uint64(0); i < n; i++ {
		s, err := r.ReadString()
		if err != nil {
			return err
		}
		p.Packages = append(p.Packages, s)
	}
	if p.InstallSize, err = r.ReadF64(); err != nil {
		return err
	}
	if p.NetSize, err = r.ReadF64(); err != nil {
		return err
	}
	if p.DownloadSize, err = r.ReadF64(); err != nil {
		return err
	}
	return nil
}

// UpdateKind is the tagged union of package-manager update reports a worker
// can send upstream (spec §4.C "Updates").
type UpdateKind struct {
	tag    updateTag
	garuda []Garuda
	pacman Pacman
}

type updateTag uint8

const (
	updateGaruda updateTag = iota
	updatePacman
	updateCachyos
	updateOther
)

func NewUpdateGaruda(gs []Garuda) UpdateKind  { return UpdateKind{tag: updateGaruda, garuda: gs} }
func NewUpdatePacman(p Pacman) UpdateKind     { return UpdateKind{tag: updatePacman, pacman: p} }
func NewUpdateCachyos(p Pacman) UpdateKind    { return UpdateKind{tag: updateCachyos, pacman: p} }
func NewUpdateOther() UpdateKind              { return UpdateKind{tag: updateOther} }

func (u UpdateKind) IsGaruda() bool      { return u.tag == updateGaruda }
func (u UpdateKind) IsPacman() bool      { return u.tag == updatePacman }
func (u UpdateKind) IsCachyos() bool     { return u.tag == updateCachyos }
func (u UpdateKind) IsOther() bool       { return u.tag == updateOther }
func (u UpdateKind) Garuda() []Garuda    { return u.garuda }
func (u UpdateKind) Pacman() Pacman      { return u.pacman }

func (u UpdateKind) Encode(w *wire.Writer) error {
	w.WriteU32(uint32(u.tag))
	switch u.tag {
	case updateGaruda:
		w.WriteU64(uint64(len(u.garuda)))
		for _, g := range u.garuda {
			if err := g.Encode(w); err != nil {
				return err
			}
		}
	case updatePacman, updateCachyos:
		return u.pacman.Encode(w)
	case updateOther:
	}
	return nil
}

func (u *UpdateKind) Decode(r *wire.Reader) error {
	tag, err := r.ReadU32()
	if err != nil {
		return err
	}
	u.tag = updateTag(tag)
	switch u.tag {
	case updateGaruda:
		n, err := r.ReadU64()
		if err != nil {
			return err
		}
		u.garuda = make([]Garuda, n)
		for i := range u.garuda {
			if err := u.garuda[i].Decode(r); err != nil {
				return err
			}
		}
	case updatePacman, updateCachyos:
		return u.pacman.Decode(r)
	case updateOther:
	default:
		return unexpectedVariant("UpdateKind", 0, 3, tag)
	}
	return nil
}
