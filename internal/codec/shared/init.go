package shared

import "github.com/rustyhorde/barto-sub000/internal/codec/wire"

// Initialize is the schedule payload bartos hands a worker on connect,
// grounded on original_source/libbarto/src/message/shared/init.rs. The
// schedules come from internal/calendar, which this package does not import
// (to avoid an import cycle); callers JSON-encode calendar.Schedules into
// SchedulesJSON, which is carried as length-prefixed bytes.
type Initialize struct {
	ID            UUID
	SchedulesJSON []byte
}

func (i Initialize) Encode(w *wire.Writer) error {
	if err := i.ID.Encode(w); err != nil {
		return err
	}
	w.WriteBytes(i.SchedulesJSON)
	return nil
}

func (i *Initialize) Decode(r *wire.Reader) error {
	if err := i.ID.Decode(r); err != nil {
		return err
	}
	b, err := r.ReadBytes()
	if err != nil {
		return err
	}
	i.SchedulesJSON = b
	return nil
}
