package calendar

import (
	"strconv"
	"strings"
	"time"

	"github.com/rustyhorde/barto-sub000/barto/errors"
)

// Realtime is the calendar matcher: a product of seven fields (spec §3). A
// clock instant matches iff every field matches the corresponding component
// of the instant in whatever time zone it is observed in.
type Realtime struct {
	dow    Dow
	year   Year
	month  Month
	day    Day
	hour   Hour
	minute Minute
	second Second
}

// ErrInvalidCalendar is returned when the overall expression shape (token
// count / alias) doesn't match any of spec §4.B's accepted forms.
var ErrInvalidCalendar = errors.New("invalid calendar expression")

var aliasTable = map[string]Realtime{
	"minutely": {
		dow: AllDow(), year: All[int32](), month: All[uint8](), day: All[uint8](),
		hour: All[uint8](), minute: All[uint8](), second: Specific[uint8](0),
	},
	"hourly": {
		dow: AllDow(), year: All[int32](), month: All[uint8](), day: All[uint8](),
		hour: All[uint8](), minute: Specific[uint8](0), second: Specific[uint8](0),
	},
	"daily": {
		dow: AllDow(), year: All[int32](), month: All[uint8](), day: All[uint8](),
		hour: Specific[uint8](0), minute: Specific[uint8](0), second: Specific[uint8](0),
	},
	"weekly": {
		dow: mustDow("Mon"), year: All[int32](), month: All[uint8](), day: All[uint8](),
		hour: Specific[uint8](0), minute: Specific[uint8](0), second: Specific[uint8](0),
	},
	"monthly": {
		dow: AllDow(), year: All[int32](), month: All[uint8](), day: Specific[uint8](1),
		hour: Specific[uint8](0), minute: Specific[uint8](0), second: Specific[uint8](0),
	},
	"quarterly": {
		dow: AllDow(), year: All[int32](), month: Specific[uint8](1, 4, 7, 10), day: Specific[uint8](1),
		hour: Specific[uint8](0), minute: Specific[uint8](0), second: Specific[uint8](0),
	},
	"semiannually": {
		dow: AllDow(), year: All[int32](), month: Specific[uint8](1, 7), day: Specific[uint8](1),
		hour: Specific[uint8](0), minute: Specific[uint8](0), second: Specific[uint8](0),
	},
	"yearly": {
		dow: AllDow(), year: All[int32](), month: Specific[uint8](1), day: Specific[uint8](1),
		hour: Specific[uint8](0), minute: Specific[uint8](0), second: Specific[uint8](0),
	},
}

func mustDow(s string) Dow {
	d, err := ParseDow(s)
	if err != nil {
		panic(err)
	}
	return d
}

// ParseRealtime parses a full calendar expression per spec §4.B.
func ParseRealtime(expr string) (Realtime, error) {
	tokens := strings.Fields(expr)
	switch len(tokens) {
	case 1:
		if rt, ok := aliasTable[tokens[0]]; ok {
			return rt, nil
		}
		return parseFromParts(AllDow(), "*-*-*", tokens[0])
	case 2:
		return parseFromParts(AllDow(), tokens[0], tokens[1])
	case 3:
		dow, err := ParseDow(tokens[0])
		if err != nil {
			return Realtime{}, err
		}
		return parseFromParts(dow, tokens[1], tokens[2])
	default:
		return Realtime{}, errors.Mark(errors.Newf("invalid calendar string: %q", expr), ErrInvalidCalendar)
	}
}

func parseFromParts(dow Dow, ymd, hms string) (Realtime, error) {
	year, month, day, err := parseYMD(ymd)
	if err != nil {
		return Realtime{}, err
	}
	hour, minute, second, err := parseHMS(hms)
	if err != nil {
		return Realtime{}, err
	}
	return Realtime{dow: dow, year: year, month: month, day: day, hour: hour, minute: minute, second: second}, nil
}

func parseYMD(s string) (Year, Month, Day, error) {
	parts := strings.Split(s, "-")
	if len(parts) != 3 {
		return Year{}, Month{}, Day{}, errors.Mark(errors.Newf("invalid date string: %q", s), ErrInvalidField)
	}
	year, err := ParseYear(parts[0])
	if err != nil {
		return Year{}, Month{}, Day{}, err
	}
	month, err := ParseMonth(parts[1])
	if err != nil {
		return Year{}, Month{}, Day{}, err
	}
	day, err := ParseDay(parts[2])
	if err != nil {
		return Year{}, Month{}, Day{}, err
	}
	return year, month, day, nil
}

func parseHMS(s string) (Hour, Minute, Second, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return Hour{}, Minute{}, Second{}, errors.Mark(errors.Newf("invalid time string: %q", s), ErrInvalidField)
	}
	hour, err := ParseHour(parts[0])
	if err != nil {
		return Hour{}, Minute{}, Second{}, err
	}
	minute, err := ParseMinute(parts[1])
	if err != nil {
		return Hour{}, Minute{}, Second{}, err
	}
	second, err := ParseSecond(parts[2])
	if err != nil {
		return Hour{}, Minute{}, Second{}, err
	}
	return hour, minute, second, nil
}

// IsNow reports whether t satisfies every field of the matcher (spec §4.B).
func (r Realtime) IsNow(t time.Time) bool {
	weekday := uint8(t.Weekday())
	return r.dow.Matches(weekday) &&
		r.year.Matches(int32(t.Year())) &&
		r.month.Matches(uint8(t.Month())) &&
		r.day.Matches(uint8(t.Day())) &&
		r.hour.Matches(uint8(t.Hour())) &&
		r.minute.Matches(uint8(t.Minute())) &&
		r.second.Matches(uint8(t.Second()))
}

// Equal reports whether two matchers describe the same set of instants.
func (r Realtime) Equal(other Realtime) bool {
	return r.dow.Equal(other.dow) &&
		r.year.Equal(other.year) &&
		r.month.Equal(other.month) &&
		r.day.Equal(other.day) &&
		r.hour.Equal(other.hour) &&
		r.minute.Equal(other.minute) &&
		r.second.Equal(other.second)
}

// String renders the matcher back to its canonical `<DOW> <YMD> <HMS>` form.
func (r Realtime) String() string {
	ymd := r.year.Format(formatInt32) + "-" + r.month.Format(formatUint8) + "-" + r.day.Format(formatUint8)
	hms := r.hour.Format(formatUint8) + ":" + r.minute.Format(formatUint8) + ":" + r.second.Format(formatUint8)
	return r.dow.String() + " " + ymd + " " + hms
}

func formatInt32(v int32) string { return strconv.FormatInt(int64(v), 10) }
func formatUint8(v uint8) string { return strconv.FormatUint(uint64(v), 10) }
