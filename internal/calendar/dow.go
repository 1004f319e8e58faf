package calendar

import (
	"regexp"
	"sort"
	"strings"

	"github.com/rustyhorde/barto-sub000/barto/errors"
)

// Dow is the day-of-week field. Unlike the other six fields it matches by
// name, not by number: short or long English names, name-to-name ranges,
// comma lists, and '*'. No repetition, no Random (spec §4.A).
type Dow struct {
	all bool
	day []uint8 // sorted, deduped; Sun=0..Sat=6
}

var dowRangeRe = regexp.MustCompile(`^([a-zA-Z]{3,9})\.\.([a-zA-Z]{3,9})$`)

var dowNames = map[string]uint8{
	"Sun": 0, "Sunday": 0,
	"Mon": 1, "Monday": 1,
	"Tue": 2, "Tuesday": 2,
	"Wed": 3, "Wednesday": 3,
	"Thu": 4, "Thursday": 4,
	"Fri": 5, "Friday": 5,
	"Sat": 6, "Saturday": 6,
}

var dowShortNames = [...]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// AllDow matches every day of the week.
func AllDow() Dow { return Dow{all: true} }

// ParseDow parses a day-of-week field.
func ParseDow(s string) (Dow, error) {
	if s == "" {
		return Dow{}, invalidDow(s)
	}
	if s == "*" {
		return AllDow(), nil
	}
	seen := map[uint8]bool{}
	var days []uint8
	for _, part := range strings.Split(s, ",") {
		vs, err := parseDowish(part)
		if err != nil {
			return Dow{}, err
		}
		for _, v := range vs {
			if !seen[v] {
				seen[v] = true
				days = append(days, v)
			}
		}
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })
	return Dow{day: days}, nil
}

func parseDowish(s string) ([]uint8, error) {
	if dowRangeRe.MatchString(s) {
		m := dowRangeRe.FindStringSubmatch(s)
		first, ok1 := dowNames[m[1]]
		second, ok2 := dowNames[m[2]]
		if !ok1 || !ok2 {
			return nil, invalidDow(s)
		}
		if second < first {
			return nil, errors.Mark(errors.Newf("invalid range: %q", s), ErrInvalidField)
		}
		out := make([]uint8, 0, int(second-first)+1)
		for v := first; v <= second; v++ {
			out = append(out, v)
		}
		return out, nil
	}
	v, ok := dowNames[s]
	if !ok {
		return nil, invalidDow(s)
	}
	return []uint8{v}, nil
}

func invalidDow(s string) error {
	return errors.Mark(errors.Newf("invalid day of week: %q", s), ErrInvalidField)
}

// Matches reports whether the given weekday (Sun=0..Sat=6) satisfies the field.
func (d Dow) Matches(weekday uint8) bool {
	if d.all {
		return true
	}
	for _, v := range d.day {
		if v == weekday {
			return true
		}
	}
	return false
}

// Equal reports set equality under normalization.
func (d Dow) Equal(other Dow) bool {
	if d.all != other.all {
		return false
	}
	if d.all {
		return true
	}
	if len(d.day) != len(other.day) {
		return false
	}
	for i := range d.day {
		if d.day[i] != other.day[i] {
			return false
		}
	}
	return true
}

// String renders the field back to its canonical textual form.
func (d Dow) String() string {
	if d.all {
		return "*"
	}
	names := make([]string, len(d.day))
	for i, v := range d.day {
		names[i] = dowShortNames[v]
	}
	return strings.Join(names, ",")
}
