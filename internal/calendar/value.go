// Package calendar implements the systemd-OnCalendar-like expression
// language: constrained-value primitives over individual time fields,
// composed into a Realtime matcher evaluated against wall-clock instants.
package calendar

import (
	"math/rand"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/rustyhorde/barto-sub000/barto/errors"
)

// ErrInvalidField is the sentinel wrapped by every field parse failure.
var ErrInvalidField = errors.New("invalid field")

// integer is the set of field value types a ConstrainedValue can hold.
type integer interface {
	~int32 | ~uint8
}

type kind uint8

const (
	kindAll kind = iota
	kindRange
	kindRepetition
	kindSpecific
)

// ConstrainedValue is a value constrained by one of the rules in spec §3:
// All, Range, Repetition, or Specific. Random is a parse-time effect that
// resolves to Specific before a ConstrainedValue is ever constructed.
type ConstrainedValue[T integer] struct {
	k        kind
	lo, hi   T   // Range
	start    T   // Repetition
	end      *T  // Repetition, optional
	step     uint32
	specific []T // Specific, sorted+deduped, non-empty
}

// All returns the constrained value that matches every legal value.
func All[T integer]() ConstrainedValue[T] { return ConstrainedValue[T]{k: kindAll} }

// Matches reports whether v satisfies the constraint.
func (cv ConstrainedValue[T]) Matches(v T) bool {
	switch cv.k {
	case kindAll:
		return true
	case kindRange:
		return v >= cv.lo && v <= cv.hi
	case kindRepetition:
		if v < cv.start {
			return false
		}
		if cv.end != nil && v > *cv.end {
			return false
		}
		diff := int64(v) - int64(cv.start)
		return diff%int64(cv.step) == 0
	case kindSpecific:
		for _, s := range cv.specific {
			if s == v {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// Equal reports whether two constrained values describe the same set under
// field normalization (sorted Specific lists compare element-wise).
func (cv ConstrainedValue[T]) Equal(other ConstrainedValue[T]) bool {
	if cv.k != other.k {
		return false
	}
	switch cv.k {
	case kindAll:
		return true
	case kindRange:
		return cv.lo == other.lo && cv.hi == other.hi
	case kindRepetition:
		if cv.start != other.start || cv.step != other.step {
			return false
		}
		if (cv.end == nil) != (other.end == nil) {
			return false
		}
		return cv.end == nil || *cv.end == *other.end
	case kindSpecific:
		if len(cv.specific) != len(other.specific) {
			return false
		}
		for i := range cv.specific {
			if cv.specific[i] != other.specific[i] {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// parseParams carries the per-field knobs that the Rust ConstrainedValueParser
// trait expressed as associated functions (repetition_regex, range_regex,
// allow_rand, ...). Go generics can't attach per-instantiation constants to
// a type parameter, so the knobs travel as an explicit argument instead.
type parseParams[T integer] struct {
	min, max  T
	allowRand bool
	signed    bool
	parse     func(string) (T, bool)
	format    func(T) string
	rand      func() T
}

var repRe = regexp.MustCompile(`^(-?\d{1,10})(\.\.(-?\d{1,10}))?/(\d{1,3})$`)
var rangeRe = regexp.MustCompile(`^(-?\d{1,10})\.\.(-?\d{1,10})$`)

// parse implements spec §4.A's parse order: empty -> '*' -> 'R' -> repetition
// -> range -> comma list -> single value.
func parse[T integer](s string, p parseParams[T]) (ConstrainedValue[T], error) {
	if s == "" {
		return ConstrainedValue[T]{}, errors.Mark(errors.Newf("empty field value"), ErrInvalidField)
	}
	if s == "*" {
		return All[T](), nil
	}
	if s == "R" && p.allowRand {
		return ConstrainedValue[T]{k: kindSpecific, specific: []T{p.rand()}}, nil
	}
	if repRe.MatchString(s) {
		return parseRepetition(s, p)
	}
	if rangeRe.MatchString(s) {
		return parseRange(s, p)
	}
	return parseSpecific(s, p)
}

func parseRepetition[T integer](s string, p parseParams[T]) (ConstrainedValue[T], error) {
	m := repRe.FindStringSubmatch(s)
	if m == nil {
		return ConstrainedValue[T]{}, invalid(s)
	}
	start, ok := p.parse(m[1])
	if !ok {
		return ConstrainedValue[T]{}, invalid(s)
	}
	var end *T
	if m[3] != "" {
		e, ok := p.parse(m[3])
		if !ok {
			return ConstrainedValue[T]{}, invalid(s)
		}
		end = &e
	}
	// repRe's step group allows up to 3 digits (max 999), which overflows
	// uint8 (max 255) — a legal year repetition like "2024/300" needs the
	// wider parse even though most fields never see a step that large.
	step64, err := strconv.ParseUint(m[4], 10, 32)
	if err != nil || step64 == 0 {
		return ConstrainedValue[T]{}, invalid(s)
	}
	if start < p.min || start > p.max {
		return ConstrainedValue[T]{}, invalid(s)
	}
	if end != nil && (*end < start || *end < p.min || *end > p.max) {
		return ConstrainedValue[T]{}, invalid(s)
	}
	return ConstrainedValue[T]{k: kindRepetition, start: start, end: end, step: uint32(step64)}, nil
}

func parseRange[T integer](s string, p parseParams[T]) (ConstrainedValue[T], error) {
	m := rangeRe.FindStringSubmatch(s)
	if m == nil {
		return ConstrainedValue[T]{}, invalid(s)
	}
	first, ok1 := p.parse(m[1])
	second, ok2 := p.parse(m[2])
	if !ok1 || !ok2 {
		return ConstrainedValue[T]{}, invalid(s)
	}
	if first < p.min || first > p.max || second < p.min || second > p.max || first > second {
		return ConstrainedValue[T]{}, invalid(s)
	}
	return ConstrainedValue[T]{k: kindRange, lo: first, hi: second}, nil
}

func parseSpecific[T integer](s string, p parseParams[T]) (ConstrainedValue[T], error) {
	parts := strings.Split(s, ",")
	seen := map[T]bool{}
	values := make([]T, 0, len(parts))
	for _, part := range parts {
		v, ok := p.parse(part)
		if !ok || v < p.min || v > p.max {
			return ConstrainedValue[T]{}, invalid(s)
		}
		if !seen[v] {
			seen[v] = true
			values = append(values, v)
		}
	}
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })
	return ConstrainedValue[T]{k: kindSpecific, specific: values}, nil
}

func invalid(s string) error {
	return errors.Mark(errors.Newf("invalid constrained value: %q", s), ErrInvalidField)
}

func randIntn(n int) int { return rand.Intn(n) }

// Format renders the constrained value back to its canonical textual form,
// using fmt to stringify individual values.
func (cv ConstrainedValue[T]) Format(fmt func(T) string) string {
	switch cv.k {
	case kindAll:
		return "*"
	case kindRange:
		return fmt(cv.lo) + ".." + fmt(cv.hi)
	case kindRepetition:
		if cv.end != nil {
			return fmt(cv.start) + ".." + fmt(*cv.end) + "/" + strconv.FormatUint(uint64(cv.step), 10)
		}
		return fmt(cv.start) + "/" + strconv.FormatUint(uint64(cv.step), 10)
	case kindSpecific:
		parts := make([]string, len(cv.specific))
		for i, v := range cv.specific {
			parts[i] = fmt(v)
		}
		return strings.Join(parts, ",")
	default:
		return ""
	}
}
