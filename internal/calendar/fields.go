package calendar

import (
	"math"
	"sort"
	"strconv"
)

// Year is a signed 32-bit field; Random is not permitted (spec §3, §4.A).
type Year = ConstrainedValue[int32]

// Month, Day, Hour, Minute, Second share the uint8 domain; Random is
// permitted on each of them (spec §3 field-domain table, §4.A item 3).
type (
	Month  = ConstrainedValue[uint8]
	Day    = ConstrainedValue[uint8]
	Hour   = ConstrainedValue[uint8]
	Minute = ConstrainedValue[uint8]
	Second = ConstrainedValue[uint8]
)

func parseInt32(s string) (int32, bool) {
	v, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, false
	}
	return int32(v), true
}

func parseUint8(s string) (uint8, bool) {
	v, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, false
	}
	return uint8(v), true
}

// ParseYear parses a year field: any signed 32-bit integer, no Random.
func ParseYear(s string) (Year, error) {
	return parse(s, parseParams[int32]{
		min: math.MinInt32, max: math.MaxInt32,
		allowRand: false,
		parse:     parseInt32,
	})
}

// ParseMonth parses a 1..12 field with Random permitted.
func ParseMonth(s string) (Month, error) {
	return parse(s, parseParams[uint8]{
		min: 1, max: 12,
		allowRand: true,
		parse:     parseUint8,
		rand:      func() uint8 { return uint8(1 + randIntn(12)) },
	})
}

// ParseDay parses a 1..31 field with Random permitted. Calendar validity
// (e.g. Feb 30) is intentionally not checked here (spec §3).
func ParseDay(s string) (Day, error) {
	return parse(s, parseParams[uint8]{
		min: 1, max: 31,
		allowRand: true,
		parse:     parseUint8,
		rand:      func() uint8 { return uint8(1 + randIntn(31)) },
	})
}

// ParseHour parses a 0..23 field with Random permitted.
func ParseHour(s string) (Hour, error) {
	return parse(s, parseParams[uint8]{
		min: 0, max: 23,
		allowRand: true,
		parse:     parseUint8,
		rand:      func() uint8 { return uint8(randIntn(24)) },
	})
}

// ParseMinute parses a 0..59 field with Random permitted.
func ParseMinute(s string) (Minute, error) {
	return parse(s, parseParams[uint8]{
		min: 0, max: 59,
		allowRand: true,
		parse:     parseUint8,
		rand:      func() uint8 { return uint8(randIntn(60)) },
	})
}

// ParseSecond parses a 0..59 field with Random permitted.
func ParseSecond(s string) (Second, error) {
	return parse(s, parseParams[uint8]{
		min: 0, max: 59,
		allowRand: true,
		parse:     parseUint8,
		rand:      func() uint8 { return uint8(randIntn(60)) },
	})
}

// Specific builds a Specific-kind constrained value directly, used by alias
// expansion (spec §4.B) where the literal value set is already known.
func Specific[T integer](values ...T) ConstrainedValue[T] {
	cp := append([]T(nil), values...)
	sort.Slice(cp, func(i, j int) bool { return cp[i] < cp[j] })
	return ConstrainedValue[T]{k: kindSpecific, specific: cp}
}
