package calendar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRangeMatchesInclusive(t *testing.T) {
	cv, err := ParseHour("9..17")
	require.NoError(t, err)
	for v := uint8(0); v < 24; v++ {
		want := v >= 9 && v <= 17
		assert.Equal(t, want, cv.Matches(v), "hour %d", v)
	}
}

func TestRepetitionMatchesModulo(t *testing.T) {
	cv, err := ParseMinute("0/3")
	require.NoError(t, err)
	for v := uint8(0); v < 60; v++ {
		want := v%3 == 0
		assert.Equal(t, want, cv.Matches(v), "minute %d", v)
	}
}

func TestRepetitionWithEnd(t *testing.T) {
	cv, err := ParseMinute("5..20/5")
	require.NoError(t, err)
	assert.False(t, cv.Matches(0))
	assert.True(t, cv.Matches(5))
	assert.True(t, cv.Matches(10))
	assert.True(t, cv.Matches(20))
	assert.False(t, cv.Matches(25))
}

func TestSpecificDedupAndSort(t *testing.T) {
	cv, err := ParseSecond("30,10,10,20")
	require.NoError(t, err)
	for _, v := range []uint8{10, 20, 30} {
		assert.True(t, cv.Matches(v))
	}
	assert.False(t, cv.Matches(40))
}

func TestAllMatchesEverything(t *testing.T) {
	cv, err := ParseHour("*")
	require.NoError(t, err)
	for v := uint8(0); v < 24; v++ {
		assert.True(t, cv.Matches(v))
	}
}

func TestRepetitionZeroStepRejected(t *testing.T) {
	_, err := ParseMinute("0/0")
	assert.Error(t, err)
}

func TestYearRepetitionAllowsStepAboveUint8Max(t *testing.T) {
	cv, err := ParseYear("1970/300")
	require.NoError(t, err)
	assert.True(t, cv.Matches(1970))
	assert.True(t, cv.Matches(2270))
	assert.False(t, cv.Matches(2100))
}

func TestRangeInvertedRejected(t *testing.T) {
	_, err := ParseHour("17..9")
	assert.Error(t, err)
}

func TestRangeOutOfDomainRejected(t *testing.T) {
	_, err := ParseHour("9..99")
	assert.Error(t, err)
}

func TestYearAllowsNegativeAndLargeRange(t *testing.T) {
	cv, err := ParseYear("-100..2100")
	require.NoError(t, err)
	assert.True(t, cv.Matches(-50))
	assert.True(t, cv.Matches(2025))
	assert.False(t, cv.Matches(3000))
}

func TestYearRandomRejected(t *testing.T) {
	cv, err := ParseYear("R")
	assert.Error(t, err)
	assert.Equal(t, Year{}, cv)
}

func TestDowRangeRejectsReversed(t *testing.T) {
	_, err := ParseDow("Fri..Mon")
	assert.Error(t, err)
}

func TestDowAcceptsShortAndLongNames(t *testing.T) {
	d, err := ParseDow("Sun,Tuesday,Thu")
	require.NoError(t, err)
	assert.True(t, d.Matches(0))
	assert.True(t, d.Matches(2))
	assert.True(t, d.Matches(4))
	assert.False(t, d.Matches(1))
}

func TestRandomResolvesToSpecificWithinDomain(t *testing.T) {
	cv, err := ParseHour("R")
	require.NoError(t, err)
	for v := uint8(0); v < 24; v++ {
		if cv.Matches(v) {
			return
		}
	}
	t.Fatal("random hour did not resolve to any value in domain")
}
