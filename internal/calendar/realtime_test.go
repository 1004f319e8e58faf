package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, expr string) Realtime {
	t.Helper()
	rt, err := ParseRealtime(expr)
	require.NoError(t, err)
	return rt
}

func TestAliasExpansionMinutely(t *testing.T) {
	rt := mustParse(t, "minutely")
	assert.True(t, rt.IsNow(time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)))
	assert.False(t, rt.IsNow(time.Date(2025, 1, 15, 10, 0, 1, 0, time.UTC)))
}

func TestScenarioWeeklyMonday(t *testing.T) {
	rt := mustParse(t, "weekly")
	assert.True(t, rt.IsNow(time.Date(2025, 10, 20, 0, 0, 0, 0, time.UTC)))  // Monday
	assert.False(t, rt.IsNow(time.Date(2025, 10, 19, 0, 0, 0, 0, time.UTC))) // Sunday
	assert.False(t, rt.IsNow(time.Date(2025, 10, 20, 0, 0, 1, 0, time.UTC)))
}

func TestScenarioEveryThreeMinutes(t *testing.T) {
	rt := mustParse(t, "*-*-* 9..17:0/3:0")
	assert.True(t, rt.IsNow(time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)))
	assert.True(t, rt.IsNow(time.Date(2025, 6, 1, 9, 3, 0, 0, time.UTC)))
	assert.False(t, rt.IsNow(time.Date(2025, 6, 1, 9, 4, 0, 0, time.UTC)))
	assert.False(t, rt.IsNow(time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)))
}

func TestScenarioDowRange(t *testing.T) {
	rt := mustParse(t, "Mon..Fri *-*-* 12:00:00")
	assert.True(t, rt.IsNow(time.Date(2025, 10, 20, 12, 0, 0, 0, time.UTC)))  // Monday
	assert.False(t, rt.IsNow(time.Date(2025, 10, 25, 12, 0, 0, 0, time.UTC))) // Saturday
}

func TestAliasTableMatchesSpec(t *testing.T) {
	cases := map[string]Realtime{
		"minutely":     {dow: AllDow(), year: All[int32](), month: All[uint8](), day: All[uint8](), hour: All[uint8](), minute: All[uint8](), second: Specific[uint8](0)},
		"hourly":       {dow: AllDow(), year: All[int32](), month: All[uint8](), day: All[uint8](), hour: All[uint8](), minute: Specific[uint8](0), second: Specific[uint8](0)},
		"quarterly":    {dow: AllDow(), year: All[int32](), month: Specific[uint8](1, 4, 7, 10), day: Specific[uint8](1), hour: Specific[uint8](0), minute: Specific[uint8](0), second: Specific[uint8](0)},
		"semiannually": {dow: AllDow(), year: All[int32](), month: Specific[uint8](1, 7), day: Specific[uint8](1), hour: Specific[uint8](0), minute: Specific[uint8](0), second: Specific[uint8](0)},
	}
	for alias, want := range cases {
		got := mustParse(t, alias)
		assert.True(t, got.Equal(want), "alias %s did not expand as expected", alias)
	}
}

func TestNegativeParserCases(t *testing.T) {
	bad := []string{
		"",
		"Mon..Hogwash",
		"9..5",
		"0/0",
		"60:00:00",
		"13-32-00 0:0:0",
		"hourly extra",
	}
	for _, s := range bad {
		_, err := ParseRealtime(s)
		assert.Error(t, err, "expected error parsing %q", s)
	}
}

func TestBuildRtMapInitializeSchedules(t *testing.T) {
	s := Schedules{Schedules: []Schedule{
		{OnCalendar: "daily", Cmds: []string{"a", "b"}},
		{OnCalendar: "hourly", Cmds: []string{"c"}},
	}}
	m, err := BuildRtMap(s)
	require.NoError(t, err)
	assert.Equal(t, 2, m.Len())
}

func TestDuplicateRealtimeMerges(t *testing.T) {
	s := Schedules{Schedules: []Schedule{
		{OnCalendar: "daily", Cmds: []string{"a"}},
		{OnCalendar: "*-*-* 0:0:0", Cmds: []string{"b"}},
	}}
	m, err := BuildRtMap(s)
	require.NoError(t, err)
	assert.Equal(t, 1, m.Len())
	firing := m.Due(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	require.Len(t, firing, 1)
	assert.ElementsMatch(t, []string{"a", "b"}, firing[0].Cmds)
}
