package calendar

import "time"

// Schedule is one textual calendar expression paired with the commands it
// fires (spec §3 "Schedules"), as shipped by the server inside Initialize.
type Schedule struct {
	OnCalendar string   `json:"on_calendar"`
	Cmds       []string `json:"cmds"`
}

// Schedules is the set of schedules a worker receives on connect.
type Schedules struct {
	Schedules []Schedule `json:"schedules"`
}

// RtMap is the worker-side parsed form: Realtime -> commands, with duplicate
// identical Realtime values merging their command lists (spec §3).
type RtMap struct {
	entries []rtEntry
}

type rtEntry struct {
	rt   Realtime
	cmds []string
}

// BuildRtMap parses every schedule and merges duplicate matchers.
func BuildRtMap(s Schedules) (RtMap, error) {
	var m RtMap
	for _, sched := range s.Schedules {
		rt, err := ParseRealtime(sched.OnCalendar)
		if err != nil {
			return RtMap{}, err
		}
		m.insert(rt, sched.Cmds)
	}
	return m, nil
}

func (m *RtMap) insert(rt Realtime, cmds []string) {
	for i := range m.entries {
		if m.entries[i].rt.Equal(rt) {
			m.entries[i].cmds = append(m.entries[i].cmds, cmds...)
			return
		}
	}
	m.entries = append(m.entries, rtEntry{rt: rt, cmds: append([]string(nil), cmds...)})
}

// Firing pairs a matcher with the commands it fires.
type Firing struct {
	Realtime Realtime
	Cmds     []string
}

// Due returns every entry whose matcher is true for t (spec §4.E).
func (m RtMap) Due(t time.Time) []Firing {
	var out []Firing
	for _, e := range m.entries {
		if e.rt.IsNow(t) {
			out = append(out, Firing{Realtime: e.rt, Cmds: e.cmds})
		}
	}
	return out
}

// Len reports how many distinct matchers are tracked.
func (m RtMap) Len() int { return len(m.entries) }
