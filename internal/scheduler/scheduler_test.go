package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyhorde/barto-sub000/internal/calendar"
)

func buildRtMap(t *testing.T, onCalendar string, cmds []string) calendar.RtMap {
	t.Helper()
	m, err := calendar.BuildRtMap(calendar.Schedules{Schedules: []calendar.Schedule{
		{OnCalendar: onCalendar, Cmds: cmds},
	}})
	require.NoError(t, err)
	return m
}

func TestSchedulerDispatchesDueCommand(t *testing.T) {
	var mu sync.Mutex
	var ran []string

	runner := func(ctx context.Context, cmd string, emit func(string, bool)) (int, error) {
		mu.Lock()
		ran = append(ran, cmd)
		mu.Unlock()
		emit("ok", false)
		return 0, nil
	}

	var records []string
	var recMu sync.Mutex
	onRecord := func(cmd, line string, isStderr bool, exitCode *int) {
		recMu.Lock()
		defer recMu.Unlock()
		if exitCode != nil {
			records = append(records, "exit")
		} else {
			records = append(records, line)
		}
	}

	s := New(runner, Config{Interval: 10 * time.Millisecond}, onRecord)
	s.Initialize(buildRtMap(t, "*-*-* *:*:*", []string{"echo hi"}))

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(ran) > 0
	}, time.Second, 5*time.Millisecond)

	cancel()
	s.Stop()

	mu.Lock()
	assert.Contains(t, ran, "echo hi")
	mu.Unlock()
}

func TestSchedulerReinitializeSwapsMap(t *testing.T) {
	runner := func(ctx context.Context, cmd string, emit func(string, bool)) (int, error) { return 0, nil }
	s := New(runner, Config{Interval: 10 * time.Millisecond}, nil)

	s.Initialize(buildRtMap(t, "*-*-* 0:0:0", []string{"never"}))
	first := s.rtMap.Load()

	s.Initialize(buildRtMap(t, "*-*-* *:*:*", []string{"always"}))
	second := s.rtMap.Load()

	assert.NotSame(t, first, second)
}

func TestSchedulerSkipsTickWithNoMap(t *testing.T) {
	runner := func(ctx context.Context, cmd string, emit func(string, bool)) (int, error) {
		t.Fatal("runner should not be called with no schedule initialized")
		return 0, nil
	}
	s := New(runner, Config{Interval: 5 * time.Millisecond}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	time.Sleep(30 * time.Millisecond)
	cancel()
	s.Stop()
	assert.GreaterOrEqual(t, s.Ticks(), int64(1))
}
