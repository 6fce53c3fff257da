package schedule_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/arena/internal/game/schedule"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestAfter_FiresOnceAtDeadline(t *testing.T) {
	s := schedule.New()
	calls := 0
	task := s.After("start", epoch.Add(3*time.Second), func(time.Time) { calls++ })

	assert.Equal(t, 0, s.Advance(epoch.Add(2*time.Second)))
	assert.Equal(t, 0, calls)

	assert.Equal(t, 1, s.Advance(epoch.Add(3*time.Second)))
	assert.Equal(t, 1, calls)
	assert.True(t, task.Canceled(), "one-shot task must be spent after firing")

	s.Advance(epoch.Add(time.Minute))
	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, s.Pending())
}

func TestEvery_FiresAfterInitialDelayThenPerInterval(t *testing.T) {
	s := schedule.New()
	var fired []time.Time
	s.Every("spawn", epoch.Add(time.Second), 7500*time.Millisecond, func(now time.Time) {
		fired = append(fired, now)
	})

	s.Advance(epoch.Add(500 * time.Millisecond))
	assert.Empty(t, fired)

	s.Advance(epoch.Add(time.Second))
	assert.Len(t, fired, 1)

	s.Advance(epoch.Add(8 * time.Second))
	assert.Len(t, fired, 1)

	s.Advance(epoch.Add(8500 * time.Millisecond))
	assert.Len(t, fired, 2)
}

func TestEvery_CatchesUpMissedIntervals(t *testing.T) {
	s := schedule.New()
	calls := 0
	s.Every("tick", epoch, time.Second, func(time.Time) { calls++ })
	assert.Equal(t, 4, s.Advance(epoch.Add(3*time.Second)))
	assert.Equal(t, 4, calls)
}

func TestCancel_Idempotent(t *testing.T) {
	s := schedule.New()
	calls := 0
	task := s.Every("tick", epoch, time.Second, func(time.Time) { calls++ })
	task.Cancel()
	task.Cancel()
	task.Cancel()
	s.Advance(epoch.Add(10 * time.Second))
	assert.Equal(t, 0, calls)
	assert.Equal(t, 0, s.Pending())
}

func TestCancel_FromOwnCallbackStopsCatchUp(t *testing.T) {
	s := schedule.New()
	calls := 0
	var task *schedule.Task
	task = s.Every("guard", epoch, time.Second, func(time.Time) {
		calls++
		task.Cancel()
	})
	s.Advance(epoch.Add(5 * time.Second))
	assert.Equal(t, 1, calls)
}

func TestCancel_ByEarlierCallbackInSameAdvance(t *testing.T) {
	s := schedule.New()
	spawns := 0
	spawn := s.Every("spawn", epoch.Add(2*time.Second), time.Second, func(time.Time) { spawns++ })
	s.After("end", epoch.Add(time.Second), func(time.Time) { spawn.Cancel() })

	s.Advance(epoch.Add(5 * time.Second))
	assert.Equal(t, 0, spawns, "cancel issued before the first due tick must win")
}

func TestAdvance_OrdersByDeadlineThenRegistration(t *testing.T) {
	s := schedule.New()
	var order []string
	s.After("b", epoch.Add(2*time.Second), func(time.Time) { order = append(order, "b") })
	s.After("a", epoch.Add(time.Second), func(time.Time) { order = append(order, "a") })
	s.After("c", epoch.Add(2*time.Second), func(time.Time) { order = append(order, "c") })
	s.Advance(epoch.Add(2 * time.Second))
	assert.Equal(t, []string{"a", "b", "c"}, order)
}

func TestAdvance_TaskRegisteredByCallbackFiresOnlyWhenDue(t *testing.T) {
	s := schedule.New()
	calls := 0
	s.After("first", epoch, func(now time.Time) {
		s.After("due", now, func(time.Time) { calls++ })
		s.After("later", now.Add(time.Second), func(time.Time) { calls += 10 })
	})
	s.Advance(epoch)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, s.Pending())
}

func TestEvery_PanicsOnNonPositiveInterval(t *testing.T) {
	s := schedule.New()
	assert.Panics(t, func() { s.Every("x", epoch, 0, func(time.Time) {}) })
}

func TestCancelAll(t *testing.T) {
	s := schedule.New()
	a := s.After("a", epoch, func(time.Time) {})
	b := s.Every("b", epoch, time.Second, func(time.Time) {})
	s.CancelAll()
	require.True(t, a.Canceled())
	require.True(t, b.Canceled())
	assert.Equal(t, 0, s.Advance(epoch.Add(time.Hour)))
}

func TestEvery_Property_FireCountMatchesElapsedIntervals(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		delay := time.Duration(rapid.IntRange(0, 5000).Draw(rt, "delay_ms")) * time.Millisecond
		interval := time.Duration(rapid.IntRange(10, 5000).Draw(rt, "interval_ms")) * time.Millisecond
		elapsed := time.Duration(rapid.IntRange(0, 20000).Draw(rt, "elapsed_ms")) * time.Millisecond

		s := schedule.New()
		calls := 0
		s.Every("p", epoch.Add(delay), interval, func(time.Time) { calls++ })
		s.Advance(epoch.Add(elapsed))

		want := 0
		if elapsed >= delay {
			want = int((elapsed-delay)/interval) + 1
		}
		assert.Equal(rt, want, calls)
	})
}
