package host

import (
	"context"
	"time"

	"github.com/cory-johannsen/arena/internal/game/match"
)

// Clock paces the frame loop.
type Clock interface {
	// Now returns the current frame time.
	Now() time.Time
	// Wait blocks until the next frame or until ctx is done.
	Wait(ctx context.Context) error
}

// RealtimeClock paces frames against the wall clock.
type RealtimeClock struct {
	ticker *time.Ticker
}

// NewRealtimeClock returns a clock that yields one frame per interval.
//
// Precondition: interval must be > 0.
func NewRealtimeClock(interval time.Duration) *RealtimeClock {
	return &RealtimeClock{ticker: time.NewTicker(interval)}
}

// Now returns the wall-clock time.
func (c *RealtimeClock) Now() time.Time { return time.Now() }

// Wait blocks until the next tick.
func (c *RealtimeClock) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.ticker.C:
		return nil
	}
}

// Stop releases the ticker.
func (c *RealtimeClock) Stop() { c.ticker.Stop() }

// SimulatedClock advances by a fixed step on every Wait without sleeping.
type SimulatedClock struct {
	now  time.Time
	step time.Duration
}

// NewSimulatedClock returns a clock starting at start.
//
// Precondition: step must be > 0.
func NewSimulatedClock(start time.Time, step time.Duration) *SimulatedClock {
	return &SimulatedClock{now: start, step: step}
}

// Now returns the simulated time.
func (c *SimulatedClock) Now() time.Time { return c.now }

// Wait advances one step.
func (c *SimulatedClock) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.now = c.now.Add(c.step)
	return nil
}

// Play starts m and ticks it once per frame until the match is over or ctx
// is done. step, if non-nil, runs before every Tick. A canceled match is
// aborted.
//
// Postcondition: on a nil error the returned state's Phase is PhaseFinished
// with a game winner.
func Play(ctx context.Context, m *match.Machine, clock Clock, step func(time.Time)) (match.State, error) {
	if err := m.Start(clock.Now()); err != nil {
		return m.Snapshot(), err
	}
	for {
		if err := clock.Wait(ctx); err != nil {
			m.Abort()
			return m.Snapshot(), err
		}
		now := clock.Now()
		if step != nil {
			step(now)
		}
		if m.Tick(now) == match.SignalMatchOver {
			return m.Snapshot(), nil
		}
	}
}

var startOfSimulation = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
