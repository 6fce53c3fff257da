package host_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/arena/internal/game/coin"
	"github.com/cory-johannsen/arena/internal/game/dice"
	"github.com/cory-johannsen/arena/internal/game/entity"
	"github.com/cory-johannsen/arena/internal/game/match"
	"github.com/cory-johannsen/arena/internal/game/registry"
	"github.com/cory-johannsen/arena/internal/host"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

type arena struct {
	m      *match.Machine
	reg    *registry.Registry
	tanks  []*host.Tank
	world  *host.World
	menu   *host.Menu
	camera *host.Camera
}

func newArena(t require.TestingT, players int, src dice.Source) *arena {
	a := &arena{world: host.NewWorld(), menu: host.NewMenu(), camera: &host.Camera{}}
	cs := make([]*registry.Combatant, players)
	for i := range cs {
		tank := host.NewTank(string(rune('A' + i)))
		a.tanks = append(a.tanks, tank)
		cs[i] = &registry.Combatant{Label: tank.Label(), Handle: tank, Control: tank, Spawn: entity.Position{X: float64(i)}}
	}
	var err error
	a.reg, err = registry.New(cs...)
	require.NoError(t, err)
	pool, err := coin.NewPool(coin.DefaultConfig(), src, a.world, nil, zap.NewNop())
	require.NoError(t, err)
	a.m, err = match.New(match.DefaultConfig(), a.reg, pool, match.Collaborators{
		Camera:  a.camera,
		Display: host.NewConsole(&discard{}, a.reg.All()),
		Scenes:  a.menu,
		Sweeper: a.world,
	}, zap.NewNop())
	require.NoError(t, err)
	return a
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func TestSimulatedClock_StepsWithoutSleeping(t *testing.T) {
	c := host.NewSimulatedClock(epoch, 20*time.Millisecond)
	for i := 0; i < 50; i++ {
		require.NoError(t, c.Wait(context.Background()))
	}
	assert.Equal(t, epoch.Add(time.Second), c.Now())
}

func TestSimulatedClock_StopsOnCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := host.NewSimulatedClock(epoch, time.Millisecond)
	assert.ErrorIs(t, c.Wait(ctx), context.Canceled)
	assert.Equal(t, epoch, c.Now())
}

func TestRealtimeClock_WaitHonorsContext(t *testing.T) {
	c := host.NewRealtimeClock(time.Hour)
	defer c.Stop()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, c.Wait(ctx), context.DeadlineExceeded)
}

func TestPlay_RunsToGameWinner(t *testing.T) {
	a := newArena(t, 2, dice.NewSeededSource(5))
	clock := host.NewSimulatedClock(epoch, 100*time.Millisecond)

	// B is knocked out on the first frame of every round's play.
	step := func(time.Time) {
		if a.m.Snapshot().Phase == match.PhaseRoundPlaying {
			a.tanks[1].Eliminate()
		}
	}
	state, err := host.Play(context.Background(), a.m, clock, step)
	require.NoError(t, err)

	assert.Equal(t, match.PhaseFinished, state.Phase)
	require.NotNil(t, state.GameWinner)
	assert.Equal(t, "A", state.GameWinner.Label)
	assert.Equal(t, 3, state.Round)
	assert.Equal(t, 1, a.menu.Calls())
	assert.Equal(t, 3, a.camera.Snaps())
	assert.Equal(t, 2, a.camera.Targets())
}

func TestPlay_CanceledContextAbortsMatch(t *testing.T) {
	a := newArena(t, 2, dice.NewSeededSource(5))
	ctx, cancel := context.WithCancel(context.Background())
	frames := 0
	step := func(time.Time) {
		frames++
		if frames == 10 {
			cancel()
		}
	}
	state, err := host.Play(ctx, a.m, host.NewSimulatedClock(epoch, 100*time.Millisecond), step)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, match.PhaseFinished, state.Phase)
	assert.Nil(t, state.GameWinner)
	assert.Equal(t, 0, a.menu.Calls())
	assert.Equal(t, 0, state.CoinsInPlay)
}

func TestDriver_EliminatesUntilOneRemains(t *testing.T) {
	a := newArena(t, 4, dice.NewSeededSource(8))
	d := host.NewDriver(a.m, a.reg, a.world, dice.NewSeededSource(9), 1, 20, zap.NewNop())
	clock := host.NewSimulatedClock(epoch, 100*time.Millisecond)
	require.NoError(t, a.m.Start(clock.Now()))

	for a.m.Snapshot().Phase != match.PhaseRoundEnding {
		require.NoError(t, clock.Wait(context.Background()))
		d.Step(clock.Now())
		a.m.Tick(clock.Now())
	}
	assert.Equal(t, 1, a.reg.AliveCount())
	assert.Equal(t, 0, a.world.Tagged(match.NPCTag), "drones are swept at round end")
}

func TestDriver_IdleOutsidePlay(t *testing.T) {
	a := newArena(t, 2, dice.NewSeededSource(8))
	d := host.NewDriver(a.m, a.reg, a.world, dice.NewSeededSource(9), 1, 20, zap.NewNop())
	require.NoError(t, a.m.Start(epoch))
	d.Step(epoch)
	assert.Equal(t, 2, a.reg.AliveCount())
	assert.Equal(t, 0, a.world.Tagged(match.NPCTag))
}

func TestDriver_PickupCreditsPurse(t *testing.T) {
	a := newArena(t, 2, dice.NewSeededSource(8))
	// odds of 1 make every pickup draw succeed
	d := host.NewDriver(a.m, a.reg, a.world, dice.NewSeededSource(9), 1, 20, zap.NewNop())
	require.NoError(t, a.m.Start(epoch))
	a.m.Tick(epoch.Add(3 * time.Second))
	require.Equal(t, match.PhaseRoundPlaying, a.m.Snapshot().Phase)
	before := a.m.Snapshot().CoinsInPlay
	require.Positive(t, before)

	d.Step(epoch.Add(3 * time.Second))

	total := 0
	for _, v := range d.Purses() {
		total += v
	}
	assert.Equal(t, coin.DefaultConfig().BaseValue, total, "one round-1 coin collected")
	assert.Equal(t, before-1, a.m.Snapshot().CoinsInPlay)
}

func TestPlay_Property_MatchAlwaysFinishesWithThresholdWinner(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		seed := rapid.Uint64().Draw(rt, "seed")
		players := rapid.IntRange(2, 4).Draw(rt, "players")
		src := dice.NewSeededSource(seed)
		a := newArena(rt, players, src)
		d := host.NewDriver(a.m, a.reg, a.world, src, 5, 20, zap.NewNop())

		state, err := host.Play(context.Background(), a.m, host.NewSimulatedClock(epoch, 100*time.Millisecond), d.Step)
		require.NoError(rt, err)
		require.NotNil(rt, state.GameWinner)
		assert.Equal(rt, match.DefaultConfig().RoundsToWin, state.GameWinner.Wins)
		for _, c := range a.reg.All() {
			assert.LessOrEqual(rt, c.Wins, match.DefaultConfig().RoundsToWin)
		}
		assert.Equal(rt, 1, a.menu.Calls())
	})
}
