package coin_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/arena/internal/game/coin"
	"github.com/cory-johannsen/arena/internal/game/dice"
	"github.com/cory-johannsen/arena/internal/game/entity"
)

type fixedSrc struct{ val int }

func (f fixedSrc) Intn(n int) int { return f.val % n }

type coinHandle struct {
	active  bool
	pos     entity.Position
	toggles int
}

func (h *coinHandle) Active() bool { return h.active }
func (h *coinHandle) SetActive(a bool) {
	h.active = a
	h.toggles++
}
func (h *coinHandle) MoveTo(p entity.Position) { h.pos = p }

type recordingSpawner struct {
	handles map[int]*coinHandle
	nilFor  map[int]bool
}

func newSpawner() *recordingSpawner {
	return &recordingSpawner{handles: make(map[int]*coinHandle), nilFor: make(map[int]bool)}
}

func (s *recordingSpawner) SpawnCoin(id int, pos entity.Position, _ int) entity.Handle {
	if s.nilFor[id] {
		return nil
	}
	h := &coinHandle{active: true, pos: pos}
	s.handles[id] = h
	return h
}

func newPool(t *testing.T, cfg coin.Config, src dice.Source, sp coin.Spawner) *coin.Pool {
	t.Helper()
	p, err := coin.NewPool(cfg, src, sp, nil, zap.NewNop())
	require.NoError(t, err)
	return p
}

func TestBatchPolicy_FixedAlwaysMin(t *testing.T) {
	for seed := uint64(0); seed < 50; seed++ {
		assert.Equal(t, 5, coin.PolicyFixed.Size(dice.NewSeededSource(seed), 5, 10))
	}
}

func TestBatchPolicy_UniformHalfOpen(t *testing.T) {
	seen := make(map[int]bool)
	src := dice.NewSeededSource(7)
	for i := 0; i < 2000; i++ {
		n := coin.PolicyUniform.Size(src, 5, 10)
		require.GreaterOrEqual(t, n, 5)
		require.Less(t, n, 10)
		seen[n] = true
	}
	assert.Len(t, seen, 5, "uniform policy must reach every value in [5,10)")
}

func TestBatchPolicy_UniformDegenerateRange(t *testing.T) {
	assert.Equal(t, 3, coin.PolicyUniform.Size(fixedSrc{val: 9}, 3, 3))
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, coin.DefaultConfig().Validate())

	bad := []func(*coin.Config){
		func(c *coin.Config) { c.NumCoinsPerRound = 0 },
		func(c *coin.Config) { c.SpawnMin = -1 },
		func(c *coin.Config) { c.SpawnMax = c.SpawnMin - 1 },
		func(c *coin.Config) { c.FieldExtent = -1 },
		func(c *coin.Config) { c.Policy = "weighted" },
	}
	for i, mutate := range bad {
		cfg := coin.DefaultConfig()
		mutate(&cfg)
		assert.Error(t, cfg.Validate(), "case %d", i)
	}
}

func TestNewPool_RejectsNilCollaborators(t *testing.T) {
	cfg := coin.DefaultConfig()
	_, err := coin.NewPool(cfg, nil, newSpawner(), nil, zap.NewNop())
	assert.Error(t, err)
	_, err = coin.NewPool(cfg, fixedSrc{}, nil, nil, zap.NewNop())
	assert.Error(t, err)
	_, err = coin.NewPool(cfg, fixedSrc{}, newSpawner(), nil, nil)
	assert.Error(t, err)
}

func TestSpawnBatch_NotPlayingCancelsWithoutSpawning(t *testing.T) {
	p := newPool(t, coin.DefaultConfig(), fixedSrc{}, newSpawner())
	spawned, cancel := p.SpawnBatch(1, false)
	assert.True(t, cancel)
	assert.Empty(t, spawned)
	assert.Equal(t, 0, p.InPlay())
}

func TestSpawnBatch_IDsValuesAndPositions(t *testing.T) {
	cfg := coin.DefaultConfig()
	cfg.Policy = coin.PolicyFixed
	sp := newSpawner()
	p := newPool(t, cfg, dice.NewSeededSource(3), sp)

	spawned, cancel := p.SpawnBatch(2, true)
	require.False(t, cancel)
	require.Len(t, spawned, 5)
	for i, c := range spawned {
		assert.Equal(t, i+cfg.NumCoinsPerRound*2, c.ID)
		assert.Equal(t, cfg.BaseValue*2, c.Value)
		assert.True(t, c.Active)
		assert.Equal(t, c.Position, sp.handles[c.ID].pos)
	}
	assert.Equal(t, 5, p.InPlay())
}

func TestSpawnBatch_CapsRoundAtNumCoinsPerRound(t *testing.T) {
	cfg := coin.DefaultConfig()
	cfg.Policy = coin.PolicyFixed
	cfg.NumCoinsPerRound = 8
	p := newPool(t, cfg, fixedSrc{}, newSpawner())

	first, _ := p.SpawnBatch(1, true)
	second, _ := p.SpawnBatch(1, true)
	third, _ := p.SpawnBatch(1, true)

	assert.Len(t, first, 5)
	assert.Len(t, second, 3)
	assert.Empty(t, third)
	assert.Equal(t, 15, second[len(second)-1].ID, "IDs continue the round's sequence across batches")
}

func TestSpawnBatch_SequenceRestartsEachRound(t *testing.T) {
	cfg := coin.DefaultConfig()
	cfg.Policy = coin.PolicyFixed
	p := newPool(t, cfg, fixedSrc{}, newSpawner())

	p.SpawnBatch(1, true)
	p.DeleteAll()
	spawned, _ := p.SpawnBatch(2, true)
	require.NotEmpty(t, spawned)
	assert.Equal(t, 20, spawned[0].ID)
}

func TestSpawnBatch_NilHandleIsSilent(t *testing.T) {
	cfg := coin.DefaultConfig()
	cfg.Policy = coin.PolicyFixed
	sp := newSpawner()
	sp.nilFor[11] = true
	p := newPool(t, cfg, fixedSrc{}, sp)

	spawned, _ := p.SpawnBatch(1, true)
	require.Len(t, spawned, 5, "spawning continues past a coin without a handle")
	assert.True(t, p.Reset(11))
	assert.True(t, p.Delete(11))
	assert.Equal(t, 4, p.InPlay())
}

func TestReset_RepositionsAndCyclesHandle(t *testing.T) {
	cfg := coin.DefaultConfig()
	cfg.Policy = coin.PolicyFixed
	sp := newSpawner()
	p := newPool(t, cfg, dice.NewSeededSource(11), sp)
	spawned, _ := p.SpawnBatch(1, true)
	id := spawned[0].ID
	h := sp.handles[id]

	require.True(t, p.Reset(id))

	c, ok := p.Get(id)
	require.True(t, ok)
	assert.Equal(t, c.Position, h.pos)
	assert.True(t, h.active)
	assert.Equal(t, 2, h.toggles, "reset cycles the flag off then on")
	assert.Equal(t, id, c.ID)
}

func TestReset_UnknownCoin(t *testing.T) {
	p := newPool(t, coin.DefaultConfig(), fixedSrc{}, newSpawner())
	assert.False(t, p.Reset(99))
}

func TestResetAll_TouchesEveryActiveCoin(t *testing.T) {
	cfg := coin.DefaultConfig()
	cfg.Policy = coin.PolicyFixed
	sp := newSpawner()
	p := newPool(t, cfg, fixedSrc{}, sp)
	p.SpawnBatch(1, true)
	p.ResetAll()
	for _, h := range sp.handles {
		assert.Equal(t, 2, h.toggles)
	}
}

func TestDelete_Idempotent(t *testing.T) {
	cfg := coin.DefaultConfig()
	cfg.Policy = coin.PolicyFixed
	sp := newSpawner()
	p := newPool(t, cfg, fixedSrc{}, sp)
	spawned, _ := p.SpawnBatch(1, true)
	id := spawned[2].ID

	assert.True(t, p.Delete(id))
	assert.False(t, p.Delete(id))
	assert.False(t, sp.handles[id].active)
	_, ok := p.Get(id)
	assert.False(t, ok)
	assert.Equal(t, 4, p.InPlay())
}

func TestDeleteAll_EmptiesActiveSetAndReusesSlots(t *testing.T) {
	cfg := coin.DefaultConfig()
	cfg.Policy = coin.PolicyFixed
	sp := newSpawner()
	p := newPool(t, cfg, fixedSrc{}, sp)

	p.SpawnBatch(1, true)
	assert.Equal(t, 5, p.DeleteAll())
	assert.Equal(t, 0, p.InPlay())
	assert.Empty(t, p.Active())
	for _, h := range sp.handles {
		assert.False(t, h.active)
	}

	p.SpawnBatch(2, true)
	assert.Equal(t, 5, p.Capacity(), "freed slots are reused")
}

func TestLinearValuer(t *testing.T) {
	assert.Equal(t, 30, coin.LinearValuer{}.Value(10, 3))
}

func TestRandomInFieldPosition_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		seed := rapid.Uint64().Draw(rt, "seed")
		cfg := coin.DefaultConfig()
		p, err := coin.NewPool(cfg, dice.NewSeededSource(seed), newSpawner(), nil, zap.NewNop())
		require.NoError(rt, err)
		for i := 0; i < 20; i++ {
			pos := p.RandomInFieldPosition()
			assert.GreaterOrEqual(rt, pos.X, -20.0)
			assert.LessOrEqual(rt, pos.X, 20.0)
			assert.GreaterOrEqual(rt, pos.Z, -20.0)
			assert.LessOrEqual(rt, pos.Z, 20.0)
			assert.Equal(rt, 6.0, pos.Y)
		}
	})
}

func TestRandomInFieldPosition_ReproducibleFromSeed(t *testing.T) {
	a := newPool(t, coin.DefaultConfig(), dice.NewSeededSource(99), newSpawner())
	b := newPool(t, coin.DefaultConfig(), dice.NewSeededSource(99), newSpawner())
	for i := 0; i < 10; i++ {
		assert.Equal(t, a.RandomInFieldPosition(), b.RandomInFieldPosition())
	}
}

// TestCoinIDs_Property_UniqueAcrossMatch spawns over many rounds and checks no
// coin ID repeats.
func TestCoinIDs_Property_UniqueAcrossMatch(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		cfg := coin.DefaultConfig()
		cfg.NumCoinsPerRound = rapid.IntRange(1, 12).Draw(rt, "per_round")
		cfg.SpawnMin = rapid.IntRange(0, 6).Draw(rt, "min")
		cfg.SpawnMax = rapid.IntRange(cfg.SpawnMin, 12).Draw(rt, "max")
		rounds := rapid.IntRange(1, 8).Draw(rt, "rounds")
		ticks := rapid.IntRange(1, 4).Draw(rt, "ticks")

		p, err := coin.NewPool(cfg, dice.NewSeededSource(rapid.Uint64().Draw(rt, "seed")), newSpawner(), nil, zap.NewNop())
		require.NoError(rt, err)

		seen := make(map[int]bool)
		for r := 1; r <= rounds; r++ {
			for k := 0; k < ticks; k++ {
				spawned, _ := p.SpawnBatch(r, true)
				for _, c := range spawned {
					assert.False(rt, seen[c.ID], "duplicate coin id %d", c.ID)
					seen[c.ID] = true
					i := c.ID - cfg.NumCoinsPerRound*r
					assert.GreaterOrEqual(rt, i, 0)
					assert.Less(rt, i, cfg.NumCoinsPerRound)
				}
			}
			p.DeleteAll()
			assert.Equal(rt, 0, p.InPlay())
		}
	})
}
