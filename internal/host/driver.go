package host

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/arena/internal/game/dice"
	"github.com/cory-johannsen/arena/internal/game/entity"
	"github.com/cory-johannsen/arena/internal/game/match"
	"github.com/cory-johannsen/arena/internal/game/registry"
)

// Driver stands in for players and physics. Each frame of play it may have
// a live tank pick up a coin, release a tagged drone into the arena, or
// eliminate a live tank, each with a 1-in-N chance drawn from src.
//
// Driver must be stepped from the same goroutine that ticks the machine.
type Driver struct {
	m      *match.Machine
	reg    *registry.Registry
	world  *World
	src    dice.Source
	odds   int
	extent int
	logger *zap.Logger

	mu     sync.Mutex
	purses map[string]int
}

// NewDriver returns a Driver for one match.
//
// Precondition: every argument must be non-nil; odds >= 1; extent >= 0.
func NewDriver(m *match.Machine, reg *registry.Registry, world *World, src dice.Source, odds, extent int, logger *zap.Logger) *Driver {
	return &Driver{
		m:      m,
		reg:    reg,
		world:  world,
		src:    src,
		odds:   odds,
		extent: extent,
		logger: logger,
		purses: make(map[string]int),
	}
}

// Step simulates one frame at now. It does nothing outside RoundPlaying.
func (d *Driver) Step(now time.Time) {
	if d.m.Snapshot().Phase != match.PhaseRoundPlaying {
		return
	}
	alive := d.aliveTanks()
	if len(alive) == 0 {
		return
	}

	// Pickups are four times as likely as eliminations so rounds see coins move.
	if d.src.Intn(d.odds) < 4 {
		d.pickup(alive[d.src.Intn(len(alive))])
	}
	if d.src.Intn(d.odds) == 0 {
		pos := entity.Position{
			X: float64(dice.Between(d.src, -d.extent, d.extent)),
			Z: float64(dice.Between(d.src, -d.extent, d.extent)),
		}
		d.world.SpawnTagged(match.NPCTag, pos)
	}
	if len(alive) > 1 && d.src.Intn(d.odds) == 0 {
		t := alive[d.src.Intn(len(alive))]
		if t.Eliminate() {
			d.logger.Debug("tank eliminated", zap.String("label", t.Label()), zap.Time("at", now))
		}
	}
}

func (d *Driver) pickup(t *Tank) {
	coins := d.m.ActiveCoins()
	if len(coins) == 0 {
		return
	}
	c, ok := d.m.CollectCoin(coins[d.src.Intn(len(coins))].ID)
	if !ok {
		return
	}
	d.mu.Lock()
	d.purses[t.Label()] += c.Value
	d.mu.Unlock()
}

func (d *Driver) aliveTanks() []*Tank {
	var out []*Tank
	for _, c := range d.reg.All() {
		if t, ok := c.Handle.(*Tank); ok && c.Alive() {
			out = append(out, t)
		}
	}
	return out
}

// Purse returns the total coin value label has collected this match.
func (d *Driver) Purse(label string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.purses[label]
}

// Purses returns a copy of every purse.
func (d *Driver) Purses() map[string]int {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make(map[string]int, len(d.purses))
	for k, v := range d.purses {
		out[k] = v
	}
	return out
}
