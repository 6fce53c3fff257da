package coin

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/arena/internal/game/dice"
	"github.com/cory-johannsen/arena/internal/game/entity"
)

// Pool is a slot arena of coins with a free list and an ordered active set.
//
// Invariant: every slot index is in exactly one of free or active, or has
// never been allocated (index >= len(slots)).
//
// Concurrency: Pool is not safe for concurrent use. The match machine is its
// single writer and serializes every call.
type Pool struct {
	cfg     Config
	src     dice.Source
	spawner Spawner
	valuer  Valuer
	logger  *zap.Logger

	slots  []Coin
	free   []int
	active []int       // slot indices in spawn order
	byID   map[int]int // coin ID → slot

	seqRound int // round the spawn sequence belongs to
	seq      int // coins spawned so far in seqRound
}

// NewPool creates an empty Pool.
//
// Precondition: src, spawner, and logger must be non-nil; cfg must validate.
// A nil valuer defaults to LinearValuer.
// Postcondition: Returns a Pool or a configuration error.
func NewPool(cfg Config, src dice.Source, spawner Spawner, valuer Valuer, logger *zap.Logger) (*Pool, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if src == nil {
		return nil, fmt.Errorf("coin: random source must not be nil")
	}
	if spawner == nil {
		return nil, fmt.Errorf("coin: spawner must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("coin: logger must not be nil")
	}
	if valuer == nil {
		valuer = LinearValuer{}
	}
	return &Pool{
		cfg:     cfg,
		src:     src,
		spawner: spawner,
		valuer:  valuer,
		logger:  logger,
		byID:    make(map[int]int),
	}, nil
}

// RandomInFieldPosition returns a placement with X and Z uniform integers in
// [-FieldExtent, FieldExtent] and Y fixed at SpawnHeight.
func (p *Pool) RandomInFieldPosition() entity.Position {
	ext := p.cfg.FieldExtent
	return entity.Position{
		X: float64(dice.Between(p.src, -ext, ext)),
		Y: p.cfg.SpawnHeight,
		Z: float64(dice.Between(p.src, -ext, ext)),
	}
}

// SpawnBatch places one batch of coins for round.
//
// When playing is false nothing is spawned and cancel is true, telling the
// caller to stop the recurring spawn task.
//
// Postcondition: at most NumCoinsPerRound coins carry IDs from round; every
// returned coin is active and present in Active().
func (p *Pool) SpawnBatch(round int, playing bool) (spawned []Coin, cancel bool) {
	if !playing {
		return nil, true
	}
	if p.seqRound != round {
		p.seqRound = round
		p.seq = 0
	}

	n := p.cfg.Policy.Size(p.src, p.cfg.SpawnMin, p.cfg.SpawnMax)
	if remaining := p.cfg.NumCoinsPerRound - p.seq; n > remaining {
		n = remaining
	}

	for i := 0; i < n; i++ {
		c := Coin{
			ID:       p.seq + p.cfg.NumCoinsPerRound*round,
			Round:    round,
			Value:    p.valuer.Value(p.cfg.BaseValue, round),
			Position: p.RandomInFieldPosition(),
			Active:   true,
		}
		c.handle = p.spawner.SpawnCoin(c.ID, c.Position, c.Value)
		p.insert(c)
		p.seq++
		spawned = append(spawned, c)
	}

	p.logger.Debug("spawned coin batch",
		zap.Int("round", round),
		zap.Int("count", len(spawned)),
		zap.Int("in_play", len(p.active)),
	)
	return spawned, false
}

func (p *Pool) insert(c Coin) {
	var slot int
	if k := len(p.free); k > 0 {
		slot = p.free[k-1]
		p.free = p.free[:k-1]
		p.slots[slot] = c
	} else {
		slot = len(p.slots)
		p.slots = append(p.slots, c)
	}
	p.active = append(p.active, slot)
	p.byID[c.ID] = slot
}

// Reset moves the active coin id to a new random position and cycles its
// handle off and on so presentation state refreshes. Identity is kept.
//
// Postcondition: Returns false when id is not an active coin.
func (p *Pool) Reset(id int) bool {
	slot, ok := p.byID[id]
	if !ok {
		return false
	}
	c := &p.slots[slot]
	c.Position = p.RandomInFieldPosition()
	if c.handle != nil {
		c.handle.MoveTo(c.Position)
		c.handle.SetActive(false)
		c.handle.SetActive(true)
	}
	return true
}

// ResetAll resets every active coin.
func (p *Pool) ResetAll() {
	for _, slot := range p.active {
		p.Reset(p.slots[slot].ID)
	}
}

// Delete retires the coin id: marks it inactive, deactivates its handle, and
// frees its slot. Deleting an unknown or already deleted coin is a no-op.
//
// Postcondition: Returns true iff the coin was active.
func (p *Pool) Delete(id int) bool {
	slot, ok := p.byID[id]
	if !ok {
		return false
	}
	c := &p.slots[slot]
	c.Active = false
	if c.handle != nil {
		c.handle.SetActive(false)
	}
	c.handle = nil
	delete(p.byID, id)
	for i, s := range p.active {
		if s == slot {
			p.active = append(p.active[:i], p.active[i+1:]...)
			break
		}
	}
	p.free = append(p.free, slot)
	return true
}

// DeleteAll retires every active coin, collected or not.
//
// Postcondition: InPlay() == 0. Returns the number of coins retired.
func (p *Pool) DeleteAll() int {
	n := len(p.active)
	for _, slot := range p.active {
		c := &p.slots[slot]
		c.Active = false
		if c.handle != nil {
			c.handle.SetActive(false)
		}
		c.handle = nil
		delete(p.byID, c.ID)
		p.free = append(p.free, slot)
	}
	p.active = p.active[:0]
	return n
}

// Get returns a copy of the active coin id.
//
// Postcondition: Returns (coin, true) if active, or (Coin{}, false) otherwise.
func (p *Pool) Get(id int) (Coin, bool) {
	slot, ok := p.byID[id]
	if !ok {
		return Coin{}, false
	}
	return p.slots[slot], true
}

// Active returns copies of the active coins in spawn order.
func (p *Pool) Active() []Coin {
	out := make([]Coin, 0, len(p.active))
	for _, slot := range p.active {
		out = append(out, p.slots[slot])
	}
	return out
}

// InPlay returns the number of active coins.
func (p *Pool) InPlay() int { return len(p.active) }

// Capacity returns the number of slots allocated so far, active or free.
func (p *Pool) Capacity() int { return len(p.slots) }
