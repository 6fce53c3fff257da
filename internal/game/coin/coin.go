// Package coin manages the collectible coins spawned during a round.
// The Pool exclusively owns the active-coin collection.
package coin

import (
	"fmt"

	"github.com/cory-johannsen/arena/internal/game/dice"
	"github.com/cory-johannsen/arena/internal/game/entity"
)

// BatchPolicy selects how many coins a spawn tick places.
type BatchPolicy string

const (
	// PolicyUniform draws the batch size uniformly from [min, max).
	PolicyUniform BatchPolicy = "uniform"
	// PolicyFixed always uses min, matching the shipped game's behavior
	// where the draw range collapsed to a single value.
	PolicyFixed BatchPolicy = "fixed"
)

// Size draws a batch size for this policy.
//
// Precondition: src must be non-nil; 0 <= lo.
// Postcondition: PolicyFixed returns lo; PolicyUniform returns a value in
// [lo, hi), or lo when hi <= lo.
func (p BatchPolicy) Size(src dice.Source, lo, hi int) int {
	if p == PolicyFixed {
		return lo
	}
	return dice.Range(src, lo, hi)
}

// Valid reports whether p is a known policy.
func (p BatchPolicy) Valid() bool {
	return p == PolicyUniform || p == PolicyFixed
}

// Coin is a collectible placed in the world for at most one round.
type Coin struct {
	// ID is unique within a match: seq + NumCoinsPerRound*Round.
	ID int
	// Round is the round the coin was spawned in.
	Round int
	// Value is the coin's monetary worth.
	Value int
	// Position is where the coin currently sits.
	Position entity.Position
	// Active is true while the coin is in play.
	Active bool

	handle entity.Handle
}

// Spawner instantiates the presentation object for a new coin.
// Returning nil is allowed; operations on that coin become no-ops.
type Spawner interface {
	SpawnCoin(id int, pos entity.Position, value int) entity.Handle
}

// Valuer computes the worth of a coin spawned in a given round.
type Valuer interface {
	Value(base, round int) int
}

// LinearValuer values coins at base*round.
//
// This is the placeholder valuation carried until game modes define their own.
type LinearValuer struct{}

// Value returns base*round.
func (LinearValuer) Value(base, round int) int { return base * round }

// Config holds the coin pool tunables.
type Config struct {
	// NumCoinsPerRound caps how many coins one round may spawn and sets
	// the stride of the ID space.
	NumCoinsPerRound int
	// BaseValue is the coin's value before round scaling.
	BaseValue int
	// SpawnMin and SpawnMax bound the per-tick batch size.
	SpawnMin int
	SpawnMax int
	// Policy selects how the batch size is drawn.
	Policy BatchPolicy
	// FieldExtent bounds horizontal placement to [-FieldExtent, FieldExtent].
	FieldExtent int
	// SpawnHeight is the fixed vertical coordinate of placed coins.
	SpawnHeight float64
}

// DefaultConfig returns the shipped game's tuning.
func DefaultConfig() Config {
	return Config{
		NumCoinsPerRound: 10,
		BaseValue:        10,
		SpawnMin:         5,
		SpawnMax:         10,
		Policy:           PolicyUniform,
		FieldExtent:      20,
		SpawnHeight:      6,
	}
}

// Validate checks the configuration invariants.
//
// Postcondition: Returns nil iff NumCoinsPerRound >= 1, 0 <= SpawnMin <= SpawnMax,
// FieldExtent >= 0, and Policy is known.
func (c Config) Validate() error {
	switch {
	case c.NumCoinsPerRound < 1:
		return fmt.Errorf("coin: num_coins_per_round must be >= 1, got %d", c.NumCoinsPerRound)
	case c.SpawnMin < 0:
		return fmt.Errorf("coin: spawn_min must be >= 0, got %d", c.SpawnMin)
	case c.SpawnMax < c.SpawnMin:
		return fmt.Errorf("coin: spawn_max %d must not be less than spawn_min %d", c.SpawnMax, c.SpawnMin)
	case c.FieldExtent < 0:
		return fmt.Errorf("coin: field_extent must be >= 0, got %d", c.FieldExtent)
	case !c.Policy.Valid():
		return fmt.Errorf("coin: unknown batch policy %q", c.Policy)
	}
	return nil
}
