// Package registry holds the fixed, ordered set of player-controlled
// combatants in a match and their per-match scores.
package registry

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/arena/internal/game/entity"
)

// ErrInvalidCombatant is returned by New when a combatant is missing a
// required collaborator or has a malformed identity.
var ErrInvalidCombatant = errors.New("registry: invalid combatant")

// Combatant is one player slot in a match.
//
// Invariant: Wins never decreases during a match.
type Combatant struct {
	// Index is the stable 1-based player number, assigned in registration order.
	Index int
	// Label is the plain-text name used in end-of-round messages.
	Label string
	// Color is an optional hex color used by displays when rendering Label.
	Color string
	// Wins is the number of rounds this combatant has won in the match.
	Wins int
	// Spawn is where the combatant is placed at the start of every round.
	Spawn entity.Position
	// Handle is the combatant's presentation object; its active flag is liveness.
	Handle entity.Handle
	// Control receives enable/disable calls for player input.
	Control entity.Control
}

// Alive reports whether the combatant is still in the current round.
func (c *Combatant) Alive() bool { return c.Handle.Active() }

// Reset returns the combatant to its spawn point and marks it alive.
//
// Postcondition: c.Alive() is true.
func (c *Combatant) Reset() {
	c.Handle.SetActive(false)
	c.Handle.MoveTo(c.Spawn)
	c.Handle.SetActive(true)
}

// Registry is the ordered list of combatants for one match. It is not safe
// for concurrent mutation; the match machine is its single writer.
type Registry struct {
	combatants []*Combatant
}

// New builds a Registry from cs in registration order and assigns each
// combatant its 1-based Index.
//
// Precondition: len(cs) >= 1; every combatant has a non-nil Handle and Control
// and a non-empty Label.
// Postcondition: Returns a Registry or an error wrapping ErrInvalidCombatant.
func New(cs ...*Combatant) (*Registry, error) {
	if len(cs) == 0 {
		return nil, fmt.Errorf("%w: at least one combatant is required", ErrInvalidCombatant)
	}
	for i, c := range cs {
		switch {
		case c == nil:
			return nil, fmt.Errorf("%w: slot %d is nil", ErrInvalidCombatant, i+1)
		case c.Label == "":
			return nil, fmt.Errorf("%w: slot %d has an empty label", ErrInvalidCombatant, i+1)
		case c.Handle == nil:
			return nil, fmt.Errorf("%w: %q has no presentation handle", ErrInvalidCombatant, c.Label)
		case c.Control == nil:
			return nil, fmt.Errorf("%w: %q has no input control", ErrInvalidCombatant, c.Label)
		}
		c.Index = i + 1
	}
	return &Registry{combatants: append([]*Combatant(nil), cs...)}, nil
}

// All returns the combatants in registration order. The slice is a copy;
// the combatants are shared.
func (r *Registry) All() []*Combatant {
	return append([]*Combatant(nil), r.combatants...)
}

// Len returns the number of registered combatants.
func (r *Registry) Len() int { return len(r.combatants) }

// ByIndex returns the combatant with the given 1-based player index.
//
// Postcondition: Returns (c, true) if found, or (nil, false) otherwise.
func (r *Registry) ByIndex(index int) (*Combatant, bool) {
	if index < 1 || index > len(r.combatants) {
		return nil, false
	}
	return r.combatants[index-1], true
}

// ResetAll resets every combatant to alive at its spawn point.
func (r *Registry) ResetAll() {
	for _, c := range r.combatants {
		c.Reset()
	}
}

// EnableControl enables input for every combatant.
func (r *Registry) EnableControl() {
	for _, c := range r.combatants {
		c.Control.Enable()
	}
}

// DisableControl disables input for every combatant.
func (r *Registry) DisableControl() {
	for _, c := range r.combatants {
		c.Control.Disable()
	}
}

// AliveCount returns how many combatants are currently alive.
func (r *Registry) AliveCount() int {
	n := 0
	for _, c := range r.combatants {
		if c.Alive() {
			n++
		}
	}
	return n
}

// OneOrFewerAlive reports whether the round-over condition holds.
func (r *Registry) OneOrFewerAlive() bool { return r.AliveCount() <= 1 }

// Viewpoints returns the presentation handles the camera should frame.
func (r *Registry) Viewpoints() []entity.Handle {
	out := make([]entity.Handle, 0, len(r.combatants))
	for _, c := range r.combatants {
		out = append(out, c.Handle)
	}
	return out
}
