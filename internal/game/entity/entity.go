// Package entity holds the value types and collaborator contracts shared by
// the arena's registry, coin pool, and match packages.
package entity

import "fmt"

// Position is a point in arena world space. Y is the vertical axis.
type Position struct {
	X float64
	Y float64
	Z float64
}

// String returns the position in "(x, y, z)" format.
func (p Position) String() string {
	return fmt.Sprintf("(%g, %g, %g)", p.X, p.Y, p.Z)
}

// Handle is the presentation-side object backing a combatant or coin.
// Its active flag is the source of truth for combatant liveness.
//
// Implementations MUST be safe for concurrent use when gameplay code
// mutates them outside the match goroutine.
type Handle interface {
	// Active reports whether the object is currently live in the world.
	Active() bool
	// SetActive activates or deactivates the object.
	SetActive(active bool)
	// MoveTo repositions the object.
	MoveTo(pos Position)
}

// Control is the per-combatant input collaborator.
type Control interface {
	Enable()
	Disable()
}
