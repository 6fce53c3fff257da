// Package dice provides the randomness abstraction used for coin placement
// and batch sizing in the arena.
package dice

import "fmt"

// Source is the randomness provider for every random draw in a match.
//
// Implementations MUST be safe for concurrent use.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
}

// Range returns a random int in the half-open interval [lo, hi).
// When hi <= lo the interval is degenerate and lo is returned without
// consuming a draw.
//
// Precondition: src must be non-nil.
// Postcondition: lo <= result < hi, or result == lo when hi <= lo.
func Range(src Source, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + src.Intn(hi-lo)
}

// Between returns a random int in the closed interval [lo, hi].
//
// Precondition: src must be non-nil; lo <= hi. Panics otherwise.
// Postcondition: lo <= result <= hi.
func Between(src Source, lo, hi int) int {
	if hi < lo {
		panic(fmt.Sprintf("dice: Between called with hi %d < lo %d", hi, lo))
	}
	return lo + src.Intn(hi-lo+1)
}
