// Package outcome decides round and game winners from registry state and
// builds the end-of-round message. All functions are pure apart from
// reading combatant liveness.
package outcome

import (
	"errors"
	"strconv"
	"strings"

	"github.com/cory-johannsen/arena/internal/game/registry"
)

// ErrRoundInProgress is returned by RoundWinner when more than one
// combatant is still alive.
var ErrRoundInProgress = errors.New("outcome: more than one combatant alive")

// RoundWinner returns the sole alive combatant, or nil when none are alive (a draw).
//
// Precondition: at most one combatant in cs is alive.
// Postcondition: Returns ErrRoundInProgress when the precondition is violated.
func RoundWinner(cs []*registry.Combatant) (*registry.Combatant, error) {
	var winner *registry.Combatant
	for _, c := range cs {
		if !c.Alive() {
			continue
		}
		if winner != nil {
			return nil, ErrRoundInProgress
		}
		winner = c
	}
	return winner, nil
}

// GameWinner returns the first combatant, in registry order, whose Wins equals
// threshold. This is an ordered scan, not a maximum.
//
// Postcondition: Returns nil when no combatant has exactly threshold wins.
func GameWinner(cs []*registry.Combatant, threshold int) *registry.Combatant {
	for _, c := range cs {
		if c.Wins == threshold {
			return c
		}
	}
	return nil
}

// EndMessage builds the text shown at the end of a round.
//
// A game winner replaces the whole message with "{label} WINS THE GAME!".
// Otherwise the headline is "{label} WINS THE ROUND!" or "DRAW!", followed by
// four line breaks and one "{label}: {wins} WINS" line per combatant.
func EndMessage(roundWinner, gameWinner *registry.Combatant, cs []*registry.Combatant) string {
	if gameWinner != nil {
		return gameWinner.Label + " WINS THE GAME!"
	}

	var b strings.Builder
	if roundWinner != nil {
		b.WriteString(roundWinner.Label + " WINS THE ROUND!")
	} else {
		b.WriteString("DRAW!")
	}
	b.WriteString("\n\n\n\n")
	for _, c := range cs {
		b.WriteString(c.Label)
		b.WriteString(": ")
		b.WriteString(strconv.Itoa(c.Wins))
		b.WriteString(" WINS\n")
	}
	return b.String()
}
