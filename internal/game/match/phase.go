package match

// Phase is the match's position in the round loop.
type Phase int

const (
	// PhaseIdle is the state before Start.
	PhaseIdle Phase = iota
	// PhaseRoundStarting holds combatants at their spawns for the start delay.
	PhaseRoundStarting
	// PhaseRoundPlaying lasts until one or fewer combatants are alive.
	PhaseRoundPlaying
	// PhaseRoundEnding shows the round result for the end delay.
	PhaseRoundEnding
	// PhaseFinished is terminal: a game winner was found or the match was aborted.
	PhaseFinished
)

// String returns a human-readable phase label.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseRoundStarting:
		return "round_starting"
	case PhaseRoundPlaying:
		return "round_playing"
	case PhaseRoundEnding:
		return "round_ending"
	case PhaseFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// GameState gates whether coin-spawn ticks place coins.
type GameState int

const (
	// Waiting suppresses coin spawns; set when a round ends.
	Waiting GameState = iota
	// Playing lets spawn ticks place coins; set when a round starts.
	Playing
)

// String returns a human-readable game state label.
func (g GameState) String() string {
	switch g {
	case Waiting:
		return "waiting"
	case Playing:
		return "playing"
	default:
		return "unknown"
	}
}

// Signal tells the host what a Tick did.
type Signal int

const (
	// SignalNone means the phase did not change this frame.
	SignalNone Signal = iota
	// SignalPhaseChanged means at least one phase transition happened this frame.
	SignalPhaseChanged
	// SignalMatchOver is returned exactly once, on the frame the match finishes.
	SignalMatchOver
)

// String returns a human-readable signal label.
func (s Signal) String() string {
	switch s {
	case SignalNone:
		return "none"
	case SignalPhaseChanged:
		return "phase_changed"
	case SignalMatchOver:
		return "match_over"
	default:
		return "unknown"
	}
}
