// Package match implements the round state machine that drives a match:
// RoundStarting, RoundPlaying, RoundEnding, looping until a combatant reaches
// the win threshold.
package match

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/arena/internal/game/coin"
	"github.com/cory-johannsen/arena/internal/game/entity"
	"github.com/cory-johannsen/arena/internal/game/outcome"
	"github.com/cory-johannsen/arena/internal/game/registry"
	"github.com/cory-johannsen/arena/internal/game/schedule"
)

// NPCTag marks transient hostile or neutral spawns removed at every round end.
const NPCTag = "NPC"

// ErrConfiguration is wrapped by every setup error returned from New and Start.
var ErrConfiguration = errors.New("match: configuration error")

// Camera frames the combatants.
type Camera interface {
	SetTargets(targets []entity.Handle)
	SnapToStart()
}

// Display renders plain text, possibly containing line breaks.
type Display interface {
	Show(text string)
}

// Scenes receives the single return-to-menu signal when a match ends.
type Scenes interface {
	ReturnToMenu()
}

// Sweeper removes every entity carrying tag and reports how many it removed.
type Sweeper interface {
	RemoveTagged(tag string) int
}

// Collaborators groups the external systems the machine drives.
type Collaborators struct {
	Camera  Camera
	Display Display
	Scenes  Scenes
	Sweeper Sweeper
}

// Config holds the round loop tunables.
type Config struct {
	// RoundsToWin is the number of round wins that ends the match.
	RoundsToWin int
	// StartDelay is how long RoundStarting holds before play begins.
	StartDelay time.Duration
	// EndDelay is how long RoundEnding holds before the loop decision.
	EndDelay time.Duration
	// SpawnDelay is the wait from RoundStarting to the first coin-spawn tick.
	SpawnDelay time.Duration
	// SpawnInterval is the period between coin-spawn ticks.
	SpawnInterval time.Duration
}

// DefaultConfig returns the shipped game's tuning.
func DefaultConfig() Config {
	return Config{
		RoundsToWin:   3,
		StartDelay:    3 * time.Second,
		EndDelay:      3 * time.Second,
		SpawnDelay:    time.Second,
		SpawnInterval: 7500 * time.Millisecond,
	}
}

// Validate checks the configuration invariants.
//
// Postcondition: Returns nil iff RoundsToWin >= 1, delays are non-negative,
// and SpawnInterval > 0.
func (c Config) Validate() error {
	switch {
	case c.RoundsToWin < 1:
		return fmt.Errorf("rounds_to_win must be >= 1, got %d", c.RoundsToWin)
	case c.StartDelay < 0:
		return errors.New("start_delay must not be negative")
	case c.EndDelay < 0:
		return errors.New("end_delay must not be negative")
	case c.SpawnDelay < 0:
		return errors.New("spawn_delay must not be negative")
	case c.SpawnInterval <= 0:
		return errors.New("spawn_interval must be > 0")
	}
	return nil
}

// State is the match's orchestration context.
type State struct {
	MatchID     string
	Phase       Phase
	GameState   GameState
	Round       int
	RoundWinner *registry.Combatant
	GameWinner  *registry.Combatant
	Message     string
	CoinsInPlay int
}

// Machine is the round state machine. The host calls Tick once per
// simulation frame; all timed behavior runs inside Tick on the caller's
// goroutine. All methods are safe for concurrent use.
type Machine struct {
	mu     sync.Mutex
	cfg    Config
	reg    *registry.Registry
	coins  *coin.Pool
	sched  *schedule.Scheduler
	col    Collaborators
	logger *zap.Logger

	state      State
	spawnTask  *schedule.Task
	changed    bool
	overSignal bool

	// OnPhase is called on every transition with the previous phase, the new
	// phase, and the round number after the transition. It runs with the
	// machine locked and must not call back into the Machine.
	// Injected after construction; nil = no-op. Must be set before Start.
	OnPhase func(from, to Phase, round int)
}

// New wires a Machine and hands the camera its targets.
//
// Precondition: reg, coins, every collaborator, and logger must be non-nil.
// Postcondition: Returns an idle Machine or an error wrapping ErrConfiguration.
func New(cfg Config, reg *registry.Registry, coins *coin.Pool, col Collaborators, logger *zap.Logger) (*Machine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	var missing []string
	if reg == nil {
		missing = append(missing, "registry")
	}
	if coins == nil {
		missing = append(missing, "coin pool")
	}
	if col.Camera == nil {
		missing = append(missing, "camera")
	}
	if col.Display == nil {
		missing = append(missing, "display")
	}
	if col.Scenes == nil {
		missing = append(missing, "scenes")
	}
	if col.Sweeper == nil {
		missing = append(missing, "sweeper")
	}
	if logger == nil {
		missing = append(missing, "logger")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing %v", ErrConfiguration, missing)
	}

	m := &Machine{
		cfg:    cfg,
		reg:    reg,
		coins:  coins,
		sched:  schedule.New(),
		col:    col,
		logger: logger,
		state: State{
			MatchID:   uuid.NewString(),
			Phase:     PhaseIdle,
			GameState: Waiting,
		},
	}
	m.logger = logger.With(zap.String("match_id", m.state.MatchID))
	col.Camera.SetTargets(reg.Viewpoints())
	return m, nil
}

// Start enters the first RoundStarting at now.
//
// Precondition: the machine is idle.
// Postcondition: Round == 1 and Phase == PhaseRoundStarting.
func (m *Machine) Start(now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.Phase != PhaseIdle {
		return fmt.Errorf("%w: match already started (phase %s)", ErrConfiguration, m.state.Phase)
	}
	m.logger.Info("match starting",
		zap.Int("combatants", m.reg.Len()),
		zap.Int("rounds_to_win", m.cfg.RoundsToWin),
	)
	m.enterRoundStarting(now)
	return nil
}

// Tick advances the machine to now. It first checks the round-over
// condition, then fires due timers, so a RoundEnding entered this frame
// cancels spawning before any spawn tick due this frame is observed.
//
// Postcondition: returns SignalMatchOver exactly once, on the frame the match
// finishes; SignalPhaseChanged when any other transition happened.
func (m *Machine) Tick(now time.Time) Signal {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state.Phase == PhaseIdle {
		return SignalNone
	}
	m.changed = false
	m.pollRoundOver(now)
	m.sched.Advance(now)

	if m.state.Phase == PhaseFinished && !m.overSignal {
		m.overSignal = true
		return SignalMatchOver
	}
	if m.changed {
		return SignalPhaseChanged
	}
	return SignalNone
}

// Snapshot returns a copy of the current match state.
func (m *Machine) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.state
	s.CoinsInPlay = m.coins.InPlay()
	return s
}

// ActiveCoins returns copies of the coins currently in play.
func (m *Machine) ActiveCoins() []coin.Coin {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.coins.Active()
}

// CollectCoin retires the active coin id on pickup and returns it so the
// caller can credit its value.
//
// Postcondition: Returns (coin, true) iff id was active.
func (m *Machine) CollectCoin(id int) (coin.Coin, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.coins.Get(id)
	if !ok {
		return coin.Coin{}, false
	}
	m.coins.Delete(id)
	m.logger.Debug("coin collected", zap.Int("coin_id", id), zap.Int("value", c.Value))
	return c, true
}

// ResetCoins repositions every active coin without changing its identity.
func (m *Machine) ResetCoins() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.coins.ResetAll()
}

// Abort ends the match without a winner: timers are canceled, coins
// retired, and input disabled. The menu signal is not sent.
//
// Postcondition: Phase == PhaseFinished.
func (m *Machine) Abort() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.Phase == PhaseFinished {
		return
	}
	m.sched.CancelAll()
	m.spawnTask = nil
	m.state.GameState = Waiting
	m.reg.DisableControl()
	m.coins.DeleteAll()
	m.transition(PhaseFinished)
	m.overSignal = true
	m.logger.Info("match aborted", zap.Int("round", m.state.Round))
}

func (m *Machine) enterRoundStarting(now time.Time) {
	m.state.Round++
	m.transition(PhaseRoundStarting)

	m.reg.ResetAll()
	m.reg.DisableControl()
	m.col.Camera.SnapToStart()

	m.show(fmt.Sprintf("ROUND %d", m.state.Round))

	m.state.GameState = Playing
	m.startSpawning(now)

	m.sched.After("round-start", now.Add(m.cfg.StartDelay), m.enterRoundPlaying)
	m.logger.Info("round starting", zap.Int("round", m.state.Round))
}

func (m *Machine) enterRoundPlaying(now time.Time) {
	m.transition(PhaseRoundPlaying)
	m.reg.EnableControl()
	m.show("")
	// The first check happens on the frame play begins.
	m.pollRoundOver(now)
}

// pollRoundOver is the per-frame RoundPlaying exit check.
func (m *Machine) pollRoundOver(now time.Time) {
	if m.state.Phase != PhaseRoundPlaying {
		return
	}
	if m.reg.OneOrFewerAlive() {
		m.enterRoundEnding(now)
	}
}

func (m *Machine) enterRoundEnding(now time.Time) {
	m.transition(PhaseRoundEnding)

	m.state.GameState = Waiting
	m.stopSpawning()

	m.reg.DisableControl()
	retired := m.coins.DeleteAll()
	swept := m.col.Sweeper.RemoveTagged(NPCTag)

	m.state.RoundWinner = nil
	winner, err := outcome.RoundWinner(m.reg.All())
	if err != nil {
		m.logger.Error("round ended with more than one combatant alive; scoring as draw",
			zap.Int("round", m.state.Round),
			zap.Int("alive", m.reg.AliveCount()),
			zap.Error(err),
		)
	}
	if winner != nil {
		winner.Wins++
	}
	m.state.RoundWinner = winner
	m.state.GameWinner = outcome.GameWinner(m.reg.All(), m.cfg.RoundsToWin)
	m.show(outcome.EndMessage(m.state.RoundWinner, m.state.GameWinner, m.reg.All()))

	fields := []zap.Field{
		zap.Int("round", m.state.Round),
		zap.Int("coins_retired", retired),
		zap.Int("npcs_swept", swept),
	}
	if winner != nil {
		fields = append(fields, zap.String("round_winner", winner.Label), zap.Int("wins", winner.Wins))
	} else {
		fields = append(fields, zap.Bool("draw", true))
	}
	m.logger.Info("round ended", fields...)

	m.sched.After("round-end", now.Add(m.cfg.EndDelay), m.finishRound)
}

// finishRound is the loop decision. Without a game winner the next round
// starts in the same frame.
func (m *Machine) finishRound(now time.Time) {
	if m.state.GameWinner == nil {
		m.enterRoundStarting(now)
		return
	}
	m.sched.CancelAll()
	m.spawnTask = nil
	m.transition(PhaseFinished)
	m.logger.Info("match finished",
		zap.String("game_winner", m.state.GameWinner.Label),
		zap.Int("rounds", m.state.Round),
	)
	m.col.Scenes.ReturnToMenu()
}

func (m *Machine) startSpawning(now time.Time) {
	m.stopSpawning()
	m.spawnTask = m.sched.Every("coin-spawn", now.Add(m.cfg.SpawnDelay), m.cfg.SpawnInterval, m.spawnTick)
}

// stopSpawning cancels the spawn task. Safe to call when already stopped.
func (m *Machine) stopSpawning() {
	if m.spawnTask == nil {
		return
	}
	m.spawnTask.Cancel()
	m.spawnTask = nil
}

func (m *Machine) spawnTick(time.Time) {
	_, cancel := m.coins.SpawnBatch(m.state.Round, m.state.GameState == Playing)
	if cancel {
		m.stopSpawning()
	}
}

func (m *Machine) show(text string) {
	m.state.Message = text
	m.col.Display.Show(text)
}

func (m *Machine) transition(to Phase) {
	from := m.state.Phase
	m.state.Phase = to
	m.changed = true
	m.logger.Debug("phase transition",
		zap.Stringer("from", from),
		zap.Stringer("to", to),
		zap.Int("round", m.state.Round),
	)
	if m.OnPhase != nil {
		m.OnPhase(from, to, m.state.Round)
	}
}
