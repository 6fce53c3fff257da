package host

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"

	"github.com/cory-johannsen/arena/internal/config"
	"github.com/cory-johannsen/arena/internal/content"
	"github.com/cory-johannsen/arena/internal/game/coin"
	"github.com/cory-johannsen/arena/internal/game/dice"
	"github.com/cory-johannsen/arena/internal/game/match"
	"github.com/cory-johannsen/arena/internal/game/registry"
	"github.com/cory-johannsen/arena/internal/observability"
)

// Result summarizes one finished match.
type Result struct {
	MatchID string
	Winner  string
	Rounds  int
	Wins    map[string]int
	Purses  map[string]int
}

// Deps are the shared inputs for every match a Runner plays.
type Deps struct {
	Match  config.MatchConfig
	Host   config.HostConfig
	Roster *content.Roster
	Source dice.Source
	// Valuer prices coins; nil uses coin.LinearValuer.
	Valuer coin.Valuer
	// Out receives the console display; nil discards it.
	Out    io.Writer
	Logger *zap.Logger
	// Clock overrides the clock chosen from Host.Realtime.
	Clock Clock
}

// Runner plays matches back to back with a fresh registry, pool, and world
// for each. It satisfies server.Service.
type Runner struct {
	deps Deps

	mu      sync.Mutex
	results []Result
}

// NewRunner validates deps and returns a Runner.
//
// Precondition: Roster, Source, and Logger must be non-nil; Match and Host
// must validate.
// Postcondition: Returns a Runner or an error wrapping match.ErrConfiguration.
func NewRunner(deps Deps) (*Runner, error) {
	switch {
	case deps.Roster == nil:
		return nil, fmt.Errorf("%w: roster must not be nil", match.ErrConfiguration)
	case deps.Source == nil:
		return nil, fmt.Errorf("%w: random source must not be nil", match.ErrConfiguration)
	case deps.Logger == nil:
		return nil, fmt.Errorf("%w: logger must not be nil", match.ErrConfiguration)
	}
	if err := deps.Roster.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", match.ErrConfiguration, err)
	}
	if err := deps.Match.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", match.ErrConfiguration, err)
	}
	if err := deps.Host.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", match.ErrConfiguration, err)
	}
	if deps.Out == nil {
		deps.Out = io.Discard
	}
	return &Runner{deps: deps}, nil
}

// Run plays Host.MaxMatches matches, or until ctx is done when MaxMatches is 0.
//
// Postcondition: Returns nil when every requested match finished or ctx was
// canceled between matches; otherwise the first setup error.
func (r *Runner) Run(ctx context.Context) error {
	clock := r.deps.Clock
	if clock == nil {
		if r.deps.Host.Realtime {
			rc := NewRealtimeClock(r.deps.Host.FrameDuration())
			defer rc.Stop()
			clock = rc
		} else {
			clock = NewSimulatedClock(startOfSimulation, r.deps.Host.FrameDuration())
		}
	}

	for n := 1; r.deps.Host.MaxMatches == 0 || n <= r.deps.Host.MaxMatches; n++ {
		res, err := r.playOne(ctx, n, clock)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			r.deps.Logger.Info("match canceled", zap.Int("match_number", n))
			return nil
		}
		if err != nil {
			return err
		}
		r.mu.Lock()
		r.results = append(r.results, res)
		r.mu.Unlock()
	}
	return nil
}

// Results returns the finished matches in play order.
func (r *Runner) Results() []Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Result(nil), r.results...)
}

func (r *Runner) playOne(ctx context.Context, n int, clock Clock) (Result, error) {
	logger := observability.ForMatch(r.deps.Logger, n)

	tanks := make([]*registry.Combatant, 0, len(r.deps.Roster.Slots))
	for _, s := range r.deps.Roster.Slots {
		t := NewTank(s.Label)
		tanks = append(tanks, &registry.Combatant{
			Label:   s.Label,
			Color:   s.Color,
			Spawn:   s.Spawn.Position(),
			Handle:  t,
			Control: t,
		})
	}
	reg, err := registry.New(tanks...)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", match.ErrConfiguration, err)
	}

	world := NewWorld()
	pool, err := coin.NewPool(r.deps.Match.Coins(), r.deps.Source, world, r.deps.Valuer, logger)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", match.ErrConfiguration, err)
	}

	console := NewConsole(r.deps.Out, reg.All())
	m, err := match.New(r.deps.Match.Machine(), reg, pool, match.Collaborators{
		Camera:  &Camera{},
		Display: console,
		Scenes:  NewMenu(),
		Sweeper: world,
	}, logger)
	if err != nil {
		return Result{}, err
	}
	driver := NewDriver(m, reg, world, r.deps.Source, r.deps.Host.EliminationOdds, r.deps.Match.FieldExtent, logger)
	m.OnPhase = func(from, to match.Phase, round int) {
		if (to == match.PhaseRoundStarting && round > 1) || to == match.PhaseFinished {
			console.Scoreboard(reg.All(), driver.Purse)
		}
	}

	state, err := Play(ctx, m, clock, driver.Step)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		MatchID: state.MatchID,
		Rounds:  state.Round,
		Wins:    make(map[string]int, reg.Len()),
		Purses:  driver.Purses(),
	}
	if state.GameWinner != nil {
		res.Winner = state.GameWinner.Label
	}
	for _, c := range reg.All() {
		res.Wins[c.Label] = c.Wins
	}
	logger.Info("match result",
		zap.String("match_id", res.MatchID),
		zap.String("winner", res.Winner),
		zap.Int("rounds", res.Rounds),
	)
	return res, nil
}
