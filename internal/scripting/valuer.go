package scripting

import (
	"fmt"
	"math"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/arena/internal/game/coin"
)

// ValueHook is the Lua global a valuation script must define:
//
//	function coin_value(base, round) return base * round end
const ValueHook = "coin_value"

// Valuer prices coins by calling a game-mode script's coin_value hook.
// Script failures fall back to the linear base*round formula and are
// logged at warn level, never propagated.
//
// Valuer is safe for concurrent use; calls are serialized on one LState.
type Valuer struct {
	mu       sync.Mutex
	L        *lua.LState
	limit    int
	logger   *zap.Logger
	fallback coin.LinearValuer
}

// NewValuerFromFile loads the valuation script at path.
//
// Precondition: logger must be non-nil; instLimit >= 0 (0 = default).
// Postcondition: Returns a Valuer or an error when the script fails to load or
// does not define coin_value.
func NewValuerFromFile(path string, instLimit int, logger *zap.Logger) (*Valuer, error) {
	return newValuer(instLimit, logger, func(L *lua.LState) error { return L.DoFile(path) }, path)
}

// NewValuerFromString loads a valuation script from source.
//
// Precondition: logger must be non-nil; instLimit >= 0 (0 = default).
// Postcondition: Returns a Valuer or an error when the script fails to load or
// does not define coin_value.
func NewValuerFromString(src string, instLimit int, logger *zap.Logger) (*Valuer, error) {
	return newValuer(instLimit, logger, func(L *lua.LState) error { return L.DoString(src) }, "<inline>")
}

func newValuer(instLimit int, logger *zap.Logger, load func(*lua.LState) error, name string) (*Valuer, error) {
	L := NewSandboxedState()
	if err := runLimited(L, instLimit, func() error { return load(L) }); err != nil {
		L.Close()
		return nil, fmt.Errorf("scripting: loading valuation script %q: %w", name, err)
	}
	if _, ok := L.GetGlobal(ValueHook).(*lua.LFunction); !ok {
		L.Close()
		return nil, fmt.Errorf("scripting: valuation script %q does not define %s", name, ValueHook)
	}
	return &Valuer{L: L, limit: instLimit, logger: logger}, nil
}

// Value returns coin_value(base, round) truncated to an int.
//
// Postcondition: Returns base*round when the hook errors, exceeds its
// instruction budget, or returns a non-number, NaN, an infinity, or a value
// that does not fit in an int.
func (v *Valuer) Value(base, round int) int {
	v.mu.Lock()
	defer v.mu.Unlock()

	var ret lua.LValue = lua.LNil
	err := runLimited(v.L, v.limit, func() error {
		if err := v.L.CallByParam(lua.P{
			Fn:      v.L.GetGlobal(ValueHook),
			NRet:    1,
			Protect: true,
		}, lua.LNumber(base), lua.LNumber(round)); err != nil {
			return err
		}
		ret = v.L.Get(-1)
		v.L.Pop(1)
		return nil
	})
	if err != nil {
		v.logger.Warn("scripting: coin_value failed, using linear valuation",
			zap.Int("base", base),
			zap.Int("round", round),
			zap.Error(err),
		)
		return v.fallback.Value(base, round)
	}
	n, ok := ret.(lua.LNumber)
	if !ok {
		v.logger.Warn("scripting: coin_value returned a non-number, using linear valuation",
			zap.String("type", ret.Type().String()),
		)
		return v.fallback.Value(base, round)
	}
	f := float64(n)
	if math.IsNaN(f) || math.IsInf(f, 0) || f >= float64(math.MaxInt) || f < float64(math.MinInt) {
		v.logger.Warn("scripting: coin_value returned a number outside the int range, using linear valuation",
			zap.Float64("value", f),
		)
		return v.fallback.Value(base, round)
	}
	return int(n)
}

// Close releases the Lua state.
func (v *Valuer) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.L.Close()
}
