// Package host embeds the match machine in a headless process: simulated
// world objects, a console display, a frame loop, and a match runner.
package host

import (
	"sync"

	"github.com/cory-johannsen/arena/internal/game/entity"
)

// Body is a simulated world object. It satisfies entity.Handle.
type Body struct {
	mu     sync.Mutex
	id     int
	tag    string
	pos    entity.Position
	active bool
}

// Active reports whether the body is live.
func (b *Body) Active() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.active
}

// SetActive activates or deactivates the body.
func (b *Body) SetActive(active bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.active = active
}

// MoveTo repositions the body.
func (b *Body) MoveTo(pos entity.Position) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pos = pos
}

// Position returns the body's current position.
func (b *Body) Position() entity.Position {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pos
}

// Tank is a simulated combatant: its body is the liveness handle and it
// doubles as the combatant's input control.
type Tank struct {
	Body
	label   string
	enabled bool
}

// NewTank returns an inactive tank. The match activates it at round start.
func NewTank(label string) *Tank {
	return &Tank{label: label}
}

// Label returns the tank's display label.
func (t *Tank) Label() string { return t.label }

// Enable accepts player input.
func (t *Tank) Enable() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.enabled = true
}

// Disable ignores player input.
func (t *Tank) Disable() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.enabled = false
}

// Enabled reports whether the tank accepts input.
func (t *Tank) Enabled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.enabled
}

// Eliminate knocks the tank out of the round. Tanks that are already out or
// whose input is disabled cannot be eliminated.
//
// Postcondition: Returns true iff the tank went from alive to dead.
func (t *Tank) Eliminate() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.active || !t.enabled {
		return false
	}
	t.active = false
	return true
}

// World tracks the simulated coin bodies and tagged transient entities.
// It implements coin.Spawner and match.Sweeper.
type World struct {
	mu     sync.Mutex
	coins  map[int]*Body
	tagged map[string][]*Body
	nextID int
}

// NewWorld returns an empty World.
func NewWorld() *World {
	return &World{
		coins:  make(map[int]*Body),
		tagged: make(map[string][]*Body),
	}
}

// SpawnCoin creates an active body for coin id at pos.
func (w *World) SpawnCoin(id int, pos entity.Position, _ int) entity.Handle {
	w.mu.Lock()
	defer w.mu.Unlock()
	b := &Body{id: id, pos: pos, active: true}
	w.coins[id] = b
	return b
}

// CoinBody returns the body spawned for coin id.
func (w *World) CoinBody(id int) (*Body, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	b, ok := w.coins[id]
	return b, ok
}

// SpawnTagged creates an active body carrying tag at pos.
func (w *World) SpawnTagged(tag string, pos entity.Position) *Body {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.nextID++
	b := &Body{id: w.nextID, tag: tag, pos: pos, active: true}
	w.tagged[tag] = append(w.tagged[tag], b)
	return b
}

// Tagged returns how many live bodies carry tag.
func (w *World) Tagged(tag string) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.tagged[tag])
}

// RemoveTagged deactivates and forgets every body carrying tag.
//
// Postcondition: Tagged(tag) == 0. Returns the number removed.
func (w *World) RemoveTagged(tag string) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	bodies := w.tagged[tag]
	for _, b := range bodies {
		b.SetActive(false)
	}
	delete(w.tagged, tag)
	return len(bodies)
}

// Camera is a headless camera rig. It records its targets and how often it
// was snapped back to the start framing.
type Camera struct {
	mu      sync.Mutex
	targets []entity.Handle
	snaps   int
}

// SetTargets replaces the framed handles.
func (c *Camera) SetTargets(targets []entity.Handle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.targets = append([]entity.Handle(nil), targets...)
}

// SnapToStart resets the framing.
func (c *Camera) SnapToStart() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snaps++
}

// Targets returns the number of framed handles.
func (c *Camera) Targets() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.targets)
}

// Snaps returns how many times SnapToStart was called.
func (c *Camera) Snaps() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snaps
}

// Menu receives the return-to-menu signal. Done is closed on the first call.
type Menu struct {
	once  sync.Once
	done  chan struct{}
	mu    sync.Mutex
	calls int
}

// NewMenu returns a Menu that has not been signaled.
func NewMenu() *Menu {
	return &Menu{done: make(chan struct{})}
}

// ReturnToMenu records the signal.
func (m *Menu) ReturnToMenu() {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	m.once.Do(func() { close(m.done) })
}

// Done is closed once the menu has been signaled.
func (m *Menu) Done() <-chan struct{} { return m.done }

// Calls returns how many times ReturnToMenu was called.
func (m *Menu) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
