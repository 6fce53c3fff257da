package host

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/cory-johannsen/arena/internal/game/registry"
)

var (
	bannerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Border(lipgloss.NormalBorder(), true, false).
			BorderForeground(lipgloss.Color("#3C3C3C")).
			Padding(0, 2)

	scoreStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#AAAAAA"))
)

// Console is a text display that writes styled messages to a writer.
// Combatant labels are rendered in their roster colors.
type Console struct {
	mu       sync.Mutex
	out      io.Writer
	labels   *strings.Replacer
	colors   map[string]lipgloss.Style
	last     string
	rendered int
}

// NewConsole returns a Console writing to out that colors the labels of cs.
//
// Precondition: out must be non-nil.
func NewConsole(out io.Writer, cs []*registry.Combatant) *Console {
	colors := make(map[string]lipgloss.Style, len(cs))
	for _, c := range cs {
		if c.Color != "" {
			colors[c.Label] = lipgloss.NewStyle().Foreground(lipgloss.Color(c.Color))
		}
	}
	return &Console{out: out, labels: labelReplacer(cs), colors: colors}
}

// labelReplacer colors each label. Longer labels are listed first so a label
// that prefixes another is never matched inside it.
func labelReplacer(cs []*registry.Combatant) *strings.Replacer {
	sorted := append([]*registry.Combatant(nil), cs...)
	sort.SliceStable(sorted, func(i, j int) bool { return len(sorted[i].Label) > len(sorted[j].Label) })
	var pairs []string
	for _, c := range sorted {
		if c.Color == "" {
			continue
		}
		pairs = append(pairs, c.Label, lipgloss.NewStyle().Foreground(lipgloss.Color(c.Color)).Render(c.Label))
	}
	return strings.NewReplacer(pairs...)
}

// Show renders text as a banner. Empty text clears the banner and writes
// nothing.
func (c *Console) Show(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last = text
	if text == "" {
		return
	}
	c.rendered++
	fmt.Fprintln(c.out, bannerStyle.Render(c.labels.Replace(text)))
}

// Last returns the most recent text passed to Show, unstyled.
func (c *Console) Last() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// Rendered returns how many non-empty messages were written.
func (c *Console) Rendered() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rendered
}

// Scoreboard writes one line per combatant with its round wins and purse.
func (c *Console) Scoreboard(cs []*registry.Combatant, purse func(label string) int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	lines := make([]string, 0, len(cs))
	for _, cb := range cs {
		label := cb.Label
		if pad := 12 - len(label); pad > 0 {
			label += strings.Repeat(" ", pad)
		}
		if style, ok := c.colors[cb.Label]; ok {
			label = style.Render(label)
		}
		stats := scoreStyle.Render(fmt.Sprintf(" wins %d  coins %d", cb.Wins, purse(cb.Label)))
		lines = append(lines, label+stats)
	}
	fmt.Fprintln(c.out, strings.Join(lines, "\n"))
}
