// Package content loads arena roster definitions from YAML.
package content

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/arena/internal/game/entity"
)

var hexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// Point is a YAML-friendly world position.
type Point struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
}

// Position converts p to an entity.Position.
func (p Point) Position() entity.Position {
	return entity.Position{X: p.X, Y: p.Y, Z: p.Z}
}

// Slot describes one player slot: its label, display color, and spawn point.
type Slot struct {
	Label string `yaml:"label"`
	Color string `yaml:"color"`
	Spawn Point  `yaml:"spawn"`
}

// Roster is the ordered list of player slots for a match, plus the arena's
// display name.
type Roster struct {
	Arena string `yaml:"arena"`
	Slots []Slot `yaml:"slots"`
}

// Validate checks the roster's invariants.
//
// Precondition: r must not be nil.
// Postcondition: Returns nil iff there is at least one slot, every label is
// non-empty and unique, and every color is empty or a #RRGGBB hex string.
func (r *Roster) Validate() error {
	if len(r.Slots) == 0 {
		return fmt.Errorf("roster: at least one slot is required")
	}
	seen := make(map[string]bool, len(r.Slots))
	for i, s := range r.Slots {
		if s.Label == "" {
			return fmt.Errorf("roster: slot %d: label must not be empty", i+1)
		}
		if seen[s.Label] {
			return fmt.Errorf("roster: slot %d: duplicate label %q", i+1, s.Label)
		}
		seen[s.Label] = true
		if s.Color != "" && !hexColor.MatchString(s.Color) {
			return fmt.Errorf("roster: slot %q: color %q must be #RRGGBB", s.Label, s.Color)
		}
	}
	return nil
}

// LoadRosterFromBytes parses and validates a roster from raw YAML.
//
// Postcondition: Returns a validated *Roster, or an error.
func LoadRosterFromBytes(data []byte) (*Roster, error) {
	var r Roster
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parsing roster YAML: %w", err)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

// LoadRoster reads the roster file at path.
//
// Precondition: path must name a readable file.
// Postcondition: Returns a validated *Roster, or an error naming the file.
func LoadRoster(path string) (*Roster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading roster %q: %w", path, err)
	}
	r, err := LoadRosterFromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("loading roster %q: %w", path, err)
	}
	return r, nil
}

// DefaultRoster returns the two-player roster used when no file is configured.
func DefaultRoster() *Roster {
	return &Roster{
		Arena: "Complete",
		Slots: []Slot{
			{Label: "PLAYER 1", Color: "#2A64B2", Spawn: Point{X: -15, Z: 15}},
			{Label: "PLAYER 2", Color: "#E52E28", Spawn: Point{X: 15, Z: -15}},
		},
	}
}
