// Package config provides Viper-based configuration loading for the arena.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/cory-johannsen/arena/internal/game/coin"
	"github.com/cory-johannsen/arena/internal/game/match"
)

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// MatchConfig holds the round loop and coin tunables.
type MatchConfig struct {
	RoundsToWin   int           `mapstructure:"rounds_to_win"`
	NumCoins      int           `mapstructure:"num_coins"`
	StartDelay    time.Duration `mapstructure:"start_delay"`
	EndDelay      time.Duration `mapstructure:"end_delay"`
	SpawnDelay    time.Duration `mapstructure:"spawn_delay"`
	SpawnInterval time.Duration `mapstructure:"spawn_interval"`
	SpawnMin      int           `mapstructure:"spawn_min"`
	SpawnMax      int           `mapstructure:"spawn_max"`
	// BatchPolicy is "uniform" or "fixed".
	BatchPolicy   string  `mapstructure:"batch_policy"`
	CoinBaseValue int     `mapstructure:"coin_base_value"`
	FieldExtent   int     `mapstructure:"field_extent"`
	SpawnHeight   float64 `mapstructure:"spawn_height"`
	// Seed makes every random draw reproducible. Zero selects the
	// crypto-backed source.
	Seed uint64 `mapstructure:"seed"`
}

// Machine returns the round loop portion of m.
func (m MatchConfig) Machine() match.Config {
	return match.Config{
		RoundsToWin:   m.RoundsToWin,
		StartDelay:    m.StartDelay,
		EndDelay:      m.EndDelay,
		SpawnDelay:    m.SpawnDelay,
		SpawnInterval: m.SpawnInterval,
	}
}

// Coins returns the coin pool portion of m.
func (m MatchConfig) Coins() coin.Config {
	return coin.Config{
		NumCoinsPerRound: m.NumCoins,
		BaseValue:        m.CoinBaseValue,
		SpawnMin:         m.SpawnMin,
		SpawnMax:         m.SpawnMax,
		Policy:           coin.BatchPolicy(m.BatchPolicy),
		FieldExtent:      m.FieldExtent,
		SpawnHeight:      m.SpawnHeight,
	}
}

// HostConfig holds headless host settings.
type HostConfig struct {
	// FrameRate is the number of simulation frames per second.
	FrameRate int `mapstructure:"frame_rate"`
	// Realtime paces frames against the wall clock; false runs frames back to
	// back on a simulated clock.
	Realtime bool `mapstructure:"realtime"`
	// Roster is the YAML roster path; empty uses the built-in two-player roster.
	Roster string `mapstructure:"roster"`
	// ValuationScript is an optional Lua file defining coin_value(base, round).
	ValuationScript string `mapstructure:"valuation_script"`
	// InstructionLimit caps Lua opcodes per valuation call; 0 uses the default.
	InstructionLimit int `mapstructure:"instruction_limit"`
	// EliminationOdds is the 1-in-N per-frame chance that the simulated
	// arena eliminates a live combatant during play.
	EliminationOdds int `mapstructure:"elimination_odds"`
	// MaxMatches is how many matches to run back to back; 0 runs until stopped.
	MaxMatches int `mapstructure:"max_matches"`
}

// FrameDuration returns the simulated time between frames.
//
// Precondition: FrameRate > 0.
func (h HostConfig) FrameDuration() time.Duration {
	return time.Second / time.Duration(h.FrameRate)
}

// Config is the top-level application configuration.
type Config struct {
	Logging LoggingConfig `mapstructure:"logging"`
	Match   MatchConfig   `mapstructure:"match"`
	Host    HostConfig    `mapstructure:"host"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := c.Match.Validate(); err != nil {
		errs = append(errs, err.Error())
	}
	if err := c.Host.Validate(); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

// Validate checks the match section.
//
// Postcondition: Returns nil if valid, or an error describing all violations.
func (m MatchConfig) Validate() error {
	var errs []string
	if m.RoundsToWin < 1 {
		errs = append(errs, fmt.Sprintf("match.rounds_to_win must be >= 1, got %d", m.RoundsToWin))
	}
	if m.NumCoins < 1 {
		errs = append(errs, fmt.Sprintf("match.num_coins must be >= 1, got %d", m.NumCoins))
	}
	if m.StartDelay < 0 {
		errs = append(errs, "match.start_delay must not be negative")
	}
	if m.EndDelay < 0 {
		errs = append(errs, "match.end_delay must not be negative")
	}
	if m.SpawnDelay < 0 {
		errs = append(errs, "match.spawn_delay must not be negative")
	}
	if m.SpawnInterval <= 0 {
		errs = append(errs, "match.spawn_interval must be > 0")
	}
	if m.SpawnMin < 0 {
		errs = append(errs, fmt.Sprintf("match.spawn_min must be >= 0, got %d", m.SpawnMin))
	}
	if m.SpawnMax < m.SpawnMin {
		errs = append(errs, "match.spawn_max must not be less than match.spawn_min")
	}
	if !coin.BatchPolicy(m.BatchPolicy).Valid() {
		errs = append(errs, fmt.Sprintf("match.batch_policy must be one of [uniform, fixed], got %q", m.BatchPolicy))
	}
	if m.FieldExtent < 0 {
		errs = append(errs, fmt.Sprintf("match.field_extent must be >= 0, got %d", m.FieldExtent))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// Validate checks the host section.
//
// Postcondition: Returns nil if valid, or an error describing all violations.
func (h HostConfig) Validate() error {
	var errs []string
	if h.FrameRate < 1 || h.FrameRate > 1000 {
		errs = append(errs, fmt.Sprintf("host.frame_rate must be 1-1000, got %d", h.FrameRate))
	}
	if h.InstructionLimit < 0 {
		errs = append(errs, fmt.Sprintf("host.instruction_limit must be >= 0, got %d", h.InstructionLimit))
	}
	if h.EliminationOdds < 1 {
		errs = append(errs, fmt.Sprintf("host.elimination_odds must be >= 1, got %d", h.EliminationOdds))
	}
	if h.MaxMatches < 0 {
		errs = append(errs, fmt.Sprintf("host.max_matches must be >= 0, got %d", h.MaxMatches))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with ARENA_ prefix
	v.SetEnvPrefix("ARENA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	return LoadFromViper(v)
}

// LoadDefaults returns the default configuration with environment overrides
// applied, for running without a config file.
//
// Postcondition: Returns a valid Config or a non-nil error.
func LoadDefaults() (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("ARENA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("match.rounds_to_win", 3)
	v.SetDefault("match.num_coins", 10)
	v.SetDefault("match.start_delay", "3s")
	v.SetDefault("match.end_delay", "3s")
	v.SetDefault("match.spawn_delay", "1s")
	v.SetDefault("match.spawn_interval", "7.5s")
	v.SetDefault("match.spawn_min", 5)
	v.SetDefault("match.spawn_max", 10)
	v.SetDefault("match.batch_policy", string(coin.PolicyUniform))
	v.SetDefault("match.coin_base_value", 10)
	v.SetDefault("match.field_extent", 20)
	v.SetDefault("match.spawn_height", 6.0)
	v.SetDefault("match.seed", 0)

	v.SetDefault("host.frame_rate", 60)
	v.SetDefault("host.realtime", true)
	v.SetDefault("host.roster", "")
	v.SetDefault("host.valuation_script", "")
	v.SetDefault("host.instruction_limit", 0)
	v.SetDefault("host.elimination_odds", 240)
	v.SetDefault("host.max_matches", 1)
}
