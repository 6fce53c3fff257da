// Package main runs arena matches headlessly: configuration, roster, and
// optional game-mode script in, a console play-by-play out.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/arena/internal/config"
	"github.com/cory-johannsen/arena/internal/content"
	"github.com/cory-johannsen/arena/internal/game/coin"
	"github.com/cory-johannsen/arena/internal/game/dice"
	"github.com/cory-johannsen/arena/internal/host"
	"github.com/cory-johannsen/arena/internal/observability"
	"github.com/cory-johannsen/arena/internal/scripting"
	"github.com/cory-johannsen/arena/internal/server"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "", "path to configuration file (defaults apply when empty)")
	rosterPath := flag.String("roster", "", "path to roster YAML; overrides host.roster")
	matches := flag.Int("matches", -1, "number of matches to play; overrides host.max_matches")
	flag.Parse()

	var (
		cfg config.Config
		err error
	)
	if *configPath == "" {
		cfg, err = config.LoadDefaults()
	} else {
		cfg, err = config.Load(*configPath)
	}
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if *rosterPath != "" {
		cfg.Host.Roster = *rosterPath
	}
	if *matches >= 0 {
		cfg.Host.MaxMatches = *matches
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	roster := content.DefaultRoster()
	if cfg.Host.Roster != "" {
		roster, err = content.LoadRoster(cfg.Host.Roster)
		if err != nil {
			logger.Fatal("loading roster", zap.Error(err))
		}
	}
	logger.Info("roster loaded",
		zap.String("arena", roster.Arena),
		zap.Int("slots", len(roster.Slots)),
	)

	var src dice.Source
	if cfg.Match.Seed != 0 {
		src = dice.NewSeededSource(cfg.Match.Seed)
		logger.Info("using seeded random source", zap.Uint64("seed", cfg.Match.Seed))
	} else {
		src = dice.NewCryptoSource()
	}
	src = dice.NewLoggedSource(src, logger)

	var valuer coin.Valuer
	if cfg.Host.ValuationScript != "" {
		v, err := scripting.NewValuerFromFile(cfg.Host.ValuationScript, cfg.Host.InstructionLimit, logger)
		if err != nil {
			logger.Fatal("loading valuation script", zap.Error(err))
		}
		defer v.Close()
		valuer = v
		logger.Info("valuation script loaded", zap.String("path", cfg.Host.ValuationScript))
	}

	runner, err := host.NewRunner(host.Deps{
		Match:  cfg.Match,
		Host:   cfg.Host,
		Roster: roster,
		Source: src,
		Valuer: valuer,
		Out:    os.Stdout,
		Logger: logger,
	})
	if err != nil {
		logger.Fatal("building match runner", zap.Error(err))
	}

	lifecycle := server.NewLifecycle(logger)
	lifecycle.Add("arena", runner)

	logger.Info("arena ready",
		zap.Int("rounds_to_win", cfg.Match.RoundsToWin),
		zap.Int("max_matches", cfg.Host.MaxMatches),
		zap.Bool("realtime", cfg.Host.Realtime),
		zap.Duration("startup", time.Since(start)),
	)

	if err := lifecycle.Run(context.Background()); err != nil {
		logger.Fatal("arena stopped with error", zap.Error(err))
	}
	for _, res := range runner.Results() {
		logger.Info("match summary",
			zap.String("match_id", res.MatchID),
			zap.String("winner", res.Winner),
			zap.Int("rounds", res.Rounds),
			zap.Any("purses", res.Purses),
		)
	}
}
