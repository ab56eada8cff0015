package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/mitchelldurbincs/PigReinforcementLearning/internal/app"
	"github.com/mitchelldurbincs/PigReinforcementLearning/internal/evaluator"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error) (empty to use config default)")
	seed := flag.Int64("seed", 0, "Random seed (0 to use config default)")
	pathA := flag.String("a", "", "Policy file for player A (empty for hold-at-N)")
	pathB := flag.String("b", "", "Policy file for player B (empty for hold-at-N)")
	holdA := flag.Int("a-hold", 20, "Hold-at-N threshold for player A when no file is given")
	holdB := flag.Int("b-hold", 20, "Hold-at-N threshold for player B when no file is given")
	games := flag.Int("games", 0, "Number of games (0 to use config default)")
	workers := flag.Int("workers", 0, "Evaluation workers (0 to use config default)")
	flag.Parse()

	cfg, logger, err := app.Load(*configPath, os.Getenv("APP_ENV"), *logLevel)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	overrides := map[string]interface{}{}
	if *seed != 0 {
		overrides["seed"] = *seed
	}
	if *games > 0 {
		overrides["evaluator.games"] = *games
	}
	if *workers > 0 {
		overrides["evaluator.workers"] = *workers
	}
	if cfg, err = app.Override(overrides); err != nil {
		logger.Fatal().Err(err).Msg("Invalid configuration")
	}

	model, err := cfg.Game.Model()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to build game model")
	}
	rng, usedSeed := app.RNG(cfg.Seed)

	a, err := app.Policy(model, *pathA, *holdA)
	if err != nil {
		logger.Fatal().Err(err).Str("player", "a").Msg("Failed to load policy")
	}
	b, err := app.Policy(model, *pathB, *holdB)
	if err != nil {
		logger.Fatal().Err(err).Str("player", "b").Msg("Failed to load policy")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ev, err := evaluator.New(model, cfg.Evaluator.Config(), logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create evaluator")
	}

	logger.Info().
		Int64("seed", usedSeed).
		Int("games", cfg.Evaluator.Games).
		Int("workers", cfg.Evaluator.Workers).
		Msg("Starting evaluation")

	res, err := ev.Evaluate(ctx, cfg.Evaluator.Games, a, b, rng)
	if err != nil {
		logger.Fatal().Err(err).Msg("Evaluation failed")
	}

	logger.Info().
		Int("wins_a", res.WinsA).
		Int("wins_b", res.WinsB).
		Float64("win_rate_a", res.WinRateA).
		Float64("std_err", res.StdErr).
		Dur("duration", res.Duration).
		Msg("Evaluation complete")
	fmt.Printf("A: %.2f%%  B: %.2f%%  (+/- %.2f%%, %d games)\n",
		100*res.WinRateA, 100*res.WinRateB, 100*res.StdErr, res.Games)
}
