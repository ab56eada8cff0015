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
	"github.com/mitchelldurbincs/PigReinforcementLearning/internal/game"
	"github.com/mitchelldurbincs/PigReinforcementLearning/internal/solver"
	"github.com/mitchelldurbincs/PigReinforcementLearning/internal/storage"
	"github.com/mitchelldurbincs/PigReinforcementLearning/internal/training"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error) (empty to use config default)")
	seed := flag.Int64("seed", 0, "Random seed (0 to use config default)")
	target := flag.Int("target", 0, "Target score (0 to use config default)")
	dice := flag.Int("dice", 0, "Dice sides (0 to use config default)")
	variant := flag.String("variant", "", "Ruleset variant, standard or piglet (empty to use config default)")
	epsilon := flag.Float64("epsilon", 0, "Convergence threshold (0 to use config default)")
	baseline := flag.Int("baseline", 20, "Hold-at-N baseline the optimal policy is evaluated against")
	flag.Parse()

	cfg, logger, err := app.Load(*configPath, os.Getenv("APP_ENV"), *logLevel)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Use config defaults if not overridden by flags
	overrides := map[string]interface{}{}
	if *seed != 0 {
		overrides["seed"] = *seed
	}
	if *target > 0 {
		overrides["game.target_score"] = *target
	}
	if *dice > 0 {
		overrides["game.dice_sides"] = *dice
	}
	if *variant != "" {
		overrides["game.variant"] = *variant
	}
	if *epsilon > 0 {
		overrides["solver.epsilon"] = *epsilon
	}
	if cfg, err = app.Override(overrides); err != nil {
		logger.Fatal().Err(err).Msg("Invalid configuration")
	}

	model, err := cfg.Game.Model()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to build game model")
	}
	rng, usedSeed := app.RNG(cfg.Seed)

	run, err := app.NewRun(cfg.Storage.Dir, "value_iteration_", logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create run")
	}
	defer run.Close()

	run.Logger.Info().
		Int64("seed", usedSeed).
		Str("rules", model.Rules().String()).
		Int("target", model.Target()).
		Msg("Starting value iteration driver")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	vi, err := solver.NewValueIteration(model, cfg.Solver.Config(), rng, run.Logger)
	if err != nil {
		run.Logger.Fatal().Err(err).Msg("Failed to create solver")
	}
	vi.SetSink(run.Sink)
	vi.SetProgress(training.NewLogProgress(run.Logger, 10))

	var trainer training.Trainer = vi
	policy, err := trainer.Train(ctx)
	if err != nil {
		run.Logger.Fatal().Err(err).Msg("Value iteration failed")
	}

	key := storage.KeyFor(model, storage.KindValue)
	if _, err := run.Store.SaveValues(key, vi.Values()); err != nil {
		run.Logger.Fatal().Err(err).Msg("Failed to save values")
	}
	if _, err := run.Store.SavePolicy(key, policy); err != nil {
		run.Logger.Fatal().Err(err).Msg("Failed to save policy")
	}

	baselinePolicy, err := game.HoldAtN(model.Target(), *baseline)
	if err != nil {
		run.Logger.Fatal().Err(err).Msg("Failed to build baseline policy")
	}
	ev, err := evaluator.New(model, cfg.Evaluator.Config(), run.Logger)
	if err != nil {
		run.Logger.Fatal().Err(err).Msg("Failed to create evaluator")
	}
	res, err := ev.Evaluate(ctx, cfg.Evaluator.Games, policy, baselinePolicy, rng)
	if err != nil {
		run.Logger.Fatal().Err(err).Msg("Evaluation failed")
	}
	run.Sink.Scalar(training.MetricWinRate, res.WinRateA, 0)

	fmt.Printf("First player win probability: %.4f\n", vi.Value(game.State{}))
	fmt.Printf("Optimal vs hold-at-%d over %d games: %.2f%% +/- %.2f%%\n",
		*baseline, res.Games, 100*res.WinRateA, 100*res.StdErr)
	fmt.Printf("Results written to %s\n", run.Dir)
}
