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
	"github.com/mitchelldurbincs/PigReinforcementLearning/internal/config"
	"github.com/mitchelldurbincs/PigReinforcementLearning/internal/evaluator"
	"github.com/mitchelldurbincs/PigReinforcementLearning/internal/game"
	"github.com/mitchelldurbincs/PigReinforcementLearning/internal/logging"
	"github.com/mitchelldurbincs/PigReinforcementLearning/internal/sarsa"
	"github.com/mitchelldurbincs/PigReinforcementLearning/internal/storage"
	"github.com/mitchelldurbincs/PigReinforcementLearning/internal/training"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error) (empty to use config default)")
	seed := flag.Int64("seed", 0, "Random seed (0 to use config default)")
	opponentPath := flag.String("opponent", "", "Policy file of the fixed opponent (empty for hold-at-N, \"optimal\" to solve it)")
	resume := flag.String("resume", "", "Run directory holding a Q table to continue training from")
	episodes := flag.Int("episodes", 0, "Episodes per epoch (0 to use config default)")
	epochs := flag.Int("epochs", 0, "Number of epochs (0 to use config default)")
	watch := flag.Bool("watch", false, "Reload the log level when the config file changes")
	flag.Parse()

	cfg, logger, err := app.Load(*configPath, os.Getenv("APP_ENV"), *logLevel)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	overrides := map[string]interface{}{}
	if *seed != 0 {
		overrides["seed"] = *seed
	}
	if *episodes > 0 {
		overrides["sarsa.episodes"] = *episodes
	}
	if *epochs > 0 {
		overrides["sarsa.epochs"] = *epochs
	}
	if cfg, err = app.Override(overrides); err != nil {
		logger.Fatal().Err(err).Msg("Invalid configuration")
	}

	if *watch && config.ConfigFilePath() != "" {
		config.WatchConfig(func() {
			level := config.Get().Logging.Level
			logging.SetLevel(level)
			log.Info().Str("level", level).Msg("Config reloaded")
		})
	}

	model, err := cfg.Game.Model()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to build game model")
	}
	rng, usedSeed := app.RNG(cfg.Seed)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var opponent *game.Policy
	if *opponentPath == "optimal" {
		opponent, err = app.SolvePolicy(ctx, model, cfg.Solver.Config(), rng, logger)
	} else {
		opponent, err = app.Policy(model, *opponentPath, cfg.Sarsa.OpponentHoldAt)
	}
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load opponent policy")
	}

	run, err := app.NewRun(cfg.Storage.Dir, "fixed_opponent_sarsa_", logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create run")
	}
	defer run.Close()

	run.Logger.Info().
		Int64("seed", usedSeed).
		Str("rules", model.Rules().String()).
		Int("target", model.Target()).
		Str("opponent", *opponentPath).
		Int("opponent_hold_at", cfg.Sarsa.OpponentHoldAt).
		Msg("Starting SARSA driver")

	learner, err := sarsa.NewLearner(model, opponent, cfg.Sarsa.Learner(), rng, run.Logger)
	if err != nil {
		run.Logger.Fatal().Err(err).Msg("Failed to create learner")
	}
	if *resume != "" {
		q, err := storage.NewStore(*resume, run.ID, run.Logger).LoadQ(storage.KeyFor(model, storage.KindQ))
		if err != nil {
			run.Logger.Fatal().Err(err).Msg("Failed to load Q table")
		}
		if err := learner.SetValues(q); err != nil {
			run.Logger.Fatal().Err(err).Msg("Failed to restore Q table")
		}
	}
	learner.SetSink(run.Sink)
	learner.SetProgress(training.NewLogProgress(run.Logger, max(1, cfg.Sarsa.Episodes/100)))

	var trainer training.Trainer = learner
	policy, trainErr := trainer.Train(ctx)
	if trainErr != nil {
		// Keep what was learned before the interruption
		run.Logger.Error().Err(trainErr).Msg("Training stopped early")
		policy = learner.GreedyPolicy()
	}

	key := storage.KeyFor(model, storage.KindQ)
	if _, err := run.Store.SaveQ(key, learner.Values()); err != nil {
		run.Logger.Fatal().Err(err).Msg("Failed to save Q table")
	}
	if _, err := run.Store.SavePolicy(key, policy); err != nil {
		run.Logger.Fatal().Err(err).Msg("Failed to save greedy policy")
	}
	if trainErr != nil {
		stop()
		run.Close()
		os.Exit(1)
	}

	ev, err := evaluator.New(model, cfg.Evaluator.Config(), run.Logger)
	if err != nil {
		run.Logger.Fatal().Err(err).Msg("Failed to create evaluator")
	}
	res, err := ev.Evaluate(ctx, cfg.Evaluator.Games, policy, opponent, rng)
	if err != nil {
		run.Logger.Fatal().Err(err).Msg("Evaluation failed")
	}

	fmt.Printf("Greedy policy vs opponent over %d games: %.2f%% +/- %.2f%%\n",
		res.Games, 100*res.WinRateA, 100*res.StdErr)
	fmt.Printf("Final epsilon %.4g, alpha %.4g\n", learner.Epsilon(), learner.Alpha())
	fmt.Printf("Results written to %s\n", run.Dir)
}
