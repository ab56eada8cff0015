// Package app holds the wiring shared by the command line drivers: config
// loading, logging, seeding and the per-run event plumbing.
package app

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/mitchelldurbincs/PigReinforcementLearning/internal/config"
	"github.com/mitchelldurbincs/PigReinforcementLearning/internal/events"
	"github.com/mitchelldurbincs/PigReinforcementLearning/internal/events/subscribers"
	"github.com/mitchelldurbincs/PigReinforcementLearning/internal/game"
	"github.com/mitchelldurbincs/PigReinforcementLearning/internal/logging"
	"github.com/mitchelldurbincs/PigReinforcementLearning/internal/metrics"
	"github.com/mitchelldurbincs/PigReinforcementLearning/internal/solver"
	"github.com/mitchelldurbincs/PigReinforcementLearning/internal/storage"
)

// Load initialises config from configPath, merges the APP_ENV overlay and
// sets up logging. levelOverride wins over the configured level when set.
func Load(configPath, env, levelOverride string) (*config.Config, zerolog.Logger, error) {
	if err := config.Init(configPath); err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("failed to initialize config: %w", err)
	}
	if err := config.LoadEnvironmentConfig(env); err != nil {
		return nil, zerolog.Nop(), err
	}
	if levelOverride != "" {
		if err := config.Set("logging.level", levelOverride); err != nil {
			return nil, zerolog.Nop(), err
		}
	}
	cfg := config.Get()
	if err := config.Validate(cfg); err != nil {
		return nil, zerolog.Nop(), err
	}
	logger := logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	return cfg, logger, nil
}

// Override applies flag overrides keyed by config path and validates the
// result
func Override(overrides map[string]interface{}) (*config.Config, error) {
	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := config.Set(k, overrides[k]); err != nil {
			return nil, err
		}
	}
	cfg := config.Get()
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// RNG returns a random source for seed, using the clock when seed is zero,
// along with the seed actually used
func RNG(seed int64) (*rand.Rand, int64) {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed)), seed
}

// Run is the plumbing of one training or evaluation run: a timestamped
// directory, a table store, an event bus with a log subscriber and a CSV
// metrics subscriber
type Run struct {
	ID      string
	Dir     string
	Bus     *events.EventBus
	Sink    *events.SinkAdapter
	Store   *storage.Store
	Metrics *metrics.CSVWriter
	Logger  zerolog.Logger
}

// NewRun creates the run directory under base and wires the subscribers
func NewRun(base, prefix string, logger zerolog.Logger) (*Run, error) {
	dir, err := storage.NewRunDir(base, prefix)
	if err != nil {
		return nil, err
	}
	id := storage.NewRunID()
	runLogger := logger.With().Str("run_id", id).Logger()

	bus := events.NewEventBus(runLogger)
	logSub := subscribers.NewLoggerSubscriber("run_logger", runLogger, zerolog.DebugLevel)
	logSub.SetEventFilter([]string{events.TypeMetricScalar, events.TypeTableSaved})
	csv, err := metrics.NewCSVWriter(dir, runLogger)
	if err != nil {
		return nil, err
	}
	for _, sub := range []events.Subscriber{logSub, csv} {
		if err := bus.Subscribe(sub); err != nil {
			csv.Close()
			return nil, err
		}
	}

	sink := events.NewSinkAdapter(bus, id)
	store := storage.NewStore(dir, id, runLogger)
	store.SetNotifier(sink)

	runLogger.Info().Str("dir", dir).Msg("Run directory created")
	return &Run{
		ID:      id,
		Dir:     dir,
		Bus:     bus,
		Sink:    sink,
		Store:   store,
		Metrics: csv,
		Logger:  runLogger,
	}, nil
}

// Close flushes the metrics file
func (r *Run) Close() error {
	return r.Metrics.Close()
}

// Policy loads the policy stored at path for model, or builds a hold-at-N
// policy when path is empty
func Policy(model *game.Model, path string, holdAt int) (*game.Policy, error) {
	if path == "" {
		return game.HoldAtN(model.Target(), holdAt)
	}
	return storage.LoadPolicyFile(path, storage.KeyFor(model, storage.KindPolicy))
}

// SolvePolicy runs value iteration for model and returns the optimal policy
func SolvePolicy(ctx context.Context, model *game.Model, cfg solver.Config, rng *rand.Rand, logger zerolog.Logger) (*game.Policy, error) {
	vi, err := solver.NewValueIteration(model, cfg, rng, logger)
	if err != nil {
		return nil, err
	}
	return vi.Train(ctx)
}
