package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/mitchelldurbincs/PigReinforcementLearning/internal/evaluator"
	"github.com/mitchelldurbincs/PigReinforcementLearning/internal/game"
	"github.com/mitchelldurbincs/PigReinforcementLearning/internal/sarsa"
	"github.com/mitchelldurbincs/PigReinforcementLearning/internal/solver"
)

// ErrInvalidConfig is returned by Validate
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds all configuration for the application
type Config struct {
	Game      GameConfig      `mapstructure:"game"`
	Solver    SolverConfig    `mapstructure:"solver"`
	Sarsa     SarsaConfig     `mapstructure:"sarsa"`
	Evaluator EvaluatorConfig `mapstructure:"evaluator"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	// Seed seeds every random source of a run. Zero means seed from the clock.
	Seed int64 `mapstructure:"seed"`
}

// GameConfig holds the ruleset and target score
type GameConfig struct {
	DiceSides   int    `mapstructure:"dice_sides"`
	TargetScore int    `mapstructure:"target_score"`
	Variant     string `mapstructure:"variant"`
}

// SolverConfig holds value iteration settings
type SolverConfig struct {
	Epsilon float64 `mapstructure:"epsilon"`
}

// SarsaConfig holds learner settings
type SarsaConfig struct {
	Epsilon         float64 `mapstructure:"epsilon"`
	Alpha           float64 `mapstructure:"alpha"`
	Decay           float64 `mapstructure:"decay"`
	Episodes        int     `mapstructure:"episodes"`
	Epochs          int     `mapstructure:"epochs"`
	EvaluateEvery   int     `mapstructure:"evaluate_every"`
	EvaluationGames int     `mapstructure:"evaluation_games"`
	ZeroInit        bool    `mapstructure:"zero_init"`
	// OpponentHoldAt selects a hold-at-N opponent when no opponent policy
	// file is given
	OpponentHoldAt int `mapstructure:"opponent_hold_at"`
}

// EvaluatorConfig holds evaluation settings
type EvaluatorConfig struct {
	Games   int `mapstructure:"games"`
	Workers int `mapstructure:"workers"`
}

// StorageConfig holds where run directories are created
type StorageConfig struct {
	Dir string `mapstructure:"dir"`
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

var (
	// Global config instance
	cfg *Config
	v   *viper.Viper
)

// setViperDefaults sets all default values using Viper's SetDefault
func setViperDefaults(v *viper.Viper) {
	v.SetDefault("game.dice_sides", 6)
	v.SetDefault("game.target_score", 100)
	v.SetDefault("game.variant", string(game.VariantStandard))

	v.SetDefault("solver.epsilon", 1e-6)

	v.SetDefault("sarsa.epsilon", 0.25)
	v.SetDefault("sarsa.alpha", 0.05)
	v.SetDefault("sarsa.decay", 0.99)
	v.SetDefault("sarsa.episodes", 10000)
	v.SetDefault("sarsa.epochs", 1)
	v.SetDefault("sarsa.evaluate_every", 1000)
	v.SetDefault("sarsa.evaluation_games", 250)
	v.SetDefault("sarsa.zero_init", false)
	v.SetDefault("sarsa.opponent_hold_at", 20)

	v.SetDefault("evaluator.games", 10000)
	v.SetDefault("evaluator.workers", 1)

	v.SetDefault("storage.dir", "experiment_results")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("seed", 0)
}

// Init initializes the configuration
func Init(configPath string) error {
	v = viper.New()

	setViperDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/pig-rl")
	}

	v.SetEnvPrefix("PIG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing explicit file falls back to defaults; for the default
		// locations only ConfigFileNotFoundError is ignored
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && configPath == "" {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg = &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	return nil
}

// Get returns the global config instance
func Get() *Config {
	if cfg == nil {
		if err := Init(""); err != nil {
			panic("failed to initialize config with defaults: " + err.Error())
		}
	}
	return cfg
}

// GetViper returns the viper instance for advanced usage
func GetViper() *viper.Viper {
	if v == nil {
		panic("config not initialized - call Init() first")
	}
	return v
}

// LoadEnvironmentConfig merges config.<env>.yaml over the loaded config
func LoadEnvironmentConfig(env string) error {
	if env == "" {
		return nil
	}

	envFile := fmt.Sprintf("config.%s.yaml", env)

	v.SetConfigFile(envFile)
	if err := v.MergeInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error merging environment config %s: %w", envFile, err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("unable to decode merged config into struct: %w", err)
	}

	return Validate(cfg)
}

// Set overrides key for the rest of the process, above file and environment
// values, and refreshes the config returned by Get. Call Validate once all
// overrides are applied.
func Set(key string, value interface{}) error {
	v.Set(key, value)
	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("unable to apply override %s: %w", key, err)
	}
	return nil
}

// ConfigFilePath returns the path of the loaded config file
func ConfigFilePath() string {
	return v.ConfigFileUsed()
}

// WatchConfig enables hot-reloading of config file
func WatchConfig(onChange func()) {
	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		if err := v.Unmarshal(cfg); err != nil {
			log.Error().Err(err).Str("file", e.Name).Msg("Failed to reload config")
			return
		}
		if onChange != nil {
			onChange()
		}
	})
}

// Validate validates the configuration values
func Validate(c *Config) error {
	if _, err := c.Game.Rules(); err != nil {
		return fmt.Errorf("%w: game: %v", ErrInvalidConfig, err)
	}
	if c.Game.TargetScore <= 0 {
		return fmt.Errorf("%w: game.target_score must be positive", ErrInvalidConfig)
	}

	if !(c.Solver.Epsilon > 0) {
		return fmt.Errorf("%w: solver.epsilon must be positive", ErrInvalidConfig)
	}

	if err := c.Sarsa.Learner().Validate(); err != nil {
		return fmt.Errorf("%w: sarsa: %v", ErrInvalidConfig, err)
	}
	if c.Sarsa.OpponentHoldAt < 1 {
		return fmt.Errorf("%w: sarsa.opponent_hold_at must be at least 1", ErrInvalidConfig)
	}

	if c.Evaluator.Games <= 0 {
		return fmt.Errorf("%w: evaluator.games must be positive", ErrInvalidConfig)
	}
	if c.Evaluator.Workers < 1 {
		return fmt.Errorf("%w: evaluator.workers must be at least 1", ErrInvalidConfig)
	}

	if c.Storage.Dir == "" {
		return fmt.Errorf("%w: storage.dir must be set", ErrInvalidConfig)
	}

	if _, err := zerolog.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("%w: logging.level: %v", ErrInvalidConfig, err)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("%w: logging.format must be console or json", ErrInvalidConfig)
	}

	return nil
}

// Rules builds the ruleset described by the game section
func (g GameConfig) Rules() (game.Rules, error) {
	variant, err := game.ParseVariant(g.Variant)
	if err != nil {
		return game.Rules{}, err
	}
	return game.NewRules(g.DiceSides, variant)
}

// Model builds the transition model described by the game section
func (g GameConfig) Model() (*game.Model, error) {
	rules, err := g.Rules()
	if err != nil {
		return nil, err
	}
	return game.NewModel(rules, g.TargetScore)
}

// Config converts the solver section
func (s SolverConfig) Config() solver.Config {
	return solver.Config{Epsilon: s.Epsilon}
}

// Learner converts the sarsa section
func (s SarsaConfig) Learner() sarsa.Config {
	return sarsa.Config{
		Epsilon:         s.Epsilon,
		Alpha:           s.Alpha,
		Decay:           s.Decay,
		Episodes:        s.Episodes,
		Epochs:          s.Epochs,
		EvaluateEvery:   s.EvaluateEvery,
		EvaluationGames: s.EvaluationGames,
		ZeroInit:        s.ZeroInit,
	}
}

// Config converts the evaluator section
func (e EvaluatorConfig) Config() evaluator.Config {
	return evaluator.Config{Workers: e.Workers}
}
