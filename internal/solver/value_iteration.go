// Package solver computes the optimal Pig policy by value iteration.
//
// V(s) is the probability that the player to act in s wins under optimal
// play by both sides. The discount factor is 1 and the only reward is the
// terminal win, so V is a probability. Holding or busting hands the move to
// the opponent, so those branches read the opponent's value and take its
// complement.
package solver

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"github.com/mitchelldurbincs/PigReinforcementLearning/internal/game"
	"github.com/mitchelldurbincs/PigReinforcementLearning/internal/table"
	"github.com/mitchelldurbincs/PigReinforcementLearning/internal/training"
)

var (
	ErrInvalidEpsilon = errors.New("convergence threshold must be positive")
	ErrNilModel       = errors.New("model is nil")
	ErrEnumeration    = errors.New("state enumeration does not cover the playable states")
)

// Config holds solver settings
type Config struct {
	// Epsilon is the convergence threshold on the largest change in a pass
	Epsilon float64
}

// DefaultConfig returns the default solver configuration
func DefaultConfig() Config {
	return Config{Epsilon: 1e-6}
}

// Stats summarises a call to Run
type Stats struct {
	Passes          int   // passes over any partition
	PartitionPasses []int // passes needed by each partition, indexed by score sum
	Delta           float64
	Duration        time.Duration
}

// ValueIteration owns V and the greedy policy derived from it
type ValueIteration struct {
	model      *game.Model
	cfg        Config
	target     int
	sides      float64
	scoring    []int
	v          *table.Grid3[float64]
	policy     *game.Policy
	partitions [][]game.State

	logger   zerolog.Logger
	sink     training.Sink
	progress training.Progress
}

// NewValueIteration validates cfg, enumerates the playable states of model and
// fills V with uniform random values from rng
func NewValueIteration(model *game.Model, cfg Config, rng *rand.Rand, logger zerolog.Logger) (*ValueIteration, error) {
	if model == nil {
		return nil, ErrNilModel
	}
	if !(cfg.Epsilon > 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEpsilon, cfg.Epsilon)
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	target := model.Target()
	v, err := table.NewGrid3[float64](target)
	if err != nil {
		return nil, err
	}
	v.Fill(func(_, _, _ int) float64 { return rng.Float64() })

	policy, err := game.NewPolicy(target)
	if err != nil {
		return nil, err
	}

	partitions := game.PartitionBySum(target)
	if err := validatePartitions(partitions, target); err != nil {
		return nil, err
	}

	return &ValueIteration{
		model:      model,
		cfg:        cfg,
		target:     target,
		sides:      float64(model.DiceSides()),
		scoring:    model.Rules().ScoringRolls(),
		v:          v,
		policy:     policy,
		partitions: partitions,
		logger:     logger.With().Str("component", "value_iteration").Logger(),
		sink:       training.NopSink{},
		progress:   training.NopProgress{},
	}, nil
}

// validatePartitions checks every playable state appears exactly once and
// every partition only holds states with the matching score sum
func validatePartitions(partitions [][]game.State, target int) error {
	seen, err := table.NewGrid3[uint8](target)
	if err != nil {
		return err
	}
	count := 0
	for sum, part := range partitions {
		for _, s := range part {
			if !s.Playable(target) || s.Yours+s.Opponent != sum {
				return fmt.Errorf("%w: %v in partition %d", ErrEnumeration, s, sum)
			}
			if seen.At(s.Yours, s.Opponent, s.Turn) != 0 {
				return fmt.Errorf("%w: %v listed twice", ErrEnumeration, s)
			}
			seen.Set(s.Yours, s.Opponent, s.Turn, 1)
			count++
		}
	}
	if want := game.NumPlayableStates(target); count != want {
		return fmt.Errorf("%w: %d states, want %d", ErrEnumeration, count, want)
	}
	return nil
}

// SetSink installs a metrics sink. nil restores the no-op sink.
func (vi *ValueIteration) SetSink(sink training.Sink) {
	if sink == nil {
		sink = training.NopSink{}
	}
	vi.sink = sink
}

// SetProgress installs a progress reporter. nil restores the no-op reporter.
func (vi *ValueIteration) SetProgress(progress training.Progress) {
	if progress == nil {
		progress = training.NopProgress{}
	}
	vi.progress = progress
}

// Value returns V(s), 1 for won states and 0 for lost states
func (vi *ValueIteration) Value(s game.State) float64 {
	if s.Won(vi.target) {
		return 1
	}
	if s.Lost(vi.target) {
		return 0
	}
	return vi.v.At(s.Yours, s.Opponent, s.Turn)
}

// HoldValue is the win probability of banking the turn total in s
func (vi *ValueIteration) HoldValue(s game.State) float64 {
	return 1 - vi.Value(s.Bank().Flip())
}

// RollValue is the expected win probability of rolling in s
func (vi *ValueIteration) RollValue(s game.State) float64 {
	total := 1 - vi.Value(s.Flip())
	for _, points := range vi.scoring {
		total += vi.Value(game.State{Yours: s.Yours, Opponent: s.Opponent, Turn: s.Turn + points})
	}
	return total / vi.sides
}

// backup computes the Bellman target and the greedy action for s. A zero
// turn total can only roll.
func (vi *ValueIteration) backup(s game.State) (float64, game.Action) {
	vRoll := vi.RollValue(s)
	if s.Turn == 0 {
		return vRoll, game.Roll
	}
	if vHold := vi.HoldValue(s); vHold >= vRoll {
		return vHold, game.Hold
	}
	return vRoll, game.Roll
}

// sweep performs one in-place pass over states and returns the largest change
func (vi *ValueIteration) sweep(states []game.State) float64 {
	delta := 0.0
	for _, s := range states {
		old := vi.v.At(s.Yours, s.Opponent, s.Turn)
		v, a := vi.backup(s)
		vi.v.Set(s.Yours, s.Opponent, s.Turn, v)
		vi.policy.Set(s, a)
		if d := math.Abs(v - old); d > delta {
			delta = d
		}
	}
	return delta
}

// Run solves V in place. Partitions of equal banked-score sum are converged
// one at a time from the largest sum down: holding moves to a strictly larger
// sum and rolling stays within the sum, so a partition only reads itself and
// partitions that are already converged.
//
// Run checks ctx between passes. Updates made before cancellation are kept.
func (vi *ValueIteration) Run(ctx context.Context) (Stats, error) {
	start := time.Now()
	stats := Stats{PartitionPasses: make([]int, len(vi.partitions))}

	vi.logger.Info().
		Int("target", vi.target).
		Str("rules", vi.model.Rules().String()).
		Int("states", game.NumPlayableStates(vi.target)).
		Float64("epsilon", vi.cfg.Epsilon).
		Msg("Starting value iteration")

	done := 0
	for sum := len(vi.partitions) - 1; sum >= 0; sum-- {
		part := vi.partitions[sum]
		for {
			if err := ctx.Err(); err != nil {
				stats.Duration = time.Since(start)
				vi.logger.Warn().Err(err).Int("partition", sum).Msg("Value iteration interrupted")
				return stats, err
			}
			delta := vi.sweep(part)
			stats.Passes++
			stats.PartitionPasses[sum]++
			vi.sink.Scalar(training.MetricDelta, delta, stats.Passes)
			if delta < vi.cfg.Epsilon {
				if delta > stats.Delta {
					stats.Delta = delta
				}
				break
			}
		}
		done++
		vi.progress.Status(done, len(vi.partitions),
			fmt.Sprintf("partition %d converged after %d passes", sum, stats.PartitionPasses[sum]))
	}

	stats.Duration = time.Since(start)
	vi.sink.Scalar(training.MetricSweeps, float64(stats.Passes), stats.Passes)
	vi.logger.Info().
		Int("passes", stats.Passes).
		Float64("delta", stats.Delta).
		Dur("duration", stats.Duration).
		Float64("start_value", vi.Value(game.State{})).
		Msg("Value iteration converged")
	return stats, nil
}

// Train implements training.Trainer
func (vi *ValueIteration) Train(ctx context.Context) (*game.Policy, error) {
	if _, err := vi.Run(ctx); err != nil {
		return nil, err
	}
	return vi.Policy(), nil
}

// Policy returns a snapshot of the greedy policy
func (vi *ValueIteration) Policy() *game.Policy {
	return vi.policy.Clone()
}

// Values returns a snapshot of V
func (vi *ValueIteration) Values() *table.Grid3[float64] {
	return vi.v.Clone()
}

// SetValues replaces V, for example with a table saved by an earlier run, and
// rederives the greedy policy from it without changing V
func (vi *ValueIteration) SetValues(v *table.Grid3[float64]) error {
	if v == nil || v.Side() != vi.target {
		return fmt.Errorf("%w: values do not match target %d", table.ErrShapeMismatch, vi.target)
	}
	copy(vi.v.Data(), v.Data())
	for _, part := range vi.partitions {
		for _, s := range part {
			_, a := vi.backup(s)
			vi.policy.Set(s, a)
		}
	}
	return nil
}
