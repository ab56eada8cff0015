// Package training holds the contracts shared by the policy producers: the
// Trainer interface and the optional metrics and progress hooks they call.
package training

import (
	"context"

	"github.com/mitchelldurbincs/PigReinforcementLearning/internal/game"
)

// Trainer produces a policy. Implemented by the value iteration solver and
// the SARSA learner.
type Trainer interface {
	Train(ctx context.Context) (*game.Policy, error)
}

// Sink receives scalar metrics keyed by name and step
type Sink interface {
	Scalar(name string, value float64, step int)
}

// Progress receives a human readable status for the current step
type Progress interface {
	Status(step, total int, msg string)
}

// Metric names emitted by the learners
const (
	MetricWinRate = "win_rate"
	MetricEpsilon = "epsilon"
	MetricAlpha   = "alpha"
	MetricDelta   = "delta"
	MetricSweeps  = "sweeps"
)

// NopSink discards every metric
type NopSink struct{}

// Scalar implements Sink
func (NopSink) Scalar(string, float64, int) {}

// NopProgress discards every status
type NopProgress struct{}

// Status implements Progress
func (NopProgress) Status(int, int, string) {}
