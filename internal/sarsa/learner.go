// Package sarsa learns a Pig policy against a fixed opponent with on-policy
// temporal difference control.
//
// The opponent is part of the environment: whenever the learner's turn ends
// without a win, the opponent plays its whole turn before the learner sees the
// next state. Every decision point the learner observes is therefore its own.
package sarsa

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"github.com/mitchelldurbincs/PigReinforcementLearning/internal/evaluator"
	"github.com/mitchelldurbincs/PigReinforcementLearning/internal/game"
	"github.com/mitchelldurbincs/PigReinforcementLearning/internal/table"
	"github.com/mitchelldurbincs/PigReinforcementLearning/internal/training"
)

var (
	ErrInvalidConfig = errors.New("invalid sarsa configuration")
	ErrNilModel      = errors.New("model is nil")
	ErrNilOpponent   = errors.New("opponent strategy is nil")
)

// Config holds learner hyperparameters
type Config struct {
	Epsilon float64 // exploration rate in [0, 1]
	Alpha   float64 // learning rate in (0, 1]
	Decay   float64 // multiplier applied to Epsilon and Alpha after each Run

	// Episodes and Epochs size Train: Epochs calls to Run of Episodes each
	Episodes int
	Epochs   int

	// EvaluateEvery is the episode interval between evaluations of the greedy
	// policy against the opponent. Zero disables evaluation.
	EvaluateEvery   int
	EvaluationGames int

	// ZeroInit starts Q at zero instead of uniform random values
	ZeroInit bool
}

// DefaultConfig returns the hyperparameters used for the standard game
func DefaultConfig() Config {
	return Config{
		Epsilon:         0.25,
		Alpha:           0.05,
		Decay:           0.99,
		Episodes:        10000,
		Epochs:          1,
		EvaluateEvery:   1000,
		EvaluationGames: 250,
	}
}

// Validate checks the configuration ranges
func (c Config) Validate() error {
	switch {
	case math.IsNaN(c.Epsilon) || c.Epsilon < 0 || c.Epsilon > 1:
		return fmt.Errorf("%w: epsilon %v not in [0, 1]", ErrInvalidConfig, c.Epsilon)
	case !(c.Alpha > 0 && c.Alpha <= 1):
		return fmt.Errorf("%w: alpha %v not in (0, 1]", ErrInvalidConfig, c.Alpha)
	case !(c.Decay > 0 && c.Decay <= 1):
		return fmt.Errorf("%w: decay %v not in (0, 1]", ErrInvalidConfig, c.Decay)
	case c.Episodes <= 0:
		return fmt.Errorf("%w: episodes must be positive", ErrInvalidConfig)
	case c.Epochs <= 0:
		return fmt.Errorf("%w: epochs must be positive", ErrInvalidConfig)
	case c.EvaluateEvery < 0:
		return fmt.Errorf("%w: evaluate_every must not be negative", ErrInvalidConfig)
	case c.EvaluateEvery > 0 && c.EvaluationGames <= 0:
		return fmt.Errorf("%w: evaluation_games must be positive when evaluating", ErrInvalidConfig)
	}
	return nil
}

// Stats summarises a call to Run
type Stats struct {
	Episodes    int
	Steps       int // learner updates
	WinRate     float64
	Evaluations int
	Duration    time.Duration
}

// Learner owns Q and the exploration and learning rates
type Learner struct {
	model    *game.Model
	opponent game.Strategy
	cfg      Config
	rng      *rand.Rand
	q        *table.Grid4[float64]
	eval     *evaluator.Evaluator

	eps      float64
	alpha    float64
	episodes int // episodes played across all runs, used as the metric step

	logger   zerolog.Logger
	sink     training.Sink
	progress training.Progress
}

// NewLearner validates cfg and initialises Q for the model's target score
func NewLearner(model *game.Model, opponent game.Strategy, cfg Config, rng *rand.Rand, logger zerolog.Logger) (*Learner, error) {
	if model == nil {
		return nil, ErrNilModel
	}
	if opponent == nil {
		return nil, ErrNilOpponent
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if p, ok := opponent.(*game.Policy); ok && p.Target() != model.Target() {
		return nil, fmt.Errorf("%w: opponent policy sized for target %d, model target %d",
			ErrInvalidConfig, p.Target(), model.Target())
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	q, err := table.NewGrid4[float64](model.Target(), game.NumActions)
	if err != nil {
		return nil, err
	}
	if !cfg.ZeroInit {
		q.Fill(func(_, _, _, _ int) float64 { return rng.Float64() })
	}

	eval, err := evaluator.New(model, evaluator.DefaultConfig(), logger)
	if err != nil {
		return nil, err
	}

	return &Learner{
		model:    model,
		opponent: opponent,
		cfg:      cfg,
		rng:      rng,
		q:        q,
		eval:     eval,
		eps:      cfg.Epsilon,
		alpha:    cfg.Alpha,
		logger:   logger.With().Str("component", "sarsa").Logger(),
		sink:     training.NopSink{},
		progress: training.NopProgress{},
	}, nil
}

// SetSink installs a metrics sink. nil restores the no-op sink.
func (l *Learner) SetSink(sink training.Sink) {
	if sink == nil {
		sink = training.NopSink{}
	}
	l.sink = sink
}

// SetProgress installs a progress reporter. nil restores the no-op reporter.
func (l *Learner) SetProgress(progress training.Progress) {
	if progress == nil {
		progress = training.NopProgress{}
	}
	l.progress = progress
}

// Epsilon returns the current exploration rate
func (l *Learner) Epsilon() float64 { return l.eps }

// Alpha returns the current learning rate
func (l *Learner) Alpha() float64 { return l.alpha }

// Q returns the action value of a in s. Terminal states are worth 0.
func (l *Learner) Q(s game.State, a game.Action) float64 {
	if s.Terminal(l.model.Target()) {
		return 0
	}
	return l.q.At(s.Yours, s.Opponent, s.Turn, int(a))
}

// Values returns a snapshot of Q
func (l *Learner) Values() *table.Grid4[float64] {
	return l.q.Clone()
}

// SetValues replaces Q, for example to resume from a saved table
func (l *Learner) SetValues(q *table.Grid4[float64]) error {
	if q == nil || q.Side() != l.model.Target() || q.Depth() != game.NumActions {
		return fmt.Errorf("%w: q table does not match target %d", table.ErrShapeMismatch, l.model.Target())
	}
	copy(l.q.Data(), q.Data())
	return nil
}

// GreedyPolicy projects Q onto a policy, preferring Hold on ties
func (l *Learner) GreedyPolicy() *game.Policy {
	p, _ := game.NewPolicy(l.model.Target())
	for _, s := range game.PlayableStates(l.model.Target()) {
		p.Set(s, game.Action(l.q.Argmax(s.Yours, s.Opponent, s.Turn)))
	}
	return p
}

// selectAction is epsilon-greedy over Q(s, .). A zero turn total must roll.
func (l *Learner) selectAction(s game.State) game.Action {
	if s.Turn == 0 {
		return game.Roll
	}
	if l.eps > 0 && l.rng.Float64() < l.eps {
		return game.Action(l.rng.Intn(game.NumActions))
	}
	return game.Action(l.q.Argmax(s.Yours, s.Opponent, s.Turn))
}

// opponentTurn plays the opponent's whole turn from the learner's state s,
// where s has just ended the learner's turn. It returns the learner's next
// state and whether the opponent won.
func (l *Learner) opponentTurn(s game.State) (game.State, bool, error) {
	out, err := l.model.PlayTurn(s.Flip(), l.opponent, l.rng)
	if err != nil {
		return game.State{}, false, fmt.Errorf("opponent turn from %v: %w", s, err)
	}
	return game.Handover(out), out.Won, nil
}

// episode plays one game from the opening state and returns the number of
// updates applied
func (l *Learner) episode() (int, error) {
	s, a := game.State{}, game.Roll
	steps := 0
	for {
		out, err := l.model.TakeAction(s, a, l.rng)
		if err != nil {
			return steps, fmt.Errorf("learner %v at %v: %w", a, s, err)
		}

		next, reward, done := out.State, 0.0, out.Won
		if out.Won {
			reward = 1
		} else if !out.Continues {
			next, done, err = l.opponentTurn(next)
			if err != nil {
				return steps, err
			}
		}

		target := reward
		var nextA game.Action
		if !done {
			nextA = l.selectAction(next)
			target += l.Q(next, nextA)
		}
		l.q.Add(s.Yours, s.Opponent, s.Turn, int(a), l.alpha*(target-l.q.At(s.Yours, s.Opponent, s.Turn, int(a))))
		steps++

		if done {
			return steps, nil
		}
		s, a = next, nextA
	}
}

// evaluate plays the greedy projection against the opponent and reports the
// win rate, exploration rate and learning rate at the current episode
func (l *Learner) evaluate(ctx context.Context) (float64, error) {
	res, err := l.eval.Evaluate(ctx, l.cfg.EvaluationGames, l.GreedyPolicy(), l.opponent, l.rng)
	if err != nil {
		return 0, err
	}
	l.sink.Scalar(training.MetricWinRate, res.WinRateA, l.episodes)
	l.sink.Scalar(training.MetricEpsilon, l.eps, l.episodes)
	l.sink.Scalar(training.MetricAlpha, l.alpha, l.episodes)
	return res.WinRateA, nil
}

// Run plays episodes games, updating Q after every learner action, and decays
// the exploration and learning rates once all of them are done.
//
// ctx is checked between episodes. A cancelled run keeps the updates of the
// episodes it completed and skips the decay.
func (l *Learner) Run(ctx context.Context, episodes int) (Stats, error) {
	if episodes <= 0 {
		return Stats{}, fmt.Errorf("%w: episodes must be positive", ErrInvalidConfig)
	}
	start := time.Now()
	stats := Stats{}

	l.logger.Info().
		Int("episodes", episodes).
		Int("target", l.model.Target()).
		Float64("epsilon", l.eps).
		Float64("alpha", l.alpha).
		Msg("Starting SARSA run")

	for ep := 0; ep < episodes; ep++ {
		if err := ctx.Err(); err != nil {
			stats.Duration = time.Since(start)
			l.logger.Warn().Err(err).Int("episode", ep).Msg("SARSA run interrupted")
			return stats, err
		}

		steps, err := l.episode()
		stats.Steps += steps
		if err != nil {
			return stats, err
		}
		stats.Episodes++

		if l.cfg.EvaluateEvery > 0 && ep%l.cfg.EvaluateEvery == 0 {
			rate, err := l.evaluate(ctx)
			if err != nil {
				return stats, err
			}
			stats.WinRate = rate
			stats.Evaluations++
		}
		l.episodes++
		l.progress.Status(ep+1, episodes, fmt.Sprintf("latest win rate %.1f%%", 100*stats.WinRate))
	}

	l.eps *= l.cfg.Decay
	l.alpha *= l.cfg.Decay

	stats.Duration = time.Since(start)
	l.logger.Info().
		Int("episodes", stats.Episodes).
		Int("steps", stats.Steps).
		Float64("win_rate", stats.WinRate).
		Float64("epsilon", l.eps).
		Float64("alpha", l.alpha).
		Dur("duration", stats.Duration).
		Msg("SARSA run complete")
	return stats, nil
}

// Train implements training.Trainer. It performs Epochs runs of Episodes
// episodes, decaying the rates after each.
func (l *Learner) Train(ctx context.Context) (*game.Policy, error) {
	for epoch := 0; epoch < l.cfg.Epochs; epoch++ {
		if _, err := l.Run(ctx, l.cfg.Episodes); err != nil {
			return nil, fmt.Errorf("epoch %d: %w", epoch, err)
		}
	}
	return l.GreedyPolicy(), nil
}
