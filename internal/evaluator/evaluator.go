// Package evaluator estimates win rates between two strategies by playing
// complete games through the transition model.
package evaluator

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/mitchelldurbincs/PigReinforcementLearning/internal/game"
)

var (
	ErrInvalidGames = errors.New("number of games must be positive")
	ErrNilStrategy  = errors.New("strategy is nil")
	ErrNilModel     = errors.New("model is nil")
	// ErrTargetMismatch is returned for a policy table sized for another target
	ErrTargetMismatch = errors.New("policy target does not match model")
)

// Player indices returned by PlayGame
const (
	PlayerA = 0
	PlayerB = 1
)

// Config holds evaluator settings
type Config struct {
	// Workers is the number of goroutines games are spread over. Values below
	// one mean a single worker.
	Workers int
}

// DefaultConfig returns the default evaluator configuration
func DefaultConfig() Config {
	return Config{Workers: 1}
}

// Result holds the outcome of an evaluation
type Result struct {
	Games    int
	WinsA    int
	WinsB    int
	WinRateA float64
	WinRateB float64
	// StdErr is the standard error of WinRateA
	StdErr   float64
	Duration time.Duration
}

// Evaluator plays independent games between two strategies
type Evaluator struct {
	model  *game.Model
	cfg    Config
	logger zerolog.Logger
}

// New creates an evaluator for model
func New(model *game.Model, cfg Config, logger zerolog.Logger) (*Evaluator, error) {
	if model == nil {
		return nil, ErrNilModel
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Evaluator{
		model:  model,
		cfg:    cfg,
		logger: logger.With().Str("component", "evaluator").Logger(),
	}, nil
}

// checkStrategies rejects nil strategies and policy tables that would be
// indexed outside their bounds by this model's states
func (e *Evaluator) checkStrategies(strategies ...game.Strategy) error {
	for _, st := range strategies {
		if st == nil {
			return ErrNilStrategy
		}
		if p, ok := st.(*game.Policy); ok && p.Target() != e.model.Target() {
			return fmt.Errorf("%w: policy target %d, model target %d",
				ErrTargetMismatch, p.Target(), e.model.Target())
		}
	}
	return nil
}

// PlayGame plays one game and returns PlayerA or PlayerB. The first mover is
// drawn uniformly from rng.
func (e *Evaluator) PlayGame(a, b game.Strategy, rng *rand.Rand) (int, error) {
	if err := e.checkStrategies(a, b); err != nil {
		return 0, err
	}
	players := [2]game.Strategy{a, b}
	current := rng.Intn(2)
	state := game.State{}
	for {
		out, err := e.model.PlayTurn(state, players[current], rng)
		if err != nil {
			return 0, fmt.Errorf("player %d at %v: %w", current, state, err)
		}
		if out.Won {
			return current, nil
		}
		current = 1 - current
		state = game.Handover(out)
	}
}

// Evaluate plays numGames games between a and b and returns their win rates.
//
// With more than one worker the games are split into contiguous blocks, one
// per worker. Each worker draws its dice from its own source seeded from rng
// and records outcomes into its own block, so the result depends only on the
// seed and the worker count.
func (e *Evaluator) Evaluate(ctx context.Context, numGames int, a, b game.Strategy, rng *rand.Rand) (Result, error) {
	if numGames <= 0 {
		return Result{}, fmt.Errorf("%w: %d", ErrInvalidGames, numGames)
	}
	if err := e.checkStrategies(a, b); err != nil {
		return Result{}, err
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	start := time.Now()
	workers := min(e.cfg.Workers, numGames)
	outcomes := make([]float64, numGames) // 1 when A won

	if workers == 1 {
		if err := e.playBlock(ctx, outcomes, a, b, rng); err != nil {
			return Result{}, err
		}
	} else {
		sources := make([]*rand.Rand, workers)
		for w := range sources {
			sources[w] = rand.New(rand.NewSource(rng.Int63()))
		}

		g, gctx := errgroup.WithContext(ctx)
		per := numGames / workers
		extra := numGames % workers
		lo := 0
		for w := 0; w < workers; w++ {
			hi := lo + per
			if w < extra {
				hi++
			}
			block, src := outcomes[lo:hi], sources[w]
			g.Go(func() error {
				return e.playBlock(gctx, block, a, b, src)
			})
			lo = hi
		}
		if err := g.Wait(); err != nil {
			return Result{}, err
		}
	}

	res := summarize(outcomes)
	res.Duration = time.Since(start)
	e.logger.Debug().
		Int("games", res.Games).
		Int("workers", workers).
		Float64("win_rate_a", res.WinRateA).
		Float64("std_err", res.StdErr).
		Dur("duration", res.Duration).
		Msg("Evaluation complete")
	return res, nil
}

func (e *Evaluator) playBlock(ctx context.Context, outcomes []float64, a, b game.Strategy, rng *rand.Rand) error {
	for i := range outcomes {
		if i%256 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		winner, err := e.PlayGame(a, b, rng)
		if err != nil {
			return err
		}
		if winner == PlayerA {
			outcomes[i] = 1
		}
	}
	return nil
}

func summarize(outcomes []float64) Result {
	n := len(outcomes)
	winsA := 0
	for _, o := range outcomes {
		if o == 1 {
			winsA++
		}
	}
	res := Result{
		Games:    n,
		WinsA:    winsA,
		WinsB:    n - winsA,
		WinRateA: float64(winsA) / float64(n),
	}
	res.WinRateB = 1 - res.WinRateA
	if n > 1 {
		res.StdErr = stat.StdErr(stat.StdDev(outcomes, nil), float64(n))
	}
	if math.IsNaN(res.StdErr) {
		res.StdErr = 0
	}
	return res
}
