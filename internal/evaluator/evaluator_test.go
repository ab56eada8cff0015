package evaluator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mitchelldurbincs/PigReinforcementLearning/internal/game"
	"github.com/mitchelldurbincs/PigReinforcementLearning/internal/testutil"
)

func newEvaluator(t testing.TB, sides, target, workers int) (*Evaluator, *game.Model) {
	t.Helper()
	variant := game.VariantStandard
	if sides == 2 {
		variant = game.VariantPiglet
	}
	rules, err := game.NewRules(sides, variant)
	require.NoError(t, err)
	model, err := game.NewModel(rules, target)
	require.NoError(t, err)
	ev, err := New(model, Config{Workers: workers}, testutil.NopLogger())
	require.NoError(t, err)
	return ev, model
}

func holdAt(t testing.TB, target, n int) *game.Policy {
	t.Helper()
	p, err := game.HoldAtN(target, n)
	require.NoError(t, err)
	return p
}

func TestNewRejectsNilModel(t *testing.T) {
	_, err := New(nil, DefaultConfig(), testutil.NopLogger())
	assert.ErrorIs(t, err, ErrNilModel)
}

func TestEvaluateValidation(t *testing.T) {
	ev, _ := newEvaluator(t, 6, 10, 1)
	p := holdAt(t, 10, 5)
	ctx := context.Background()

	_, err := ev.Evaluate(ctx, 0, p, p, testutil.NewTestRNG(1))
	assert.ErrorIs(t, err, ErrInvalidGames)
	_, err = ev.Evaluate(ctx, -3, p, p, testutil.NewTestRNG(1))
	assert.ErrorIs(t, err, ErrInvalidGames)
	_, err = ev.Evaluate(ctx, 10, nil, p, testutil.NewTestRNG(1))
	assert.ErrorIs(t, err, ErrNilStrategy)
	_, err = ev.Evaluate(ctx, 10, p, nil, testutil.NewTestRNG(1))
	assert.ErrorIs(t, err, ErrNilStrategy)
}

func TestEvaluateRejectsPolicyForOtherTarget(t *testing.T) {
	for _, workers := range []int{1, 4} {
		ev, _ := newEvaluator(t, 6, 100, workers)
		small := holdAt(t, 10, 5)
		full := holdAt(t, 100, 20)

		_, err := ev.Evaluate(context.Background(), 100, small, small, testutil.NewTestRNG(1))
		assert.ErrorIs(t, err, ErrTargetMismatch, "workers=%d", workers)
		_, err = ev.Evaluate(context.Background(), 100, full, small, testutil.NewTestRNG(1))
		assert.ErrorIs(t, err, ErrTargetMismatch, "workers=%d", workers)
	}

	ev, _ := newEvaluator(t, 6, 10, 1)
	_, err := ev.PlayGame(holdAt(t, 10, 5), holdAt(t, 100, 20), testutil.NewTestRNG(1))
	assert.ErrorIs(t, err, ErrTargetMismatch)
}

func TestPlayGameScripted(t *testing.T) {
	ev, _ := newEvaluator(t, 6, 5, 1)
	a := holdAt(t, 5, 1)
	b := holdAt(t, 5, 1)

	// A moves first and rolls a six
	winner, err := ev.PlayGame(a, b, testutil.NewScriptedRNG(t, 1, 6))
	require.NoError(t, err)
	assert.Equal(t, PlayerA, winner)

	// B moves first and busts, then A rolls a five
	winner, err = ev.PlayGame(a, b, testutil.NewScriptedRNG(t, 2, 1, 5))
	require.NoError(t, err)
	assert.Equal(t, PlayerA, winner)

	// A moves first, banks two, B rolls five and wins
	winner, err = ev.PlayGame(a, b, testutil.NewScriptedRNG(t, 1, 2, 5))
	require.NoError(t, err)
	assert.Equal(t, PlayerB, winner)
}

func TestWinRatesSumToOne(t *testing.T) {
	ev, _ := newEvaluator(t, 6, 30, 1)

	res, err := ev.Evaluate(context.Background(), 501, holdAt(t, 30, 10), holdAt(t, 30, 3), testutil.NewTestRNG(7))
	require.NoError(t, err)
	assert.Equal(t, 501, res.Games)
	assert.Equal(t, res.Games, res.WinsA+res.WinsB)
	assert.InDelta(t, 1.0, res.WinRateA+res.WinRateB, 1e-12)
	assert.Greater(t, res.StdErr, 0.0)
}

func TestSelfPlayIsEven(t *testing.T) {
	ev, _ := newEvaluator(t, 6, 50, 1)
	p := holdAt(t, 50, 15)

	res, err := ev.Evaluate(context.Background(), 10000, p, p, testutil.NewTestRNG(11))
	require.NoError(t, err)
	// Four standard errors of a fair coin over 10k games is 0.02
	assert.InDelta(t, 0.5, res.WinRateA, 0.02)
	assert.InDelta(t, 0.005, res.StdErr, 0.001)
}

func TestHoldAtTwentySelfPlay(t *testing.T) {
	if testing.Short() {
		t.Skip("plays 50000 full games")
	}
	ev, _ := newEvaluator(t, 6, 100, 4)
	p := holdAt(t, 100, 20)

	res, err := ev.Evaluate(context.Background(), 50000, p, p, testutil.NewTestRNG(2024))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, res.WinRateA, 0.48)
	assert.LessOrEqual(t, res.WinRateA, 0.52)
}

func TestStrongerPolicyWins(t *testing.T) {
	ev, _ := newEvaluator(t, 6, 100, 2)

	res, err := ev.Evaluate(context.Background(), 2000, holdAt(t, 100, 20), holdAt(t, 100, 1), testutil.NewTestRNG(5))
	require.NoError(t, err)
	assert.Greater(t, res.WinRateA, 0.7)
}

func TestWorkersAreDeterministic(t *testing.T) {
	ev, _ := newEvaluator(t, 6, 40, 4)
	a, b := holdAt(t, 40, 12), holdAt(t, 40, 6)

	first, err := ev.Evaluate(context.Background(), 3001, a, b, testutil.NewTestRNG(99))
	require.NoError(t, err)
	second, err := ev.Evaluate(context.Background(), 3001, a, b, testutil.NewTestRNG(99))
	require.NoError(t, err)

	assert.Equal(t, first.WinsA, second.WinsA)
	assert.Equal(t, 3001, first.Games)
}

func TestMoreWorkersThanGames(t *testing.T) {
	ev, _ := newEvaluator(t, 6, 20, 8)
	p := holdAt(t, 20, 10)

	res, err := ev.Evaluate(context.Background(), 3, p, p, testutil.NewTestRNG(1))
	require.NoError(t, err)
	assert.Equal(t, 3, res.Games)
	assert.Equal(t, 3, res.WinsA+res.WinsB)
}

func TestPigletGames(t *testing.T) {
	ev, _ := newEvaluator(t, 2, 10, 1)
	p := holdAt(t, 10, 3)

	res, err := ev.Evaluate(context.Background(), 1000, p, p, testutil.NewTestRNG(3))
	require.NoError(t, err)
	assert.Equal(t, 1000, res.WinsA+res.WinsB)
}

func TestEvaluateCancelled(t *testing.T) {
	for _, workers := range []int{1, 3} {
		ev, _ := newEvaluator(t, 6, 20, workers)
		p := holdAt(t, 20, 10)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := ev.Evaluate(ctx, 100, p, p, testutil.NewTestRNG(1))
		assert.ErrorIs(t, err, context.Canceled, "workers=%d", workers)
	}
}

func TestStrategyFuncOpponent(t *testing.T) {
	ev, _ := newEvaluator(t, 6, 20, 1)
	alwaysHold := game.StrategyFunc(func(game.State) game.Action { return game.Hold })

	res, err := ev.Evaluate(context.Background(), 2000, holdAt(t, 20, 10), alwaysHold, testutil.NewTestRNG(8))
	require.NoError(t, err)
	assert.Greater(t, res.WinRateA, 0.5)
}

func BenchmarkEvaluateHoldAt20(b *testing.B) {
	ev, _ := newEvaluator(b, 6, 100, 1)
	p := holdAt(b, 100, 20)
	rng := testutil.NewTestRNG(1)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, err := ev.Evaluate(context.Background(), 100, p, p, rng)
		require.NoError(b, err)
	}
}
