package game

import (
	"testing"

	"github.com/mitchelldurbincs/PigReinforcementLearning/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlayTurn_HoldAtN(t *testing.T) {
	m := newTestModel(t, 6, 100, VariantStandard)
	p, err := HoldAtN(100, 10)
	require.NoError(t, err)

	rng := testutil.NewScriptedRNG(t, 3, 4, 5)
	out, err := m.PlayTurn(State{Yours: 20, Opponent: 30}, p, rng)
	require.NoError(t, err)

	// 3 + 4 = 7 keeps rolling, 12 holds
	assert.Equal(t, State{Yours: 32, Opponent: 30}, out.State)
	assert.False(t, out.Won)
	assert.False(t, out.Continues)
	assert.Equal(t, State{Yours: 30, Opponent: 32}, Handover(out))
}

func TestPlayTurn_Bust(t *testing.T) {
	m := newTestModel(t, 6, 100, VariantStandard)
	p, err := HoldAtN(100, 20)
	require.NoError(t, err)

	rng := testutil.NewScriptedRNG(t, 6, 6, 1)
	out, err := m.PlayTurn(State{Yours: 5, Opponent: 7}, p, rng)
	require.NoError(t, err)
	assert.Equal(t, State{Yours: 5, Opponent: 7}, out.State)
	assert.Equal(t, State{Yours: 7, Opponent: 5}, Handover(out))
}

func TestPlayTurn_WinIsBankedOnHandover(t *testing.T) {
	m := newTestModel(t, 6, 20, VariantStandard)
	p, err := HoldAtN(20, 100)
	require.NoError(t, err)

	rng := testutil.NewScriptedRNG(t, 6, 6)
	out, err := m.PlayTurn(State{Yours: 10, Opponent: 3}, p, rng)
	require.NoError(t, err)
	assert.True(t, out.Won)

	next := Handover(out)
	assert.Equal(t, State{Yours: 3, Opponent: 22}, next)
	assert.True(t, next.Lost(20))
}

func TestPlayTurn_ZeroTotalForcesRoll(t *testing.T) {
	m := newTestModel(t, 6, 100, VariantStandard)
	calls := 0
	alwaysHold := StrategyFunc(func(s State) Action {
		calls++
		require.Positive(t, s.Turn, "strategy is never asked at a zero total")
		return Hold
	})

	rng := testutil.NewScriptedRNG(t, 2)
	out, err := m.PlayTurn(State{}, alwaysHold, rng)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, State{Yours: 2}, out.State)
}

func TestPlayTurn_Errors(t *testing.T) {
	m := newTestModel(t, 6, 100, VariantStandard)

	_, err := m.PlayTurn(State{}, nil, testutil.NewTestRNG(1))
	assert.ErrorIs(t, err, ErrInvalidAction)

	p, err := HoldAtN(100, 20)
	require.NoError(t, err)
	_, err = m.PlayTurn(State{Opponent: 100}, p, testutil.NewTestRNG(1))
	assert.ErrorIs(t, err, ErrTerminalState)
}
