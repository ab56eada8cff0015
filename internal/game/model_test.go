package game

import (
	"testing"

	"github.com/mitchelldurbincs/PigReinforcementLearning/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestModel(t *testing.T, sides, target int, variant Variant) *Model {
	t.Helper()
	rules, err := NewRules(sides, variant)
	require.NoError(t, err)
	m, err := NewModel(rules, target)
	require.NoError(t, err)
	return m
}

func TestNewModelValidation(t *testing.T) {
	tests := []struct {
		name    string
		rules   Rules
		target  int
		wantErr error
	}{
		{"standard d6", Rules{DiceSides: 6, Variant: VariantStandard}, 100, nil},
		{"piglet coin", Rules{DiceSides: 2, Variant: VariantPiglet}, 10, nil},
		{"one sided die", Rules{DiceSides: 1, Variant: VariantStandard}, 10, ErrInvalidDiceSides},
		{"zero sided die", Rules{DiceSides: 0, Variant: VariantStandard}, 10, ErrInvalidDiceSides},
		{"piglet on a d6", Rules{DiceSides: 6, Variant: VariantPiglet}, 10, ErrRulesetMismatch},
		{"unknown variant", Rules{DiceSides: 6, Variant: "hog"}, 10, ErrUnknownVariant},
		{"zero target", Rules{DiceSides: 6, Variant: VariantStandard}, 0, ErrInvalidTarget},
		{"negative target", Rules{DiceSides: 6, Variant: VariantStandard}, -5, ErrInvalidTarget},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewModel(tt.rules, tt.target)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, m)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.target, m.Target())
			assert.Equal(t, tt.rules.DiceSides, m.DiceSides())
		})
	}
}

func TestTakeAction_Hold(t *testing.T) {
	m := newTestModel(t, 6, 100, VariantStandard)

	out, err := m.TakeAction(State{Yours: 30, Opponent: 40, Turn: 12}, Hold, nil)
	require.NoError(t, err)
	assert.Equal(t, State{Yours: 42, Opponent: 40}, out.State)
	assert.False(t, out.Won)
	assert.False(t, out.Continues, "holding always ends the turn")
	assert.Equal(t, 0, out.Face)
}

func TestTakeAction_HoldNeverWins(t *testing.T) {
	m := newTestModel(t, 6, 100, VariantStandard)

	out, err := m.TakeAction(State{Yours: 90, Opponent: 10, Turn: 9}, Hold, nil)
	require.NoError(t, err)
	assert.Equal(t, State{Yours: 99, Opponent: 10}, out.State)
	assert.False(t, out.Won, "99 is one short")

	// A turn total that reaches the target is a win already, there is
	// nothing left to hold
	_, err = m.TakeAction(State{Yours: 90, Opponent: 10, Turn: 10}, Hold, nil)
	require.ErrorIs(t, err, ErrTerminalState)
}

func TestTakeAction_Roll(t *testing.T) {
	m := newTestModel(t, 6, 100, VariantStandard)
	rng := testutil.NewScriptedRNG(t, 4, 6, 1)
	s := State{Yours: 10, Opponent: 20, Turn: 0}

	out, err := m.TakeAction(s, Roll, rng)
	require.NoError(t, err)
	assert.Equal(t, 4, out.Face)
	assert.Equal(t, State{Yours: 10, Opponent: 20, Turn: 4}, out.State)
	assert.True(t, out.Continues)
	assert.False(t, out.Won)

	out, err = m.TakeAction(out.State, Roll, rng)
	require.NoError(t, err)
	assert.Equal(t, 10, out.State.Turn)
	assert.True(t, out.Continues)

	// Bust forfeits the turn total and passes the turn
	out, err = m.TakeAction(out.State, Roll, rng)
	require.NoError(t, err)
	assert.Equal(t, BustFace, out.Face)
	assert.Equal(t, State{Yours: 10, Opponent: 20, Turn: 0}, out.State)
	assert.False(t, out.Continues)
	assert.False(t, out.Won)
}

func TestTakeAction_RollToWin(t *testing.T) {
	m := newTestModel(t, 6, 100, VariantStandard)
	rng := testutil.NewScriptedRNG(t, 5)

	out, err := m.TakeAction(State{Yours: 80, Opponent: 99, Turn: 15}, Roll, rng)
	require.NoError(t, err)
	assert.True(t, out.Won)
	assert.Equal(t, 20, out.State.Turn, "winning roll leaves the turn total unbanked")
	assert.True(t, out.State.Won(100))
}

func TestTakeAction_PigletScoresOnePoint(t *testing.T) {
	m := newTestModel(t, 2, 10, VariantPiglet)
	rng := testutil.NewScriptedRNG(t, 2, 2, 1)

	s := State{}
	for i := 1; i <= 2; i++ {
		out, err := m.TakeAction(s, Roll, rng)
		require.NoError(t, err)
		assert.Equal(t, i, out.State.Turn)
		s = out.State
	}

	out, err := m.TakeAction(s, Roll, rng)
	require.NoError(t, err)
	assert.Equal(t, 0, out.State.Turn)
	assert.False(t, out.Continues)
}

func TestTakeAction_StandardCoinScoresFaceValue(t *testing.T) {
	m := newTestModel(t, 2, 10, VariantStandard)
	rng := testutil.NewScriptedRNG(t, 2)

	out, err := m.TakeAction(State{}, Roll, rng)
	require.NoError(t, err)
	assert.Equal(t, 2, out.State.Turn)
}

func TestTakeAction_Errors(t *testing.T) {
	m := newTestModel(t, 6, 20, VariantStandard)
	rng := testutil.NewTestRNG(1)

	_, err := m.TakeAction(State{Yours: 15, Opponent: 0, Turn: 5}, Roll, rng)
	assert.ErrorIs(t, err, ErrTerminalState, "already won")

	_, err = m.TakeAction(State{Yours: 0, Opponent: 20}, Hold, rng)
	assert.ErrorIs(t, err, ErrTerminalState, "already lost")

	_, err = m.TakeAction(State{Yours: -1}, Roll, rng)
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = m.TakeAction(State{}, Action(7), rng)
	assert.ErrorIs(t, err, ErrInvalidAction)

	_, err = m.TakeAction(State{}, Roll, nil)
	assert.ErrorIs(t, err, ErrNilRandom)
}

func TestTakeAction_RollDistribution(t *testing.T) {
	m := newTestModel(t, 6, 1000, VariantStandard)
	rng := testutil.NewTestRNG(12345)

	counts := make([]int, 7)
	const n = 60000
	for i := 0; i < n; i++ {
		out, err := m.TakeAction(State{}, Roll, rng)
		require.NoError(t, err)
		counts[out.Face]++
	}
	assert.Zero(t, counts[0])
	for face := 1; face <= 6; face++ {
		assert.InDelta(t, n/6, counts[face], 500, "face %d", face)
	}
}
