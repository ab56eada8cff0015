package game

import (
	"fmt"
	"math/rand"

	"github.com/mitchelldurbincs/PigReinforcementLearning/internal/table"
)

// Policy is a dense decision table indexed by (yours, opponent, turn).
// States with a zero turn score always roll regardless of the table.
type Policy struct {
	grid *table.Grid3[uint8]
}

// NewPolicy creates a policy for target that holds everywhere a choice exists
func NewPolicy(target int) (*Policy, error) {
	if target <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidTarget, target)
	}
	grid, err := table.NewGrid3[uint8](target)
	if err != nil {
		return nil, err
	}
	return &Policy{grid: grid}, nil
}

// PolicyFromGrid wraps grid after checking every cell is a valid action
func PolicyFromGrid(grid *table.Grid3[uint8]) (*Policy, error) {
	if grid == nil {
		return nil, fmt.Errorf("%w: nil grid", ErrInvalidPolicy)
	}
	for i, v := range grid.Data() {
		if !Action(v).Valid() {
			return nil, fmt.Errorf("%w: cell %d holds %d", ErrInvalidPolicy, i, v)
		}
	}
	return &Policy{grid: grid}, nil
}

// HoldAtN rolls while the turn score is below n and holds otherwise
func HoldAtN(target, n int) (*Policy, error) {
	p, err := NewPolicy(target)
	if err != nil {
		return nil, err
	}
	p.grid.Fill(func(_, _, turn int) uint8 {
		if turn < n {
			return uint8(Roll)
		}
		return uint8(Hold)
	})
	return p, nil
}

// RandomPolicy picks Hold or Roll uniformly for every cell
func RandomPolicy(target int, rng *rand.Rand) (*Policy, error) {
	if rng == nil {
		return nil, ErrNilRandom
	}
	p, err := NewPolicy(target)
	if err != nil {
		return nil, err
	}
	p.grid.Fill(func(_, _, _ int) uint8 {
		return uint8(rng.Intn(NumActions))
	})
	return p, nil
}

// Target returns the target score the table was sized for
func (p *Policy) Target() int { return p.grid.Side() }

// Action implements Strategy. s must be playable for Target().
func (p *Policy) Action(s State) Action {
	if s.Turn == 0 {
		return Roll
	}
	return Action(p.grid.At(s.Yours, s.Opponent, s.Turn))
}

// Set records a for s
func (p *Policy) Set(s State, a Action) {
	p.grid.Set(s.Yours, s.Opponent, s.Turn, uint8(a))
}

// Grid exposes the underlying table for persistence
func (p *Policy) Grid() *table.Grid3[uint8] { return p.grid }

// Clone returns an independent copy
func (p *Policy) Clone() *Policy {
	return &Policy{grid: p.grid.Clone()}
}

// Agreement returns the fraction of playable states with a real choice
// (turn > 0) on which p and other agree
func (p *Policy) Agreement(other *Policy) (float64, error) {
	if other == nil || other.Target() != p.Target() {
		return 0, fmt.Errorf("%w: target mismatch", ErrInvalidPolicy)
	}
	same, total := 0, 0
	for _, s := range PlayableStates(p.Target()) {
		if s.Turn == 0 {
			continue
		}
		total++
		if p.Action(s) == other.Action(s) {
			same++
		}
	}
	if total == 0 {
		return 1, nil
	}
	return float64(same) / float64(total), nil
}
