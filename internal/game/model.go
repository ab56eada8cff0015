package game

import (
	"fmt"
	"math/rand"
)

// Outcome is the result of applying one action
type Outcome struct {
	State     State // still from the acting player's point of view
	Won       bool  // acting player reached the target
	Continues bool  // acting player moves again
	Face      int   // rolled face, 0 on hold
}

// Model is the Pig transition function for one ruleset and target score.
// It holds no mutable state and may be shared between goroutines as long as
// each caller brings its own random source.
type Model struct {
	rules  Rules
	target int
}

// NewModel validates rules and target and returns a transition model
func NewModel(rules Rules, target int) (*Model, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	if target <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidTarget, target)
	}
	return &Model{rules: rules, target: target}, nil
}

// Rules returns the scoring rules shared with consumers of the model
func (m *Model) Rules() Rules { return m.rules }

// Target returns the winning score
func (m *Model) Target() int { return m.target }

// DiceSides returns the number of faces on the die
func (m *Model) DiceSides() int { return m.rules.DiceSides }

// Validate checks that s is a playable state for this model
func (m *Model) Validate(s State) error {
	if s.Yours < 0 || s.Opponent < 0 || s.Turn < 0 {
		return fmt.Errorf("%w: %v has negative fields", ErrInvalidState, s)
	}
	if s.Terminal(m.target) {
		return fmt.Errorf("%w: %v with target %d", ErrTerminalState, s, m.target)
	}
	return nil
}

// TakeAction applies a from s, drawing at most one roll from rng
func (m *Model) TakeAction(s State, a Action, rng *rand.Rand) (Outcome, error) {
	if err := m.Validate(s); err != nil {
		return Outcome{}, err
	}
	switch a {
	case Hold:
		next := s.Bank()
		return Outcome{State: next, Won: next.Won(m.target)}, nil
	case Roll:
		if rng == nil {
			return Outcome{}, ErrNilRandom
		}
		face := rng.Intn(m.rules.DiceSides) + 1
		return m.applyRoll(s, face), nil
	default:
		return Outcome{}, fmt.Errorf("%w: %d", ErrInvalidAction, a)
	}
}

func (m *Model) applyRoll(s State, face int) Outcome {
	if face == BustFace {
		return Outcome{State: State{Yours: s.Yours, Opponent: s.Opponent}, Face: face}
	}
	next := State{Yours: s.Yours, Opponent: s.Opponent, Turn: s.Turn + m.rules.Points(face)}
	return Outcome{State: next, Won: next.Won(m.target), Continues: true, Face: face}
}
