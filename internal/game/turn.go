package game

import (
	"fmt"
	"math/rand"
)

// PlayTurn lets strategy act from s until it wins, busts or holds. A zero
// turn total always rolls. The returned outcome is from the acting player's
// point of view; the caller flips it to hand the move over.
func (m *Model) PlayTurn(s State, strategy Strategy, rng *rand.Rand) (Outcome, error) {
	if strategy == nil {
		return Outcome{}, fmt.Errorf("%w: nil strategy", ErrInvalidAction)
	}
	for {
		a := Roll
		if s.Turn > 0 {
			a = strategy.Action(s)
		}
		out, err := m.TakeAction(s, a, rng)
		if err != nil {
			return Outcome{}, err
		}
		if out.Won || !out.Continues {
			return out, nil
		}
		s = out.State
	}
}

// Handover returns the next mover's state after a turn that ended in out. A
// won turn is banked first so the result is terminal by Lost.
func Handover(out Outcome) State {
	return out.State.Bank().Flip()
}
