package game

import "fmt"

// State is a position seen from the player about to act
type State struct {
	Yours    int // banked score of the acting player
	Opponent int // banked score of the other player
	Turn     int // unbanked points accumulated this turn
}

// Won reports whether the acting player has reached target, counting the
// unbanked turn score
func (s State) Won(target int) bool {
	return s.Yours+s.Turn >= target
}

// Lost reports whether the other player has already reached target
func (s State) Lost(target int) bool {
	return s.Opponent >= target
}

// Terminal reports whether the game is over in s
func (s State) Terminal(target int) bool {
	return s.Won(target) || s.Lost(target)
}

// Playable reports whether s is a valid non-terminal state for target
func (s State) Playable(target int) bool {
	if s.Yours < 0 || s.Opponent < 0 || s.Turn < 0 {
		return false
	}
	return !s.Terminal(target)
}

// Bank moves the turn score into the acting player's score
func (s State) Bank() State {
	return State{Yours: s.Yours + s.Turn, Opponent: s.Opponent}
}

// Flip hands the move to the other player. Unbanked turn points are dropped.
func (s State) Flip() State {
	return State{Yours: s.Opponent, Opponent: s.Yours}
}

func (s State) String() string {
	return fmt.Sprintf("(%d, %d, %d)", s.Yours, s.Opponent, s.Turn)
}
