package game

// Action is the binary choice available on every decision
type Action uint8

const (
	Hold Action = iota
	Roll
)

// NumActions is the size of the action axis in Q tables
const NumActions = 2

// Valid reports whether a is Hold or Roll
func (a Action) Valid() bool {
	return a == Hold || a == Roll
}

func (a Action) String() string {
	switch a {
	case Hold:
		return "hold"
	case Roll:
		return "roll"
	default:
		return "unknown"
	}
}

// Strategy chooses an action for a playable state
type Strategy interface {
	Action(s State) Action
}

// StrategyFunc adapts a plain function to Strategy
type StrategyFunc func(s State) Action

// Action implements Strategy
func (f StrategyFunc) Action(s State) Action {
	return f(s)
}
