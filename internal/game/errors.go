package game

import "errors"

var (
	ErrInvalidDiceSides = errors.New("dice must have at least two sides")
	ErrInvalidTarget    = errors.New("target score must be positive")
	ErrRulesetMismatch  = errors.New("ruleset does not match dice")
	ErrUnknownVariant   = errors.New("unknown ruleset variant")
	ErrInvalidState     = errors.New("invalid state")
	ErrTerminalState    = errors.New("state is already terminal")
	ErrInvalidAction    = errors.New("invalid action")
	ErrNilRandom        = errors.New("random source is nil")
	ErrInvalidPolicy    = errors.New("invalid policy table")
)
