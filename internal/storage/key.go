// Package storage persists value, policy and action-value tables.
//
// A table file is one JSON header line describing the table followed by the
// gonum binary encoding of the flattened table as a dense matrix.
package storage

import (
	"errors"
	"fmt"

	"github.com/mitchelldurbincs/PigReinforcementLearning/internal/game"
)

var (
	ErrDomainMismatch = errors.New("stored table does not match the requested domain")
	ErrInvalidKey     = errors.New("invalid table key")
	ErrCorruptFile    = errors.New("corrupt table file")
	ErrDirNotEmpty    = errors.New("run directory already exists and is not empty")
)

// Kind names the table a file holds
type Kind string

const (
	KindValue  Kind = "value"
	KindPolicy Kind = "policy"
	KindQ      Kind = "q"
)

// Key identifies a stored table
type Key struct {
	DiceSides   int          `json:"dice_sides"`
	TargetScore int          `json:"target_score"`
	Variant     game.Variant `json:"variant"`
	Kind        Kind         `json:"kind"`
}

// KeyFor returns the key of a kind of table solved for model
func KeyFor(model *game.Model, kind Kind) Key {
	return Key{
		DiceSides:   model.DiceSides(),
		TargetScore: model.Target(),
		Variant:     model.Rules().Variant,
		Kind:        kind,
	}
}

// WithKind returns a copy of k for another kind of table
func (k Key) WithKind(kind Kind) Key {
	k.Kind = kind
	return k
}

// Validate checks the key describes a valid ruleset and table kind
func (k Key) Validate() error {
	if _, err := game.NewRules(k.DiceSides, k.Variant); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	if k.TargetScore <= 0 {
		return fmt.Errorf("%w: target score %d", ErrInvalidKey, k.TargetScore)
	}
	switch k.Kind {
	case KindValue, KindPolicy, KindQ:
		return nil
	default:
		return fmt.Errorf("%w: kind %q", ErrInvalidKey, k.Kind)
	}
}

// FileName is the file a table with this key is stored under
func (k Key) FileName() string {
	return fmt.Sprintf("%s_d%d_t%d_%s.bin", k.Variant, k.DiceSides, k.TargetScore, k.Kind)
}

func (k Key) String() string {
	return fmt.Sprintf("%s d%d target %d %s", k.Variant, k.DiceSides, k.TargetScore, k.Kind)
}
