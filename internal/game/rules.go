package game

import "fmt"

// Variant selects how a non-bust roll is scored
type Variant string

const (
	// VariantStandard scores a roll by its face value
	VariantStandard Variant = "standard"
	// VariantPiglet is played with a two-sided die whose non-bust face scores one point
	VariantPiglet Variant = "piglet"
)

// BustFace is the face that forfeits the turn
const BustFace = 1

// ParseVariant converts a config string to a Variant
func ParseVariant(s string) (Variant, error) {
	switch Variant(s) {
	case VariantStandard, VariantPiglet:
		return Variant(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownVariant, s)
	}
}

// Rules is the per-roll scoring rule. The transition model and the solver
// both score rolls through the same Rules value.
type Rules struct {
	DiceSides int
	Variant   Variant
}

// NewRules builds and validates a ruleset
func NewRules(diceSides int, variant Variant) (Rules, error) {
	r := Rules{DiceSides: diceSides, Variant: variant}
	if err := r.Validate(); err != nil {
		return Rules{}, err
	}
	return r, nil
}

// StandardRules is the usual six-sided game
func StandardRules() Rules {
	return Rules{DiceSides: 6, Variant: VariantStandard}
}

// Validate checks the die and the variant agree
func (r Rules) Validate() error {
	if r.DiceSides < 2 {
		return fmt.Errorf("%w: %d", ErrInvalidDiceSides, r.DiceSides)
	}
	switch r.Variant {
	case VariantStandard:
	case VariantPiglet:
		if r.DiceSides != 2 {
			return fmt.Errorf("%w: piglet needs a two-sided die, got %d sides", ErrRulesetMismatch, r.DiceSides)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownVariant, r.Variant)
	}
	return nil
}

// Points returns the turn points earned by face. The bust face scores 0.
func (r Rules) Points(face int) int {
	if face == BustFace {
		return 0
	}
	if r.Variant == VariantPiglet {
		return 1
	}
	return face
}

// ScoringRolls lists the points of every non-bust face, one entry per face
func (r Rules) ScoringRolls() []int {
	points := make([]int, 0, r.DiceSides-1)
	for face := BustFace + 1; face <= r.DiceSides; face++ {
		points = append(points, r.Points(face))
	}
	return points
}

func (r Rules) String() string {
	return fmt.Sprintf("%s/d%d", r.Variant, r.DiceSides)
}
