// Package quantity computes counts from a random base range plus modifiers.
package quantity

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/Esca-MMC/FarmTypeManager-sub001/types"
)

// ErrInvalidModifier is reported for a modifier that cannot be applied.
var ErrInvalidModifier = errors.New("invalid modifier")

// Range is an inclusive integer range.
type Range struct {
	Min int
	Max int
}

// Clamp returns r with negative bounds raised to 0 and Max raised to Min.
func (r Range) Clamp() Range {
	if r.Min < 0 {
		r.Min = 0
	}
	if r.Max < r.Min {
		r.Max = r.Min
	}
	return r
}

// Applies reports whether a modifier's condition holds. A nil Applies treats
// every modifier as applicable.
type Applies func(condition string) bool

// Resolve draws a base value from r and applies mods according to mode.
// The result is truncated toward zero and never negative. Modifiers that
// cannot be applied are skipped and returned as errors wrapping
// ErrInvalidModifier.
func Resolve(rng types.Random, r Range, mods []types.Modifier, mode types.ModifierMode, applies Applies) (int, []error) {
	r = r.Clamp()
	base := float64(rng.Range(r.Min, r.Max))

	var errs []error
	value := base

	switch mode {
	case types.ModifierMinimum, types.ModifierMaximum:
		found := false
		best := base
		for i, m := range mods {
			if applies != nil && !applies(m.Condition) {
				continue
			}
			v, err := apply(base, m)
			if err != nil {
				errs = append(errs, fmt.Errorf("modifier %d: %w", i, err))
				continue
			}
			if !found ||
				(mode == types.ModifierMinimum && v < best) ||
				(mode == types.ModifierMaximum && v > best) {
				best = v
				found = true
			}
		}
		value = best

	default:
		for i, m := range mods {
			if applies != nil && !applies(m.Condition) {
				continue
			}
			v, err := apply(value, m)
			if err != nil {
				errs = append(errs, fmt.Errorf("modifier %d: %w", i, err))
				continue
			}
			value = v
		}
	}

	n := int(math.Trunc(value))
	if n < 0 {
		n = 0
	}
	return n, errs
}

// Times resolves a plain repeat count with no modifiers.
func Times(rng types.Random, min, max int) int {
	n, _ := Resolve(rng, Range{Min: min, Max: max}, nil, types.ModifierStack, nil)
	return n
}

// apply runs a single modifier against v.
func apply(v float64, m types.Modifier) (float64, error) {
	switch strings.ToLower(string(m.Op)) {
	case "add", "+":
		return v + m.Amount, nil
	case "subtract", "-":
		return v - m.Amount, nil
	case "multiply", "*":
		return v * m.Amount, nil
	case "divide", "/":
		if m.Amount == 0 {
			return v, fmt.Errorf("%w: divide by zero", ErrInvalidModifier)
		}
		return v / m.Amount, nil
	default:
		return v, fmt.Errorf("%w: unknown operation %q", ErrInvalidModifier, m.Op)
	}
}
