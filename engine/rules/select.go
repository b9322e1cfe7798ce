package rules

import "github.com/Esca-MMC/FarmTypeManager-sub001/types"

// Select applies mode to the passing candidates. All selects every passing
// candidate in order. Random selects one by weighted draw, with ties
// broken by declaration order; it selects nothing when no passing candidate
// has a positive weight.
func Select(mode types.ActionsMode, passing []*Candidate, rng types.Random) []*Candidate {
	if len(passing) == 0 {
		return nil
	}
	if mode != types.ActionsRandom {
		return passing
	}

	weights := make([]float64, len(passing))
	for i, c := range passing {
		weights[i] = c.Weight
	}
	idx := rng.WeightedSelect(weights)
	if idx < 0 {
		return nil
	}
	return []*Candidate{passing[idx]}
}
