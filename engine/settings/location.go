package settings

import (
	"errors"
	"fmt"

	"github.com/Esca-MMC/FarmTypeManager-sub001/types"
)

// LocationSelection is the location capability. LocationList takes
// precedence over Location when both are set.
type LocationSelection struct {
	Location         string         `mapstructure:"Location"`
	LocationList     []string       `mapstructure:"LocationList"`
	LocationListMode types.ListMode `mapstructure:"LocationListMode"`
	LocationWeights  []float64      `mapstructure:"LocationWeights"`
}

// DefaultLocationSelection returns the defaults applied before decoding.
func DefaultLocationSelection() LocationSelection {
	return LocationSelection{LocationListMode: types.ListRandom}
}

// LocationSettings implements LocationCapable.
func (s *LocationSelection) LocationSettings() *LocationSelection { return s }

// Validate checks that a location is given and weights line up with the list.
func (s *LocationSelection) Validate() error {
	if s.Location == "" && len(s.LocationList) == 0 {
		return errors.New("Location or LocationList is required")
	}
	if len(s.LocationWeights) > 0 && len(s.LocationWeights) != len(s.LocationList) {
		return fmt.Errorf("LocationWeights has %d entries, LocationList has %d",
			len(s.LocationWeights), len(s.LocationList))
	}
	return nil
}

// Resolve returns the locations to act on. In All mode every listed location
// is returned in list order; in Random mode exactly one is drawn, uniformly
// unless LocationWeights is set. A weighted list with no positive weight
// resolves to nothing.
func (s *LocationSelection) Resolve(rng types.Random) []string {
	if len(s.LocationList) == 0 {
		if s.Location == "" {
			return nil
		}
		return []string{s.Location}
	}

	if s.LocationListMode == types.ListAll {
		out := make([]string, len(s.LocationList))
		copy(out, s.LocationList)
		return out
	}

	idx := pickIndex(rng, len(s.LocationList), s.LocationWeights)
	if idx < 0 {
		return nil
	}
	return []string{s.LocationList[idx]}
}

// pickIndex draws an index in [0, n). With weights it is a weighted draw,
// otherwise uniform.
func pickIndex(rng types.Random, n int, weights []float64) int {
	if n == 0 {
		return -1
	}
	if len(weights) > 0 {
		return rng.WeightedSelect(weights)
	}
	return rng.Range(0, n-1)
}
