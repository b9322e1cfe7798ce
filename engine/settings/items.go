package settings

import (
	"errors"

	"github.com/Esca-MMC/FarmTypeManager-sub001/engine/quantity"
	"github.com/Esca-MMC/FarmTypeManager-sub001/types"
)

// ItemSpec describes one item to produce. It may be written as a bare id.
type ItemSpec struct {
	ID     string  `mapstructure:"Id"`
	Stack  int     `mapstructure:"Stack"`
	Weight float64 `mapstructure:"Weight"`
}

// ItemSelection is the spawn-item capability: which item(s), how many times,
// and the modifiers applied to the count. ItemList takes precedence over Item.
type ItemSelection struct {
	Item         *ItemSpec          `mapstructure:"Item"`
	ItemList     []ItemSpec         `mapstructure:"ItemList"`
	ItemListMode types.ListMode     `mapstructure:"ItemListMode"`
	MinTimes     int                `mapstructure:"MinTimes"`
	MaxTimes     int                `mapstructure:"MaxTimes"`
	Modifiers    []types.Modifier   `mapstructure:"Modifiers"`
	ModifierMode types.ModifierMode `mapstructure:"ModifierMode"`
}

// DefaultItemSelection returns the defaults applied before decoding.
func DefaultItemSelection() ItemSelection {
	return ItemSelection{
		ItemListMode: types.ListRandom,
		MinTimes:     1,
		MaxTimes:     1,
		ModifierMode: types.ModifierStack,
	}
}

// ItemSettings implements ItemCapable.
func (s *ItemSelection) ItemSettings() *ItemSelection { return s }

// Validate requires an item and clamps the repeat range.
func (s *ItemSelection) Validate() error {
	if len(s.ItemList) == 0 && (s.Item == nil || s.Item.ID == "") {
		return errors.New("Item or ItemList is required")
	}
	for _, it := range s.ItemList {
		if it.ID == "" {
			return errors.New("ItemList entry without Id")
		}
	}
	r := quantity.Range{Min: s.MinTimes, Max: s.MaxTimes}.Clamp()
	s.MinTimes, s.MaxTimes = r.Min, r.Max
	return nil
}

// Resolve returns the items for one execution, following the same All/Random
// contract as LocationSelection. Random mode is uniform unless at least one
// list entry has a positive Weight.
func (s *ItemSelection) Resolve(rng types.Random) []ItemSpec {
	if len(s.ItemList) == 0 {
		if s.Item == nil {
			return nil
		}
		return []ItemSpec{*s.Item}
	}

	if s.ItemListMode == types.ListAll {
		out := make([]ItemSpec, len(s.ItemList))
		copy(out, s.ItemList)
		return out
	}

	var weights []float64
	for _, it := range s.ItemList {
		if it.Weight > 0 {
			weights = make([]float64, len(s.ItemList))
			for i, w := range s.ItemList {
				weights[i] = w.Weight
			}
			break
		}
	}
	idx := pickIndex(rng, len(s.ItemList), weights)
	if idx < 0 {
		return nil
	}
	return []ItemSpec{s.ItemList[idx]}
}

// Count draws how many times to produce the resolved items.
func (s *ItemSelection) Count(rng types.Random, applies quantity.Applies) (int, []error) {
	return quantity.Resolve(rng,
		quantity.Range{Min: s.MinTimes, Max: s.MaxTimes},
		s.Modifiers, s.ModifierMode, applies)
}
