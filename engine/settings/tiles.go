package settings

import (
	"github.com/Esca-MMC/FarmTypeManager-sub001/engine/conditions"
	"github.com/Esca-MMC/FarmTypeManager-sub001/types"
)

// TileFilter is the tile capability.
type TileFilter struct {
	TileCondition string `mapstructure:"TileCondition"`
}

// TileSettings implements TileCapable.
func (s *TileFilter) TileSettings() *TileFilter { return s }

// Filter returns the tiles whose condition passes, in input order. An absent
// condition keeps every tile. Condition errors are reported by the gate once
// and returned here so the caller can attach them to its diagnostics.
func (s *TileFilter) Filter(tiles []types.Tile, gate *conditions.Gate, tc types.TriggerContext) ([]types.Tile, []error) {
	if s.TileCondition == "" {
		return tiles, nil
	}
	var (
		out  []types.Tile
		errs []error
	)
	for i := range tiles {
		tile := tiles[i]
		ok, err := gate.Pass(s.TileCondition, conditions.Scope{Trigger: tc, Tile: &tile})
		if err != nil {
			errs = append(errs, err)
		}
		if ok {
			out = append(out, tile)
		}
	}
	return out, errs
}
