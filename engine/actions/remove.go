package actions

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Esca-MMC/FarmTypeManager-sub001/engine/resolve"
	"github.com/Esca-MMC/FarmTypeManager-sub001/engine/settings"
	"github.com/Esca-MMC/FarmTypeManager-sub001/engine/state"
	"github.com/Esca-MMC/FarmTypeManager-sub001/types"
)

// RemoveSettings configure RemoveObjects. ItemIds, when set, limits removal
// to objects with one of those item ids (compared case-insensitively).
type RemoveSettings struct {
	settings.LocationSelection `mapstructure:",squash"`
	settings.TileFilter        `mapstructure:",squash"`
	ItemIDs                    []string `mapstructure:"ItemIds"`
}

// Validate checks the location capability.
func (s *RemoveSettings) Validate() error {
	return s.LocationSelection.Validate()
}

// RemoveObjects clears objects from the selected locations.
type RemoveObjects struct {
	env Env
}

// ParseSettings implements Handler.
func (h *RemoveObjects) ParseSettings(raw map[string]any) (any, error) {
	s := &RemoveSettings{LocationSelection: settings.DefaultLocationSelection()}
	if err := settings.Decode(raw, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Execute implements Handler.
func (h *RemoveObjects) Execute(s any, tc types.TriggerContext) (types.ExecutionResult, error) {
	var res types.ExecutionResult

	rs, err := settingsAs[RemoveSettings](s)
	if err != nil {
		return res, err
	}

	locs, errs := resolve.Locations(h.env.World, tc, rs.LocationSelection.Resolve(h.env.RNG))
	for _, loc := range locs {
		var occupied []types.Tile
		for _, obj := range h.env.World.ObjectsIn(loc) {
			if !matchesItem(rs.ItemIDs, obj.ItemID) {
				continue
			}
			occupied = append(occupied, types.Tile{
				X:        obj.Tile.X,
				Y:        obj.Tile.Y,
				Terrain:  h.env.World.TerrainAt(loc, obj.Tile),
				Occupied: true,
			})
		}
		tiles, ferrs := rs.TileFilter.Filter(occupied, h.env.Gate, tc)
		errs = append(errs, ferrs...)

		removed := 0
		for _, t := range tiles {
			obj, ok := h.env.World.Remove(loc, state.Point{X: t.X, Y: t.Y})
			if !ok {
				continue
			}
			removed++
			res.Events = append(res.Events, types.Event{
				Type: EventObjectRemoved,
				Data: map[string]any{"location": loc, "item": obj.ItemID, "x": t.X, "y": t.Y},
			})
		}
		res.Changed += removed
		res.Output = append(res.Output, fmt.Sprintf("Removed %d object(s) from %s.", removed, loc))
	}
	return res, errors.Join(errs...)
}

func matchesItem(ids []string, itemID string) bool {
	if len(ids) == 0 {
		return true
	}
	for _, id := range ids {
		if strings.EqualFold(id, itemID) {
			return true
		}
	}
	return false
}
