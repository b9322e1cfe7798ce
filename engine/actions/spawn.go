package actions

import (
	"errors"
	"fmt"

	"github.com/Esca-MMC/FarmTypeManager-sub001/engine/conditions"
	"github.com/Esca-MMC/FarmTypeManager-sub001/engine/resolve"
	"github.com/Esca-MMC/FarmTypeManager-sub001/engine/settings"
	"github.com/Esca-MMC/FarmTypeManager-sub001/engine/state"
	"github.com/Esca-MMC/FarmTypeManager-sub001/types"
)

// SpawnSettings configure SpawnObject. They carry all three capabilities.
type SpawnSettings struct {
	settings.LocationSelection `mapstructure:",squash"`
	settings.TileFilter        `mapstructure:",squash"`
	settings.ItemSelection     `mapstructure:",squash"`
}

// Validate checks the location and item capabilities.
func (s *SpawnSettings) Validate() error {
	return errors.Join(s.LocationSelection.Validate(), s.ItemSelection.Validate())
}

// SpawnObject places items on free tiles of the selected locations.
type SpawnObject struct {
	env Env
}

// ParseSettings implements Handler.
func (h *SpawnObject) ParseSettings(raw map[string]any) (any, error) {
	s := &SpawnSettings{
		LocationSelection: settings.DefaultLocationSelection(),
		ItemSelection:     settings.DefaultItemSelection(),
	}
	if err := settings.Decode(raw, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Execute implements Handler. Per resolved location it draws a count, then
// for each repetition resolves the items and places each on a random free
// tile that passes the tile condition. Running out of tiles stops that
// location but not the others.
func (h *SpawnObject) Execute(s any, tc types.TriggerContext) (types.ExecutionResult, error) {
	var res types.ExecutionResult

	locSel, err := settings.Locations(s)
	if err != nil {
		return res, err
	}
	tileSel, err := settings.Tiles(s)
	if err != nil {
		return res, err
	}
	itemSel, err := settings.Items(s)
	if err != nil {
		return res, err
	}

	locs, errs := resolve.Locations(h.env.World, tc, locSel.Resolve(h.env.RNG))
	for _, loc := range locs {
		var condErrs []error
		count, cerrs := itemSel.Count(h.env.RNG, h.env.Gate.Applies(conditions.Scope{Trigger: tc}, &condErrs))
		errs = append(errs, condErrs...)
		errs = append(errs, cerrs...)

	location:
		for i := 0; i < count; i++ {
			for _, item := range itemSel.Resolve(h.env.RNG) {
				tile, ok, terrs := h.pickTile(loc, tileSel, tc)
				errs = append(errs, terrs...)
				if !ok {
					h.env.Logger.Debug("spawn stopped: no eligible tile", "location", loc, "item", item.ID)
					res.Output = append(res.Output, fmt.Sprintf("No free tile in %s for %s.", loc, item.ID))
					break location
				}
				obj, err := h.env.World.Place(loc, state.Point{X: tile.X, Y: tile.Y}, item.ID, item.Stack, tc.Trigger)
				if err != nil {
					errs = append(errs, err)
					break location
				}
				res.Changed++
				res.Output = append(res.Output, fmt.Sprintf("Spawned %s x%d at %s (%s).",
					obj.ItemID, obj.Stack, loc, obj.Tile))
				res.Events = append(res.Events, types.Event{
					Type: EventObjectSpawned,
					Data: map[string]any{
						"location": loc,
						"item":     obj.ItemID,
						"x":        obj.Tile.X,
						"y":        obj.Tile.Y,
					},
				})
			}
		}
	}
	return res, errors.Join(errs...)
}

// pickTile draws one free tile of loc that passes the tile filter.
func (h *SpawnObject) pickTile(loc string, filter *settings.TileFilter, tc types.TriggerContext) (types.Tile, bool, []error) {
	tiles, err := h.env.World.Tiles(loc)
	if err != nil {
		return types.Tile{}, false, []error{err}
	}
	free := tiles[:0]
	for _, t := range tiles {
		if !t.Occupied {
			free = append(free, t)
		}
	}
	eligible, errs := filter.Filter(free, h.env.Gate, tc)
	if len(eligible) == 0 {
		return types.Tile{}, false, errs
	}
	return eligible[h.env.RNG.Range(0, len(eligible)-1)], true, errs
}
