// Package save implements JSON serialization of the world and the stores
// that hold saved slots.
package save

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Esca-MMC/FarmTypeManager-sub001/engine/state"
)

// Version is the save format version written by Save.
const Version = 1

var (
	// ErrIncompatible is returned when a save cannot be applied to the
	// loaded content.
	ErrIncompatible = errors.New("incompatible save")
	// ErrNotFound is returned by a Store for a missing slot.
	ErrNotFound = errors.New("save not found")
)

// SaveData is the JSON-serializable save format.
type SaveData struct {
	Version     int             `json:"version"`
	Title       string          `json:"title"`
	SavedAt     time.Time       `json:"saved_at"`
	Fired       int             `json:"fired"`
	Flags       map[string]bool `json:"flags"`
	Counters    map[string]int  `json:"counters"`
	Objects     []state.Object  `json:"objects"`
	RNGSeed     int64           `json:"rng_seed"`
	RNGPosition int64           `json:"rng_position"`
	Log         []string        `json:"log"`
}

// Capture copies the mutable parts of w into a SaveData.
func Capture(w *state.World, seed, position int64) *SaveData {
	sd := &SaveData{
		Version:     Version,
		Title:       w.Defs.Title,
		SavedAt:     time.Now().UTC(),
		Fired:       w.Fired,
		Flags:       make(map[string]bool, len(w.Flags)),
		Counters:    make(map[string]int, len(w.Counters)),
		Objects:     []state.Object{},
		RNGSeed:     seed,
		RNGPosition: position,
		Log:         append([]string{}, w.Log...),
	}
	for k, v := range w.Flags {
		sd.Flags[k] = v
	}
	for k, v := range w.Counters {
		sd.Counters[k] = v
	}
	for _, loc := range w.LocationIDs() {
		sd.Objects = append(sd.Objects, w.ObjectsIn(loc)...)
	}
	return sd
}

// Save serializes save data to JSON bytes.
func Save(sd *SaveData) ([]byte, error) {
	return json.MarshalIndent(sd, "", "  ")
}

// Load deserializes JSON bytes into SaveData.
func Load(data []byte) (*SaveData, error) {
	var sd SaveData
	if err := json.Unmarshal(data, &sd); err != nil {
		return nil, err
	}
	if sd.Version > Version {
		return nil, fmt.Errorf("%w: format version %d is newer than %d", ErrIncompatible, sd.Version, Version)
	}
	// Ensure maps are never nil after load.
	if sd.Flags == nil {
		sd.Flags = map[string]bool{}
	}
	if sd.Counters == nil {
		sd.Counters = map[string]int{}
	}
	if sd.Objects == nil {
		sd.Objects = []state.Object{}
	}
	if sd.Log == nil {
		sd.Log = []string{}
	}
	return &sd, nil
}

// Apply replaces the mutable state of w with sd. Objects in locations the
// world does not define make the save incompatible; w is left unchanged in
// that case.
func Apply(w *state.World, sd *SaveData) error {
	objects := map[string]map[state.Point]state.Object{}
	for _, o := range sd.Objects {
		if _, ok := w.Location(o.Location); !ok {
			return fmt.Errorf("%w: object %s in unknown location %q", ErrIncompatible, o.InstanceID, o.Location)
		}
		if objects[o.Location] == nil {
			objects[o.Location] = map[state.Point]state.Object{}
		}
		objects[o.Location][o.Tile] = o
	}

	w.Objects = objects
	w.Flags = make(map[string]bool, len(sd.Flags))
	for k, v := range sd.Flags {
		w.Flags[k] = v
	}
	w.Counters = make(map[string]int, len(sd.Counters))
	for k, v := range sd.Counters {
		w.Counters[k] = v
	}
	w.Fired = sd.Fired
	w.Log = append([]string{}, sd.Log...)
	return nil
}
