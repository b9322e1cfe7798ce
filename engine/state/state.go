// Package state holds the mutable world that action handlers act on: the
// locations defined by content, objects placed on their tiles, and the flags
// and counters conditions can read.
package state

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/Esca-MMC/FarmTypeManager-sub001/types"
)

var (
	ErrUnknownLocation = errors.New("unknown location")
	ErrTileUnavailable = errors.New("tile unavailable")
)

// Point is a tile coordinate.
type Point struct {
	X int `json:"x" mapstructure:"X"`
	Y int `json:"y" mapstructure:"Y"`
}

func (p Point) String() string {
	return strconv.Itoa(p.X) + "," + strconv.Itoa(p.Y)
}

// ParsePoint parses "x,y".
func ParsePoint(s string) (Point, error) {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return Point{}, fmt.Errorf("point %q: want \"x,y\"", s)
	}
	x, err := strconv.Atoi(strings.TrimSpace(xs))
	if err != nil {
		return Point{}, fmt.Errorf("point %q: %w", s, err)
	}
	y, err := strconv.Atoi(strings.TrimSpace(ys))
	if err != nil {
		return Point{}, fmt.Errorf("point %q: %w", s, err)
	}
	return Point{X: x, Y: y}, nil
}

// LocationDef is the static shape of a location.
type LocationDef struct {
	ID        string            `json:"id" mapstructure:"Id"`
	Width     int               `json:"width" mapstructure:"Width"`
	Height    int               `json:"height" mapstructure:"Height"`
	Terrain   string            `json:"terrain" mapstructure:"Terrain"`       // default terrain
	TerrainAt map[string]string `json:"terrain_at" mapstructure:"TerrainAt"` // "x,y" → terrain
	Blocked   []Point           `json:"blocked" mapstructure:"Blocked"`
}

// Defs holds the immutable world definitions loaded from content.
type Defs struct {
	Title     string
	Locations map[string]LocationDef
}

// Object is an item placed on a tile.
type Object struct {
	InstanceID string `json:"instance_id"`
	ItemID     string `json:"item_id"`
	Stack      int    `json:"stack"`
	Location   string `json:"location"`
	Tile       Point  `json:"tile"`
	Source     string `json:"source,omitempty"`
}

// World is the complete mutable state. It is not safe for concurrent use; the
// dispatch engine serializes firings.
type World struct {
	Defs     *Defs
	Objects  map[string]map[Point]Object // location → tile → object
	Flags    map[string]bool
	Counters map[string]int
	Fired    int      // triggers fired so far
	Log      []string // raw trigger lines, for replay
}

// NewWorld creates an empty world over defs.
func NewWorld(defs *Defs) *World {
	if defs == nil {
		defs = &Defs{}
	}
	if defs.Locations == nil {
		defs.Locations = map[string]LocationDef{}
	}
	return &World{
		Defs:     defs,
		Objects:  map[string]map[Point]Object{},
		Flags:    map[string]bool{},
		Counters: map[string]int{},
		Log:      []string{},
	}
}

// Flag returns the value of a flag. Unset flags return false.
func (w *World) Flag(name string) bool {
	return w.Flags[name]
}

// Counter returns the value of a counter. Unset counters return 0.
func (w *World) Counter(name string) int {
	return w.Counters[name]
}

// SetFlag sets a flag.
func (w *World) SetFlag(name string, value bool) {
	w.Flags[name] = value
}

// AddCounter adds delta to a counter and returns the new value.
func (w *World) AddCounter(name string, delta int) int {
	w.Counters[name] += delta
	return w.Counters[name]
}

// LocationIDs returns every defined location id, sorted.
func (w *World) LocationIDs() []string {
	ids := make([]string, 0, len(w.Defs.Locations))
	for id := range w.Defs.Locations {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Location returns the definition of a location.
func (w *World) Location(id string) (LocationDef, bool) {
	def, ok := w.Defs.Locations[id]
	return def, ok
}

// Tiles returns every unblocked tile of a location in row-major order, with
// terrain and occupancy filled in.
func (w *World) Tiles(location string) ([]types.Tile, error) {
	def, ok := w.Defs.Locations[location]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLocation, location)
	}
	blocked := make(map[Point]bool, len(def.Blocked))
	for _, p := range def.Blocked {
		blocked[p] = true
	}
	objects := w.Objects[location]

	tiles := make([]types.Tile, 0, def.Width*def.Height)
	for y := 0; y < def.Height; y++ {
		for x := 0; x < def.Width; x++ {
			p := Point{X: x, Y: y}
			if blocked[p] {
				continue
			}
			_, occupied := objects[p]
			tiles = append(tiles, types.Tile{
				X:        x,
				Y:        y,
				Terrain:  terrainAt(def, p),
				Occupied: occupied,
			})
		}
	}
	return tiles, nil
}

// TerrainAt returns the terrain of a tile, or "" for an unknown location.
func (w *World) TerrainAt(location string, p Point) string {
	def, ok := w.Defs.Locations[location]
	if !ok {
		return ""
	}
	return terrainAt(def, p)
}

func terrainAt(def LocationDef, p Point) string {
	if t, ok := def.TerrainAt[p.String()]; ok {
		return t
	}
	return def.Terrain
}

// Place puts an item on a free tile and returns the placed object.
func (w *World) Place(location string, p Point, itemID string, stack int, source string) (Object, error) {
	def, ok := w.Defs.Locations[location]
	if !ok {
		return Object{}, fmt.Errorf("%w: %q", ErrUnknownLocation, location)
	}
	if p.X < 0 || p.Y < 0 || p.X >= def.Width || p.Y >= def.Height {
		return Object{}, fmt.Errorf("%w: %s outside %s", ErrTileUnavailable, p, location)
	}
	for _, b := range def.Blocked {
		if b == p {
			return Object{}, fmt.Errorf("%w: %s in %s is blocked", ErrTileUnavailable, p, location)
		}
	}
	if _, taken := w.Objects[location][p]; taken {
		return Object{}, fmt.Errorf("%w: %s in %s is occupied", ErrTileUnavailable, p, location)
	}
	if stack < 1 {
		stack = 1
	}

	obj := Object{
		InstanceID: uuid.NewString(),
		ItemID:     itemID,
		Stack:      stack,
		Location:   location,
		Tile:       p,
		Source:     source,
	}
	if w.Objects[location] == nil {
		w.Objects[location] = map[Point]Object{}
	}
	w.Objects[location][p] = obj
	return obj, nil
}

// Remove deletes the object on a tile. It reports whether one was there.
func (w *World) Remove(location string, p Point) (Object, bool) {
	obj, ok := w.Objects[location][p]
	if ok {
		delete(w.Objects[location], p)
	}
	return obj, ok
}

// ObjectsIn returns the objects in a location sorted by tile.
func (w *World) ObjectsIn(location string) []Object {
	objs := make([]Object, 0, len(w.Objects[location]))
	for _, o := range w.Objects[location] {
		objs = append(objs, o)
	}
	sort.Slice(objs, func(i, j int) bool {
		if objs[i].Tile.Y != objs[j].Tile.Y {
			return objs[i].Tile.Y < objs[j].Tile.Y
		}
		return objs[i].Tile.X < objs[j].Tile.X
	})
	return objs
}

// ObjectCount returns the number of objects across all locations.
func (w *World) ObjectCount() int {
	n := 0
	for _, objs := range w.Objects {
		n += len(objs)
	}
	return n
}
