package state

import (
	"errors"
	"testing"
)

func testDefs() *Defs {
	return &Defs{
		Locations: map[string]LocationDef{
			"Farm": {
				ID:        "Farm",
				Width:     3,
				Height:    2,
				Terrain:   "Grass",
				TerrainAt: map[string]string{"1,0": "Dirt"},
				Blocked:   []Point{{X: 2, Y: 1}},
			},
			"Town": {ID: "Town", Width: 1, Height: 1, Terrain: "Stone"},
		},
	}
}

func TestNewWorld_NilDefs(t *testing.T) {
	w := NewWorld(nil)
	if w.Defs == nil || w.Defs.Locations == nil {
		t.Fatal("expected non-nil defs")
	}
	if w.Flags == nil || w.Counters == nil || w.Objects == nil || w.Log == nil {
		t.Fatal("expected initialized maps")
	}
}

func TestFlagsAndCounters(t *testing.T) {
	w := NewWorld(testDefs())

	if w.Flag("x") {
		t.Error("unset flag should be false")
	}
	w.SetFlag("x", true)
	if !w.Flag("x") {
		t.Error("flag should be set")
	}

	if w.Counter("day") != 0 {
		t.Error("unset counter should be 0")
	}
	if got := w.AddCounter("day", 3); got != 3 {
		t.Errorf("AddCounter = %d, want 3", got)
	}
	w.AddCounter("day", -1)
	if w.Counter("day") != 2 {
		t.Errorf("counter = %d, want 2", w.Counter("day"))
	}
}

func TestTiles(t *testing.T) {
	w := NewWorld(testDefs())

	tiles, err := w.Tiles("Farm")
	if err != nil {
		t.Fatalf("Tiles: %v", err)
	}
	if len(tiles) != 5 {
		t.Fatalf("expected 5 unblocked tiles, got %d", len(tiles))
	}
	if tiles[0].X != 0 || tiles[0].Y != 0 || tiles[0].Terrain != "Grass" {
		t.Errorf("first tile = %+v", tiles[0])
	}
	if tiles[1].Terrain != "Dirt" {
		t.Errorf("tile 1,0 terrain = %q, want Dirt", tiles[1].Terrain)
	}
	for _, tile := range tiles {
		if tile.X == 2 && tile.Y == 1 {
			t.Error("blocked tile should be skipped")
		}
	}

	if _, err := w.Tiles("Moon"); !errors.Is(err, ErrUnknownLocation) {
		t.Errorf("expected ErrUnknownLocation, got %v", err)
	}
}

func TestPlaceAndRemove(t *testing.T) {
	w := NewWorld(testDefs())

	obj, err := w.Place("Farm", Point{X: 1, Y: 0}, "(O)388", 0, "rule:test")
	if err != nil {
		t.Fatalf("Place: %v", err)
	}
	if obj.InstanceID == "" {
		t.Error("expected an instance id")
	}
	if obj.Stack != 1 {
		t.Errorf("stack = %d, want 1", obj.Stack)
	}

	tiles, _ := w.Tiles("Farm")
	if !tiles[1].Occupied {
		t.Error("tile should be occupied after Place")
	}

	tests := []struct {
		name string
		loc  string
		p    Point
		want error
	}{
		{"occupied", "Farm", Point{X: 1, Y: 0}, ErrTileUnavailable},
		{"blocked", "Farm", Point{X: 2, Y: 1}, ErrTileUnavailable},
		{"outside", "Farm", Point{X: 3, Y: 0}, ErrTileUnavailable},
		{"unknown location", "Moon", Point{}, ErrUnknownLocation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := w.Place(tt.loc, tt.p, "(O)388", 1, ""); !errors.Is(err, tt.want) {
				t.Errorf("Place error = %v, want %v", err, tt.want)
			}
		})
	}

	if w.ObjectCount() != 1 {
		t.Errorf("ObjectCount = %d, want 1", w.ObjectCount())
	}
	if _, ok := w.Remove("Farm", Point{X: 1, Y: 0}); !ok {
		t.Error("Remove should find the object")
	}
	if _, ok := w.Remove("Farm", Point{X: 1, Y: 0}); ok {
		t.Error("second Remove should find nothing")
	}
}

func TestObjectsIn_Sorted(t *testing.T) {
	w := NewWorld(testDefs())
	w.Place("Farm", Point{X: 1, Y: 1}, "b", 1, "")
	w.Place("Farm", Point{X: 0, Y: 0}, "a", 1, "")
	w.Place("Farm", Point{X: 2, Y: 0}, "c", 1, "")

	objs := w.ObjectsIn("Farm")
	if len(objs) != 3 {
		t.Fatalf("expected 3 objects, got %d", len(objs))
	}
	if objs[0].ItemID != "a" || objs[1].ItemID != "c" || objs[2].ItemID != "b" {
		t.Errorf("unexpected order: %v", objs)
	}
}

func TestParsePoint(t *testing.T) {
	p, err := ParsePoint(" 3, 4")
	if err != nil || p != (Point{X: 3, Y: 4}) {
		t.Errorf("ParsePoint = %v, %v", p, err)
	}
	for _, bad := range []string{"3", "a,4", "3,b"} {
		if _, err := ParsePoint(bad); err == nil {
			t.Errorf("ParsePoint(%q) should fail", bad)
		}
	}
	if (Point{X: 1, Y: 2}).String() != "1,2" {
		t.Error("Point.String mismatch")
	}
}

func TestLocationIDs(t *testing.T) {
	w := NewWorld(testDefs())
	ids := w.LocationIDs()
	if len(ids) != 2 || ids[0] != "Farm" || ids[1] != "Town" {
		t.Errorf("LocationIDs = %v", ids)
	}
}
