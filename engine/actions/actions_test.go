package actions

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Esca-MMC/FarmTypeManager-sub001/engine/conditions"
	"github.com/Esca-MMC/FarmTypeManager-sub001/engine/settings"
	"github.com/Esca-MMC/FarmTypeManager-sub001/engine/state"
	"github.com/Esca-MMC/FarmTypeManager-sub001/types"
)

// lowRandom always picks the lowest value and the first positive weight.
type lowRandom struct{}

func (lowRandom) Range(min, _ int) int { return min }
func (lowRandom) Float64() float64     { return 0 }
func (lowRandom) WeightedSelect(weights []float64) int {
	for i, w := range weights {
		if w > 0 {
			return i
		}
	}
	return -1
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testEnv(t *testing.T) Env {
	t.Helper()
	w := state.NewWorld(&state.Defs{
		Locations: map[string]state.LocationDef{
			"Farm": {ID: "Farm", Width: 3, Height: 2, Terrain: "Grass",
				TerrainAt: map[string]string{"2,1": "Water"}},
			"Town": {ID: "Town", Width: 1, Height: 1, Terrain: "Stone"},
		},
	})
	eval := conditions.NewLuaEvaluator(w, lowRandom{})
	t.Cleanup(eval.Close)
	return Env{
		World:  w,
		RNG:    lowRandom{},
		Gate:   conditions.NewGate(eval, quietLogger()),
		Logger: quietLogger(),
	}
}

func testRegistry(t *testing.T, env Env) *Registry {
	t.Helper()
	r := NewRegistry(quietLogger())
	require.NoError(t, RegisterBuiltins(r, env))
	return r
}

// run parses raw with the named handler and executes it.
func run(t *testing.T, r *Registry, action string, raw map[string]any, tc types.TriggerContext) (types.ExecutionResult, error) {
	t.Helper()
	h, err := r.Resolve(action)
	require.NoError(t, err)
	s, err := h.ParseSettings(raw)
	require.NoError(t, err)
	return h.Execute(s, tc)
}

func TestRegistry_RegisterAndResolve(t *testing.T) {
	r := NewRegistry(quietLogger())
	calls := 0
	require.NoError(t, r.Register("Ping", func() Handler { calls++; return &Message{} }))

	h, err := r.Resolve("ping")
	require.NoError(t, err)
	assert.IsType(t, &Message{}, h)
	assert.Equal(t, 1, calls)
	assert.True(t, r.Has("PING"))
	assert.Equal(t, []string{"Ping"}, r.IDs())
}

func TestRegistry_DuplicateKeepsFirst(t *testing.T) {
	r := NewRegistry(quietLogger())
	require.NoError(t, r.Register("Spawn", func() Handler { return &SpawnObject{} }))

	err := r.Register("spawn", func() Handler { return &Message{} })
	require.ErrorIs(t, err, ErrDuplicateAction)

	h, err := r.Resolve("Spawn")
	require.NoError(t, err)
	assert.IsType(t, &SpawnObject{}, h)
}

func TestRegistry_Errors(t *testing.T) {
	r := NewRegistry(quietLogger())

	_, err := r.Resolve("Nope")
	assert.ErrorIs(t, err, ErrUnknownAction)

	assert.Error(t, r.Register("  ", func() Handler { return &Message{} }))
	assert.Error(t, r.Register("X", nil))

	require.NoError(t, r.Register("Nil", func() Handler { return nil }))
	_, err = r.Resolve("Nil")
	assert.ErrorIs(t, err, ErrUnknownAction)
}

func TestRegisterBuiltins_Twice(t *testing.T) {
	env := testEnv(t)
	r := testRegistry(t, env)

	err := RegisterBuiltins(r, env)
	assert.ErrorIs(t, err, ErrDuplicateAction)
	assert.Len(t, r.IDs(), 5)
}

func TestSpawnObject_PlacesItems(t *testing.T) {
	env := testEnv(t)
	r := testRegistry(t, env)

	res, err := run(t, r, ActionSpawnObject, map[string]any{
		"Location": "Farm",
		"Item":     "(O)388",
		"MinTimes": 2,
		"MaxTimes": 2,
	}, types.TriggerContext{Trigger: "dayStarted", Args: []any{}})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Changed)
	assert.Len(t, res.Events, 2)
	assert.Equal(t, EventObjectSpawned, res.Events[0].Type)

	objs := env.World.ObjectsIn("Farm")
	require.Len(t, objs, 2)
	assert.Equal(t, "(O)388", objs[0].ItemID)
	assert.Equal(t, state.Point{X: 0, Y: 0}, objs[0].Tile)
	assert.Equal(t, state.Point{X: 1, Y: 0}, objs[1].Tile)
	assert.Equal(t, "dayStarted", objs[0].Source)
}

func TestSpawnObject_TileCondition(t *testing.T) {
	env := testEnv(t)
	r := testRegistry(t, env)

	_, err := run(t, r, ActionSpawnObject, map[string]any{
		"Location":      "Farm",
		"Item":          map[string]any{"Id": "(O)152", "Stack": 3},
		"TileCondition": `tile.terrain == "Water"`,
	}, types.TriggerContext{Args: []any{}})
	require.NoError(t, err)

	objs := env.World.ObjectsIn("Farm")
	require.Len(t, objs, 1)
	assert.Equal(t, state.Point{X: 2, Y: 1}, objs[0].Tile)
	assert.Equal(t, 3, objs[0].Stack)
}

func TestSpawnObject_HereAndUnknownLocation(t *testing.T) {
	env := testEnv(t)
	r := testRegistry(t, env)

	res, err := run(t, r, ActionSpawnObject, map[string]any{
		"LocationList":     []any{"Here", "Moon"},
		"LocationListMode": "All",
		"Item":             "(O)388",
	}, types.TriggerContext{Location: "Town", Args: []any{}})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Moon")
	assert.Equal(t, 1, res.Changed)
	assert.Len(t, env.World.ObjectsIn("Town"), 1)
}

func TestSpawnObject_RunsOutOfTiles(t *testing.T) {
	env := testEnv(t)
	r := testRegistry(t, env)

	res, err := run(t, r, ActionSpawnObject, map[string]any{
		"Location": "Town",
		"Item":     "(O)388",
		"MinTimes": 3,
		"MaxTimes": 3,
	}, types.TriggerContext{Args: []any{}})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Changed)
	assert.Contains(t, res.Output[len(res.Output)-1], "No free tile")
}

func TestSpawnObject_Modifiers(t *testing.T) {
	env := testEnv(t)
	env.World.SetFlag("bonus", true)
	r := testRegistry(t, env)

	res, err := run(t, r, ActionSpawnObject, map[string]any{
		"Location": "Farm",
		"Item":     "(O)388",
		"Modifiers": []any{
			map[string]any{"Op": "Add", "Amount": 2, "Condition": `flag("bonus")`},
			map[string]any{"Op": "Add", "Amount": 10, "Condition": `flag("missing")`},
		},
	}, types.TriggerContext{Args: []any{}})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Changed)
}

func TestSpawnObject_InvalidSettings(t *testing.T) {
	env := testEnv(t)
	r := testRegistry(t, env)
	h, err := r.Resolve(ActionSpawnObject)
	require.NoError(t, err)

	_, err = h.ParseSettings(map[string]any{"Item": "(O)388"})
	assert.ErrorIs(t, err, settings.ErrInvalidSettings)

	_, err = h.ParseSettings(map[string]any{"Location": "Farm"})
	assert.ErrorIs(t, err, settings.ErrInvalidSettings)
}

func TestSpawnObject_MissingCapability(t *testing.T) {
	env := testEnv(t)
	h := &SpawnObject{env: env}

	_, err := h.Execute(&FlagSettings{Flag: "x"}, types.TriggerContext{})
	assert.ErrorIs(t, err, settings.ErrMissingCapability)
}

func TestRemoveObjects(t *testing.T) {
	env := testEnv(t)
	r := testRegistry(t, env)
	env.World.Place("Farm", state.Point{X: 0, Y: 0}, "(O)388", 1, "")
	env.World.Place("Farm", state.Point{X: 1, Y: 0}, "(O)390", 1, "")
	env.World.Place("Farm", state.Point{X: 2, Y: 1}, "(O)388", 1, "")

	res, err := run(t, r, ActionRemoveObjects, map[string]any{
		"Location":      "Farm",
		"ItemIds":       "(o)388",
		"TileCondition": `tile.terrain == "Grass"`,
	}, types.TriggerContext{Args: []any{}})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Changed)
	objs := env.World.ObjectsIn("Farm")
	require.Len(t, objs, 2)
	assert.Equal(t, "(O)390", objs[0].ItemID)
	assert.Equal(t, "(O)388", objs[1].ItemID)
}

func TestSetFlagAndAddCounter(t *testing.T) {
	env := testEnv(t)
	r := testRegistry(t, env)
	tc := types.TriggerContext{Args: []any{}}

	res, err := run(t, r, ActionSetFlag, map[string]any{"Flag": "rained"}, tc)
	require.NoError(t, err)
	assert.True(t, env.World.Flag("rained"))
	assert.Equal(t, 1, res.Changed)

	res, err = run(t, r, ActionSetFlag, map[string]any{"flag": "rained", "value": "true"}, tc)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Changed)

	_, err = run(t, r, ActionAddCounter, map[string]any{"Counter": "days"}, tc)
	require.NoError(t, err)
	res, err = run(t, r, ActionAddCounter, map[string]any{"Counter": "days", "Amount": "4"}, tc)
	require.NoError(t, err)
	assert.Equal(t, 5, env.World.Counter("days"))
	assert.Equal(t, 5, res.Events[0].Data["value"])

	h, _ := r.Resolve(ActionSetFlag)
	_, err = h.ParseSettings(map[string]any{})
	assert.ErrorIs(t, err, settings.ErrInvalidSettings)
}

func TestMessage(t *testing.T) {
	env := testEnv(t)
	r := testRegistry(t, env)

	res, err := run(t, r, ActionMessage, map[string]any{
		"Text": "{actor} used {item} at {location} on {trigger} ({arg1}, {arg2}) {unknown}",
	}, types.TriggerContext{
		Trigger:    "itemUsed",
		Args:       []any{"a", 7},
		Location:   "Farm",
		Actor:      "Player",
		TargetItem: &types.Item{ID: "(O)388"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Player used (O)388 at Farm on itemUsed (a, 7) {unknown}"}, res.Output)
}

func TestSettingsValidate(t *testing.T) {
	tests := []struct {
		name string
		s    settings.Validator
		ok   bool
	}{
		{"flag", &FlagSettings{Flag: "ready"}, true},
		{"blank flag", &FlagSettings{Flag: "  "}, false},
		{"counter", &CounterSettings{Counter: "days"}, true},
		{"blank counter", &CounterSettings{}, false},
		{"message", &MessageSettings{Text: "hi"}, true},
		{"empty message", &MessageSettings{}, false},
	}
	for _, tt := range tests {
		err := tt.s.Validate()
		if (err == nil) != tt.ok {
			t.Errorf("%s: Validate() = %v, want ok=%v", tt.name, err, tt.ok)
		}
	}
}

func TestExecute_WrongSettingsType(t *testing.T) {
	env := testEnv(t)
	h := &Message{env: env}
	_, err := h.Execute(&FlagSettings{}, types.TriggerContext{})
	require.Error(t, err)
	assert.False(t, errors.Is(err, settings.ErrInvalidSettings))
}
