package conditions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"

	"github.com/Esca-MMC/FarmTypeManager-sub001/types"
)

// DefaultTimeout bounds one condition evaluation.
const DefaultTimeout = 100 * time.Millisecond

// ErrConditionTimeout is wrapped into the error of a condition that ran past
// the evaluator's Timeout.
var ErrConditionTimeout = errors.New("condition timed out")

// WorldView is the read-only slice of host state that conditions may query.
type WorldView interface {
	Flag(name string) bool
	Counter(name string) int
}

// LuaEvaluator evaluates conditions as sandboxed Lua expressions, e.g.
//
//	location == "Farm" and flag("greenhouse_open")
//	tile.terrain == "Dirt" and not tile.occupied
//	counter("day") % 7 == 0 and random(0.25)
//
// Compiled expressions are cached per string. Each call runs in a fresh
// environment over a read-only base, so nothing one condition assigns is
// visible to the next. Safe for concurrent use; calls are serialized on a
// single Lua state.
type LuaEvaluator struct {
	// Timeout bounds each call. Zero or negative disables the limit.
	Timeout time.Duration

	mu      sync.Mutex
	L       *lua.LState
	envMeta *lua.LTable // __index = read-only base
	protos  map[string]*lua.FunctionProto
	world   WorldView
	rng     types.Random
	args    *lua.LTable // trigger.args of the call in progress
}

// NewLuaEvaluator creates an evaluator. world and rng may be nil, in which
// case flag() is always false, counter() is 0 and random() is false.
func NewLuaEvaluator(world WorldView, rng types.Random) *LuaEvaluator {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibs(L)
	sandbox(L)

	e := &LuaEvaluator{
		Timeout: DefaultTimeout,
		L:       L,
		protos:  map[string]*lua.FunctionProto{},
		world:   world,
		rng:     rng,
	}
	e.registerFuncs()

	e.envMeta = L.NewTable()
	e.envMeta.RawSetString("__index", readOnly(L, L.G.Global))
	return e
}

// Close releases the Lua state.
func (e *LuaEvaluator) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.L.Close()
}

// Evaluate runs condition against scope and returns its Lua truthiness.
func (e *LuaEvaluator) Evaluate(condition string, scope Scope) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	proto, err := e.compile(condition)
	if err != nil {
		return false, err
	}

	L := e.L
	env := L.NewTable()
	e.bindScope(env, scope)
	L.SetMetatable(env, e.envMeta)
	defer func() { e.args = nil }()

	fn := L.NewFunctionFromProto(proto)
	L.SetFEnv(fn, env)

	if e.Timeout > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), e.Timeout)
		defer cancel()
		L.SetContext(ctx)
		defer L.RemoveContext()
	}

	L.Push(fn)
	if err := L.PCall(0, 1, nil); err != nil {
		if ctx := L.Context(); ctx != nil && ctx.Err() != nil {
			return false, fmt.Errorf("%w: %q: %w", ErrMalformedCondition, condition, ErrConditionTimeout)
		}
		return false, fmt.Errorf("%w: %q: %v", ErrMalformedCondition, condition, err)
	}
	ret := L.Get(-1)
	L.Pop(1)
	return lua.LVAsBool(ret), nil
}

// compile parses condition as an expression. Callers must hold mu.
func (e *LuaEvaluator) compile(condition string) (*lua.FunctionProto, error) {
	if p, ok := e.protos[condition]; ok {
		return p, nil
	}
	src := "return (" + condition + "\n)"
	chunk, err := parse.Parse(strings.NewReader(src), "<condition>")
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrMalformedCondition, condition, err)
	}
	proto, err := lua.Compile(chunk, "<condition>")
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrMalformedCondition, condition, err)
	}
	e.protos[condition] = proto
	return proto, nil
}

// bindScope publishes the scope into env. Callers must hold mu.
func (e *LuaEvaluator) bindScope(env *lua.LTable, scope Scope) {
	L := e.L
	tc := scope.Trigger

	trigger := L.NewTable()
	trigger.RawSetString("name", lua.LString(tc.Trigger))
	args := L.NewTable()
	for _, a := range tc.Args {
		args.Append(toLuaValue(L, a))
	}
	trigger.RawSetString("args", args)
	e.args = args

	env.RawSetString("trigger", trigger)
	env.RawSetString("location", lua.LString(tc.Location))
	env.RawSetString("actor", lua.LString(tc.Actor))
	env.RawSetString("target_item", itemTable(L, tc.TargetItem))
	env.RawSetString("input_item", itemTable(L, tc.InputItem))

	if scope.Tile == nil {
		return
	}
	tile := L.NewTable()
	tile.RawSetString("x", lua.LNumber(scope.Tile.X))
	tile.RawSetString("y", lua.LNumber(scope.Tile.Y))
	tile.RawSetString("terrain", lua.LString(scope.Tile.Terrain))
	tile.RawSetString("occupied", lua.LBool(scope.Tile.Occupied))
	env.RawSetString("tile", tile)
}

func (e *LuaEvaluator) registerFuncs() {
	L := e.L

	// flag("name")
	L.SetGlobal("flag", L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(1)
		L.Push(lua.LBool(e.world != nil && e.world.Flag(name)))
		return 1
	}))

	// counter("name")
	L.SetGlobal("counter", L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(1)
		n := 0
		if e.world != nil {
			n = e.world.Counter(name)
		}
		L.Push(lua.LNumber(n))
		return 1
	}))

	// random(chance): true with probability chance, drawn from the shared source.
	L.SetGlobal("random", L.NewFunction(func(L *lua.LState) int {
		chance := float64(L.CheckNumber(1))
		L.Push(lua.LBool(e.rng != nil && e.rng.Float64() < chance))
		return 1
	}))

	// has_arg(value): true if any trigger argument equals value.
	L.SetGlobal("has_arg", L.NewFunction(func(L *lua.LState) int {
		want := L.CheckAny(1)
		found := false
		if e.args != nil {
			e.args.ForEach(func(_, v lua.LValue) {
				if v.String() == want.String() && v.Type() == want.Type() {
					found = true
				}
			})
		}
		L.Push(lua.LBool(found))
		return 1
	}))
}

func itemTable(L *lua.LState, item *types.Item) lua.LValue {
	if item == nil {
		return lua.LNil
	}
	tbl := L.NewTable()
	tbl.RawSetString("id", lua.LString(item.ID))
	tbl.RawSetString("stack", lua.LNumber(item.Stack))
	return tbl
}

// toLuaValue converts a Go trigger argument into a Lua value.
func toLuaValue(L *lua.LState, v any) lua.LValue {
	switch val := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(val)
	case string:
		return lua.LString(val)
	case int:
		return lua.LNumber(val)
	case int64:
		return lua.LNumber(val)
	case float64:
		return lua.LNumber(val)
	case []any:
		tbl := L.NewTable()
		for _, x := range val {
			tbl.Append(toLuaValue(L, x))
		}
		return tbl
	case map[string]any:
		tbl := L.NewTable()
		for k, x := range val {
			tbl.RawSetString(k, toLuaValue(L, x))
		}
		return tbl
	default:
		return lua.LString(fmt.Sprint(val))
	}
}

// openSafeLibs opens only the safe subset of Lua standard libraries.
func openSafeLibs(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
}

// sandbox removes dangerous globals and functions.
func sandbox(L *lua.LState) {
	dangerous := []string{
		"dofile", "loadfile", "load", "loadstring",
		"rawset", "rawget", "rawequal",
		"setfenv", "getfenv", "setmetatable", "getmetatable",
		"collectgarbage", "print", "_G",
	}
	for _, name := range dangerous {
		L.SetGlobal(name, lua.LNil)
	}

	// math.random would bypass the shared seeded source.
	if tbl, ok := L.GetGlobal("math").(*lua.LTable); ok {
		tbl.RawSetString("randomseed", lua.LNil)
		tbl.RawSetString("random", lua.LNil)
	}
}

// readOnly returns a proxy over a copy of tbl that rejects assignment. Nested
// tables (the string, math and table libraries) are wrapped the same way.
func readOnly(L *lua.LState, tbl *lua.LTable) *lua.LTable {
	inner := L.NewTable()
	tbl.ForEach(func(k, v lua.LValue) {
		if t, ok := v.(*lua.LTable); ok && t != tbl {
			v = readOnly(L, t)
		}
		inner.RawSet(k, v)
	})

	mt := L.NewTable()
	mt.RawSetString("__index", inner)
	mt.RawSetString("__newindex", L.NewFunction(func(L *lua.LState) int {
		L.RaiseError("attempt to modify a read-only table")
		return 0
	}))
	mt.RawSetString("__metatable", lua.LFalse)

	proxy := L.NewTable()
	L.SetMetatable(proxy, mt)
	return proxy
}
