package loader

import (
	lua "github.com/yuin/gopher-lua"
)

// collector accumulates Lua definitions during file execution.
type collector struct {
	title     string
	rules     []*lua.LTable
	locations []*lua.LTable
}

// runLua executes one content file in a fresh sandboxed VM and returns what
// it defined.
func runLua(path string) (document, error) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()

	openSafeLibs(L)
	sandbox(L)

	coll := &collector{}
	registerAPI(L, coll)

	if err := L.DoFile(path); err != nil {
		return document{}, err
	}

	doc := document{title: coll.title}
	for _, t := range coll.rules {
		doc.rules = append(doc.rules, toGoValue(t))
	}
	for _, t := range coll.locations {
		doc.locations = append(doc.locations, toGoValue(t))
	}
	return doc, nil
}

// registerAPI registers the content constructors as globals.
func registerAPI(L *lua.LState, coll *collector) {
	// World { Title = "..." }
	L.SetGlobal("World", L.NewFunction(func(L *lua.LState) int {
		tbl := L.CheckTable(1)
		if s, ok := tbl.RawGetString("Title").(lua.LString); ok {
			coll.title = string(s)
		}
		return 0
	}))

	// Location "id" { Width = 3, Height = 2, ... }, curried.
	L.SetGlobal("Location", L.NewFunction(func(L *lua.LState) int {
		id := L.CheckString(1)
		L.Push(L.NewFunction(func(L *lua.LState) int {
			tbl := L.CheckTable(1)
			tbl.RawSetString("Id", lua.LString(id))
			coll.locations = append(coll.locations, tbl)
			return 0
		}))
		return 1
	}))

	// Rule { Triggers = "...", CustomActions = { ... } }
	// Returns the table so files can keep a reference.
	L.SetGlobal("Rule", L.NewFunction(func(L *lua.LState) int {
		tbl := L.CheckTable(1)
		coll.rules = append(coll.rules, tbl)
		L.Push(tbl)
		return 1
	}))

	// Action "SpawnObject" { Weight = 2, Settings = { ... } }, curried,
	// builds a candidate table with Action filled in.
	L.SetGlobal("Action", L.NewFunction(func(L *lua.LState) int {
		action := L.CheckString(1)
		L.Push(L.NewFunction(func(L *lua.LState) int {
			tbl := L.OptTable(1, L.NewTable())
			tbl.RawSetString("Action", lua.LString(action))
			L.Push(tbl)
			return 1
		}))
		return 1
	}))
}

// openSafeLibs opens only the safe subset of Lua standard libraries.
func openSafeLibs(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
}

// sandbox removes globals that reach outside the VM.
func sandbox(L *lua.LState) {
	for _, name := range []string{
		"dofile", "loadfile", "load", "loadstring",
		"rawset", "rawget", "rawequal",
		"collectgarbage", "require", "module",
	} {
		L.SetGlobal(name, lua.LNil)
	}
}

// toGoValue converts a Lua value to a Go value recursively. Tables with a
// sequence part become slices; other tables become maps with string keys.
func toGoValue(v lua.LValue) any {
	switch val := v.(type) {
	case lua.LBool:
		return bool(val)
	case lua.LNumber:
		f := float64(val)
		if f == float64(int(f)) {
			return int(f)
		}
		return f
	case lua.LString:
		return string(val)
	case *lua.LTable:
		if n := val.MaxN(); n > 0 {
			arr := make([]any, 0, n)
			for i := 1; i <= n; i++ {
				arr = append(arr, toGoValue(val.RawGetInt(i)))
			}
			return arr
		}
		m := map[string]any{}
		val.ForEach(func(k, v lua.LValue) {
			if ks, ok := k.(lua.LString); ok {
				m[string(ks)] = toGoValue(v)
			}
		})
		return m
	default:
		return nil
	}
}
