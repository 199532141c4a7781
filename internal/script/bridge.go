package script

import (
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/port4k/port4k/internal/domain"
)

// execCtx carries everything a single job execution's host-bridge
// functions close over: the read-only room projection, the output sink,
// and the mutation accumulator the host applies after the script returns.
type execCtx struct {
	cursor    domain.Cursor
	object    *domain.ObjectView
	output    OutputSink
	mutations Mutations
}

// registerBridge installs the narrow host API of spec.md §4.3 into L:
// say/sys free functions, and room/state/player global tables. All
// calls are synchronous from the script's point of view; mutations are
// recorded on ec and applied by the caller once the script returns.
func registerBridge(L *lua.LState, ec *execCtx) {
	L.SetGlobal("say", L.NewFunction(func(L *lua.LState) int {
		text := L.CheckString(1)
		if ec.output != nil {
			ec.output.Line(text)
		}
		return 0
	}))
	L.SetGlobal("sys", L.NewFunction(func(L *lua.LState) int {
		text := L.CheckString(1)
		if ec.output != nil {
			ec.output.System(text)
		}
		return 0
	}))

	room := L.NewTable()
	L.SetField(room, "nouns", L.NewFunction(func(L *lua.LState) int {
		t := L.NewTable()
		for noun := range ec.cursor.Room.NounToObjID {
			t.Append(lua.LString(noun))
		}
		L.Push(t)
		return 1
	}))
	L.SetField(room, "object", L.NewFunction(func(L *lua.LState) int {
		id := L.CheckString(1)
		for _, obj := range ec.cursor.Room.Objects {
			if string(obj.ID) == id {
				L.Push(objectToTable(L, obj))
				return 1
			}
		}
		L.Push(lua.LNil)
		return 1
	}))
	L.SetGlobal("room", room)

	state := L.NewTable()
	L.SetField(state, "get", L.NewFunction(func(L *lua.LState) int {
		key := L.CheckString(1)
		if ec.object == nil {
			L.Push(lua.LNil)
			return 1
		}
		v, ok := ec.object.State[key]
		if !ok {
			L.Push(lua.LNil)
			return 1
		}
		L.Push(goValueToLua(L, v))
		return 1
	}))
	L.SetField(state, "set", L.NewFunction(func(L *lua.LState) int {
		key := L.CheckString(1)
		val := L.CheckAny(2)
		if ec.mutations.StateSet == nil {
			ec.mutations.StateSet = make(map[string]any)
		}
		ec.mutations.StateSet[key] = luaValueToGo(val)
		return 0
	}))
	L.SetGlobal("state", state)

	player := L.NewTable()
	L.SetField(player, "xp_add", L.NewFunction(func(L *lua.LState) int {
		ec.mutations.XPDelta += int(L.CheckNumber(1))
		return 0
	}))
	L.SetField(player, "coins_add", L.NewFunction(func(L *lua.LState) int {
		ec.mutations.CoinsDelta += int(L.CheckNumber(1))
		return 0
	}))
	L.SetGlobal("player", player)
}

func objectToTable(L *lua.LState, obj domain.ObjectView) *lua.LTable {
	t := L.NewTable()
	L.SetField(t, "id", lua.LString(obj.ID))
	L.SetField(t, "short", lua.LString(obj.Short))
	L.SetField(t, "description", lua.LString(obj.Description))
	nouns := L.NewTable()
	for _, n := range obj.Nouns {
		nouns.Append(lua.LString(n))
	}
	L.SetField(t, "nouns", nouns)
	return t
}

func goValueToLua(L *lua.LState, v any) lua.LValue {
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
	default:
		return lua.LString(strings.TrimSpace(""))
	}
}

func luaValueToGo(v lua.LValue) any {
	switch val := v.(type) {
	case lua.LBool:
		return bool(val)
	case lua.LNumber:
		return float64(val)
	case lua.LString:
		return string(val)
	default:
		return nil
	}
}

// resultFromLua converts the first returned Lua value of a hook into a
// Result's Kind/Bool/Int/Str fields (spec.md §4.3 reply value types).
func resultFromLua(v lua.LValue) (ValueKind, bool, int, string) {
	switch val := v.(type) {
	case lua.LBool:
		return ValueBool, bool(val), 0, ""
	case lua.LNumber:
		return ValueInt, false, int(val), ""
	case lua.LString:
		return ValueString, false, 0, string(val)
	default:
		return ValueNil, false, 0, ""
	}
}
