package format

import (
	"fmt"
	"sync"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/dapscope/internal/entity"
)

// Hooks holds a user Lua script that may override entity labels. The script
// defines a global function:
//
//	function label(kind, fields)
//	  if kind == "variable" then
//	    return fields.name .. " -> " .. fields.value
//	  end
//	  -- return nil to fall back to the built-in label
//	end
//
// A script error or a non-string return falls back to the built-in label;
// user formatting must never break a view.
type Hooks struct {
	mu sync.Mutex
	L  *lua.LState
}

// LoadHooks loads a label script from a file.
func LoadHooks(path string) (*Hooks, error) {
	L := lua.NewState()
	if err := L.DoFile(path); err != nil {
		L.Close()
		return nil, fmt.Errorf("load label script %s: %w", path, err)
	}
	return &Hooks{L: L}, nil
}

// LoadHooksFromString loads a label script from source text.
func LoadHooksFromString(src string) (*Hooks, error) {
	L := lua.NewState()
	if err := L.DoString(src); err != nil {
		L.Close()
		return nil, fmt.Errorf("load label script: %w", err)
	}
	return &Hooks{L: L}, nil
}

// Close releases the Lua state.
func (h *Hooks) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.L != nil {
		h.L.Close()
		h.L = nil
	}
}

// Label renders an entity through the script's label function, falling back
// to the built-in label when the script declines or fails.
func (h *Hooks) Label(e entity.Entity) string {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.L == nil {
		return Label(e)
	}
	fn, ok := h.L.GetGlobal("label").(*lua.LFunction)
	if !ok {
		return Label(e)
	}

	err := h.L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true},
		lua.LString(e.Kind().String()), h.fields(e))
	if err != nil {
		return Label(e)
	}

	ret := h.L.Get(-1)
	h.L.Pop(1)
	if s, ok := ret.(lua.LString); ok {
		return string(s)
	}
	return Label(e)
}

// fields builds the kind-specific field table passed to the script.
func (h *Hooks) fields(e entity.Entity) *lua.LTable {
	t := h.L.NewTable()
	t.RawSetString("id", lua.LString(e.ID()))
	t.RawSetString("name", lua.LString(e.Name()))
	t.RawSetString("uri", lua.LString(e.URI()))

	switch v := e.(type) {
	case *entity.Session:
		t.RawSetString("adapter", lua.LString(v.AdapterID))
		t.RawSetString("state", lua.LString(v.State.String()))
	case *entity.Thread:
		t.RawSetString("stopped", lua.LBool(v.Stopped))
		t.RawSetString("reason", lua.LString(v.StopReason))
	case *entity.Stack:
		t.RawSetString("total_frames", lua.LNumber(v.TotalFrames))
	case *entity.Frame:
		t.RawSetString("path", lua.LString(v.Path))
		t.RawSetString("line", lua.LNumber(v.Line))
		t.RawSetString("column", lua.LNumber(v.Column))
	case *entity.Scope:
		t.RawSetString("expensive", lua.LBool(v.Expensive))
	case *entity.Variable:
		t.RawSetString("value", lua.LString(v.Value))
		t.RawSetString("type", lua.LString(v.Type))
	case *entity.Breakpoint:
		t.RawSetString("path", lua.LString(v.Path))
		t.RawSetString("line", lua.LNumber(v.Line))
		t.RawSetString("verified", lua.LBool(v.Verified))
		t.RawSetString("condition", lua.LString(v.Condition))
	case *entity.Binding:
		t.RawSetString("expression", lua.LString(v.Expression))
		t.RawSetString("value", lua.LString(v.Value))
		t.RawSetString("error", lua.LString(v.Err))
	}
	return t
}
