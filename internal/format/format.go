// Package format renders entities for display: one-line labels for picker
// lists and deterministic multi-line renderings for bound buffers.
//
// Labeling switches exhaustively over the closed set of entity kinds. There
// is no field sniffing: if a new kind is added, this package fails to label
// it until it is handled explicitly.
package format

import (
	"fmt"
	"strings"

	"github.com/dshills/dapscope/internal/entity"
	"github.com/dshills/dapscope/internal/resolve"
)

// Label renders a one-line label for an entity.
func Label(e entity.Entity) string {
	switch v := e.(type) {
	case *entity.Session:
		return fmt.Sprintf("%s [%s] %s", v.Name(), v.AdapterID, v.State)
	case *entity.Thread:
		if v.Stopped {
			return fmt.Sprintf("%s (#%s) stopped: %s", v.Name(), v.ID(), v.StopReason)
		}
		return fmt.Sprintf("%s (#%s) running", v.Name(), v.ID())
	case *entity.Stack:
		return fmt.Sprintf("stack (%d frames)", v.TotalFrames)
	case *entity.Frame:
		return fmt.Sprintf("%s (%s)", v.Name(), v.FormatLocation())
	case *entity.Scope:
		if v.Expensive {
			return v.Name() + " (expensive)"
		}
		return v.Name()
	case *entity.Variable:
		if v.Type != "" {
			return fmt.Sprintf("%s %s = %s", v.Name(), v.Type, v.Value)
		}
		return fmt.Sprintf("%s = %s", v.Name(), v.Value)
	case *entity.Breakpoint:
		marker := "[ ]"
		if v.Verified {
			marker = "[x]"
		}
		label := fmt.Sprintf("%s %s", marker, v.FormatLocation())
		if v.Condition != "" {
			label += " if " + v.Condition
		}
		return label
	case *entity.Binding:
		if v.Err != "" {
			return fmt.Sprintf("%s = <error: %s>", v.Name(), v.Err)
		}
		if v.Value == "" {
			return fmt.Sprintf("%s = <not evaluated>", v.Name())
		}
		return fmt.Sprintf("%s = %s", v.Name(), v.Value)
	default:
		return e.Name()
	}
}

// RenderList renders a collection as one label line per entity in resolution
// order. An empty collection renders as the empty string.
func RenderList(col *resolve.Collection) string {
	if col == nil || col.Count() == 0 {
		return ""
	}

	var sb strings.Builder
	first := true
	for e := range col.Iterate() {
		if !first {
			sb.WriteString("\n")
		}
		sb.WriteString(Label(e))
		first = false
	}
	return sb.String()
}

// RenderLabeled renders a collection one line per entity through a custom
// label function, such as a Lua hook.
func RenderLabeled(col *resolve.Collection, label func(entity.Entity) string) string {
	if col == nil || col.Count() == 0 {
		return ""
	}

	var sb strings.Builder
	first := true
	for e := range col.Iterate() {
		if !first {
			sb.WriteString("\n")
		}
		sb.WriteString(label(e))
		first = false
	}
	return sb.String()
}

// RenderNumbered renders a collection with 1-based position prefixes, the
// form used by frame listings.
func RenderNumbered(col *resolve.Collection) string {
	if col == nil || col.Count() == 0 {
		return ""
	}

	var sb strings.Builder
	i := 0
	for e := range col.Iterate() {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "%2d. %s", i+1, Label(e))
		i++
	}
	return sb.String()
}
