// Package surface provides the presentation implementations behind bound
// views and the picker: an in-memory surface for tests and non-TTY use,
// and a tcell terminal surface.
package surface

import (
	"github.com/dshills/dapscope/internal/entity"
	"github.com/dshills/dapscope/internal/picker"
)

// Presentation displays one bound view. It mirrors the contract the
// buffer controller expects from its surfaces.
type Presentation interface {
	// SetContent replaces the surface content.
	SetContent(text string)

	// SetErrorState shows a transient error distinctly from content.
	SetErrorState(message string)

	// OnClosed registers a handler invoked when the surface goes away.
	OnClosed(fn func())
}

// Selection presents a candidate list and reports the user's choice, or
// nil on cancellation.
type Selection interface {
	Present(items []entity.Entity, label picker.LabelFunc, report func(entity.Entity))
}

// SelectFunc adapts a function to the Selection interface.
type SelectFunc func(items []entity.Entity, label picker.LabelFunc, report func(entity.Entity))

// Present implements Selection.
func (f SelectFunc) Present(items []entity.Entity, label picker.LabelFunc, report func(entity.Entity)) {
	f(items, label, report)
}
