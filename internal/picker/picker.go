// Package picker turns a multi-result resolution into a single chosen
// entity. Collections with zero or one member short-circuit without ever
// invoking the selection surface; only genuinely ambiguous resolutions reach
// the user.
package picker

import (
	"context"

	"github.com/dshills/dapscope/internal/entity"
	"github.com/dshills/dapscope/internal/resolve"
)

// LabelFunc renders an entity for display in a selection list. Labeling is a
// presentation concern; the flow itself is kind-agnostic.
type LabelFunc func(entity.Entity) string

// Surface is the external selection UI invoked for ambiguous picks. Present
// shows the labeled items and reports the choice through report: the chosen
// entity, or nil on cancellation. Present must not block; report may be
// called from any goroutine, exactly once.
type Surface interface {
	Present(items []entity.Entity, label LabelFunc, report func(entity.Entity))
}

// Flow resolves a URI pattern down to one entity.
type Flow struct {
	resolver *resolve.Resolver
	surface  Surface
	label    LabelFunc
}

// NewFlow creates a picker flow. The label function is used whenever the
// surface has to be invoked.
func NewFlow(resolver *resolve.Resolver, surface Surface, label LabelFunc) *Flow {
	return &Flow{resolver: resolver, surface: surface, label: label}
}

// Pick resolves the pattern and returns a single entity, suspending the
// calling goroutine while an ambiguous choice is pending.
//
// Resolution failures and zero-result collections both come back as nil
// without error: the picker treats "nothing to pick" uniformly, callers
// needing the distinction resolve directly. Cancelling the context or the
// surface resumes with nil; the caller is never left suspended.
func (f *Flow) Pick(ctx context.Context, pattern string) entity.Entity {
	items := f.resolveItems(ctx, pattern)
	switch len(items) {
	case 0:
		return nil
	case 1:
		return items[0]
	}

	picked := make(chan entity.Entity, 1)
	f.surface.Present(items, f.label, func(e entity.Entity) {
		picked <- e
	})

	select {
	case e := <-picked:
		return e
	case <-ctx.Done():
		return nil
	}
}

// PickAsync resolves the pattern and delivers the result through onPicked
// without ever blocking the caller on user input. onPicked receives nil for
// "no selection".
func (f *Flow) PickAsync(ctx context.Context, pattern string, onPicked func(entity.Entity)) {
	items := f.resolveItems(ctx, pattern)
	switch len(items) {
	case 0:
		onPicked(nil)
	case 1:
		onPicked(items[0])
	default:
		f.surface.Present(items, f.label, onPicked)
	}
}

// resolveItems absorbs every resolution error into an empty item list.
func (f *Flow) resolveItems(ctx context.Context, pattern string) []entity.Entity {
	col, err := f.resolver.Resolve(ctx, pattern)
	if err != nil {
		return nil
	}
	return col.Items()
}
