// Package resolve walks parsed URIs against the entity model, producing
// snapshot Collections of zero, one or many entities.
//
// Resolution starts either from the absolute root (the registry of all
// sessions) or from a contextual anchor looked up in the focus tracker, and
// steps through each (kind, selector) segment left to right. Each step
// snapshots the children listing at the moment of lookup: entities disposed
// mid-walk drop out of the result, they are never surfaced half-constructed.
// A literal selector that matches nothing produces an empty Collection, not
// an error — callers distinguish "zero results" from "malformed query".
package resolve

import (
	"context"
	"strconv"

	"github.com/dshills/dapscope/internal/entity"
	"github.com/dshills/dapscope/internal/focus"
	"github.com/dshills/dapscope/internal/uri"
)

// Resolver resolves URIs against a model and a focus tracker. It is
// stateless: every call re-reads both.
type Resolver struct {
	model entity.Model
	focus *focus.Tracker
}

// New creates a resolver over the given model and focus tracker.
func New(model entity.Model, tracker *focus.Tracker) *Resolver {
	return &Resolver{model: model, focus: tracker}
}

// Resolve parses and resolves a raw URI string.
func (r *Resolver) Resolve(ctx context.Context, raw string) (*Collection, error) {
	p, err := uri.Parse(raw)
	if err != nil {
		return nil, err
	}
	return r.ResolveParsed(ctx, p)
}

// ResolveParsed resolves an already-parsed URI.
func (r *Resolver) ResolveParsed(ctx context.Context, p uri.Parsed) (*Collection, error) {
	if p.Scheme != uri.DefaultScheme {
		return nil, wrapNoSuchRoot(p.Scheme)
	}

	kinds, err := staticKinds(p)
	if err != nil {
		return nil, err
	}

	// Establish the starting entity set and the segments still to walk.
	var (
		set      []entity.Entity
		segments = p.Segments
		segKinds = kinds
	)
	if p.Anchored() {
		start, err := r.anchorEntity(ctx, p.Anchor)
		if err != nil {
			return nil, err
		}
		set = []entity.Entity{start}
	} else {
		// The first segment is the root kind; its selector filters the
		// session registry.
		sessions, err := r.model.Sessions(ctx)
		if err != nil {
			sessions = nil
		}
		root := segments[0]
		if root.IsWildcard() {
			set = sessions
		} else {
			set = matchSelector(sessions, root.Selector)
		}
		segments = segments[1:]
		segKinds = segKinds[1:]
	}

	// Walk each remaining (kind, selector) step. A failing or disposed
	// branch contributes nothing; it never aborts the walk.
	for i, seg := range segments {
		kind := segKinds[i]
		var next []entity.Entity
		for _, cur := range set {
			if cur == nil {
				continue
			}
			children, err := r.model.Children(ctx, cur, kind)
			if err != nil {
				continue
			}
			if seg.IsWildcard() {
				next = append(next, children...)
				continue
			}
			// A literal after a wildcard filters independently within
			// each parent branch.
			next = append(next, matchSelector(children, seg.Selector)...)
		}
		set = next
	}

	expect := Many
	if !effectiveWildcard(p, kinds) && singletonStart(p) {
		expect = One
	}
	return newCollection(p.String(), set, expect), nil
}

// staticKinds validates the segment kind tokens and their positions in the
// entity hierarchy before any entity access. It returns the mapped kinds,
// aligned with p.Segments.
func staticKinds(p uri.Parsed) ([]entity.Kind, error) {
	kinds := make([]entity.Kind, len(p.Segments))
	for i, seg := range p.Segments {
		k, ok := entity.KindForSegment(seg.Kind)
		if !ok {
			return nil, wrapUnknownKind(seg.Kind, "any parent")
		}
		kinds[i] = k
	}

	// Position check: each kind must be a child kind of its predecessor
	// (or of the anchor / root for the first segment).
	prev, hasPrev := anchorKind(p.Anchor)
	for i, k := range kinds {
		switch {
		case i == 0 && !hasPrev:
			if k != entity.KindSession {
				return nil, wrapUnknownKind(p.Segments[i].Kind, "root")
			}
		default:
			if i > 0 {
				prev = kinds[i-1]
			}
			if !prev.HasChildKind(k) {
				return nil, wrapUnknownKind(p.Segments[i].Kind, prev.String())
			}
		}
	}
	return kinds, nil
}

// anchorKind returns the entity kind an anchor stands for.
func anchorKind(a uri.Anchor) (entity.Kind, bool) {
	switch a {
	case uri.AnchorSession:
		return entity.KindSession, true
	case uri.AnchorThread:
		return entity.KindThread, true
	case uri.AnchorStack:
		return entity.KindStack, true
	case uri.AnchorFrame:
		return entity.KindFrame, true
	default:
		return 0, false
	}
}

// anchorEntity resolves an anchor against the current focus snapshot.
func (r *Resolver) anchorEntity(ctx context.Context, a uri.Anchor) (entity.Entity, error) {
	if r.focus == nil {
		return nil, wrapEmptyContext(a.String())
	}
	cur := r.focus.Current()

	switch a {
	case uri.AnchorSession:
		if cur.Session == nil {
			return nil, wrapEmptyContext("session")
		}
		return cur.Session, nil
	case uri.AnchorThread:
		if cur.Thread == nil {
			return nil, wrapEmptyContext("thread")
		}
		return cur.Thread, nil
	case uri.AnchorStack:
		if cur.Thread == nil {
			return nil, wrapEmptyContext("thread")
		}
		stacks, err := r.model.Children(ctx, cur.Thread, entity.KindStack)
		if err != nil || len(stacks) == 0 {
			return nil, wrapEmptyContext("stack")
		}
		return stacks[0], nil
	case uri.AnchorFrame:
		if cur.Frame == nil {
			return nil, wrapEmptyContext("frame")
		}
		return cur.Frame, nil
	default:
		return nil, wrapEmptyContext(a.String())
	}
}

// effectiveWildcard reports whether any segment can fan out to more than one
// entity. A selector-less segment of a singleton kind addresses exactly one
// child, so it does not count even though its selector is empty.
func effectiveWildcard(p uri.Parsed, kinds []entity.Kind) bool {
	for i, seg := range p.Segments {
		if seg.IsWildcard() && kinds[i] != entity.KindStack {
			return true
		}
	}
	return false
}

// singletonStart reports whether the URI starts from a single entity: a
// contextual anchor, or a root segment with a literal selector.
func singletonStart(p uri.Parsed) bool {
	if p.Anchored() {
		return true
	}
	return len(p.Segments) > 0 && !p.Segments[0].IsWildcard()
}

// matchSelector filters children by a literal selector. ID and name matches
// win; a purely numeric selector that matches neither is taken as a
// position index into the listing.
func matchSelector(children []entity.Entity, sel string) []entity.Entity {
	var out []entity.Entity
	for _, c := range children {
		if c == nil {
			continue
		}
		if c.ID() == sel || c.Name() == sel {
			out = append(out, c)
		}
	}
	if len(out) > 0 {
		return out
	}
	if idx, err := strconv.Atoi(sel); err == nil && idx >= 0 && idx < len(children) {
		if children[idx] != nil {
			return []entity.Entity{children[idx]}
		}
	}
	return nil
}
