package entity

import (
	"context"
	"sync"

	"github.com/dshills/dapscope/internal/event"
)

// Registry is the root of all sessions and the sole owner of entity
// lifecycle. It implements Model for the resolver and publishes lifecycle
// events on the bus.
type Registry struct {
	mu       sync.RWMutex
	bus      *event.Bus
	sessions []*Session
	children map[Entity][]Entity
}

// NewRegistry creates an empty registry publishing on the given bus.
func NewRegistry(bus *event.Bus) *Registry {
	return &Registry{
		bus:      bus,
		children: make(map[Entity][]Entity),
	}
}

// AddSession creates a new top-level session.
func (r *Registry) AddSession(id, name, adapterID string) (*Session, error) {
	s := &Session{
		base:      base{id: id, name: name},
		AdapterID: adapterID,
		State:     SessionInitializing,
	}

	r.mu.Lock()
	for _, existing := range r.sessions {
		if existing.ID() == id {
			r.mu.Unlock()
			return nil, ErrDuplicateID
		}
	}
	r.sessions = append(r.sessions, s)
	r.mu.Unlock()

	r.publishCreated(s)
	return s, nil
}

// AddThread creates a thread under the session, along with its singleton
// stack child.
func (r *Registry) AddThread(s *Session, id, name string) (*Thread, error) {
	if s == nil {
		return nil, ErrNilParent
	}

	t := &Thread{base: base{id: id, name: name, parent: s}}
	if err := r.link(s, t); err != nil {
		return nil, err
	}

	stack := &Stack{base: base{id: "stack", name: "stack", parent: t}}
	if err := r.link(t, stack); err != nil {
		return nil, err
	}

	r.publishCreated(t)
	r.publishCreated(stack)
	return t, nil
}

// Stack returns the singleton stack child of a thread, or nil if the thread
// has been disposed.
func (r *Registry) Stack(t *Thread) *Stack {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.children[t] {
		if s, ok := c.(*Stack); ok {
			return s
		}
	}
	return nil
}

// AddFrame creates a frame at the bottom of the thread's stack listing.
func (r *Registry) AddFrame(t *Thread, id, name, path string, line, column int) (*Frame, error) {
	stack := r.Stack(t)
	if stack == nil {
		return nil, ErrNilParent
	}

	f := &Frame{
		base:   base{id: id, name: name, parent: stack},
		Path:   path,
		Line:   line,
		Column: column,
	}
	if err := r.link(stack, f); err != nil {
		return nil, err
	}

	r.publishCreated(f)
	return f, nil
}

// AddScope creates a scope under a frame. The scope name doubles as its ID.
func (r *Registry) AddScope(f *Frame, name string, ref int, expensive bool) (*Scope, error) {
	if f == nil {
		return nil, ErrNilParent
	}

	s := &Scope{
		base:      base{id: name, name: name, parent: f},
		Ref:       ref,
		Expensive: expensive,
	}
	if err := r.link(f, s); err != nil {
		return nil, err
	}

	r.publishCreated(s)
	return s, nil
}

// AddVariable creates a variable under a scope or under another variable.
// The variable name doubles as its ID.
func (r *Registry) AddVariable(parent Entity, name, value, typ string, ref int) (*Variable, error) {
	if parent == nil {
		return nil, ErrNilParent
	}
	if !parent.Kind().HasChildKind(KindVariable) {
		return nil, ErrWrongParentKind
	}

	v := &Variable{
		base:  base{id: name, name: name, parent: parent},
		Value: value,
		Type:  typ,
		Ref:   ref,
	}
	if err := r.link(parent, v); err != nil {
		return nil, err
	}

	r.publishCreated(v)
	return v, nil
}

// AddBreakpoint creates a breakpoint under a session.
func (r *Registry) AddBreakpoint(s *Session, id, path string, line, column int) (*Breakpoint, error) {
	if s == nil {
		return nil, ErrNilParent
	}

	bp := &Breakpoint{
		base:   base{id: id, name: id, parent: s},
		Path:   path,
		Line:   line,
		Column: column,
	}
	if err := r.link(s, bp); err != nil {
		return nil, err
	}

	r.publishCreated(bp)
	return bp, nil
}

// AddBinding creates a named watch expression under a session.
func (r *Registry) AddBinding(s *Session, name, expression string) (*Binding, error) {
	if s == nil {
		return nil, ErrNilParent
	}

	b := &Binding{
		base:       base{id: name, name: name, parent: s},
		Expression: expression,
	}
	if err := r.link(s, b); err != nil {
		return nil, err
	}

	r.publishCreated(b)
	return b, nil
}

// link validates and appends child under parent.
func (r *Registry) link(parent, child Entity) error {
	if !parent.Kind().HasChildKind(child.Kind()) {
		return ErrWrongParentKind
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, sibling := range r.children[parent] {
		if sibling.Kind() == child.Kind() && sibling.ID() == child.ID() {
			return ErrDuplicateID
		}
	}
	r.children[parent] = append(r.children[parent], child)
	return nil
}

// Dispose removes an entity and its whole subtree from the registry.
// Disposal events are published leaf-first, and always before the entities
// are unlinked from their parents, so handlers can still walk the ownership
// chain. A single pruned event follows once the unlink is complete, for
// handlers that need to observe the post-removal tree.
func (r *Registry) Dispose(e Entity) {
	if e == nil {
		return
	}

	r.mu.RLock()
	subtree := r.collect(e)
	r.mu.RUnlock()

	// Leaf-first order: children before their parents.
	for i := len(subtree) - 1; i >= 0; i-- {
		r.publishDisposed(subtree[i])
	}

	r.mu.Lock()
	for _, member := range subtree {
		delete(r.children, member)
	}
	if s, ok := e.(*Session); ok {
		for i, existing := range r.sessions {
			if existing == s {
				r.sessions = append(r.sessions[:i], r.sessions[i+1:]...)
				break
			}
		}
	} else if parent := e.Parent(); parent != nil {
		siblings := r.children[parent]
		for i, sibling := range siblings {
			if sibling == e {
				r.children[parent] = append(siblings[:i], siblings[i+1:]...)
				break
			}
		}
	}
	r.mu.Unlock()

	r.publishPruned(e)
}

// collect returns e followed by its descendants in depth-first order.
// Callers must hold at least a read lock.
func (r *Registry) collect(e Entity) []Entity {
	out := []Entity{e}
	for _, child := range r.children[e] {
		out = append(out, r.collect(child)...)
	}
	return out
}

// ClearFrames disposes every frame of the thread's stack, typically when the
// thread resumes.
func (r *Registry) ClearFrames(t *Thread) {
	stack := r.Stack(t)
	if stack == nil {
		return
	}

	r.mu.RLock()
	frames := append([]Entity(nil), r.children[stack]...)
	r.mu.RUnlock()

	for _, f := range frames {
		r.Dispose(f)
	}
}

// SetSessionState updates a session's state and publishes a field change.
func (r *Registry) SetSessionState(s *Session, state SessionState) {
	r.mu.Lock()
	changed := s.State != state
	s.State = state
	r.mu.Unlock()

	if changed {
		r.publishField(s, "state")
	}
}

// SetThreadStopped updates a thread's stop state and publishes a field
// change.
func (r *Registry) SetThreadStopped(t *Thread, stopped bool, reason string) {
	r.mu.Lock()
	changed := t.Stopped != stopped || t.StopReason != reason
	t.Stopped = stopped
	t.StopReason = reason
	r.mu.Unlock()

	if changed {
		r.publishField(t, "stopped")
	}
}

// SetVariableValue updates a variable's value and publishes a field change.
func (r *Registry) SetVariableValue(v *Variable, value, typ string) {
	r.mu.Lock()
	changed := v.Value != value || v.Type != typ
	v.Value = value
	v.Type = typ
	r.mu.Unlock()

	if changed {
		r.publishField(v, "value")
	}
}

// SetBreakpointStatus updates a breakpoint's verification status and
// publishes a field change.
func (r *Registry) SetBreakpointStatus(bp *Breakpoint, verified bool, message string) {
	r.mu.Lock()
	changed := bp.Verified != verified || bp.Message != message
	bp.Verified = verified
	bp.Message = message
	r.mu.Unlock()

	if changed {
		r.publishField(bp, "verified")
	}
}

// SetBindingValue records a binding's evaluation result and publishes a
// field change. An empty errMsg means the evaluation succeeded.
func (r *Registry) SetBindingValue(b *Binding, value, errMsg string) {
	r.mu.Lock()
	changed := b.Value != value || b.Err != errMsg
	b.Value = value
	b.Err = errMsg
	r.mu.Unlock()

	if changed {
		r.publishField(b, "value")
	}
}

// Sessions implements Model.
func (r *Registry) Sessions(ctx context.Context) ([]Entity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Entity, len(r.sessions))
	for i, s := range r.sessions {
		out[i] = s
	}
	return out, nil
}

// Children implements Model. The listing is a snapshot: later registry
// mutations do not affect the returned slice.
func (r *Registry) Children(ctx context.Context, parent Entity, kind Kind) ([]Entity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Entity
	for _, c := range r.children[parent] {
		if c.Kind() == kind {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *Registry) publishCreated(e Entity) {
	if r.bus != nil {
		r.bus.Publish(event.TopicEntityCreated, e)
	}
}

func (r *Registry) publishDisposed(e Entity) {
	if r.bus != nil {
		r.bus.Publish(event.TopicEntityDisposed, e)
	}
}

func (r *Registry) publishPruned(e Entity) {
	if r.bus != nil {
		r.bus.Publish(event.TopicEntityPruned, e)
	}
}

func (r *Registry) publishField(e Entity, field string) {
	if r.bus != nil {
		r.bus.Publish(event.TopicEntityField, FieldChange{Entity: e, Field: field})
	}
}
