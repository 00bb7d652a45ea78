package entitybuf

import (
	"context"
	"errors"
	"hash/fnv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/dshills/dapscope/internal/event"
	"github.com/dshills/dapscope/internal/focus"
	"github.com/dshills/dapscope/internal/resolve"
	"github.com/dshills/dapscope/internal/uri"
)

// Surface is the presentation target of a binding.
type Surface interface {
	// SetContent replaces the surface content.
	SetContent(text string)

	// SetErrorState shows a transient error distinctly from content.
	SetErrorState(message string)

	// OnClosed registers a handler invoked when the surface goes away.
	OnClosed(fn func())
}

// RenderFunc produces the deterministic text representation of a resolved
// collection. It must be a pure function of the collection snapshot.
type RenderFunc func(*resolve.Collection) string

// BindingState is the lifecycle state of a binding.
type BindingState int32

const (
	// StateBound means the binding is live and watching triggers.
	StateBound BindingState = iota
	// StateDisposed means the binding has been closed.
	StateDisposed
)

// String returns the state name.
func (s BindingState) String() string {
	switch s {
	case StateBound:
		return "bound"
	case StateDisposed:
		return "disposed"
	default:
		return "unknown"
	}
}

// Binding ties one URI pattern to one surface.
type Binding struct {
	id       string
	raw      string
	pattern  uri.Parsed
	surface  Surface
	render   RenderFunc
	optional bool

	state atomic.Int32
	gen   atomic.Uint64

	// Render memory for dirty suppression; guarded by the controller's
	// refresh serialization.
	lastHash uint64
	hasHash  bool
	lastErr  string
	errored  bool
}

// ID returns the binding's unique identifier.
func (b *Binding) ID() string { return b.id }

// URI returns the bound pattern as given to Open.
func (b *Binding) URI() string { return b.raw }

// State returns the binding's lifecycle state.
func (b *Binding) State() BindingState { return BindingState(b.state.Load()) }

// BindOption configures a binding at Open time.
type BindOption func(*Binding)

// WithRender sets the binding's render function.
func WithRender(fn RenderFunc) BindOption {
	return func(b *Binding) { b.render = fn }
}

// Optional marks the binding as tolerating an absent context: resolving an
// unset anchor renders the empty representation instead of an error state.
func Optional() BindOption {
	return func(b *Binding) { b.optional = true }
}

// Controller owns all bindings and drives their refresh cycle from bus and
// focus triggers.
type Controller struct {
	resolver *resolve.Resolver

	mu       sync.Mutex
	bindings map[string]*Binding

	// Coalescing state: a trigger landing while a refresh pass runs marks
	// pending and is folded into one extra pass.
	refreshing bool
	pending    bool

	subs       []*event.Subscription
	unsubFocus func()
	closed     atomic.Bool
}

// NewController creates a controller and attaches it to its trigger sources.
func NewController(resolver *resolve.Resolver, tracker *focus.Tracker, bus *event.Bus) *Controller {
	c := &Controller{
		resolver: resolver,
		bindings: make(map[string]*Binding),
	}

	if bus != nil {
		for _, pattern := range []event.Topic{"debug.entity.**", event.TopicConfigReloaded} {
			if sub, err := bus.Subscribe(pattern, func(event.Topic, any) { c.RefreshAll() }); err == nil {
				c.subs = append(c.subs, sub)
			}
		}
	}
	if tracker != nil {
		c.unsubFocus = tracker.OnChanged(func(focus.Focus) { c.RefreshAll() })
	}
	return c
}

// Open binds a URI pattern to a surface and renders it once. The pattern is
// parsed now — a malformed URI fails immediately and is never retried — but
// resolved afresh on every trigger.
func (c *Controller) Open(rawURI string, surface Surface, opts ...BindOption) (*Binding, error) {
	parsed, err := uri.Parse(rawURI)
	if err != nil {
		return nil, err
	}

	b := &Binding{
		id:      uuid.NewString(),
		raw:     rawURI,
		pattern: parsed,
		surface: surface,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.render == nil {
		b.render = func(col *resolve.Collection) string {
			if col == nil {
				return ""
			}
			var sb strings.Builder
			for e := range col.Iterate() {
				if sb.Len() > 0 {
					sb.WriteByte('\n')
				}
				sb.WriteString(e.URI())
			}
			return sb.String()
		}
	}

	surface.OnClosed(func() { c.close(b) })

	c.mu.Lock()
	c.bindings[b.id] = b
	c.mu.Unlock()

	c.refresh(b)
	return b, nil
}

// Close disposes a binding. It is idempotent and cancels any in-flight
// refresh for the binding immediately.
func (c *Controller) Close(b *Binding) {
	c.close(b)
}

func (c *Controller) close(b *Binding) {
	if b == nil {
		return
	}
	if !b.state.CompareAndSwap(int32(StateBound), int32(StateDisposed)) {
		return
	}
	// Invalidate any refresh still resolving for this binding.
	b.gen.Add(1)

	c.mu.Lock()
	delete(c.bindings, b.id)
	c.mu.Unlock()
}

// Shutdown disposes every binding and detaches the controller from its
// trigger sources.
func (c *Controller) Shutdown() {
	if c.closed.Swap(true) {
		return
	}
	for _, sub := range c.subs {
		sub.Cancel()
	}
	if c.unsubFocus != nil {
		c.unsubFocus()
	}

	c.mu.Lock()
	bindings := make([]*Binding, 0, len(c.bindings))
	for _, b := range c.bindings {
		bindings = append(bindings, b)
	}
	c.mu.Unlock()

	for _, b := range bindings {
		c.close(b)
	}
}

// RefreshAll re-resolves and re-renders every live binding. Triggers landing
// mid-pass coalesce into a single follow-up pass rather than stacking.
func (c *Controller) RefreshAll() {
	if c.closed.Load() {
		return
	}

	c.mu.Lock()
	if c.refreshing {
		c.pending = true
		c.mu.Unlock()
		return
	}
	c.refreshing = true
	c.mu.Unlock()

	for {
		c.mu.Lock()
		bindings := make([]*Binding, 0, len(c.bindings))
		for _, b := range c.bindings {
			bindings = append(bindings, b)
		}
		c.mu.Unlock()

		for _, b := range bindings {
			c.refresh(b)
		}

		c.mu.Lock()
		if !c.pending {
			c.refreshing = false
			c.mu.Unlock()
			return
		}
		c.pending = false
		c.mu.Unlock()
	}
}

// refresh re-resolves one binding and pushes the result if it is both fresh
// (not superseded by a later trigger) and dirty (different from the last
// pushed content).
func (c *Controller) refresh(b *Binding) {
	if b.State() != StateBound {
		return
	}
	gen := b.gen.Add(1)

	col, err := c.resolver.ResolveParsed(context.Background(), b.pattern)

	if b.gen.Load() != gen || b.State() != StateBound {
		return // superseded or closed while resolving
	}

	if err != nil {
		if errors.Is(err, resolve.ErrEmptyContext) && b.optional {
			// The anchor simply isn't focused yet; show the empty
			// representation rather than an error.
			c.push(b, b.render(nil))
			return
		}
		c.pushError(b, err.Error())
		return
	}

	c.push(b, b.render(col))
}

// push applies dirty suppression before updating the surface.
func (c *Controller) push(b *Binding, content string) {
	h := contentHash(content)
	if b.hasHash && !b.errored && h == b.lastHash {
		return
	}
	b.lastHash = h
	b.hasHash = true
	b.errored = false
	b.surface.SetContent(content)
}

// pushError reports an error state once per distinct message; the binding
// stays bound and the next trigger retries.
func (c *Controller) pushError(b *Binding, message string) {
	if b.errored && b.lastErr == message {
		return
	}
	b.errored = true
	b.lastErr = message
	b.surface.SetErrorState(message)
}

func contentHash(content string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(content))
	return h.Sum64()
}
