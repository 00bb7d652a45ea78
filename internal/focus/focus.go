// Package focus tracks the contextual focus: which session, thread and frame
// are "current" for the purpose of resolving @-anchored URIs.
//
// The tracker is the only mutable shared state in the inspector core. Every
// mutation updates dependent fields in one step — setting a frame also sets
// its owning thread and session, going up a level drops the narrower
// selection — so no observer ever sees frame, thread and session
// inconsistent with each other. Focused entities that get disposed are
// cleared automatically, never left dangling.
package focus

import (
	"sync"

	"github.com/dshills/dapscope/internal/entity"
	"github.com/dshills/dapscope/internal/event"
)

// Focus is a snapshot of the current focus. Any field may be nil. A non-nil
// Frame implies Thread and Session are its owners.
type Focus struct {
	// Session is the focused session.
	Session *entity.Session

	// Thread is the focused thread.
	Thread *entity.Thread

	// Frame is the focused frame.
	Frame *entity.Frame
}

// IsEmpty reports whether nothing is focused.
func (f Focus) IsEmpty() bool {
	return f.Session == nil && f.Thread == nil && f.Frame == nil
}

type handlerEntry struct {
	id int
	fn func(Focus)
}

// Tracker holds the process-wide contextual focus.
type Tracker struct {
	mu       sync.Mutex
	cur      Focus
	handlers []handlerEntry
	nextID   int

	bus        *event.Bus
	disposeSub *event.Subscription
}

// NewTracker creates a tracker. When a bus is given, the tracker publishes
// debug.focus.changed on every change and clears focused entities when their
// debug.entity.disposed event arrives.
func NewTracker(bus *event.Bus) *Tracker {
	t := &Tracker{bus: bus}
	if bus != nil {
		sub, err := bus.Subscribe(event.TopicEntityDisposed, t.onDisposed)
		if err == nil {
			t.disposeSub = sub
		}
	}
	return t
}

// Close detaches the tracker from its bus.
func (t *Tracker) Close() {
	if t.disposeSub != nil {
		t.disposeSub.Cancel()
	}
}

// Current returns a read-only snapshot of the focus, safe to use across a
// suspension boundary.
func (t *Tracker) Current() Focus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cur
}

// OnChanged registers a handler invoked synchronously whenever any field of
// the focus changes. It returns an unsubscribe function.
func (t *Tracker) OnChanged(fn func(Focus)) func() {
	t.mu.Lock()
	id := t.nextID
	t.nextID++
	t.handlers = append(t.handlers, handlerEntry{id: id, fn: fn})
	t.mu.Unlock()

	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		for i, h := range t.handlers {
			if h.id == id {
				t.handlers = append(t.handlers[:i], t.handlers[i+1:]...)
				return
			}
		}
	}
}

// SetFrame focuses a frame, deriving its thread and session from the
// ownership chain in the same step. A nil frame clears only the frame.
func (t *Tracker) SetFrame(f *entity.Frame) {
	t.mu.Lock()
	next := t.cur
	next.Frame = f
	if f != nil {
		if stack, ok := f.Parent().(*entity.Stack); ok {
			if th, ok := stack.Parent().(*entity.Thread); ok {
				next.Thread = th
				if s, ok := th.Parent().(*entity.Session); ok {
					next.Session = s
				}
			}
		}
	}
	t.apply(next)
}

// SetThread focuses a thread. A frame is more specific than a thread, so the
// frame is cleared; the session follows the thread's owner. Clearing the
// thread (nil) preserves the session.
func (t *Tracker) SetThread(th *entity.Thread) {
	t.mu.Lock()
	next := t.cur
	next.Thread = th
	next.Frame = nil
	if th != nil {
		if s, ok := th.Parent().(*entity.Session); ok {
			next.Session = s
		}
	}
	t.apply(next)
}

// SetSession focuses a session. Focusing a different session drops the
// thread and frame.
func (t *Tracker) SetSession(s *entity.Session) {
	t.mu.Lock()
	next := t.cur
	if next.Session != s {
		next.Thread = nil
		next.Frame = nil
	}
	next.Session = s
	t.apply(next)
}

// Clear empties the focus entirely.
func (t *Tracker) Clear() {
	t.mu.Lock()
	t.apply(Focus{})
}

// apply installs next if it differs from the current focus and notifies
// handlers. The caller must hold t.mu; apply releases it.
func (t *Tracker) apply(next Focus) {
	if next == t.cur {
		t.mu.Unlock()
		return
	}
	t.cur = next
	handlers := make([]handlerEntry, len(t.handlers))
	copy(handlers, t.handlers)
	t.mu.Unlock()

	for _, h := range handlers {
		h.fn(next)
	}
	if t.bus != nil {
		t.bus.Publish(event.TopicFocusChanged, next)
	}
}

// onDisposed clears the disposed entity from the focus along with every
// more-specific field that depended on it.
func (t *Tracker) onDisposed(_ event.Topic, payload any) {
	e, ok := payload.(entity.Entity)
	if !ok {
		return
	}

	t.mu.Lock()
	next := t.cur
	switch {
	case t.cur.Session != nil && e == entity.Entity(t.cur.Session):
		next = Focus{}
	case t.cur.Thread != nil && e == entity.Entity(t.cur.Thread):
		next.Thread = nil
		next.Frame = nil
	case t.cur.Frame != nil && e == entity.Entity(t.cur.Frame):
		next.Frame = nil
	default:
		t.mu.Unlock()
		return
	}
	t.apply(next)
}
