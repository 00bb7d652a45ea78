package entitybuf

import (
	"errors"
	"testing"

	"github.com/dshills/dapscope/internal/entity"
	"github.com/dshills/dapscope/internal/event"
	"github.com/dshills/dapscope/internal/focus"
	"github.com/dshills/dapscope/internal/format"
	"github.com/dshills/dapscope/internal/resolve"
	"github.com/dshills/dapscope/internal/uri"
)

// fakeSurface records every update it receives.
type fakeSurface struct {
	contents []string
	errs     []string
	onClosed func()
}

func (f *fakeSurface) SetContent(text string)   { f.contents = append(f.contents, text) }
func (f *fakeSurface) SetErrorState(msg string) { f.errs = append(f.errs, msg) }
func (f *fakeSurface) OnClosed(fn func())       { f.onClosed = fn }

type world struct {
	bus     *event.Bus
	reg     *entity.Registry
	tracker *focus.Tracker
	ctrl    *Controller

	session *entity.Session
	thread  *entity.Thread
	frame   *entity.Frame
}

func newWorld(t *testing.T) *world {
	t.Helper()

	w := &world{bus: event.NewBus()}
	w.reg = entity.NewRegistry(w.bus)
	w.tracker = focus.NewTracker(w.bus)
	w.ctrl = NewController(resolve.New(w.reg, w.tracker), w.tracker, w.bus)

	var err error
	if w.session, err = w.reg.AddSession("s1", "main", "delve"); err != nil {
		t.Fatalf("AddSession() error = %v", err)
	}
	if w.thread, err = w.reg.AddThread(w.session, "1", "main"); err != nil {
		t.Fatalf("AddThread() error = %v", err)
	}
	if w.frame, err = w.reg.AddFrame(w.thread, "0", "main.main", "/src/main.go", 10, 0); err != nil {
		t.Fatalf("AddFrame() error = %v", err)
	}
	if _, err = w.reg.AddScope(w.frame, "Locals", 100, false); err != nil {
		t.Fatalf("AddScope() error = %v", err)
	}
	return w
}

func TestOpenRendersInitialContent(t *testing.T) {
	w := newWorld(t)
	surface := &fakeSurface{}

	b, err := w.ctrl.Open("sessions/s1/threads", surface, WithRender(format.RenderList))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if b.State() != StateBound {
		t.Errorf("State() = %v, expected bound", b.State())
	}
	if len(surface.contents) != 1 {
		t.Fatalf("SetContent called %d times, expected 1", len(surface.contents))
	}
	if surface.contents[0] != "main (#1) running" {
		t.Errorf("initial content = %q", surface.contents[0])
	}
}

func TestOpenRejectsMalformedURI(t *testing.T) {
	w := newWorld(t)

	if _, err := w.ctrl.Open("sessions//threads", &fakeSurface{}); !errors.Is(err, uri.ErrMalformedURI) {
		t.Errorf("Open() error = %v, expected ErrMalformedURI", err)
	}
}

func TestDirtySuppression(t *testing.T) {
	w := newWorld(t)
	surface := &fakeSurface{}

	if _, err := w.ctrl.Open("sessions/s1/threads", surface, WithRender(format.RenderList)); err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	// Triggers that do not change the rendered content must not reach the
	// surface again.
	w.bus.Publish(event.TopicEntityField, nil)
	w.bus.Publish(event.TopicEntityField, nil)

	if len(surface.contents) != 1 {
		t.Errorf("SetContent called %d times after identical re-renders, expected 1", len(surface.contents))
	}

	// A real change renders exactly once more.
	w.reg.SetThreadStopped(w.thread, true, "breakpoint")
	if len(surface.contents) != 2 {
		t.Fatalf("SetContent called %d times after content change, expected 2", len(surface.contents))
	}
	if surface.contents[1] != "main (#1) stopped: breakpoint" {
		t.Errorf("updated content = %q", surface.contents[1])
	}
}

func TestAbsoluteBindingReflectsDispose(t *testing.T) {
	w := newWorld(t)
	surface := &fakeSurface{}

	worker, err := w.reg.AddThread(w.session, "2", "worker")
	if err != nil {
		t.Fatalf("AddThread() error = %v", err)
	}

	if _, err := w.ctrl.Open("sessions/s1/threads", surface, WithRender(format.RenderList)); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if len(surface.contents) != 1 || surface.contents[0] != "main (#1) running\nworker (#2) running" {
		t.Fatalf("initial contents = %v", surface.contents)
	}

	// Disposing the worker must re-render the view against the pruned
	// tree, not the snapshot visible inside the dispose event itself.
	w.reg.Dispose(worker)
	if len(surface.contents) != 2 {
		t.Fatalf("SetContent called %d times after dispose, expected 2", len(surface.contents))
	}
	if surface.contents[1] != "main (#1) running" {
		t.Errorf("content after dispose = %q, expected %q", surface.contents[1], "main (#1) running")
	}
}

func TestContextualBindingFollowsFocus(t *testing.T) {
	w := newWorld(t)
	surface := &fakeSurface{}

	if _, err := w.ctrl.Open("@frame/scopes", surface, WithRender(format.RenderList), Optional()); err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	// Unfocused: the optional binding renders empty, not an error.
	if len(surface.errs) != 0 {
		t.Fatalf("SetErrorState called %d times, expected 0", len(surface.errs))
	}
	if len(surface.contents) != 1 || surface.contents[0] != "" {
		t.Fatalf("initial contents = %v, expected one empty render", surface.contents)
	}

	w.tracker.SetFrame(w.frame)
	if len(surface.contents) != 2 || surface.contents[1] != "Locals" {
		t.Fatalf("contents after focus = %v, expected Locals", surface.contents)
	}

	// Disposing the focused frame auto-clears the focus; the binding
	// falls back to the empty representation.
	w.reg.Dispose(w.frame)
	last := surface.contents[len(surface.contents)-1]
	if last != "" {
		t.Errorf("content after frame dispose = %q, expected empty", last)
	}
}

func TestEmptyContextNonOptionalShowsError(t *testing.T) {
	w := newWorld(t)
	surface := &fakeSurface{}

	if _, err := w.ctrl.Open("@frame/scopes", surface, WithRender(format.RenderList)); err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	if len(surface.errs) != 1 {
		t.Fatalf("SetErrorState called %d times, expected 1", len(surface.errs))
	}

	// The same failure on later triggers is not re-reported.
	w.bus.Publish(event.TopicEntityField, nil)
	if len(surface.errs) != 1 {
		t.Errorf("SetErrorState called %d times after retrigger, expected 1", len(surface.errs))
	}

	// Setting the focus recovers the binding on the next trigger.
	w.tracker.SetFrame(w.frame)
	if len(surface.contents) != 1 || surface.contents[0] != "Locals" {
		t.Errorf("contents after recovery = %v, expected [Locals]", surface.contents)
	}
}

func TestResolutionErrorDoesNotTearDownBinding(t *testing.T) {
	w := newWorld(t)
	surface := &fakeSurface{}

	// Parses fine, but "widgets" is not a kind the model exposes.
	b, err := w.ctrl.Open("sessions/s1/widgets", surface)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	if len(surface.errs) != 1 {
		t.Fatalf("SetErrorState called %d times, expected 1", len(surface.errs))
	}
	if b.State() != StateBound {
		t.Errorf("State() = %v, expected still bound after error", b.State())
	}
}

func TestCloseIsIdempotentAndStopsRenders(t *testing.T) {
	w := newWorld(t)
	surface := &fakeSurface{}

	b, err := w.ctrl.Open("sessions/s1/threads", surface, WithRender(format.RenderList))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	w.ctrl.Close(b)
	w.ctrl.Close(b)
	if b.State() != StateDisposed {
		t.Fatalf("State() = %v, expected disposed", b.State())
	}

	before := len(surface.contents)
	w.reg.SetThreadStopped(w.thread, true, "pause")
	if len(surface.contents) != before {
		t.Errorf("SetContent called after Close")
	}
}

func TestSurfaceClosedDisposesBinding(t *testing.T) {
	w := newWorld(t)
	surface := &fakeSurface{}

	b, err := w.ctrl.Open("sessions/s1/threads", surface, WithRender(format.RenderList))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if surface.onClosed == nil {
		t.Fatal("controller did not register an OnClosed handler")
	}

	surface.onClosed()
	if b.State() != StateDisposed {
		t.Errorf("State() = %v, expected disposed after surface close", b.State())
	}
}

func TestShutdownDisposesEverything(t *testing.T) {
	w := newWorld(t)
	s1, s2 := &fakeSurface{}, &fakeSurface{}

	b1, _ := w.ctrl.Open("sessions/s1/threads", s1, WithRender(format.RenderList))
	b2, _ := w.ctrl.Open("sessions", s2, WithRender(format.RenderList))

	w.ctrl.Shutdown()
	w.ctrl.Shutdown() // idempotent

	if b1.State() != StateDisposed || b2.State() != StateDisposed {
		t.Errorf("bindings not disposed after Shutdown: %v, %v", b1.State(), b2.State())
	}
}
