package resolve

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/dshills/dapscope/internal/entity"
	"github.com/dshills/dapscope/internal/event"
	"github.com/dshills/dapscope/internal/focus"
)

// world is a small debug hierarchy shared by resolver tests.
type world struct {
	bus     *event.Bus
	reg     *entity.Registry
	tracker *focus.Tracker
	res     *Resolver

	session *entity.Session
	t1, t2  *entity.Thread
	f1, f2  *entity.Frame
	locals  *entity.Scope
}

func newWorld(t *testing.T) *world {
	t.Helper()

	w := &world{bus: event.NewBus()}
	w.reg = entity.NewRegistry(w.bus)
	w.tracker = focus.NewTracker(w.bus)
	w.res = New(w.reg, w.tracker)

	var err error
	if w.session, err = w.reg.AddSession("s1", "main", "delve"); err != nil {
		t.Fatalf("AddSession() error = %v", err)
	}
	if w.t1, err = w.reg.AddThread(w.session, "1", "main"); err != nil {
		t.Fatalf("AddThread() error = %v", err)
	}
	if w.t2, err = w.reg.AddThread(w.session, "2", "worker"); err != nil {
		t.Fatalf("AddThread() error = %v", err)
	}
	if w.f1, err = w.reg.AddFrame(w.t1, "0", "main.main", "/src/main.go", 10, 0); err != nil {
		t.Fatalf("AddFrame() error = %v", err)
	}
	if w.f2, err = w.reg.AddFrame(w.t1, "1", "runtime.main", "/src/proc.go", 250, 0); err != nil {
		t.Fatalf("AddFrame() error = %v", err)
	}
	if w.locals, err = w.reg.AddScope(w.f1, "Locals", 100, false); err != nil {
		t.Fatalf("AddScope() error = %v", err)
	}
	if _, err = w.reg.AddVariable(w.locals, "count", "3", "int", 0); err != nil {
		t.Fatalf("AddVariable() error = %v", err)
	}
	if _, err = w.reg.AddVariable(w.locals, "name", `"x"`, "string", 0); err != nil {
		t.Fatalf("AddVariable() error = %v", err)
	}
	return w
}

func ids(c *Collection) []string {
	var out []string
	for e := range c.Iterate() {
		out = append(out, e.ID())
	}
	return out
}

func TestResolveAbsolute(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		raw      string
		expected []string
		expect   Cardinality
	}{
		{name: "all sessions", raw: "sessions", expected: []string{"s1"}, expect: Many},
		{name: "session literal", raw: "sessions/s1", expected: []string{"s1"}, expect: One},
		{name: "all threads", raw: "sessions/s1/threads", expected: []string{"1", "2"}, expect: Many},
		{name: "thread by id", raw: "sessions/s1/threads/1", expected: []string{"1"}, expect: One},
		{name: "thread by name", raw: "sessions/s1/threads/worker", expected: []string{"2"}, expect: One},
		{name: "frames wildcard", raw: "sessions/s1/threads/1/stack/frames", expected: []string{"0", "1"}, expect: Many},
		{name: "frame literal", raw: "sessions/s1/threads/1/stack/frames/0", expected: []string{"0"}, expect: One},
		{name: "wildcard across threads", raw: "sessions/s1/threads/stack/frames", expected: []string{"0", "1"}, expect: Many},
		{name: "variables of scope", raw: "sessions/s1/threads/1/stack/frames/0/scopes/Locals/variables", expected: []string{"count", "name"}, expect: Many},
		{name: "literal no match is empty", raw: "sessions/s1/threads/99", expected: nil, expect: One},
		{name: "unknown session empty", raw: "sessions/nope/threads", expected: nil, expect: Many},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			col, err := w.res.Resolve(ctx, tt.raw)
			if err != nil {
				t.Fatalf("Resolve(%q) error = %v", tt.raw, err)
			}
			got := ids(col)
			if len(got) != len(tt.expected) {
				t.Fatalf("Resolve(%q) = %v, expected %v", tt.raw, got, tt.expected)
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Errorf("Resolve(%q)[%d] = %q, expected %q", tt.raw, i, got[i], tt.expected[i])
				}
			}
			if col.Expect() != tt.expect {
				t.Errorf("Expect() = %v, expected %v", col.Expect(), tt.expect)
			}
		})
	}
}

func TestResolveErrors(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		raw      string
		expected error
	}{
		{name: "unknown scheme", raw: "url/something", expected: ErrNoSuchRoot},
		{name: "unknown kind token", raw: "sessions/s1/widgets", expected: ErrUnknownKind},
		{name: "kind out of position", raw: "sessions/s1/frames", expected: ErrUnknownKind},
		{name: "unfocused frame anchor", raw: "@frame/scopes", expected: ErrEmptyContext},
		{name: "unfocused thread anchor", raw: "@thread/stack", expected: ErrEmptyContext},
		{name: "unfocused session anchor", raw: "@session/threads", expected: ErrEmptyContext},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := w.res.Resolve(ctx, tt.raw); !errors.Is(err, tt.expected) {
				t.Errorf("Resolve(%q) error = %v, expected %v", tt.raw, err, tt.expected)
			}
		})
	}
}

func TestResolveAnchored(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	w.tracker.SetFrame(w.f1)

	col, err := w.res.Resolve(ctx, "@frame/scopes")
	if err != nil {
		t.Fatalf("Resolve(@frame/scopes) error = %v", err)
	}
	if got := ids(col); len(got) != 1 || got[0] != "Locals" {
		t.Errorf("scopes = %v, expected [Locals]", got)
	}

	col, err = w.res.Resolve(ctx, "@thread/stack/frames")
	if err != nil {
		t.Fatalf("Resolve(@thread/stack/frames) error = %v", err)
	}
	if got := ids(col); len(got) != 2 {
		t.Errorf("frames = %v, expected two frames", got)
	}

	col, err = w.res.Resolve(ctx, "@session/threads")
	if err != nil {
		t.Fatalf("Resolve(@session/threads) error = %v", err)
	}
	if got := ids(col); len(got) != 2 {
		t.Errorf("threads = %v, expected two threads", got)
	}

	// Bare anchor resolves to the singleton focused entity.
	col, err = w.res.Resolve(ctx, "@frame")
	if err != nil {
		t.Fatalf("Resolve(@frame) error = %v", err)
	}
	if col.Count() != 1 || col.FirstOrNone() != entity.Entity(w.f1) {
		t.Errorf("Resolve(@frame) = %v, expected the focused frame", ids(col))
	}
	if col.Expect() != One {
		t.Errorf("Expect() = %v, expected One", col.Expect())
	}
}

// Scenario from the focus lifecycle: anchor unset fails, set succeeds,
// dispose auto-clears and fails again.
func TestResolveFocusLifecycle(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	if _, err := w.res.Resolve(ctx, "@frame/scopes"); !errors.Is(err, ErrEmptyContext) {
		t.Fatalf("unfocused resolve error = %v, expected ErrEmptyContext", err)
	}

	w.tracker.SetFrame(w.f1)
	col, err := w.res.Resolve(ctx, "@frame/scopes")
	if err != nil {
		t.Fatalf("focused resolve error = %v", err)
	}
	if col.Count() != 1 {
		t.Fatalf("focused resolve count = %d, expected 1", col.Count())
	}

	w.reg.Dispose(w.f1)
	if _, err := w.res.Resolve(ctx, "@frame/scopes"); !errors.Is(err, ErrEmptyContext) {
		t.Errorf("post-dispose resolve error = %v, expected ErrEmptyContext", err)
	}
}

// Scenario: collections are snapshots; disposal affects fresh resolutions
// only.
func TestResolveSnapshotStability(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	before, err := w.res.Resolve(ctx, "sessions/s1/threads")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got := ids(before); len(got) != 2 {
		t.Fatalf("threads before dispose = %v, expected 2", got)
	}

	w.reg.Dispose(w.t1)

	after, err := w.res.Resolve(ctx, "sessions/s1/threads")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got := ids(after); len(got) != 1 || got[0] != "2" {
		t.Errorf("threads after dispose = %v, expected [2]", got)
	}

	// The earlier collection still reports its original snapshot.
	if got := ids(before); len(got) != 2 {
		t.Errorf("earlier snapshot = %v, expected original 2 threads", got)
	}
	if before.Count() != 2 {
		t.Errorf("earlier Count() = %d, expected 2", before.Count())
	}
}

func TestResolveWildcardSizes(t *testing.T) {
	bus := event.NewBus()
	reg := entity.NewRegistry(bus)
	res := New(reg, focus.NewTracker(bus))
	ctx := context.Background()

	s, _ := reg.AddSession("s1", "main", "delve")

	check := func(expected int) {
		t.Helper()
		col, err := res.Resolve(ctx, "sessions/s1/threads")
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if col.Count() != expected {
			t.Errorf("wildcard count = %d, expected %d", col.Count(), expected)
		}
	}

	check(0)
	reg.AddThread(s, "1", "main")
	check(1)
	for i := 2; i <= 5; i++ {
		reg.AddThread(s, strconv.Itoa(i), "worker")
	}
	check(5)
}

func TestCollectionIterateRestartable(t *testing.T) {
	w := newWorld(t)

	col, err := w.res.Resolve(context.Background(), "sessions/s1/threads")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	first := ids(col)
	second := ids(col)
	if len(first) != len(second) {
		t.Fatalf("restarted iteration lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("restarted iteration diverges at %d: %q vs %q", i, first[i], second[i])
		}
	}

	// Early termination is allowed.
	count := 0
	for range col.Iterate() {
		count++
		break
	}
	if count != 1 {
		t.Errorf("early break iterated %d, expected 1", count)
	}
}
