package picker

import (
	"testing"

	"github.com/dshills/dapscope/internal/entity"
	"github.com/dshills/dapscope/internal/event"
)

func labeledThreads(t *testing.T, names ...string) []entity.Entity {
	t.Helper()

	reg := entity.NewRegistry(event.NewBus())
	s, err := reg.AddSession("s1", "main", "delve")
	if err != nil {
		t.Fatalf("AddSession() error = %v", err)
	}

	out := make([]entity.Entity, 0, len(names))
	for i, name := range names {
		th, err := reg.AddThread(s, string(rune('1'+i)), name)
		if err != nil {
			t.Fatalf("AddThread() error = %v", err)
		}
		out = append(out, th)
	}
	return out
}

func TestFilterEmptyQueryKeepsOrder(t *testing.T) {
	items := labeledThreads(t, "main", "worker", "gc sweeper")

	got := Filter(items, nameLabel, "")
	if len(got) != 3 {
		t.Fatalf("Filter() kept %d items, expected 3", len(got))
	}
	for i, m := range got {
		if m.Entity != items[i] {
			t.Errorf("Filter()[%d] = %v, expected listing order", i, m.Entity)
		}
	}
}

func TestFilterRanking(t *testing.T) {
	items := labeledThreads(t, "gc sweeper", "worker", "work stealer", "main")

	got := Filter(items, nameLabel, "work")
	if len(got) != 2 {
		t.Fatalf("Filter() kept %d items, expected 2", len(got))
	}
	// Prefix match "worker" beats prefix match "work stealer" on edit
	// distance.
	if got[0].Label != "worker" {
		t.Errorf("top match = %q, expected worker", got[0].Label)
	}
	if got[1].Label != "work stealer" {
		t.Errorf("second match = %q, expected work stealer", got[1].Label)
	}
}

func TestFilterSubsequence(t *testing.T) {
	items := labeledThreads(t, "main goroutine", "worker")

	got := Filter(items, nameLabel, "mgr")
	if len(got) != 1 || got[0].Label != "main goroutine" {
		t.Errorf("Filter(mgr) = %v, expected only main goroutine", got)
	}
}

func TestFilterCaseInsensitive(t *testing.T) {
	items := labeledThreads(t, "Main", "worker")

	got := Filter(items, nameLabel, "MAIN")
	if len(got) != 1 || got[0].Label != "Main" {
		t.Errorf("Filter(MAIN) = %v, expected Main", got)
	}
}

func TestFilterNoMatch(t *testing.T) {
	items := labeledThreads(t, "main", "worker")

	if got := Filter(items, nameLabel, "zzz"); len(got) != 0 {
		t.Errorf("Filter(zzz) = %v, expected empty", got)
	}
}
