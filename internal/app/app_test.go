package app

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dapscope.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestNewWithDefaults(t *testing.T) {
	a, err := New(Options{Plain: true})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer a.Shutdown()

	if a.cfg == nil || len(a.cfg.Views) == 0 {
		t.Fatal("expected default views")
	}
	if a.Label() == nil {
		t.Fatal("Label() = nil")
	}
}

func TestFocusFollowsStoppedThread(t *testing.T) {
	a, err := New(Options{Plain: true})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer a.Shutdown()

	s, err := a.registry.AddSession("s1", "main", "go")
	if err != nil {
		t.Fatalf("AddSession() error: %v", err)
	}
	th, err := a.registry.AddThread(s, "1", "main")
	if err != nil {
		t.Fatalf("AddThread() error: %v", err)
	}

	a.registry.SetThreadStopped(th, true, "breakpoint")

	cur := a.tracker.Current()
	if cur.Thread != th {
		t.Fatalf("focus thread = %v, expected stopped thread", cur.Thread)
	}
	if cur.Frame != nil {
		t.Fatal("focus frame set before any frame exists")
	}

	f, err := a.registry.AddFrame(th, "100", "main.run", "/src/main.go", 42, 5)
	if err != nil {
		t.Fatalf("AddFrame() error: %v", err)
	}

	cur = a.tracker.Current()
	if cur.Frame != f {
		t.Errorf("focus frame = %v, expected the first materialized frame", cur.Frame)
	}

	// Later frames of the same stack must not steal focus.
	if _, err := a.registry.AddFrame(th, "101", "main.main", "/src/main.go", 12, 2); err != nil {
		t.Fatalf("AddFrame() error: %v", err)
	}
	if got := a.tracker.Current().Frame; got != f {
		t.Errorf("focus frame = %v, expected it to stay on the top frame", got)
	}
}

func TestRunPlainUntilShutdown(t *testing.T) {
	path := writeConfig(t, "views:\n  - name: threads\n    uri: sessions/threads\n")

	a, err := New(Options{ConfigPath: path, Plain: true})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	result := make(chan error, 1)
	go func() { result <- a.Run() }()

	time.Sleep(50 * time.Millisecond)
	a.Shutdown()

	select {
	case err := <-result:
		if !errors.Is(err, ErrQuit) {
			t.Errorf("Run() error = %v, expected ErrQuit", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return after Shutdown")
	}
}

func TestRunUnknownAdapter(t *testing.T) {
	a, err := New(Options{Plain: true, Adapter: "absent"})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	if err := a.Run(); !errors.Is(err, ErrUnknownAdapter) {
		t.Errorf("Run() error = %v, expected ErrUnknownAdapter", err)
	}
}

func TestLabelScriptOverride(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "labels.lua")
	if err := os.WriteFile(script, []byte(`function label(kind, fields) return "<" .. kind .. ">" end`), 0o644); err != nil {
		t.Fatalf("write script: %v", err)
	}
	path := filepath.Join(dir, "dapscope.yaml")
	if err := os.WriteFile(path, []byte("label_script: "+script+"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	a, err := New(Options{ConfigPath: path, Plain: true})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer a.Shutdown()

	s, err := a.registry.AddSession("s1", "main", "go")
	if err != nil {
		t.Fatalf("AddSession() error: %v", err)
	}

	if got := a.Label()(s); got != "<session>" {
		t.Errorf("Label() = %q, expected <session>", got)
	}
}
