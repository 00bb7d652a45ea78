package surface

import (
	"fmt"
	"io"
	"sync"
)

// Text is an in-memory Presentation. It records everything pushed to it
// and optionally mirrors content to a writer for non-TTY output.
type Text struct {
	mu       sync.Mutex
	name     string
	out      io.Writer
	content  string
	errMsg   string
	errored  bool
	closed   bool
	onClosed []func()

	contentCalls int
	errorCalls   int
}

// NewText creates a named in-memory surface.
func NewText(name string) *Text {
	return &Text{name: name}
}

// NewTextWriter creates a surface that also writes each content update to
// out, prefixed with the surface name.
func NewTextWriter(name string, out io.Writer) *Text {
	return &Text{name: name, out: out}
}

// SetContent replaces the surface content.
func (t *Text) SetContent(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.content = text
	t.errored = false
	t.contentCalls++

	if t.out != nil {
		fmt.Fprintf(t.out, "== %s ==\n%s\n", t.name, text)
	}
}

// SetErrorState shows an error without discarding the last content.
func (t *Text) SetErrorState(message string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.errMsg = message
	t.errored = true
	t.errorCalls++

	if t.out != nil {
		fmt.Fprintf(t.out, "== %s [error] ==\n%s\n", t.name, message)
	}
}

// OnClosed registers a close handler.
func (t *Text) OnClosed(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onClosed = append(t.onClosed, fn)
}

// Close marks the surface closed and fires the close handlers once.
func (t *Text) Close() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	handlers := append([]func(){}, t.onClosed...)
	t.mu.Unlock()

	for _, fn := range handlers {
		fn()
	}
}

// Content returns the last content pushed.
func (t *Text) Content() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.content
}

// ErrorMessage returns the last error message and whether the surface is
// currently in an error state.
func (t *Text) ErrorMessage() (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.errMsg, t.errored
}

// ContentCalls returns how many times SetContent ran.
func (t *Text) ContentCalls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.contentCalls
}

// ErrorCalls returns how many times SetErrorState ran.
func (t *Text) ErrorCalls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.errorCalls
}

// Closed reports whether Close has run.
func (t *Text) Closed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}
