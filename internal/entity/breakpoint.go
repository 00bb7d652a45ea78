package entity

import "fmt"

// Breakpoint is a user-defined breakpoint registered with a session.
type Breakpoint struct {
	base

	// Path is the source file path.
	Path string

	// Line is the requested line number (1-based).
	Line int

	// Column is the requested column number (1-based, 0 if unset).
	Column int

	// Condition is the optional condition expression.
	Condition string

	// Verified indicates the adapter confirmed the breakpoint.
	Verified bool

	// Message contains any message from the adapter, typically the reason
	// an unverified breakpoint could not be set.
	Message string
}

// Kind returns KindBreakpoint.
func (b *Breakpoint) Kind() Kind { return KindBreakpoint }

// URI returns the canonical address of the breakpoint.
func (b *Breakpoint) URI() string { return uriFor(b) }

// FormatLocation returns a formatted location string like "file.go:42".
func (b *Breakpoint) FormatLocation() string {
	return fmt.Sprintf("%s:%d", b.Path, b.Line)
}
