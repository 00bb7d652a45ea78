package entity

import "fmt"

// Frame is a stack frame of a stopped thread.
type Frame struct {
	base

	// Path is the source file path, empty when the frame has no source.
	Path string

	// Line is the current line in the source (1-based).
	Line int

	// Column is the current column in the source (1-based, 0 if unknown).
	Column int
}

// Kind returns KindFrame.
func (f *Frame) Kind() Kind { return KindFrame }

// URI returns the canonical address of the frame.
func (f *Frame) URI() string { return uriFor(f) }

// HasSource reports whether the frame has source information.
func (f *Frame) HasSource() bool {
	return f.Path != ""
}

// FormatLocation returns a formatted location string like "file.go:42".
func (f *Frame) FormatLocation() string {
	if f.Path == "" {
		return fmt.Sprintf("<unknown>:%d", f.Line)
	}
	return fmt.Sprintf("%s:%d", f.Path, f.Line)
}
