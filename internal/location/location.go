// Package location normalizes requested source locations against the
// positions a debug adapter actually accepts, so a breakpoint asked for on
// a blank or partial line lands on the nearest valid statement.
package location

import "context"

// RawLocation is a caller-requested location. Column 0 means "line only".
type RawLocation struct {
	// Path is the source file path.
	Path string

	// Line is the requested line (1-based).
	Line int

	// Column is the requested column (1-based), 0 when unset.
	Column int
}

// Location is a fully resolved location; Column is always set.
type Location struct {
	// Path is the source file path.
	Path string

	// Line is the resolved line (1-based).
	Line int

	// Column is the resolved column (1-based).
	Column int
}

// Position is one valid breakpoint position reported by the adapter.
type Position struct {
	// Line is the position line (1-based).
	Line int

	// Column is the position column (1-based).
	Column int
}

// Locator reports the valid breakpoint positions near a line, typically via
// the adapter's breakpointLocations request.
type Locator interface {
	Locations(ctx context.Context, path string, line int) ([]Position, error)
}

// Adjust normalizes a raw location. A location that already has a column is
// returned unchanged. A line-only location snaps to the nearest reported
// valid position: smallest line distance wins, ties go to the lowest
// column. When the lookup fails or reports nothing, the location falls back
// to column 1 of the requested line.
func Adjust(ctx context.Context, locator Locator, raw RawLocation) Location {
	if raw.Column > 0 {
		return Location{Path: raw.Path, Line: raw.Line, Column: raw.Column}
	}

	fallback := Location{Path: raw.Path, Line: raw.Line, Column: 1}
	if locator == nil {
		return fallback
	}

	positions, err := locator.Locations(ctx, raw.Path, raw.Line)
	if err != nil || len(positions) == 0 {
		return fallback
	}

	best := positions[0]
	for _, pos := range positions[1:] {
		if closer(pos, best, raw.Line) {
			best = pos
		}
	}
	return Location{Path: raw.Path, Line: best.Line, Column: best.Column}
}

// closer reports whether a beats b as the snap target for line.
func closer(a, b Position, line int) bool {
	da, db := lineDistance(a.Line, line), lineDistance(b.Line, line)
	if da != db {
		return da < db
	}
	return a.Column < b.Column
}

func lineDistance(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}
