package resolve

import (
	"errors"
	"fmt"
)

// Resolution errors. All are static or contextual query failures: an empty
// result is never an error, it is an empty Collection.
var (
	// ErrNoSuchRoot is returned when the URI scheme names no known root
	// namespace.
	ErrNoSuchRoot = errors.New("no such root")

	// ErrUnknownKind is returned when the query references a kind the
	// entity model does not expose at that position. It is checked
	// statically, before any entity access.
	ErrUnknownKind = errors.New("unknown kind")

	// ErrEmptyContext is returned when a contextual anchor has no current
	// focus value. It is distinct from an empty result: "nothing to look
	// in" rather than "nothing matched".
	ErrEmptyContext = errors.New("empty context")
)

func wrapNoSuchRoot(scheme string) error {
	return fmt.Errorf("%w: %q", ErrNoSuchRoot, scheme)
}

func wrapUnknownKind(kind, under string) error {
	return fmt.Errorf("%w: %q under %s", ErrUnknownKind, kind, under)
}

func wrapEmptyContext(anchor string) error {
	return fmt.Errorf("%w: no focused %s", ErrEmptyContext, anchor)
}
