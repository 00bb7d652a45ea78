package uri

import (
	"errors"
	"fmt"
)

// ErrMalformedURI is returned for static grammar violations. It is never
// retried; the URI itself is wrong.
var ErrMalformedURI = errors.New("malformed uri")

func wrapMalformed(raw, detail string) error {
	return fmt.Errorf("%w: %s (%q)", ErrMalformedURI, detail, raw)
}

func wrapMalformedAt(raw string, pos int, detail string) error {
	return fmt.Errorf("%w: %s at segment %d (%q)", ErrMalformedURI, detail, pos, raw)
}
