package config

import "errors"

// Errors returned by configuration operations.
var (
	// ErrParse indicates the file could not be decoded.
	ErrParse = errors.New("config parse error")

	// ErrUnknownFormat indicates an unsupported file extension.
	ErrUnknownFormat = errors.New("unknown config format")

	// ErrInvalidAdapter indicates a malformed adapter definition.
	ErrInvalidAdapter = errors.New("invalid adapter definition")

	// ErrInvalidView indicates a malformed view definition.
	ErrInvalidView = errors.New("invalid view definition")

	// ErrInvalidPicker indicates malformed picker options.
	ErrInvalidPicker = errors.New("invalid picker options")
)
