package app

import (
	"errors"
	"time"
)

// Errors returned by the application lifecycle.
var (
	// ErrQuit signals a normal user-initiated exit from Run.
	ErrQuit = errors.New("quit")

	// ErrAlreadyRunning indicates Run was called twice.
	ErrAlreadyRunning = errors.New("application already running")

	// ErrUnknownAdapter indicates the requested adapter is not configured.
	ErrUnknownAdapter = errors.New("unknown adapter")
)

// disconnectTimeout bounds the adapter goodbye during shutdown.
const disconnectTimeout = 3 * time.Second
