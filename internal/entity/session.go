package entity

// SessionState represents the lifecycle state of a debug session.
type SessionState int

const (
	// SessionInitializing is the initial state before the adapter handshake.
	SessionInitializing SessionState = iota
	// SessionRunning is when the debuggee is executing.
	SessionRunning
	// SessionStopped is when at least one thread is stopped.
	SessionStopped
	// SessionTerminated is when the debuggee has exited.
	SessionTerminated
)

// String returns a string representation of the state.
func (s SessionState) String() string {
	switch s {
	case SessionInitializing:
		return "initializing"
	case SessionRunning:
		return "running"
	case SessionStopped:
		return "stopped"
	case SessionTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Session is a debug adapter session, the root of an entity subtree.
type Session struct {
	base

	// AdapterID identifies the debug adapter serving this session.
	AdapterID string

	// State is the current session state.
	State SessionState
}

// Kind returns KindSession.
func (s *Session) Kind() Kind { return KindSession }

// URI returns the canonical address of the session.
func (s *Session) URI() string { return uriFor(s) }
