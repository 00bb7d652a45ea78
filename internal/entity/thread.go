package entity

// Thread is a thread of the debuggee.
type Thread struct {
	base

	// Stopped indicates the thread is paused (breakpoint, step, exception).
	Stopped bool

	// StopReason is the adapter-reported reason when Stopped is true.
	StopReason string
}

// Kind returns KindThread.
func (t *Thread) Kind() Kind { return KindThread }

// URI returns the canonical address of the thread.
func (t *Thread) URI() string { return uriFor(t) }

// Stack is the call stack of a thread. It is a singleton child created with
// the thread; its frames are populated while the thread is stopped and
// cleared when it resumes.
type Stack struct {
	base

	// TotalFrames is the adapter-reported total, which may exceed the
	// number of frames actually materialized.
	TotalFrames int
}

// Kind returns KindStack.
func (s *Stack) Kind() Kind { return KindStack }

// URI returns the canonical address of the stack.
func (s *Stack) URI() string { return uriFor(s) }
