// Package dapmodel keeps a registry session synchronized with a live
// Debug Adapter Protocol connection. Adapter events drive entity
// lifecycle: threads and frames materialize when the debuggee stops and
// are torn down when it resumes or exits.
package dapmodel

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/dshills/dapscope/internal/dap"
	"github.com/dshills/dapscope/internal/entity"
	"github.com/dshills/dapscope/internal/location"
)

// Adapter is the slice of the DAP client the syncer drives. *dap.Client
// satisfies it.
type Adapter interface {
	Initialize(ctx context.Context, args dap.InitializeRequestArguments) (*dap.Capabilities, error)
	ConfigurationDone(ctx context.Context) error
	Launch(ctx context.Context, args interface{}) error
	Attach(ctx context.Context, args interface{}) error
	Disconnect(ctx context.Context, args dap.DisconnectArguments) error
	SetBreakpoints(ctx context.Context, args dap.SetBreakpointsArguments) ([]dap.Breakpoint, error)
	BreakpointLocations(ctx context.Context, args dap.BreakpointLocationsArguments) ([]dap.BreakpointLocation, error)
	Threads(ctx context.Context) ([]dap.Thread, error)
	StackTrace(ctx context.Context, args dap.StackTraceArguments) (*dap.StackTraceResponseBody, error)
	Scopes(ctx context.Context, args dap.ScopesArguments) ([]dap.Scope, error)
	Variables(ctx context.Context, args dap.VariablesArguments) ([]dap.Variable, error)
	Evaluate(ctx context.Context, args dap.EvaluateArguments) (*dap.EvaluateResponseBody, error)
}

// EventSource registers the adapter event callbacks the syncer consumes.
// *dap.Client satisfies it.
type EventSource interface {
	OnInitialized(func())
	OnStopped(func(dap.StoppedEventBody))
	OnContinued(func(dap.ContinuedEventBody))
	OnThread(func(dap.ThreadEventBody))
	OnExited(func(dap.ExitedEventBody))
	OnTerminated(func(dap.TerminatedEventBody))
}

// maxStackDepth caps how many frames a single stop materializes.
const maxStackDepth = 64

// Syncer owns one session entity and mirrors adapter state into it.
type Syncer struct {
	reg     *entity.Registry
	adapter Adapter
	session *entity.Session
	ctx     context.Context

	mu          sync.Mutex
	caps        dap.Capabilities
	threads     map[int]*entity.Thread
	breakpoints map[string][]*entity.Breakpoint // keyed by source path
	topFrame    int                             // frame id for watch evaluation, 0 when running
}

// New creates the session entity and a syncer bound to it. The context
// bounds every adapter call made from event handlers.
func New(ctx context.Context, reg *entity.Registry, adapter Adapter, id, name, adapterID string) (*Syncer, error) {
	session, err := reg.AddSession(id, name, adapterID)
	if err != nil {
		return nil, err
	}

	return &Syncer{
		reg:         reg,
		adapter:     adapter,
		session:     session,
		ctx:         ctx,
		threads:     make(map[int]*entity.Thread),
		breakpoints: make(map[string][]*entity.Breakpoint),
	}, nil
}

// Session returns the session entity owned by this syncer.
func (s *Syncer) Session() *entity.Session {
	return s.session
}

// Bind registers the syncer's handlers on the event source. Call once,
// before Initialize.
func (s *Syncer) Bind(events EventSource) {
	events.OnStopped(s.handleStopped)
	events.OnContinued(s.handleContinued)
	events.OnThread(s.handleThread)
	events.OnExited(func(dap.ExitedEventBody) { s.terminate() })
	events.OnTerminated(func(dap.TerminatedEventBody) { s.terminate() })
}

// Initialize performs the adapter handshake and records capabilities.
func (s *Syncer) Initialize(ctx context.Context) error {
	caps, err := s.adapter.Initialize(ctx, dap.InitializeRequestArguments{
		ClientID:        "dapscope",
		ClientName:      "dapscope",
		AdapterID:       s.session.AdapterID,
		LinesStartAt1:   true,
		ColumnsStartAt1: true,
		PathFormat:      "path",
	})
	if err != nil {
		return fmt.Errorf("initialize %s: %w", s.session.AdapterID, err)
	}

	s.mu.Lock()
	s.caps = *caps
	s.mu.Unlock()
	return nil
}

// Launch starts the debuggee with adapter-specific arguments and completes
// configuration.
func (s *Syncer) Launch(ctx context.Context, args interface{}) error {
	if err := s.adapter.Launch(ctx, args); err != nil {
		return err
	}
	return s.finishConfiguration(ctx)
}

// Attach attaches to a running debuggee and completes configuration.
func (s *Syncer) Attach(ctx context.Context, args interface{}) error {
	if err := s.adapter.Attach(ctx, args); err != nil {
		return err
	}
	return s.finishConfiguration(ctx)
}

func (s *Syncer) finishConfiguration(ctx context.Context) error {
	s.mu.Lock()
	supportsDone := s.caps.SupportsConfigurationDoneRequest
	s.mu.Unlock()

	if supportsDone {
		if err := s.adapter.ConfigurationDone(ctx); err != nil {
			return err
		}
	}

	s.reg.SetSessionState(s.session, entity.SessionRunning)
	return nil
}

// Disconnect detaches from the adapter and marks the session terminated.
func (s *Syncer) Disconnect(ctx context.Context) error {
	err := s.adapter.Disconnect(ctx, dap.DisconnectArguments{})
	s.terminate()
	return err
}

// Locations implements location.Locator using the adapter's
// breakpointLocations request. Adapters without the capability report no
// positions, which makes Adjust fall back to column 1.
func (s *Syncer) Locations(ctx context.Context, path string, line int) ([]location.Position, error) {
	s.mu.Lock()
	supported := s.caps.SupportsBreakpointLocationsRequest
	s.mu.Unlock()

	if !supported {
		return nil, nil
	}

	locs, err := s.adapter.BreakpointLocations(ctx, dap.BreakpointLocationsArguments{
		Source: dap.Source{Path: path},
		Line:   line,
	})
	if err != nil {
		return nil, err
	}

	positions := make([]location.Position, len(locs))
	for i, l := range locs {
		positions[i] = location.Position{Line: l.Line, Column: l.Column}
	}
	return positions, nil
}

// SetBreakpoint registers a breakpoint, normalizing line-only requests to
// the nearest valid position, and pushes the file's full breakpoint set to
// the adapter.
func (s *Syncer) SetBreakpoint(ctx context.Context, raw location.RawLocation, condition string) (*entity.Breakpoint, error) {
	loc := location.Adjust(ctx, s, raw)

	s.mu.Lock()
	ordinal := 0
	for _, bps := range s.breakpoints {
		ordinal += len(bps)
	}
	s.mu.Unlock()

	id := "bp" + strconv.Itoa(ordinal+1)
	bp, err := s.reg.AddBreakpoint(s.session, id, loc.Path, loc.Line, loc.Column)
	if err != nil {
		return nil, err
	}
	bp.Condition = condition

	s.mu.Lock()
	s.breakpoints[loc.Path] = append(s.breakpoints[loc.Path], bp)
	fileBps := append([]*entity.Breakpoint(nil), s.breakpoints[loc.Path]...)
	s.mu.Unlock()

	if err := s.pushBreakpoints(ctx, loc.Path, fileBps); err != nil {
		s.reg.SetBreakpointStatus(bp, false, err.Error())
		return bp, err
	}
	return bp, nil
}

// RemoveBreakpoint disposes a breakpoint and pushes the reduced set for
// its file.
func (s *Syncer) RemoveBreakpoint(ctx context.Context, bp *entity.Breakpoint) error {
	s.mu.Lock()
	remaining := s.breakpoints[bp.Path][:0:0]
	for _, other := range s.breakpoints[bp.Path] {
		if other != bp {
			remaining = append(remaining, other)
		}
	}
	s.breakpoints[bp.Path] = remaining
	fileBps := append([]*entity.Breakpoint(nil), remaining...)
	s.mu.Unlock()

	s.reg.Dispose(bp)
	return s.pushBreakpoints(ctx, bp.Path, fileBps)
}

func (s *Syncer) pushBreakpoints(ctx context.Context, path string, bps []*entity.Breakpoint) error {
	source := make([]dap.SourceBreakpoint, len(bps))
	for i, bp := range bps {
		source[i] = dap.SourceBreakpoint{
			Line:      bp.Line,
			Column:    bp.Column,
			Condition: bp.Condition,
		}
	}

	verified, err := s.adapter.SetBreakpoints(ctx, dap.SetBreakpointsArguments{
		Source:      dap.Source{Path: path},
		Breakpoints: source,
	})
	if err != nil {
		return fmt.Errorf("setBreakpoints %s: %w", path, err)
	}

	// Responses are positional per the protocol.
	for i, bp := range bps {
		if i < len(verified) {
			s.reg.SetBreakpointStatus(bp, verified[i].Verified, verified[i].Message)
		}
	}
	return nil
}

// AddWatch registers a watch expression on the session. It is evaluated on
// the next stop.
func (s *Syncer) AddWatch(name, expression string) (*entity.Binding, error) {
	return s.reg.AddBinding(s.session, name, expression)
}

// ExpandVariable materializes the children of a structured variable.
func (s *Syncer) ExpandVariable(ctx context.Context, v *entity.Variable) error {
	if v.Ref == 0 {
		return nil
	}
	return s.addVariables(ctx, v, v.Ref)
}

func (s *Syncer) handleStopped(body dap.StoppedEventBody) {
	ctx := s.ctx
	s.reg.SetSessionState(s.session, entity.SessionStopped)

	if err := s.syncThreads(ctx); err != nil {
		return
	}

	s.mu.Lock()
	stopped := make([]*entity.Thread, 0, len(s.threads))
	for id, t := range s.threads {
		if body.AllThreadsStopped || id == body.ThreadID {
			stopped = append(stopped, t)
		}
	}
	focus := s.threads[body.ThreadID]
	s.mu.Unlock()

	for _, t := range stopped {
		s.reg.SetThreadStopped(t, true, body.Reason)
	}

	if focus != nil {
		s.syncStack(ctx, focus, body.ThreadID)
	}

	s.evaluateWatches(ctx)
}

func (s *Syncer) handleContinued(body dap.ContinuedEventBody) {
	s.mu.Lock()
	resumed := make([]*entity.Thread, 0, len(s.threads))
	for id, t := range s.threads {
		if body.AllThreadsContinued || id == body.ThreadID {
			resumed = append(resumed, t)
		}
	}
	s.topFrame = 0
	s.mu.Unlock()

	for _, t := range resumed {
		s.reg.SetThreadStopped(t, false, "")
		s.reg.ClearFrames(t)
	}

	s.reg.SetSessionState(s.session, entity.SessionRunning)
}

func (s *Syncer) handleThread(body dap.ThreadEventBody) {
	switch body.Reason {
	case "started":
		s.syncThreads(s.ctx)
	case "exited":
		s.mu.Lock()
		t := s.threads[body.ThreadID]
		delete(s.threads, body.ThreadID)
		s.mu.Unlock()

		if t != nil {
			s.reg.Dispose(t)
		}
	}
}

func (s *Syncer) terminate() {
	s.mu.Lock()
	s.topFrame = 0
	s.mu.Unlock()

	s.reg.SetSessionState(s.session, entity.SessionTerminated)
	s.reg.Dispose(s.session)
}

// syncThreads reconciles the thread set against the adapter's listing.
func (s *Syncer) syncThreads(ctx context.Context) error {
	listed, err := s.adapter.Threads(ctx)
	if err != nil {
		return err
	}

	alive := make(map[int]bool, len(listed))
	for _, dt := range listed {
		alive[dt.ID] = true

		s.mu.Lock()
		_, known := s.threads[dt.ID]
		s.mu.Unlock()
		if known {
			continue
		}

		t, err := s.reg.AddThread(s.session, strconv.Itoa(dt.ID), dt.Name)
		if err != nil {
			continue
		}
		s.mu.Lock()
		s.threads[dt.ID] = t
		s.mu.Unlock()
	}

	s.mu.Lock()
	var gone []*entity.Thread
	for id, t := range s.threads {
		if !alive[id] {
			gone = append(gone, t)
			delete(s.threads, id)
		}
	}
	s.mu.Unlock()

	for _, t := range gone {
		s.reg.Dispose(t)
	}
	return nil
}

// syncStack replaces a stopped thread's frames with the adapter's current
// stack, including scopes and their top-level variables.
func (s *Syncer) syncStack(ctx context.Context, t *entity.Thread, threadID int) {
	body, err := s.adapter.StackTrace(ctx, dap.StackTraceArguments{
		ThreadID: threadID,
		Levels:   maxStackDepth,
	})
	if err != nil {
		return
	}

	s.reg.ClearFrames(t)

	for i, df := range body.StackFrames {
		path := ""
		if df.Source != nil {
			path = df.Source.Path
		}

		f, err := s.reg.AddFrame(t, strconv.Itoa(df.ID), df.Name, path, df.Line, df.Column)
		if err != nil {
			continue
		}

		if i == 0 {
			s.mu.Lock()
			s.topFrame = df.ID
			s.mu.Unlock()
		}

		s.syncScopes(ctx, f, df.ID)
	}
}

func (s *Syncer) syncScopes(ctx context.Context, f *entity.Frame, frameID int) {
	scopes, err := s.adapter.Scopes(ctx, dap.ScopesArguments{FrameID: frameID})
	if err != nil {
		return
	}

	for _, ds := range scopes {
		scope, err := s.reg.AddScope(f, ds.Name, ds.VariablesReference, ds.Expensive)
		if err != nil {
			continue
		}

		// Expensive scopes stay lazy until explicitly expanded.
		if !ds.Expensive {
			s.addVariables(ctx, scope, ds.VariablesReference)
		}
	}
}

func (s *Syncer) addVariables(ctx context.Context, parent entity.Entity, ref int) error {
	vars, err := s.adapter.Variables(ctx, dap.VariablesArguments{VariablesReference: ref})
	if err != nil {
		return err
	}

	for _, dv := range vars {
		s.reg.AddVariable(parent, dv.Name, dv.Value, dv.Type, dv.VariablesReference)
	}
	return nil
}

func (s *Syncer) evaluateWatches(ctx context.Context) {
	bindings, err := s.reg.Children(ctx, s.session, entity.KindBinding)
	if err != nil {
		return
	}

	s.mu.Lock()
	frameID := s.topFrame
	s.mu.Unlock()

	for _, e := range bindings {
		b, ok := e.(*entity.Binding)
		if !ok {
			continue
		}

		body, err := s.adapter.Evaluate(ctx, dap.EvaluateArguments{
			Expression: b.Expression,
			FrameID:    frameID,
			Context:    "watch",
		})
		if err != nil {
			s.reg.SetBindingValue(b, "", err.Error())
			continue
		}
		s.reg.SetBindingValue(b, body.Result, "")
	}
}
