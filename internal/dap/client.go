package dap

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
)

// Client correlates DAP requests with responses and dispatches adapter
// events. One Client serves one adapter connection.
type Client struct {
	transport Transport
	seq       int64
	pending   map[int]*pendingRequest
	pendingMu sync.Mutex
	handlers  eventHandlers
	handlerMu sync.RWMutex
	done      chan struct{}
	closeOnce sync.Once
	err       error
	errMu     sync.RWMutex
}

// pendingRequest tracks an in-flight request awaiting its response.
type pendingRequest struct {
	done      chan struct{}
	closeOnce sync.Once
	response  *Response
	err       error
}

func (p *pendingRequest) close() {
	p.closeOnce.Do(func() {
		close(p.done)
	})
}

// eventHandlers stores the registered event callbacks.
type eventHandlers struct {
	onInitialized func()
	onStopped     func(StoppedEventBody)
	onContinued   func(ContinuedEventBody)
	onExited      func(ExitedEventBody)
	onTerminated  func(TerminatedEventBody)
	onThread      func(ThreadEventBody)
	onOutput      func(OutputEventBody)
	onBreakpoint  func(BreakpointEventBody)
}

// NewClient starts a client on the given transport. The receive loop runs
// until the transport fails or the client is closed.
func NewClient(transport Transport) *Client {
	c := &Client{
		transport: transport,
		pending:   make(map[int]*pendingRequest),
		done:      make(chan struct{}),
	}
	go c.receiveLoop()
	return c
}

// Close shuts down the client and the underlying transport.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
	})
	return c.transport.Close()
}

// Err returns the error that stopped the receive loop, if any.
func (c *Client) Err() error {
	c.errMu.RLock()
	defer c.errMu.RUnlock()
	return c.err
}

func (c *Client) receiveLoop() {
	for {
		msg, err := c.transport.Receive()
		if err != nil {
			select {
			case <-c.done:
				return
			default:
			}

			c.errMu.Lock()
			c.err = err
			c.errMu.Unlock()

			// Fail every pending request so callers unblock.
			c.pendingMu.Lock()
			for _, req := range c.pending {
				req.err = err
				req.close()
			}
			c.pending = make(map[int]*pendingRequest)
			c.pendingMu.Unlock()
			return
		}

		select {
		case <-c.done:
			return
		default:
		}

		c.handleMessage(msg)
	}
}

func (c *Client) handleMessage(msg *Message) {
	var base ProtocolMessage
	if err := json.Unmarshal(msg.Content, &base); err != nil {
		return
	}

	switch base.Type {
	case "response":
		c.handleResponse(msg.Content)
	case "event":
		c.handleEvent(msg.Content)
	}
}

func (c *Client) handleResponse(content []byte) {
	var resp Response
	if err := json.Unmarshal(content, &resp); err != nil {
		return
	}

	c.pendingMu.Lock()
	req, ok := c.pending[resp.RequestSeq]
	if ok {
		delete(c.pending, resp.RequestSeq)
	}
	c.pendingMu.Unlock()

	if ok {
		req.response = &resp
		req.close()
	}
}

func (c *Client) handleEvent(content []byte) {
	var evt Event
	if err := json.Unmarshal(content, &evt); err != nil {
		return
	}

	c.handlerMu.RLock()
	handlers := c.handlers
	c.handlerMu.RUnlock()

	switch evt.Event {
	case "initialized":
		if handlers.onInitialized != nil {
			handlers.onInitialized()
		}
	case "stopped":
		if handlers.onStopped != nil {
			var body StoppedEventBody
			if err := json.Unmarshal(evt.Body, &body); err == nil {
				handlers.onStopped(body)
			}
		}
	case "continued":
		if handlers.onContinued != nil {
			var body ContinuedEventBody
			if err := json.Unmarshal(evt.Body, &body); err == nil {
				handlers.onContinued(body)
			}
		}
	case "exited":
		if handlers.onExited != nil {
			var body ExitedEventBody
			if err := json.Unmarshal(evt.Body, &body); err == nil {
				handlers.onExited(body)
			}
		}
	case "terminated":
		if handlers.onTerminated != nil {
			var body TerminatedEventBody
			if err := json.Unmarshal(evt.Body, &body); err == nil {
				handlers.onTerminated(body)
			}
		}
	case "thread":
		if handlers.onThread != nil {
			var body ThreadEventBody
			if err := json.Unmarshal(evt.Body, &body); err == nil {
				handlers.onThread(body)
			}
		}
	case "output":
		if handlers.onOutput != nil {
			var body OutputEventBody
			if err := json.Unmarshal(evt.Body, &body); err == nil {
				handlers.onOutput(body)
			}
		}
	case "breakpoint":
		if handlers.onBreakpoint != nil {
			var body BreakpointEventBody
			if err := json.Unmarshal(evt.Body, &body); err == nil {
				handlers.onBreakpoint(body)
			}
		}
	}
}

// sendRequest sends a request and blocks until the response arrives, the
// context is cancelled, or the transport fails.
func (c *Client) sendRequest(ctx context.Context, command string, args interface{}) (*Response, error) {
	seq := int(atomic.AddInt64(&c.seq, 1))

	var argsJSON json.RawMessage
	if args != nil {
		var err error
		argsJSON, err = json.Marshal(args)
		if err != nil {
			return nil, fmt.Errorf("marshal arguments: %w", err)
		}
	}

	req := Request{
		ProtocolMessage: ProtocolMessage{
			Seq:  seq,
			Type: "request",
		},
		Command:   command,
		Arguments: argsJSON,
	}

	content, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	pending := &pendingRequest{
		done: make(chan struct{}),
	}

	c.pendingMu.Lock()
	c.pending[seq] = pending
	c.pendingMu.Unlock()

	msg := &Message{
		ContentLength: len(content),
		Content:       content,
	}

	if err := c.transport.Send(msg); err != nil {
		c.pendingMu.Lock()
		delete(c.pending, seq)
		c.pendingMu.Unlock()
		return nil, fmt.Errorf("send request: %w", err)
	}

	select {
	case <-ctx.Done():
		c.pendingMu.Lock()
		delete(c.pending, seq)
		c.pendingMu.Unlock()
		return nil, ctx.Err()
	case <-pending.done:
		if pending.err != nil {
			return nil, pending.err
		}
		return pending.response, nil
	}
}

// Event callback registration. Each setter replaces any prior callback for
// its event; callbacks run on the receive goroutine.

// OnInitialized registers the callback for the adapter's initialized event.
func (c *Client) OnInitialized(handler func()) {
	c.handlerMu.Lock()
	c.handlers.onInitialized = handler
	c.handlerMu.Unlock()
}

// OnStopped registers the callback invoked when execution halts.
func (c *Client) OnStopped(handler func(StoppedEventBody)) {
	c.handlerMu.Lock()
	c.handlers.onStopped = handler
	c.handlerMu.Unlock()
}

// OnContinued registers the callback invoked when execution resumes.
func (c *Client) OnContinued(handler func(ContinuedEventBody)) {
	c.handlerMu.Lock()
	c.handlers.onContinued = handler
	c.handlerMu.Unlock()
}

// OnExited registers the callback invoked when the debuggee process exits.
func (c *Client) OnExited(handler func(ExitedEventBody)) {
	c.handlerMu.Lock()
	c.handlers.onExited = handler
	c.handlerMu.Unlock()
}

// OnTerminated registers the callback invoked when the debug session ends.
func (c *Client) OnTerminated(handler func(TerminatedEventBody)) {
	c.handlerMu.Lock()
	c.handlers.onTerminated = handler
	c.handlerMu.Unlock()
}

// OnThread registers the callback invoked when a thread starts or exits.
func (c *Client) OnThread(handler func(ThreadEventBody)) {
	c.handlerMu.Lock()
	c.handlers.onThread = handler
	c.handlerMu.Unlock()
}

// OnOutput registers the callback for debuggee and adapter output.
func (c *Client) OnOutput(handler func(OutputEventBody)) {
	c.handlerMu.Lock()
	c.handlers.onOutput = handler
	c.handlerMu.Unlock()
}

// OnBreakpoint registers the callback invoked when a breakpoint's state
// changes on the adapter side.
func (c *Client) OnBreakpoint(handler func(BreakpointEventBody)) {
	c.handlerMu.Lock()
	c.handlers.onBreakpoint = handler
	c.handlerMu.Unlock()
}

// Request methods. Each issues one DAP request and decodes the typed
// response body, treating an unsuccessful response as an error.

// Initialize performs the capability handshake and reports what the
// adapter supports.
func (c *Client) Initialize(ctx context.Context, args InitializeRequestArguments) (*Capabilities, error) {
	resp, err := c.sendRequest(ctx, "initialize", args)
	if err != nil {
		return nil, err
	}

	if !resp.Success {
		return nil, fmt.Errorf("initialize failed: %s", resp.Message)
	}

	var caps Capabilities
	if err := json.Unmarshal(resp.Body, &caps); err != nil {
		return nil, fmt.Errorf("unmarshal capabilities: %w", err)
	}

	return &caps, nil
}

// ConfigurationDone tells the adapter that breakpoint setup is finished
// and the debuggee may start.
func (c *Client) ConfigurationDone(ctx context.Context) error {
	resp, err := c.sendRequest(ctx, "configurationDone", nil)
	if err != nil {
		return err
	}

	if !resp.Success {
		return fmt.Errorf("configurationDone failed: %s", resp.Message)
	}

	return nil
}

// Launch starts a new debuggee. Arguments are adapter-specific.
func (c *Client) Launch(ctx context.Context, args interface{}) error {
	resp, err := c.sendRequest(ctx, "launch", args)
	if err != nil {
		return err
	}

	if !resp.Success {
		return fmt.Errorf("launch failed: %s", resp.Message)
	}

	return nil
}

// Attach connects to an already running debuggee. Arguments are
// adapter-specific.
func (c *Client) Attach(ctx context.Context, args interface{}) error {
	resp, err := c.sendRequest(ctx, "attach", args)
	if err != nil {
		return err
	}

	if !resp.Success {
		return fmt.Errorf("attach failed: %s", resp.Message)
	}

	return nil
}

// Disconnect ends the session, optionally terminating the debuggee.
func (c *Client) Disconnect(ctx context.Context, args DisconnectArguments) error {
	resp, err := c.sendRequest(ctx, "disconnect", args)
	if err != nil {
		return err
	}

	if !resp.Success {
		return fmt.Errorf("disconnect failed: %s", resp.Message)
	}

	return nil
}

// Terminate asks the debuggee to shut down gracefully.
func (c *Client) Terminate(ctx context.Context, args TerminateArguments) error {
	resp, err := c.sendRequest(ctx, "terminate", args)
	if err != nil {
		return err
	}

	if !resp.Success {
		return fmt.Errorf("terminate failed: %s", resp.Message)
	}

	return nil
}

// SetBreakpoints replaces the full breakpoint set of one source file and
// returns the adapter's verification results.
func (c *Client) SetBreakpoints(ctx context.Context, args SetBreakpointsArguments) ([]Breakpoint, error) {
	resp, err := c.sendRequest(ctx, "setBreakpoints", args)
	if err != nil {
		return nil, err
	}

	if !resp.Success {
		return nil, fmt.Errorf("setBreakpoints failed: %s", resp.Message)
	}

	var body SetBreakpointsResponseBody
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return nil, fmt.Errorf("unmarshal breakpoints: %w", err)
	}

	return body.Breakpoints, nil
}

// BreakpointLocations asks the adapter where breakpoints can bind near a
// source position.
func (c *Client) BreakpointLocations(ctx context.Context, args BreakpointLocationsArguments) ([]BreakpointLocation, error) {
	resp, err := c.sendRequest(ctx, "breakpointLocations", args)
	if err != nil {
		return nil, err
	}

	if !resp.Success {
		return nil, fmt.Errorf("breakpointLocations failed: %s", resp.Message)
	}

	var body BreakpointLocationsResponseBody
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return nil, fmt.Errorf("unmarshal breakpoint locations: %w", err)
	}

	return body.Breakpoints, nil
}

// Continue resumes execution of a thread, or of all threads if the
// adapter ignores the thread ID.
func (c *Client) Continue(ctx context.Context, args ContinueArguments) (*ContinueResponseBody, error) {
	resp, err := c.sendRequest(ctx, "continue", args)
	if err != nil {
		return nil, err
	}

	if !resp.Success {
		return nil, fmt.Errorf("continue failed: %s", resp.Message)
	}

	var body ContinueResponseBody
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return nil, fmt.Errorf("unmarshal continue response: %w", err)
	}

	return &body, nil
}

// Next steps over the current line.
func (c *Client) Next(ctx context.Context, args NextArguments) error {
	resp, err := c.sendRequest(ctx, "next", args)
	if err != nil {
		return err
	}

	if !resp.Success {
		return fmt.Errorf("next failed: %s", resp.Message)
	}

	return nil
}

// StepIn steps into the function call at the current line.
func (c *Client) StepIn(ctx context.Context, args StepInArguments) error {
	resp, err := c.sendRequest(ctx, "stepIn", args)
	if err != nil {
		return err
	}

	if !resp.Success {
		return fmt.Errorf("stepIn failed: %s", resp.Message)
	}

	return nil
}

// StepOut runs until the current function returns.
func (c *Client) StepOut(ctx context.Context, args StepOutArguments) error {
	resp, err := c.sendRequest(ctx, "stepOut", args)
	if err != nil {
		return err
	}

	if !resp.Success {
		return fmt.Errorf("stepOut failed: %s", resp.Message)
	}

	return nil
}

// Pause interrupts a running thread.
func (c *Client) Pause(ctx context.Context, args PauseArguments) error {
	resp, err := c.sendRequest(ctx, "pause", args)
	if err != nil {
		return err
	}

	if !resp.Success {
		return fmt.Errorf("pause failed: %s", resp.Message)
	}

	return nil
}

// Threads lists the debuggee's current threads.
func (c *Client) Threads(ctx context.Context) ([]Thread, error) {
	resp, err := c.sendRequest(ctx, "threads", nil)
	if err != nil {
		return nil, err
	}

	if !resp.Success {
		return nil, fmt.Errorf("threads failed: %s", resp.Message)
	}

	var body ThreadsResponseBody
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return nil, fmt.Errorf("unmarshal threads: %w", err)
	}

	return body.Threads, nil
}

// StackTrace fetches a slice of a stopped thread's call stack.
func (c *Client) StackTrace(ctx context.Context, args StackTraceArguments) (*StackTraceResponseBody, error) {
	resp, err := c.sendRequest(ctx, "stackTrace", args)
	if err != nil {
		return nil, err
	}

	if !resp.Success {
		return nil, fmt.Errorf("stackTrace failed: %s", resp.Message)
	}

	var body StackTraceResponseBody
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return nil, fmt.Errorf("unmarshal stack trace: %w", err)
	}

	return &body, nil
}

// Scopes lists the variable scopes visible in a stack frame.
func (c *Client) Scopes(ctx context.Context, args ScopesArguments) ([]Scope, error) {
	resp, err := c.sendRequest(ctx, "scopes", args)
	if err != nil {
		return nil, err
	}

	if !resp.Success {
		return nil, fmt.Errorf("scopes failed: %s", resp.Message)
	}

	var body ScopesResponseBody
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return nil, fmt.Errorf("unmarshal scopes: %w", err)
	}

	return body.Scopes, nil
}

// Variables expands a variables reference into its children.
func (c *Client) Variables(ctx context.Context, args VariablesArguments) ([]Variable, error) {
	resp, err := c.sendRequest(ctx, "variables", args)
	if err != nil {
		return nil, err
	}

	if !resp.Success {
		return nil, fmt.Errorf("variables failed: %s", resp.Message)
	}

	var body VariablesResponseBody
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return nil, fmt.Errorf("unmarshal variables: %w", err)
	}

	return body.Variables, nil
}

// SetVariable assigns a new value to a variable in its container.
func (c *Client) SetVariable(ctx context.Context, args SetVariableArguments) (*SetVariableResponseBody, error) {
	resp, err := c.sendRequest(ctx, "setVariable", args)
	if err != nil {
		return nil, err
	}

	if !resp.Success {
		return nil, fmt.Errorf("setVariable failed: %s", resp.Message)
	}

	var body SetVariableResponseBody
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return nil, fmt.Errorf("unmarshal setVariable response: %w", err)
	}

	return &body, nil
}

// Evaluate evaluates an expression in an optional frame context.
func (c *Client) Evaluate(ctx context.Context, args EvaluateArguments) (*EvaluateResponseBody, error) {
	resp, err := c.sendRequest(ctx, "evaluate", args)
	if err != nil {
		return nil, err
	}

	if !resp.Success {
		return nil, fmt.Errorf("evaluate failed: %s", resp.Message)
	}

	var body EvaluateResponseBody
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return nil, fmt.Errorf("unmarshal evaluate response: %w", err)
	}

	return &body, nil
}
