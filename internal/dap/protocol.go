package dap

import (
	"encoding/json"
)

// ProtocolMessage is the base for all DAP messages.
type ProtocolMessage struct {
	Seq  int    `json:"seq"`
	Type string `json:"type"` // "request", "response", "event"
}

// Request represents a DAP request.
type Request struct {
	ProtocolMessage
	Command   string          `json:"command"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// Response represents a DAP response.
type Response struct {
	ProtocolMessage
	RequestSeq int             `json:"request_seq"`
	Success    bool            `json:"success"`
	Command    string          `json:"command"`
	Message    string          `json:"message,omitempty"`
	Body       json.RawMessage `json:"body,omitempty"`
}

// Event represents a DAP event.
type Event struct {
	ProtocolMessage
	Event string          `json:"event"`
	Body  json.RawMessage `json:"body,omitempty"`
}

// Capabilities describes the adapter features the inspector cares about.
type Capabilities struct {
	SupportsConfigurationDoneRequest   bool `json:"supportsConfigurationDoneRequest,omitempty"`
	SupportsConditionalBreakpoints     bool `json:"supportsConditionalBreakpoints,omitempty"`
	SupportsHitConditionalBreakpoints  bool `json:"supportsHitConditionalBreakpoints,omitempty"`
	SupportsEvaluateForHovers          bool `json:"supportsEvaluateForHovers,omitempty"`
	SupportsSetVariable                bool `json:"supportsSetVariable,omitempty"`
	SupportsDelayedStackTraceLoading   bool `json:"supportsDelayedStackTraceLoading,omitempty"`
	SupportsLogPoints                  bool `json:"supportsLogPoints,omitempty"`
	SupportsTerminateRequest           bool `json:"supportsTerminateRequest,omitempty"`
	SupportsBreakpointLocationsRequest bool `json:"supportsBreakpointLocationsRequest,omitempty"`
	SupportsSteppingGranularity        bool `json:"supportsSteppingGranularity,omitempty"`
	SupportTerminateDebuggee           bool `json:"supportTerminateDebuggee,omitempty"`
}

// InitializeRequestArguments are the arguments for the initialize request.
type InitializeRequestArguments struct {
	ClientID                  string `json:"clientID,omitempty"`
	ClientName                string `json:"clientName,omitempty"`
	AdapterID                 string `json:"adapterID"`
	Locale                    string `json:"locale,omitempty"`
	LinesStartAt1             bool   `json:"linesStartAt1,omitempty"`
	ColumnsStartAt1           bool   `json:"columnsStartAt1,omitempty"`
	PathFormat                string `json:"pathFormat,omitempty"`
	SupportsVariableType      bool   `json:"supportsVariableType,omitempty"`
	SupportsVariablePaging    bool   `json:"supportsVariablePaging,omitempty"`
	SupportsProgressReporting bool   `json:"supportsProgressReporting,omitempty"`
}

// DisconnectArguments are the arguments for the disconnect request.
type DisconnectArguments struct {
	Restart           bool `json:"restart,omitempty"`
	TerminateDebuggee bool `json:"terminateDebuggee,omitempty"`
}

// TerminateArguments are the arguments for the terminate request.
type TerminateArguments struct {
	Restart bool `json:"restart,omitempty"`
}

// Source identifies source code referenced by breakpoints and frames.
type Source struct {
	Name             string `json:"name,omitempty"`
	Path             string `json:"path,omitempty"`
	SourceReference  int    `json:"sourceReference,omitempty"`
	PresentationHint string `json:"presentationHint,omitempty"`
}

// SourceBreakpoint describes a breakpoint requested in a source file.
type SourceBreakpoint struct {
	Line         int    `json:"line"`
	Column       int    `json:"column,omitempty"`
	Condition    string `json:"condition,omitempty"`
	HitCondition string `json:"hitCondition,omitempty"`
	LogMessage   string `json:"logMessage,omitempty"`
}

// Breakpoint is the adapter's view of a requested breakpoint.
type Breakpoint struct {
	ID        int     `json:"id,omitempty"`
	Verified  bool    `json:"verified"`
	Message   string  `json:"message,omitempty"`
	Source    *Source `json:"source,omitempty"`
	Line      int     `json:"line,omitempty"`
	Column    int     `json:"column,omitempty"`
	EndLine   int     `json:"endLine,omitempty"`
	EndColumn int     `json:"endColumn,omitempty"`
}

// SetBreakpointsArguments are the arguments for setBreakpoints.
type SetBreakpointsArguments struct {
	Source         Source             `json:"source"`
	Breakpoints    []SourceBreakpoint `json:"breakpoints,omitempty"`
	SourceModified bool               `json:"sourceModified,omitempty"`
}

// SetBreakpointsResponseBody is the body of a setBreakpoints response.
type SetBreakpointsResponseBody struct {
	Breakpoints []Breakpoint `json:"breakpoints"`
}

// BreakpointLocationsArguments are the arguments for breakpointLocations.
type BreakpointLocationsArguments struct {
	Source    Source `json:"source"`
	Line      int    `json:"line"`
	Column    int    `json:"column,omitempty"`
	EndLine   int    `json:"endLine,omitempty"`
	EndColumn int    `json:"endColumn,omitempty"`
}

// BreakpointLocation is a source position where a breakpoint can bind.
type BreakpointLocation struct {
	Line      int `json:"line"`
	Column    int `json:"column,omitempty"`
	EndLine   int `json:"endLine,omitempty"`
	EndColumn int `json:"endColumn,omitempty"`
}

// BreakpointLocationsResponseBody is the body of a breakpointLocations response.
type BreakpointLocationsResponseBody struct {
	Breakpoints []BreakpointLocation `json:"breakpoints"`
}

// ContinueArguments are the arguments for the continue request.
type ContinueArguments struct {
	ThreadID     int  `json:"threadId"`
	SingleThread bool `json:"singleThread,omitempty"`
}

// ContinueResponseBody is the body of a continue response.
type ContinueResponseBody struct {
	AllThreadsContinued bool `json:"allThreadsContinued,omitempty"`
}

// NextArguments are the arguments for the next (step over) request.
type NextArguments struct {
	ThreadID     int    `json:"threadId"`
	SingleThread bool   `json:"singleThread,omitempty"`
	Granularity  string `json:"granularity,omitempty"`
}

// StepInArguments are the arguments for the stepIn request.
type StepInArguments struct {
	ThreadID     int    `json:"threadId"`
	SingleThread bool   `json:"singleThread,omitempty"`
	TargetID     int    `json:"targetId,omitempty"`
	Granularity  string `json:"granularity,omitempty"`
}

// StepOutArguments are the arguments for the stepOut request.
type StepOutArguments struct {
	ThreadID     int    `json:"threadId"`
	SingleThread bool   `json:"singleThread,omitempty"`
	Granularity  string `json:"granularity,omitempty"`
}

// PauseArguments are the arguments for the pause request.
type PauseArguments struct {
	ThreadID int `json:"threadId"`
}

// Thread describes a thread in the debuggee.
type Thread struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// ThreadsResponseBody is the body of a threads response.
type ThreadsResponseBody struct {
	Threads []Thread `json:"threads"`
}

// StackTraceArguments are the arguments for the stackTrace request.
type StackTraceArguments struct {
	ThreadID   int `json:"threadId"`
	StartFrame int `json:"startFrame,omitempty"`
	Levels     int `json:"levels,omitempty"`
}

// StackFrame describes one frame of a thread's call stack.
type StackFrame struct {
	ID               int     `json:"id"`
	Name             string  `json:"name"`
	Source           *Source `json:"source,omitempty"`
	Line             int     `json:"line"`
	Column           int     `json:"column"`
	EndLine          int     `json:"endLine,omitempty"`
	EndColumn        int     `json:"endColumn,omitempty"`
	PresentationHint string  `json:"presentationHint,omitempty"`
}

// StackTraceResponseBody is the body of a stackTrace response.
type StackTraceResponseBody struct {
	StackFrames []StackFrame `json:"stackFrames"`
	TotalFrames int          `json:"totalFrames,omitempty"`
}

// ScopesArguments are the arguments for the scopes request.
type ScopesArguments struct {
	FrameID int `json:"frameId"`
}

// Scope groups the variables visible from a frame.
type Scope struct {
	Name               string  `json:"name"`
	PresentationHint   string  `json:"presentationHint,omitempty"`
	VariablesReference int     `json:"variablesReference"`
	NamedVariables     int     `json:"namedVariables,omitempty"`
	IndexedVariables   int     `json:"indexedVariables,omitempty"`
	Expensive          bool    `json:"expensive"`
	Source             *Source `json:"source,omitempty"`
	Line               int     `json:"line,omitempty"`
	EndLine            int     `json:"endLine,omitempty"`
}

// ScopesResponseBody is the body of a scopes response.
type ScopesResponseBody struct {
	Scopes []Scope `json:"scopes"`
}

// VariablesArguments are the arguments for the variables request.
type VariablesArguments struct {
	VariablesReference int    `json:"variablesReference"`
	Filter             string `json:"filter,omitempty"`
	Start              int    `json:"start,omitempty"`
	Count              int    `json:"count,omitempty"`
}

// Variable is one named value in a scope or structured value.
type Variable struct {
	Name               string `json:"name"`
	Value              string `json:"value"`
	Type               string `json:"type,omitempty"`
	EvaluateName       string `json:"evaluateName,omitempty"`
	VariablesReference int    `json:"variablesReference"`
	NamedVariables     int    `json:"namedVariables,omitempty"`
	IndexedVariables   int    `json:"indexedVariables,omitempty"`
}

// VariablesResponseBody is the body of a variables response.
type VariablesResponseBody struct {
	Variables []Variable `json:"variables"`
}

// SetVariableArguments are the arguments for the setVariable request.
type SetVariableArguments struct {
	VariablesReference int    `json:"variablesReference"`
	Name               string `json:"name"`
	Value              string `json:"value"`
}

// SetVariableResponseBody is the body of a setVariable response.
type SetVariableResponseBody struct {
	Value              string `json:"value"`
	Type               string `json:"type,omitempty"`
	VariablesReference int    `json:"variablesReference,omitempty"`
	NamedVariables     int    `json:"namedVariables,omitempty"`
	IndexedVariables   int    `json:"indexedVariables,omitempty"`
}

// EvaluateArguments are the arguments for the evaluate request.
type EvaluateArguments struct {
	Expression string `json:"expression"`
	FrameID    int    `json:"frameId,omitempty"`
	Context    string `json:"context,omitempty"` // "watch", "repl", "hover"
}

// EvaluateResponseBody is the body of an evaluate response.
type EvaluateResponseBody struct {
	Result             string `json:"result"`
	Type               string `json:"type,omitempty"`
	VariablesReference int    `json:"variablesReference"`
	NamedVariables     int    `json:"namedVariables,omitempty"`
	IndexedVariables   int    `json:"indexedVariables,omitempty"`
}

// StoppedEventBody is the body of a stopped event.
type StoppedEventBody struct {
	Reason            string `json:"reason"`
	Description       string `json:"description,omitempty"`
	ThreadID          int    `json:"threadId,omitempty"`
	PreserveFocusHint bool   `json:"preserveFocusHint,omitempty"`
	Text              string `json:"text,omitempty"`
	AllThreadsStopped bool   `json:"allThreadsStopped,omitempty"`
	HitBreakpointIDs  []int  `json:"hitBreakpointIds,omitempty"`
}

// ContinuedEventBody is the body of a continued event.
type ContinuedEventBody struct {
	ThreadID            int  `json:"threadId"`
	AllThreadsContinued bool `json:"allThreadsContinued,omitempty"`
}

// ExitedEventBody is the body of an exited event.
type ExitedEventBody struct {
	ExitCode int `json:"exitCode"`
}

// TerminatedEventBody is the body of a terminated event.
type TerminatedEventBody struct {
	Restart json.RawMessage `json:"restart,omitempty"`
}

// ThreadEventBody is the body of a thread event.
type ThreadEventBody struct {
	Reason   string `json:"reason"` // "started", "exited"
	ThreadID int    `json:"threadId"`
}

// OutputEventBody is the body of an output event.
type OutputEventBody struct {
	Category string  `json:"category,omitempty"` // "console", "stdout", "stderr"
	Output   string  `json:"output"`
	Source   *Source `json:"source,omitempty"`
	Line     int     `json:"line,omitempty"`
	Column   int     `json:"column,omitempty"`
}

// BreakpointEventBody is the body of a breakpoint event.
type BreakpointEventBody struct {
	Reason     string     `json:"reason"` // "changed", "new", "removed"
	Breakpoint Breakpoint `json:"breakpoint"`
}
