package entity

// Kind identifies the type of a debug entity. The set is closed: formatting
// and resolution switch exhaustively over it rather than sniffing fields.
type Kind int

const (
	// KindSession is a debug adapter session.
	KindSession Kind = iota
	// KindThread is a thread of the debuggee.
	KindThread
	// KindStack is the call stack of a stopped thread.
	KindStack
	// KindFrame is a stack frame.
	KindFrame
	// KindScope is a variable scope of a frame.
	KindScope
	// KindVariable is a variable or a child of a structured variable.
	KindVariable
	// KindBreakpoint is a user-defined breakpoint.
	KindBreakpoint
	// KindBinding is a named watch expression attached to a session.
	KindBinding
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindSession:
		return "session"
	case KindThread:
		return "thread"
	case KindStack:
		return "stack"
	case KindFrame:
		return "frame"
	case KindScope:
		return "scope"
	case KindVariable:
		return "variable"
	case KindBreakpoint:
		return "breakpoint"
	case KindBinding:
		return "binding"
	default:
		return "unknown"
	}
}

// Segment returns the URI path segment addressing children of this kind.
// The stack is a singleton child of its thread, so its segment carries no
// selector.
func (k Kind) Segment() string {
	switch k {
	case KindSession:
		return "sessions"
	case KindThread:
		return "threads"
	case KindStack:
		return "stack"
	case KindFrame:
		return "frames"
	case KindScope:
		return "scopes"
	case KindVariable:
		return "variables"
	case KindBreakpoint:
		return "breakpoints"
	case KindBinding:
		return "bindings"
	default:
		return ""
	}
}

// KindForSegment maps a URI path segment to a kind.
func KindForSegment(seg string) (Kind, bool) {
	switch seg {
	case "sessions":
		return KindSession, true
	case "threads":
		return KindThread, true
	case "stack":
		return KindStack, true
	case "frames":
		return KindFrame, true
	case "scopes":
		return KindScope, true
	case "variables":
		return KindVariable, true
	case "breakpoints":
		return KindBreakpoint, true
	case "bindings":
		return KindBinding, true
	default:
		return 0, false
	}
}

// ChildKinds returns the kinds an entity of kind k may own, in hierarchy
// order.
func (k Kind) ChildKinds() []Kind {
	switch k {
	case KindSession:
		return []Kind{KindThread, KindBreakpoint, KindBinding}
	case KindThread:
		return []Kind{KindStack}
	case KindStack:
		return []Kind{KindFrame}
	case KindFrame:
		return []Kind{KindScope}
	case KindScope:
		return []Kind{KindVariable}
	case KindVariable:
		return []Kind{KindVariable}
	default:
		return nil
	}
}

// HasChildKind reports whether child is a valid child kind of k.
func (k Kind) HasChildKind(child Kind) bool {
	for _, c := range k.ChildKinds() {
		if c == child {
			return true
		}
	}
	return false
}

// Entity is a debug-domain object addressable by URI. Implementations are
// the concrete kinds in this package; the interface exists so the resolver,
// picker and buffer controller stay kind-agnostic.
type Entity interface {
	// ID is opaque and stable, unique within the entity's kind and parent.
	ID() string

	// Kind returns the entity's kind tag.
	Kind() Kind

	// Name is the human-readable name used for display and for literal
	// selector matching.
	Name() string

	// Parent returns the owning entity, or nil for a session.
	Parent() Entity

	// URI returns the canonical address of this exact entity.
	URI() string
}

// base carries the identity fields shared by all concrete kinds.
type base struct {
	id     string
	name   string
	parent Entity
}

func (b *base) ID() string     { return b.id }
func (b *base) Name() string   { return b.name }
func (b *base) Parent() Entity { return b.parent }

// uriFor derives the canonical URI of an entity from its ownership chain.
func uriFor(e Entity) string {
	seg := e.Kind().Segment()
	if e.Kind() != KindStack {
		seg += "/" + e.ID()
	}
	if p := e.Parent(); p != nil {
		return p.URI() + "/" + seg
	}
	return seg
}
