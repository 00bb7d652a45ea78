// Package entity defines the debug entity model: the typed hierarchy of
// sessions, threads, stacks, frames, scopes, variables, breakpoints and
// watch bindings that a debug adapter exposes, and the registry that owns
// their lifecycle.
//
// # Hierarchy
//
//	session
//	├── threads
//	│   └── stack
//	│       └── frames
//	│           └── scopes
//	│               └── variables
//	│                   └── variables (children)
//	├── breakpoints
//	└── bindings
//
// Every entity carries a stable identifier unique within its kind and parent,
// a back reference to its parent, and a canonical URI derived on demand from
// the ownership chain. Entities are created and disposed exclusively by the
// Registry; consumers hold them transiently during a resolution and must be
// prepared for any entity to be disposed between two resolutions.
//
// The Registry publishes debug.entity.created, debug.entity.disposed,
// debug.entity.pruned and debug.entity.field events on the bus. Disposal
// events fire before the entity is unlinked from its parent, so subscribers
// can still walk the ownership chain while handling them; the pruned event
// fires once per Dispose call after the unlink, for subscribers that need
// the post-removal view of the tree.
package entity
