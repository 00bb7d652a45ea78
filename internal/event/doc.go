// Package event provides the synchronous publish/subscribe bus that carries
// debug lifecycle notifications between the entity registry, the focus
// tracker, and the reactive buffer controller.
//
// Topics use dot-notation to create hierarchical namespaces:
//
//	debug.entity.created
//	debug.entity.disposed
//	debug.entity.pruned
//	debug.entity.field
//	debug.focus.changed
//	config.reloaded
//
// Two wildcard patterns are supported when subscribing:
//
//   - "*" matches exactly one segment
//   - "**" matches zero or more segments
//
// Delivery is synchronous and in subscription order: Publish returns only
// after every matching handler has run. The inspector's scheduling model is
// single-threaded cooperative, so there is no async dispatch path; handlers
// that need to defer work hand it to their own scheduling queue.
package event
