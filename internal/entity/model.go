package entity

import "context"

// Model is the read capability the resolver consumes. Child listings are
// consistent snapshots at call time; callers must tolerate entities being
// disposed between the listing and any later read.
type Model interface {
	// Sessions lists the top-level registry of all sessions in creation
	// order.
	Sessions(ctx context.Context) ([]Entity, error)

	// Children lists parent's children of the given kind in the model's
	// stable order. An empty listing is not an error.
	Children(ctx context.Context, parent Entity, kind Kind) ([]Entity, error)
}

// FieldChange is the payload of a debug.entity.field event.
type FieldChange struct {
	// Entity is the entity whose field changed.
	Entity Entity

	// Field is the name of the changed field.
	Field string
}
