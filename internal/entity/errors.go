package entity

import "errors"

// Sentinel errors for the entity registry.
var (
	// ErrNilParent is returned when an entity is added under a nil parent.
	ErrNilParent = errors.New("parent cannot be nil")

	// ErrWrongParentKind is returned when an entity is added under a
	// parent that cannot own its kind.
	ErrWrongParentKind = errors.New("parent kind cannot own this entity kind")

	// ErrDuplicateID is returned when an entity with the same ID already
	// exists under the parent.
	ErrDuplicateID = errors.New("duplicate entity id under parent")
)
