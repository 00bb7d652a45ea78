package resolve

import (
	"iter"

	"github.com/dshills/dapscope/internal/entity"
)

// Cardinality is the advisory expectation of how many entities a resolution
// should produce. It guides callers such as the picker flow; the resolver
// never enforces it.
type Cardinality int

const (
	// One means the URI resolved through only literal selectors from a
	// singleton start, so at most one entity is expected.
	One Cardinality = iota

	// Many means at least one wildcard or a non-singleton start was
	// involved.
	Many
)

// String returns the cardinality name.
func (c Cardinality) String() string {
	switch c {
	case One:
		return "one"
	case Many:
		return "many"
	default:
		return "unknown"
	}
}

// Collection is the snapshot result of one resolution. It is immutable:
// iteration always replays the snapshot taken at resolution time, no matter
// what the underlying model has done since. Two resolutions of the same URI
// taken at different times may of course differ.
type Collection struct {
	source string
	items  []entity.Entity
	expect Cardinality
}

// newCollection builds a collection over the given snapshot.
func newCollection(source string, items []entity.Entity, expect Cardinality) *Collection {
	return &Collection{source: source, items: items, expect: expect}
}

// Source returns the canonical URI pattern this collection was resolved
// from.
func (c *Collection) Source() string { return c.source }

// Expect returns the advisory cardinality expectation.
func (c *Collection) Expect() Cardinality { return c.expect }

// Count returns the number of entities in the snapshot.
func (c *Collection) Count() int { return len(c.items) }

// Iterate returns a restartable iterator over the snapshot in resolution
// order.
func (c *Collection) Iterate() iter.Seq[entity.Entity] {
	return func(yield func(entity.Entity) bool) {
		for _, e := range c.items {
			if !yield(e) {
				return
			}
		}
	}
}

// FirstOrNone returns the first entity of the snapshot, or nil when the
// collection is empty.
func (c *Collection) FirstOrNone() entity.Entity {
	if len(c.items) == 0 {
		return nil
	}
	return c.items[0]
}

// Items returns a copy of the snapshot.
func (c *Collection) Items() []entity.Entity {
	out := make([]entity.Entity, len(c.items))
	copy(out, c.items)
	return out
}
