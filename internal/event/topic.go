package event

import "strings"

// Topic is a hierarchical dot-separated event name or subscription pattern.
type Topic string

// Well-known topics published by the inspector core.
const (
	// TopicEntityCreated is published when an entity joins the registry.
	TopicEntityCreated Topic = "debug.entity.created"

	// TopicEntityDisposed is published when an entity leaves the registry.
	// It fires before the entity becomes unreachable from its parent.
	TopicEntityDisposed Topic = "debug.entity.disposed"

	// TopicEntityField is published when an observable field of a live
	// entity changes value.
	TopicEntityField Topic = "debug.entity.field"

	// TopicEntityPruned is published once per Dispose call, after the
	// disposed subtree has been unlinked from the registry. Handlers that
	// re-resolve state see the post-removal tree.
	TopicEntityPruned Topic = "debug.entity.pruned"

	// TopicFocusChanged is published when the contextual focus changes.
	TopicFocusChanged Topic = "debug.focus.changed"

	// TopicConfigReloaded is published when the configuration file is
	// reloaded from disk.
	TopicConfigReloaded Topic = "config.reloaded"
)

// Segments returns the dot-separated parts of the topic.
func (t Topic) Segments() []string {
	if t == "" {
		return nil
	}
	return strings.Split(string(t), ".")
}

// IsValid reports whether the topic is non-empty and contains no empty
// segments.
func (t Topic) IsValid() bool {
	if t == "" {
		return false
	}
	for _, seg := range t.Segments() {
		if seg == "" {
			return false
		}
	}
	return true
}

// Match reports whether the concrete topic t matches the given pattern.
// The pattern may contain "*" (exactly one segment) and "**" (zero or more
// segments); t itself must be concrete.
func (t Topic) Match(pattern Topic) bool {
	return matchSegments(t.Segments(), pattern.Segments())
}

func matchSegments(topic, pattern []string) bool {
	if len(pattern) == 0 {
		return len(topic) == 0
	}

	switch pattern[0] {
	case "**":
		// Try consuming zero segments, then one, and so on.
		for i := 0; i <= len(topic); i++ {
			if matchSegments(topic[i:], pattern[1:]) {
				return true
			}
		}
		return false
	case "*":
		if len(topic) == 0 {
			return false
		}
		return matchSegments(topic[1:], pattern[1:])
	default:
		if len(topic) == 0 || topic[0] != pattern[0] {
			return false
		}
		return matchSegments(topic[1:], pattern[1:])
	}
}
