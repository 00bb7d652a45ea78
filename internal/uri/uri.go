// Package uri parses compact entity addresses into structured paths.
//
// The grammar is:
//
//	scheme["/"@anchor]("/"kind["/"selector])*
//
// The scheme names a root namespace; "sessions" is both the scheme and the
// root kind, so canonical entity addresses read naturally:
//
//	sessions
//	sessions/s1/threads/1/stack/frames/0
//	@frame/scopes
//	@thread/stack/frames
//
// A URI may begin directly with an anchor token, in which case the scheme
// defaults to "sessions". A kind segment with no following selector is a
// wildcard meaning "all children of that kind". Parsing is pure: no entity
// access, no side effects.
package uri

import (
	"strings"

	"github.com/dshills/dapscope/internal/entity"
)

// DefaultScheme is assumed when a URI begins with an anchor token.
const DefaultScheme = "sessions"

// Anchor is a contextual starting point resolved from the current focus.
type Anchor int

const (
	// AnchorNone means the URI is absolute.
	AnchorNone Anchor = iota
	// AnchorSession anchors at the focused session.
	AnchorSession
	// AnchorThread anchors at the focused thread.
	AnchorThread
	// AnchorStack anchors at the focused thread's stack.
	AnchorStack
	// AnchorFrame anchors at the focused frame.
	AnchorFrame
)

// String returns the anchor token, including the leading "@".
func (a Anchor) String() string {
	switch a {
	case AnchorSession:
		return "@session"
	case AnchorThread:
		return "@thread"
	case AnchorStack:
		return "@stack"
	case AnchorFrame:
		return "@frame"
	default:
		return ""
	}
}

// anchorForToken maps an "@" token to its anchor.
func anchorForToken(tok string) (Anchor, bool) {
	switch tok {
	case "@session":
		return AnchorSession, true
	case "@thread":
		return AnchorThread, true
	case "@stack":
		return AnchorStack, true
	case "@frame":
		return AnchorFrame, true
	default:
		return AnchorNone, false
	}
}

// Segment is one (kind, selector) step of a parsed path. Kind is kept as the
// raw token: vocabulary membership is grammar-level, but whether the kind is
// legal at its position in the hierarchy is the resolver's concern.
type Segment struct {
	// Kind is the raw kind token, e.g. "threads".
	Kind string

	// Selector is the literal name/index/id selector, empty for a
	// wildcard.
	Selector string
}

// IsWildcard reports whether the segment selects all children of its kind.
func (s Segment) IsWildcard() bool {
	return s.Selector == ""
}

// Parsed is the structured form of a URI.
type Parsed struct {
	// Scheme is the root namespace.
	Scheme string

	// Anchor is the contextual starting point, AnchorNone for absolute
	// URIs.
	Anchor Anchor

	// Segments are the (kind, selector) steps, left to right.
	Segments []Segment
}

// Anchored reports whether the URI starts from the contextual focus.
func (p Parsed) Anchored() bool {
	return p.Anchor != AnchorNone
}

// HasWildcard reports whether any segment is a wildcard.
func (p Parsed) HasWildcard() bool {
	for _, seg := range p.Segments {
		if seg.IsWildcard() {
			return true
		}
	}
	return false
}

// String reassembles the canonical string form of the parsed URI.
func (p Parsed) String() string {
	var sb strings.Builder
	sb.WriteString(p.Scheme)
	if p.Anchor != AnchorNone {
		sb.WriteString("/")
		sb.WriteString(p.Anchor.String())
	}
	for _, seg := range p.Segments {
		// The scheme doubles as the root kind segment; don't repeat it.
		if seg.Kind == p.Scheme && sb.Len() == len(p.Scheme) {
			if seg.Selector != "" {
				sb.WriteString("/")
				sb.WriteString(seg.Selector)
			}
			continue
		}
		sb.WriteString("/")
		sb.WriteString(seg.Kind)
		if seg.Selector != "" {
			sb.WriteString("/")
			sb.WriteString(seg.Selector)
		}
	}
	return sb.String()
}

// Parse turns a URI string into its structured form. It fails with
// ErrMalformedURI on grammar violations: empty input, empty segments,
// unknown anchor tokens, anchors past the first path position, or a selector
// with no preceding kind.
func Parse(raw string) (Parsed, error) {
	if raw == "" {
		return Parsed{}, wrapMalformed(raw, "empty uri")
	}

	tokens := strings.Split(raw, "/")
	for i, tok := range tokens {
		if tok == "" {
			return Parsed{}, wrapMalformedAt(raw, i, "empty segment")
		}
	}

	p := Parsed{}
	i := 0

	// Scheme, or an anchor implying the default scheme.
	if strings.HasPrefix(tokens[0], "@") {
		p.Scheme = DefaultScheme
	} else {
		p.Scheme = tokens[0]
		i = 1
		// The scheme doubles as the root kind when it names one.
		if _, ok := entity.KindForSegment(p.Scheme); ok {
			p.Segments = append(p.Segments, Segment{Kind: p.Scheme})
		}
	}

	// Anchor: only valid as the first path segment after the scheme.
	if i < len(tokens) && strings.HasPrefix(tokens[i], "@") {
		anchor, ok := anchorForToken(tokens[i])
		if !ok {
			return Parsed{}, wrapMalformedAt(raw, i, "unknown anchor token "+tokens[i])
		}
		p.Anchor = anchor
		// An anchor replaces the root kind segment.
		p.Segments = nil
		i++
	}

	// Alternating kind / selector. A token in the kind vocabulary starts a
	// new segment; anything else attaches as the selector of the open
	// segment.
	for ; i < len(tokens); i++ {
		tok := tokens[i]
		if strings.HasPrefix(tok, "@") {
			return Parsed{}, wrapMalformedAt(raw, i, "anchor not at start of path")
		}

		if _, ok := entity.KindForSegment(tok); ok {
			p.Segments = append(p.Segments, Segment{Kind: tok})
			continue
		}

		last := len(p.Segments) - 1
		if last < 0 || p.Segments[last].Selector != "" {
			// A selector needs an open kind segment. Directly after an
			// anchor, or after a closed segment, the token is taken as a
			// kind and left for the resolver to reject as unknown.
			p.Segments = append(p.Segments, Segment{Kind: tok})
			continue
		}
		p.Segments[last].Selector = tok
	}

	return p, nil
}
