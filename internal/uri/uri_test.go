package uri

import (
	"errors"
	"reflect"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected Parsed
	}{
		{
			name: "root wildcard",
			raw:  "sessions",
			expected: Parsed{
				Scheme:   "sessions",
				Segments: []Segment{{Kind: "sessions"}},
			},
		},
		{
			name: "root literal",
			raw:  "sessions/s1",
			expected: Parsed{
				Scheme:   "sessions",
				Segments: []Segment{{Kind: "sessions", Selector: "s1"}},
			},
		},
		{
			name: "bare frame anchor",
			raw:  "@frame",
			expected: Parsed{
				Scheme: DefaultScheme,
				Anchor: AnchorFrame,
			},
		},
		{
			name: "anchored scopes",
			raw:  "@frame/scopes",
			expected: Parsed{
				Scheme:   DefaultScheme,
				Anchor:   AnchorFrame,
				Segments: []Segment{{Kind: "scopes"}},
			},
		},
		{
			name: "anchored stack frames",
			raw:  "@thread/stack/frames",
			expected: Parsed{
				Scheme:   DefaultScheme,
				Anchor:   AnchorThread,
				Segments: []Segment{{Kind: "stack"}, {Kind: "frames"}},
			},
		},
		{
			name: "explicit scheme with anchor",
			raw:  "sessions/@session/threads",
			expected: Parsed{
				Scheme:   "sessions",
				Anchor:   AnchorSession,
				Segments: []Segment{{Kind: "threads"}},
			},
		},
		{
			name: "deep literal path",
			raw:  "sessions/s1/threads/1/stack/frames/0",
			expected: Parsed{
				Scheme: "sessions",
				Segments: []Segment{
					{Kind: "sessions", Selector: "s1"},
					{Kind: "threads", Selector: "1"},
					{Kind: "stack"},
					{Kind: "frames", Selector: "0"},
				},
			},
		},
		{
			name: "wildcard then literal",
			raw:  "sessions/threads/1",
			expected: Parsed{
				Scheme: "sessions",
				Segments: []Segment{
					{Kind: "sessions"},
					{Kind: "threads", Selector: "1"},
				},
			},
		},
		{
			name: "unknown kind kept for resolver",
			raw:  "sessions/s1/widgets",
			expected: Parsed{
				Scheme: "sessions",
				Segments: []Segment{
					{Kind: "sessions", Selector: "s1"},
					{Kind: "widgets"},
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.raw)
			if err != nil {
				t.Fatalf("Parse(%q) error = %v", tt.raw, err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Parse(%q) = %+v, expected %+v", tt.raw, got, tt.expected)
			}
		})
	}
}

func TestParseMalformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "empty input", raw: ""},
		{name: "empty segment", raw: "sessions//threads"},
		{name: "trailing slash", raw: "sessions/"},
		{name: "unknown anchor", raw: "@cursor/scopes"},
		{name: "anchor past start", raw: "sessions/threads/@frame"},
		{name: "second anchor", raw: "@thread/@frame"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(tt.raw); !errors.Is(err, ErrMalformedURI) {
				t.Errorf("Parse(%q) error = %v, expected ErrMalformedURI", tt.raw, err)
			}
		})
	}
}

func TestParseIsDeterministic(t *testing.T) {
	raws := []string{
		"sessions",
		"@frame/scopes",
		"sessions/s1/threads/1/stack/frames",
		"@thread/stack/frames/0/scopes/Locals/variables",
	}

	for _, raw := range raws {
		first, err := Parse(raw)
		if err != nil {
			t.Fatalf("Parse(%q) error = %v", raw, err)
		}
		second, err := Parse(raw)
		if err != nil {
			t.Fatalf("Parse(%q) second error = %v", raw, err)
		}
		if !reflect.DeepEqual(first, second) {
			t.Errorf("Parse(%q) not deterministic: %+v vs %+v", raw, first, second)
		}
	}
}

func TestParsedHasWildcard(t *testing.T) {
	wild, _ := Parse("sessions/s1/threads")
	if !wild.HasWildcard() {
		t.Error("HasWildcard() = false for sessions/s1/threads")
	}

	literal, _ := Parse("sessions/s1/threads/1")
	if literal.HasWildcard() {
		t.Error("HasWildcard() = true for sessions/s1/threads/1")
	}
}

func TestParsedString(t *testing.T) {
	tests := []struct {
		raw      string
		expected string
	}{
		{raw: "sessions/s1/threads/1", expected: "sessions/s1/threads/1"},
		{raw: "@frame/scopes", expected: "sessions/@frame/scopes"},
		{raw: "sessions", expected: "sessions"},
	}

	for _, tt := range tests {
		p, err := Parse(tt.raw)
		if err != nil {
			t.Fatalf("Parse(%q) error = %v", tt.raw, err)
		}
		if got := p.String(); got != tt.expected {
			t.Errorf("String() = %q, expected %q", got, tt.expected)
		}
	}
}
