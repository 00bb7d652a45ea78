package picker

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/dshills/dapscope/internal/entity"
)

// Match is an item that survived filtering, with scoring information.
type Match struct {
	// Entity is the matched entity.
	Entity entity.Entity

	// Label is the rendered label the match was scored against.
	Label string

	// Score is the match score (higher is better).
	Score int
}

// Scoring tiers. Within a tier, ties are broken by edit distance to the
// query, then by original listing order.
const (
	scoreExact     = 400
	scorePrefix    = 300
	scoreSubstring = 200
	scoreFuzzy     = 100
)

// Filter narrows a labeled item list by a query. An empty query keeps every
// item in listing order. Matching is case-insensitive: exact, prefix and
// substring matches rank above in-order subsequence matches; anything else
// is dropped.
func Filter(items []entity.Entity, label LabelFunc, query string) []Match {
	matches := make([]Match, 0, len(items))

	if query == "" {
		for _, item := range items {
			matches = append(matches, Match{Entity: item, Label: label(item)})
		}
		return matches
	}

	q := strings.ToLower(query)
	for _, item := range items {
		text := label(item)
		score, ok := scoreLabel(strings.ToLower(text), q)
		if !ok {
			continue
		}
		matches = append(matches, Match{Entity: item, Label: text, Score: score})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	return matches
}

// scoreLabel scores a lowercased label against a lowercased query.
func scoreLabel(text, q string) (int, bool) {
	var tier int
	switch {
	case text == q:
		tier = scoreExact
	case strings.HasPrefix(text, q):
		tier = scorePrefix
	case strings.Contains(text, q):
		tier = scoreSubstring
	case isSubsequence(text, q):
		tier = scoreFuzzy
	default:
		return 0, false
	}

	// Closer labels rank higher within a tier.
	dist := levenshtein.ComputeDistance(q, text)
	if dist > 99 {
		dist = 99
	}
	return tier + (99 - dist), true
}

// isSubsequence reports whether every rune of q appears in text in order.
func isSubsequence(text, q string) bool {
	runes := []rune(text)
	i := 0
	for _, want := range q {
		found := false
		for ; i < len(runes); i++ {
			if runes[i] == want {
				found = true
				i++
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
