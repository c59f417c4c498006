package service

import (
	"sort"
	"strings"
)

// FuzzyMatcher provides approximate matching of a query against catalog names.
// It holds no mutable state and is safe for concurrent use.
type FuzzyMatcher struct {
	n int // gram size
}

// NewFuzzyMatcher creates a trigram matcher
func NewFuzzyMatcher() *FuzzyMatcher {
	return &FuzzyMatcher{n: 3}
}

// Suggest returns up to limit candidates whose similarity to query is at
// least threshold, best first. Ties keep candidate order.
func (fm *FuzzyMatcher) Suggest(query string, candidates []string, threshold float64, limit int) []string {
	type scored struct {
		name string
		sim  float64
	}
	var hits []scored
	for _, c := range candidates {
		if sim := fm.JaccardSimilarity(query, c); sim >= threshold {
			hits = append(hits, scored{c, sim})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].sim > hits[j].sim })

	var out []string
	for _, h := range hits {
		if limit > 0 && len(out) >= limit {
			break
		}
		out = append(out, h.name)
	}
	return out
}

// generateNGrams splits a lower-cased string into rune n-grams
func (fm *FuzzyMatcher) generateNGrams(s string) map[string]bool {
	runes := []rune(strings.ToLower(strings.TrimSpace(s)))
	grams := make(map[string]bool)
	if len(runes) == 0 {
		return grams
	}
	if len(runes) < fm.n {
		grams[string(runes)] = true
		return grams
	}
	for i := 0; i <= len(runes)-fm.n; i++ {
		grams[string(runes[i:i+fm.n])] = true
	}
	return grams
}

// JaccardSimilarity calculates Jaccard similarity of character n-grams
func (fm *FuzzyMatcher) JaccardSimilarity(s1, s2 string) float64 {
	set1 := fm.generateNGrams(s1)
	set2 := fm.generateNGrams(s2)

	intersection := 0
	for g := range set1 {
		if set2[g] {
			intersection++
		}
	}
	union := len(set1) + len(set2) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
