package search

import (
	"context"
	"regexp"
	"sort"
	"strings"
)

// Ranker scores text chunks against a query and returns chunk indices in
// relevance order. It is the fallback collaborator the resolver consults
// when the literal cascade is exhausted; an LLM-backed implementation can
// be injected, but the engine only requires returned indices to be in
// bounds.
type Ranker interface {
	Rank(ctx context.Context, query string, chunks []string) ([]int, error)
}

// KeywordRanker ranks chunks by keyword overlap with the query. It is
// the default collaborator so the engine works without an LLM.
type KeywordRanker struct {
	// MinScore drops chunks scoring below it. Zero keeps any chunk with
	// at least one shared keyword.
	MinScore float64
}

// Rank implements Ranker.
func (r KeywordRanker) Rank(ctx context.Context, query string, chunks []string) ([]int, error) {
	queryKeywords := extractKeywords(query)

	type scored struct {
		index int
		score float64
	}
	var results []scored
	for i, chunk := range chunks {
		score := jaccardSimilarity(queryKeywords, extractKeywords(chunk))
		if score == 0 || score < r.MinScore {
			continue
		}
		results = append(results, scored{index: i, score: score})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].score > results[j].score
	})

	indices := make([]int, len(results))
	for i, s := range results {
		indices[i] = s.index
	}
	return indices, nil
}

var nonAlnumPattern = regexp.MustCompile(`[^a-z0-9]+`)

var stopWords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true, "but": true,
	"in": true, "on": true, "at": true, "to": true, "for": true, "of": true,
	"with": true, "by": true, "from": true, "as": true, "is": true, "was": true,
	"are": true, "were": true, "be": true, "been": true, "being": true,
	"shall": true, "will": true, "may": true, "must": true, "hereby": true,
	"this": true, "that": true, "these": true, "those": true, "such": true,
	"any": true, "all": true, "each": true, "other": true, "its": true,
}

func extractKeywords(text string) map[string]bool {
	words := nonAlnumPattern.Split(strings.ToLower(text), -1)
	keywords := make(map[string]bool)
	for _, word := range words {
		if len(word) > 2 && !stopWords[word] {
			keywords[word] = true
		}
	}
	return keywords
}

func jaccardSimilarity(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	intersection := 0
	for k := range a {
		if b[k] {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
