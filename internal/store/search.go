package store

import (
	"sort"
	"strings"

	"github.com/rcliao/ctxmem/internal/classify"
	"github.com/rcliao/ctxmem/internal/model"
)

const (
	defaultSearchLimit = 10
	substringWeight    = 0.5
	overlapWeight      = 0.3
	tagWeight          = 0.2
	minSimilarity      = 0.1
)

// SearchResult is a single lexical match.
type SearchResult struct {
	ID         string            `json:"id"`
	Item       model.ContextItem `json:"item"`
	Similarity float64           `json:"similarity"`
}

// Search ranks items by lexical similarity to query. Ties keep insertion order.
// A blank query matches nothing.
func (s *Store) Search(query string, maxResults int) []SearchResult {
	if maxResults <= 0 {
		maxResults = defaultSearchLimit
	}
	q := classify.Fold(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	words := uniqueWords(q)

	s.mu.RLock()
	entries := s.entries()
	s.mu.RUnlock()

	var results []SearchResult
	for _, e := range entries {
		sim := similarity(q, words, e.Item)
		if sim > minSimilarity {
			results = append(results, SearchResult{ID: e.ID, Item: e.Item, Similarity: sim})
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	if len(results) > maxResults {
		results = results[:maxResults]
	}
	return results
}

func similarity(query string, queryWords map[string]struct{}, item model.ContextItem) float64 {
	content := classify.Fold(item.Content)

	var sim float64
	if strings.Contains(content, query) {
		sim += substringWeight
	}
	if len(queryWords) > 0 {
		contentWords := uniqueWords(content)
		shared := 0
		for w := range queryWords {
			if _, ok := contentWords[w]; ok {
				shared++
			}
		}
		sim += overlapWeight * float64(shared) / float64(len(queryWords))
	}
	for _, tag := range item.Tags {
		if _, ok := queryWords[classify.Fold(tag)]; ok {
			sim += tagWeight
			break
		}
	}
	return sim
}

func uniqueWords(s string) map[string]struct{} {
	fields := strings.Fields(s)
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}
