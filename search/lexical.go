package search

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/coursekb/virtual-ta/index"
)

// Lexical ranks chunks by raw term frequency: the score is the summed
// substring occurrence count of each whitespace-separated query token in
// the lower-cased chunk text. Substring containment is intentional, not
// word-boundary aware. Ties keep scan order.
func (s *Service) Lexical(ctx context.Context, query string, k int, category index.Category) ([]Result, error) {
	entries, err := s.store.GetAll(ctx, categoryFilter(category))
	if err != nil {
		return nil, fmt.Errorf("corpus scan: %w", err)
	}

	tokens := strings.Fields(strings.ToLower(query))
	if len(tokens) == 0 {
		return nil, nil
	}

	results := make([]Result, 0)
	for _, entry := range entries {
		text := strings.ToLower(entry.Text)
		score := 0
		for _, token := range tokens {
			score += strings.Count(text, token)
		}
		if score == 0 {
			continue
		}

		results = append(results, Result{
			ID:           entry.ID,
			DocumentID:   index.DocumentID(entry.Meta.SourceDoc),
			Text:         entry.Text,
			Meta:         entry.Meta,
			LexicalScore: float64(score),
			Score:        float64(score),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].LexicalScore > results[j].LexicalScore
	})

	if k >= 0 && k < len(results) {
		results = results[:k]
	}
	return results, nil
}
