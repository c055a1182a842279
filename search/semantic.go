package search

import (
	"context"
	"fmt"

	"github.com/coursekb/virtual-ta/index"
)

// Semantic ranks chunks by embedding similarity. The query is embedded with
// the same model the corpus was indexed with; distances are mapped to
// similarity via 1 - min(d, 1), so anything beyond distance 1 saturates to
// a score of 0.
func (s *Service) Semantic(ctx context.Context, query string, k int, category index.Category) ([]Result, error) {
	if s.embedder == nil {
		return nil, fmt.Errorf("embedder not configured")
	}

	vectors, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("embedder returned no vectors")
	}

	hits, err := s.store.Query(ctx, vectors[0], k, categoryFilter(category))
	if err != nil {
		return nil, fmt.Errorf("vector query: %w", err)
	}

	results := make([]Result, 0, len(hits))
	for _, hit := range hits {
		score := distanceToScore(hit.Distance)
		results = append(results, Result{
			ID:            hit.ID,
			DocumentID:    index.DocumentID(hit.Meta.SourceDoc),
			Text:          hit.Text,
			Meta:          hit.Meta,
			SemanticScore: score,
			Score:         score,
		})
	}

	return results, nil
}

func distanceToScore(d float64) float64 {
	if d > 1 {
		d = 1
	}
	score := 1 - d
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
