package search

import (
	"context"
	"fmt"

	"github.com/coursekb/virtual-ta/index"
)

// Stats is the diagnostics surface over the corpus.
type Stats struct {
	TotalDocuments int                    `json:"total_documents"`
	Categories     map[index.Category]int `json:"categories"`
}

// Stats reports the chunk count and the per-category breakdown.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	count, err := s.store.Count(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("count corpus: %w", err)
	}

	entries, err := s.store.GetAll(ctx, nil)
	if err != nil {
		return Stats{}, fmt.Errorf("scan corpus: %w", err)
	}

	categories := make(map[index.Category]int)
	for _, entry := range entries {
		categories[entry.Meta.Category]++
	}

	return Stats{TotalDocuments: count, Categories: categories}, nil
}

// Browse returns up to limit chunks from one category, in scan order.
func (s *Service) Browse(ctx context.Context, category index.Category, limit int) ([]index.Entry, error) {
	entries, err := s.store.GetAll(ctx, categoryFilter(category))
	if err != nil {
		return nil, fmt.Errorf("scan category: %w", err)
	}
	if limit > 0 && limit < len(entries) {
		entries = entries[:limit]
	}
	return entries, nil
}
