package search

import (
	"context"
	"sort"

	"github.com/coursekb/virtual-ta/index"
)

// Hybrid fuses semantic and lexical rankings into one deduplicated list of
// at most k results. Both retrievers over-fetch 2k candidates; records are
// keyed by the originating document, so near-duplicate chunks of one source
// never occupy separate top-k slots. A failure in either retrieval path is
// logged and absorbed: the other path still contributes, and the worst case
// is an empty list, never an error.
func (s *Service) Hybrid(ctx context.Context, query string, k int, category index.Category) []Result {
	if k <= 0 {
		return nil
	}

	semantic, err := s.Semantic(ctx, query, k*2, category)
	if err != nil {
		s.logger.Printf("semantic retrieval failed: %v", err)
		semantic = nil
	}

	lexical, err := s.Lexical(ctx, query, k*2, category)
	if err != nil {
		s.logger.Printf("lexical retrieval failed: %v", err)
		lexical = nil
	}

	combined := make(map[int]*Result, len(semantic)+len(lexical))
	order := make([]int, 0, len(semantic)+len(lexical))

	for _, hit := range semantic {
		doc := hit.Meta.SourceDoc
		record, ok := combined[doc]
		if !ok {
			record = &Result{}
			combined[doc] = record
			order = append(order, doc)
		}
		*record = hit
		record.LexicalScore = 0
	}

	for _, hit := range lexical {
		normalized := hit.LexicalScore / s.opts.LexicalDivisor
		if normalized > 1 {
			normalized = 1
		}

		doc := hit.Meta.SourceDoc
		if record, ok := combined[doc]; ok {
			record.LexicalScore = normalized
			continue
		}

		record := hit
		record.SemanticScore = 0
		record.LexicalScore = normalized
		combined[doc] = &record
		order = append(order, doc)
	}

	results := make([]Result, 0, len(order))
	for _, doc := range order {
		record := combined[doc]
		record.Score = record.SemanticScore*s.opts.SemanticWeight +
			record.LexicalScore*(1-s.opts.SemanticWeight)
		results = append(results, *record)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if k < len(results) {
		results = results[:k]
	}
	return results
}

// Search is the serving contract: hybrid retrieval over the whole corpus.
// An empty list means no context is available, whether because nothing
// matched or because the backend failed; callers degrade identically.
func (s *Service) Search(ctx context.Context, query string, k int) []Result {
	return s.Hybrid(ctx, query, k, "")
}
