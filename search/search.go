// Package search implements hybrid retrieval over the chunk index: dense
// similarity and lexical term matching, fused into one ranked list, plus
// the offline quality evaluator.
package search

import (
	"log"

	"github.com/coursekb/virtual-ta/embeddings"
	"github.com/coursekb/virtual-ta/index"
)

const (
	// DefaultSemanticWeight is the dense-score share in the fused score.
	DefaultSemanticWeight = 0.7
	// DefaultLexicalDivisor maps raw term frequencies into [0,1] via
	// min(freq/divisor, 1).
	DefaultLexicalDivisor = 10
)

// Result is one ranked hit. Ephemeral: produced per call, never persisted.
type Result struct {
	ID         string
	DocumentID string
	Text       string
	Meta       index.Metadata

	SemanticScore float64
	LexicalScore  float64
	Score         float64
}

// Options tunes score fusion. The defaults match the published evaluation
// baselines.
type Options struct {
	SemanticWeight float64
	LexicalDivisor float64
}

// Service answers retrieval queries against an injected index.Store. The
// store is read-only at query time; Service keeps no mutable state.
type Service struct {
	store    index.Store
	embedder embeddings.Embedder
	logger   *log.Logger
	opts     Options
}

func NewService(store index.Store, embedder embeddings.Embedder, logger *log.Logger, opts Options) *Service {
	if logger == nil {
		logger = log.Default()
	}
	if opts.SemanticWeight <= 0 || opts.SemanticWeight > 1 {
		opts.SemanticWeight = DefaultSemanticWeight
	}
	if opts.LexicalDivisor <= 0 {
		opts.LexicalDivisor = DefaultLexicalDivisor
	}

	return &Service{
		store:    store,
		embedder: embedder,
		logger:   logger,
		opts:     opts,
	}
}

func categoryFilter(category index.Category) *index.Filter {
	if category == "" {
		return nil
	}
	return &index.Filter{Category: category}
}
