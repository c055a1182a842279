// Package index defines the persistent chunk store: id -> (text, metadata,
// embedding), with vector similarity queries and exact metadata filters.
package index

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Category is the coarse topical label assigned to every chunk.
type Category string

const (
	CategoryAssignment Category = "assignment"
	CategoryExam       Category = "exam"
	CategoryTechnical  Category = "technical"
	CategoryCourse     Category = "course"
	CategoryGeneral    Category = "general"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryAssignment, CategoryExam, CategoryTechnical, CategoryCourse, CategoryGeneral:
		return true
	}
	return false
}

var (
	// ErrDuplicateID reports an id collision on insert. Inserts never
	// silently overwrite; the caller decides skip-or-fail.
	ErrDuplicateID = errors.New("duplicate chunk id")
	// ErrUnavailable reports that the backing store could not be reached.
	ErrUnavailable = errors.New("index backend unavailable")
	// ErrBadFilter reports an unsupported category filter value.
	ErrBadFilter = errors.New("unsupported filter")
)

// Metadata carries the per-chunk fields persisted alongside the text.
type Metadata struct {
	SourceDoc   int
	ChunkIndex  int
	TotalChunks int
	Category    Category
	Title       string
	URL         string
	Username    string
	CreatedAt   time.Time
}

// Entry is one indexed chunk. ID is derived from (SourceDoc, ChunkIndex)
// and is unique across the whole index.
type Entry struct {
	ID   string
	Text string
	Meta Metadata
}

// Hit is an Entry returned by a vector query, with its embedding distance.
type Hit struct {
	Entry
	Distance float64
}

// Filter restricts queries to chunks whose metadata matches exactly.
type Filter struct {
	Category Category
}

func (f *Filter) validate() error {
	if f == nil {
		return nil
	}
	if f.Category != "" && !f.Category.Valid() {
		return fmt.Errorf("%w: category %q", ErrBadFilter, f.Category)
	}
	return nil
}

// MaxBatchSize is the largest insert batch sent to the backend in one call.
// Add re-batches larger inputs transparently.
const MaxBatchSize = 5000

// Store is the index contract. Insertion is append-only; entries are
// immutable after Add and removed only by a whole-index rebuild.
type Store interface {
	Add(ctx context.Context, entries []Entry, vectors [][]float32) error
	Query(ctx context.Context, vector []float32, k int, filter *Filter) ([]Hit, error)
	GetAll(ctx context.Context, filter *Filter) ([]Entry, error)
	Count(ctx context.Context) (int, error)
}

// ChunkID renders the stable string identity of a chunk.
func ChunkID(sourceDoc, chunkIndex int) string {
	return fmt.Sprintf("doc_%d_chunk_%d", sourceDoc, chunkIndex)
}

// DocumentID renders the identity of a chunk's originating document, the
// deduplication key for fused result sets.
func DocumentID(sourceDoc int) string {
	return fmt.Sprintf("doc_%d", sourceDoc)
}
