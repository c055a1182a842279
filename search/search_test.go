package search_test

import (
	"context"
	"fmt"
	"io"
	"log"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coursekb/virtual-ta/embeddings"
	"github.com/coursekb/virtual-ta/index"
	"github.com/coursekb/virtual-ta/search"
)

// fixedEmbedder maps known texts to preset vectors and everything else to
// the unit x axis. A non-nil err fails every call.
type fixedEmbedder struct {
	byText map[string][]float32
	err    error
}

var _ embeddings.Embedder = (*fixedEmbedder)(nil)

func (f *fixedEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	vecs := make([][]float32, len(texts))
	for i, text := range texts {
		if vec, ok := f.byText[text]; ok {
			vecs[i] = vec
			continue
		}
		vecs[i] = []float32{1, 0}
	}
	return vecs, nil
}

// flakyStore wraps a Store and fails selected operations.
type flakyStore struct {
	index.Store
	failQuery  bool
	failGetAll bool
}

func (f *flakyStore) Query(ctx context.Context, vector []float32, k int, filter *index.Filter) ([]index.Hit, error) {
	if f.failQuery {
		return nil, fmt.Errorf("%w: connection refused", index.ErrUnavailable)
	}
	return f.Store.Query(ctx, vector, k, filter)
}

func (f *flakyStore) GetAll(ctx context.Context, filter *index.Filter) ([]index.Entry, error) {
	if f.failGetAll {
		return nil, fmt.Errorf("%w: connection refused", index.ErrUnavailable)
	}
	return f.Store.GetAll(ctx, filter)
}

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func newService(t *testing.T, store index.Store, embedder embeddings.Embedder) *search.Service {
	t.Helper()
	return search.NewService(store, embedder, quietLogger(), search.Options{})
}

type seedChunk struct {
	doc      int
	chunk    int
	text     string
	vector   []float32
	category index.Category
	title    string
	url      string
	username string
}

func seedStore(t *testing.T, chunks []seedChunk) *index.Memory {
	t.Helper()
	store := index.NewMemory()

	entries := make([]index.Entry, 0, len(chunks))
	vectors := make([][]float32, 0, len(chunks))
	for _, c := range chunks {
		category := c.category
		if category == "" {
			category = index.CategoryGeneral
		}
		entries = append(entries, index.Entry{
			ID:   index.ChunkID(c.doc, c.chunk),
			Text: c.text,
			Meta: index.Metadata{
				SourceDoc:  c.doc,
				ChunkIndex: c.chunk,
				Category:   category,
				Title:      c.title,
				URL:        c.url,
				Username:   c.username,
			},
		})
		vectors = append(vectors, c.vector)
	}
	require.NoError(t, store.Add(context.Background(), entries, vectors))
	return store
}
