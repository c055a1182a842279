package index

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
)

// Memory is a brute-force cosine-distance store. It backs tests and small
// corpora; the production backend is Postgres.
type Memory struct {
	mu      sync.RWMutex
	ids     map[string]struct{}
	entries []Entry
	vectors [][]float32
}

func NewMemory() *Memory {
	return &Memory{ids: make(map[string]struct{})}
}

var _ Store = (*Memory)(nil)

func (m *Memory) Add(_ context.Context, entries []Entry, vectors [][]float32) error {
	if len(entries) != len(vectors) {
		return fmt.Errorf("entries and vectors length mismatch: %d vs %d", len(entries), len(vectors))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Uniqueness holds across the whole index, including within the batch
	// itself, and a rejected batch inserts nothing.
	batch := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		if _, ok := m.ids[entry.ID]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateID, entry.ID)
		}
		if _, ok := batch[entry.ID]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateID, entry.ID)
		}
		batch[entry.ID] = struct{}{}
	}

	for i, entry := range entries {
		m.ids[entry.ID] = struct{}{}
		m.entries = append(m.entries, entry)
		m.vectors = append(m.vectors, vectors[i])
	}

	return nil
}

func (m *Memory) Query(_ context.Context, vector []float32, k int, filter *Filter) ([]Hit, error) {
	if err := filter.validate(); err != nil {
		return nil, err
	}
	if k <= 0 {
		return nil, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	hits := make([]Hit, 0, len(m.entries))
	for i, entry := range m.entries {
		if !matches(entry, filter) {
			continue
		}
		hits = append(hits, Hit{Entry: entry, Distance: cosineDistance(vector, m.vectors[i])})
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })

	if k > len(hits) {
		k = len(hits)
	}
	return hits[:k], nil
}

func (m *Memory) GetAll(_ context.Context, filter *Filter) ([]Entry, error) {
	if err := filter.validate(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	entries := make([]Entry, 0, len(m.entries))
	for _, entry := range m.entries {
		if matches(entry, filter) {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

func (m *Memory) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries), nil
}

func matches(entry Entry, filter *Filter) bool {
	if filter == nil || filter.Category == "" {
		return true
	}
	return entry.Meta.Category == filter.Category
}

func cosineDistance(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}
