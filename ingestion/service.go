package ingestion

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/coursekb/virtual-ta/config"
	"github.com/coursekb/virtual-ta/embeddings"
	"github.com/coursekb/virtual-ta/index"
)

const DefaultMinContentLen = 30

// Service runs the offline ingest batch: normalize, chunk, categorize,
// embed, and write to the index. Serving is expected to start only after
// the batch completes.
type Service struct {
	store    index.Store
	embedder embeddings.Embedder
	logger   *log.Logger

	chunkSize     int
	chunkOverlap  int
	minContentLen int
	rules         []CategoryRule
}

func NewService(store index.Store, embedder embeddings.Embedder, logger *log.Logger, cfg config.RetrievalConfig) *Service {
	if logger == nil {
		logger = log.Default()
	}

	chunkSize := cfg.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	chunkOverlap := cfg.ChunkOverlap
	if chunkOverlap < 0 {
		chunkOverlap = DefaultChunkOverlap
	}
	minContentLen := cfg.MinContentLen
	if minContentLen <= 0 {
		minContentLen = DefaultMinContentLen
	}

	return &Service{
		store:         store,
		embedder:      embedder,
		logger:        logger,
		chunkSize:     chunkSize,
		chunkOverlap:  chunkOverlap,
		minContentLen: minContentLen,
		rules:         DefaultCategoryRules,
	}
}

// IngestDocuments chunks and indexes the batch. A document's position in
// the slice is its source-doc index, so skipped documents leave gaps rather
// than shifting identities. Per-document failures are logged and skipped;
// the batch continues. Returns the number of chunks indexed.
func (s *Service) IngestDocuments(ctx context.Context, docs []Document) (int, error) {
	if s.embedder == nil {
		return 0, fmt.Errorf("embedder not configured")
	}
	if s.store == nil {
		return 0, fmt.Errorf("index store not configured")
	}

	entries := make([]index.Entry, 0, len(docs))
	vectors := make([][]float32, 0, len(docs))

	for i, doc := range docs {
		content := strings.TrimSpace(doc.Content)
		if len(content) < s.minContentLen {
			s.logger.Printf("skip document %d: content below %d chars", i, s.minContentLen)
			continue
		}

		chunks := Chunk(content, s.chunkSize, s.chunkOverlap)
		if len(chunks) == 0 {
			continue
		}

		vecs, err := s.embedder.Embed(ctx, chunks)
		if err != nil {
			s.logger.Printf("skip document %d: embed failed: %v", i, err)
			continue
		}
		if len(vecs) != len(chunks) {
			s.logger.Printf("skip document %d: embedding count mismatch: %d chunks, %d vectors", i, len(chunks), len(vecs))
			continue
		}

		now := time.Now()
		for j, text := range chunks {
			entries = append(entries, index.Entry{
				ID:   index.ChunkID(i, j),
				Text: text,
				Meta: index.Metadata{
					SourceDoc:   i,
					ChunkIndex:  j,
					TotalChunks: len(chunks),
					Category:    CategorizeWith(s.rules, text, doc.Title),
					Title:       doc.Title,
					URL:         doc.URL,
					Username:    doc.Username,
					CreatedAt:   now,
				},
			})
			vectors = append(vectors, vecs[j])
		}
	}

	if len(entries) == 0 {
		s.logger.Printf("nothing to ingest")
		return 0, nil
	}

	if err := s.store.Add(ctx, entries, vectors); err != nil {
		return 0, fmt.Errorf("index chunks: %w", err)
	}

	s.logger.Printf("ingested %d chunks from %d documents", len(entries), len(docs))
	return len(entries), nil
}

// IngestDirectory loads every recognized export file under dir and ingests
// the combined corpus as one batch.
func (s *Service) IngestDirectory(ctx context.Context, dir string) (int, error) {
	if _, err := os.Stat(dir); err != nil {
		return 0, fmt.Errorf("data directory: %w", err)
	}

	paths := make([]string, 0)
	if err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		if DetectFormat(path) != FormatUnknown {
			paths = append(paths, path)
		}
		return nil
	}); err != nil {
		return 0, fmt.Errorf("walk data directory: %w", err)
	}
	sort.Strings(paths)

	if len(paths) == 0 {
		s.logger.Printf("no corpus files found in %s", dir)
		return 0, nil
	}

	docs := make([]Document, 0)
	for _, path := range paths {
		loaded, err := LoadDocuments(path)
		if err != nil {
			s.logger.Printf("skip %s: %v", path, err)
			continue
		}
		s.logger.Printf("loaded %d documents from %s", len(loaded), path)
		docs = append(docs, loaded...)
	}

	return s.IngestDocuments(ctx, docs)
}
