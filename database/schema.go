package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureSchema creates the chunk table and its indexes. The logical chunk
// identity (doc_<i>_chunk_<j>) is a unique column separate from the row key.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("embedding dimension must be positive")
	}

	stmts := []string{
		"CREATE EXTENSION IF NOT EXISTS vector",
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS ta_chunks (
			id UUID PRIMARY KEY,
			chunk_uid TEXT UNIQUE NOT NULL,
			source_doc INT NOT NULL,
			chunk_index INT NOT NULL,
			total_chunks INT NOT NULL,
			content TEXT NOT NULL,
			title TEXT,
			url TEXT,
			username TEXT,
			category TEXT NOT NULL,
			embedding VECTOR(%d) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`, dimension),
		"CREATE INDEX IF NOT EXISTS idx_ta_chunks_category ON ta_chunks(category)",
		"CREATE INDEX IF NOT EXISTS idx_ta_chunks_source_doc ON ta_chunks(source_doc)",
		"CREATE INDEX IF NOT EXISTS idx_ta_chunks_embedding ON ta_chunks USING ivfflat (embedding vector_cosine_ops)",
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("execute schema statement: %w", err)
		}
	}

	return nil
}
