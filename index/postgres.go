package index

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

const pgUniqueViolation = "23505"

// Postgres stores chunks in the ta_chunks table with a pgvector embedding
// column, ordered by cosine distance at query time.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

var _ Store = (*Postgres)(nil)

func (s *Postgres) Add(ctx context.Context, entries []Entry, vectors [][]float32) error {
	if s.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if len(entries) != len(vectors) {
		return fmt.Errorf("entries and vectors length mismatch: %d vs %d", len(entries), len(vectors))
	}

	for start := 0; start < len(entries); start += MaxBatchSize {
		end := start + MaxBatchSize
		if end > len(entries) {
			end = len(entries)
		}
		if err := s.addBatch(ctx, entries[start:end], vectors[start:end]); err != nil {
			return err
		}
	}

	return nil
}

func (s *Postgres) addBatch(ctx context.Context, entries []Entry, vectors [][]float32) (err error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("%w: begin tx: %v", ErrUnavailable, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	for i, entry := range entries {
		_, execErr := tx.Exec(ctx, `
			INSERT INTO ta_chunks (id, chunk_uid, source_doc, chunk_index, total_chunks,
				content, title, url, username, category, embedding, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		`, uuid.New(), entry.ID, entry.Meta.SourceDoc, entry.Meta.ChunkIndex, entry.Meta.TotalChunks,
			entry.Text, entry.Meta.Title, entry.Meta.URL, entry.Meta.Username,
			string(entry.Meta.Category), pgvector.NewVector(vectors[i]), entry.Meta.CreatedAt)
		if execErr != nil {
			var pgErr *pgconn.PgError
			if errors.As(execErr, &pgErr) && pgErr.Code == pgUniqueViolation {
				return fmt.Errorf("%w: %s", ErrDuplicateID, entry.ID)
			}
			return fmt.Errorf("insert chunk %s: %w", entry.ID, execErr)
		}
	}

	if commitErr := tx.Commit(ctx); commitErr != nil {
		return fmt.Errorf("commit batch: %w", commitErr)
	}

	return nil
}

func (s *Postgres) Query(ctx context.Context, vector []float32, k int, filter *Filter) ([]Hit, error) {
	if err := filter.validate(); err != nil {
		return nil, err
	}
	if k <= 0 {
		return nil, nil
	}

	query := `
		SELECT chunk_uid, content, source_doc, chunk_index, total_chunks,
			title, url, username, category, created_at,
			(embedding <=> $1::vector) AS distance
		FROM ta_chunks`
	args := []any{pgvector.NewVector(vector)}
	if filter != nil && filter.Category != "" {
		query += " WHERE category = $2"
		args = append(args, string(filter.Category))
	}
	query += fmt.Sprintf(" ORDER BY embedding <=> $1::vector LIMIT %d", k)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: query chunks: %v", ErrUnavailable, err)
	}
	defer rows.Close()

	hits := make([]Hit, 0, k)
	for rows.Next() {
		var hit Hit
		if err := scanEntry(rows, &hit.Entry, &hit.Distance); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		hits = append(hits, hit)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("%w: read chunks: %v", ErrUnavailable, rows.Err())
	}

	return hits, nil
}

func (s *Postgres) GetAll(ctx context.Context, filter *Filter) ([]Entry, error) {
	if err := filter.validate(); err != nil {
		return nil, err
	}

	query := `
		SELECT chunk_uid, content, source_doc, chunk_index, total_chunks,
			title, url, username, category, created_at
		FROM ta_chunks`
	args := []any{}
	if filter != nil && filter.Category != "" {
		query += " WHERE category = $1"
		args = append(args, string(filter.Category))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: scan corpus: %v", ErrUnavailable, err)
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		var entry Entry
		if err := scanEntry(rows, &entry, nil); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		entries = append(entries, entry)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("%w: read corpus: %v", ErrUnavailable, rows.Err())
	}

	return entries, nil
}

func (s *Postgres) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM ta_chunks").Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: count chunks: %v", ErrUnavailable, err)
	}
	return count, nil
}

// Clear drops every indexed chunk. Rebuilding the index is the only
// supported form of deletion.
func (s *Postgres) Clear(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, "TRUNCATE ta_chunks"); err != nil {
		return fmt.Errorf("%w: truncate chunks: %v", ErrUnavailable, err)
	}
	return nil
}

func scanEntry(rows pgx.Rows, entry *Entry, distance *float64) error {
	var category string
	dest := []any{
		&entry.ID, &entry.Text, &entry.Meta.SourceDoc, &entry.Meta.ChunkIndex,
		&entry.Meta.TotalChunks, &entry.Meta.Title, &entry.Meta.URL,
		&entry.Meta.Username, &category, &entry.Meta.CreatedAt,
	}
	if distance != nil {
		dest = append(dest, distance)
	}
	if err := rows.Scan(dest...); err != nil {
		return err
	}
	entry.Meta.Category = Category(category)
	return nil
}
