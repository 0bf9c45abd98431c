// Package pgvector implements the vector store boundary on Postgres with
// the pgvector extension. Each collection is one table, created on demand
// because the vector column's dimensionality is only known at indexing time.
package pgvector

import (
	"context"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	pgv "github.com/pgvector/pgvector-go"

	"github.com/lectio-dev/lectio/internal/domain"
)

var collectionNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]{0,62}$`)

// Store persists records in one Postgres table per collection.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a Store backed by the given connection pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// EnsureCollection creates the collection table if absent and verifies the
// embedding column dimensionality of an existing one.
func (s *Store) EnsureCollection(ctx context.Context, schema domain.CollectionSchema) error {
	if !collectionNamePattern.MatchString(schema.Name) {
		return domain.NewDomainError(domain.ErrCodeValidation,
			fmt.Sprintf("invalid collection name %q", schema.Name))
	}

	if _, err := s.pool.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS vector`); err != nil {
		return wrapConnErr("failed to enable pgvector extension", err)
	}

	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id uuid PRIMARY KEY,
		file text NOT NULL,
		content text NOT NULL,
		chunk_offset integer NOT NULL,
		embedding vector(%d) NOT NULL
	)`, pgx.Identifier{schema.Name}.Sanitize(), schema.Dimension)
	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return wrapConnErr("failed to create collection table", err)
	}

	// CREATE TABLE IF NOT EXISTS leaves an existing table untouched, so
	// check the embedding column against the schema explicitly.
	var typmod int
	err := s.pool.QueryRow(ctx,
		`SELECT atttypmod FROM pg_attribute WHERE attrelid = $1::regclass AND attname = 'embedding'`,
		schema.Name,
	).Scan(&typmod)
	if err != nil {
		return wrapConnErr("failed to inspect collection schema", err)
	}
	if typmod != schema.Dimension {
		return domain.NewDomainError(domain.ErrCodeModelError,
			fmt.Sprintf("collection %q has dimension %d, model %q produces %d", schema.Name, typmod, schema.Model, schema.Dimension))
	}
	return nil
}

// Upsert inserts or overwrites records by id.
func (s *Store) Upsert(ctx context.Context, collection string, records []domain.Record) error {
	if len(records) == 0 {
		return nil
	}
	if !collectionNamePattern.MatchString(collection) {
		return domain.NewDomainError(domain.ErrCodeValidation,
			fmt.Sprintf("invalid collection name %q", collection))
	}

	query := fmt.Sprintf(`INSERT INTO %s (id, file, content, chunk_offset, embedding)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			file = EXCLUDED.file,
			content = EXCLUDED.content,
			chunk_offset = EXCLUDED.chunk_offset,
			embedding = EXCLUDED.embedding`, pgx.Identifier{collection}.Sanitize())

	batch := &pgx.Batch{}
	for _, rec := range records {
		batch.Queue(query, rec.ID, rec.Payload.File, rec.Payload.Text, rec.Payload.Offset, pgv.NewVector(rec.Vector))
	}
	if err := s.pool.SendBatch(ctx, batch).Close(); err != nil {
		return wrapConnErr("failed to upsert records", err)
	}
	return nil
}

// Search returns up to limit records nearest to vector by cosine distance,
// converted to a "higher is better" similarity score.
func (s *Store) Search(ctx context.Context, collection string, vector []float32, limit int) ([]domain.ScoredRecord, error) {
	if !collectionNamePattern.MatchString(collection) {
		return nil, domain.NewDomainError(domain.ErrCodeValidation,
			fmt.Sprintf("invalid collection name %q", collection))
	}

	query := fmt.Sprintf(`SELECT id, file, content, chunk_offset, 1 - (embedding <=> $1) AS score
		FROM %s
		ORDER BY embedding <=> $1, id
		LIMIT $2`, pgx.Identifier{collection}.Sanitize())

	rows, err := s.pool.Query(ctx, query, pgv.NewVector(vector), limit)
	if err != nil {
		return nil, wrapConnErr("failed to search collection", err)
	}
	defer rows.Close()

	var results []domain.ScoredRecord
	for rows.Next() {
		var rec domain.ScoredRecord
		if err := rows.Scan(&rec.ID, &rec.Payload.File, &rec.Payload.Text, &rec.Payload.Offset, &rec.Score); err != nil {
			return nil, fmt.Errorf("failed to scan search result: %w", err)
		}
		results = append(results, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapConnErr("failed to read search results", err)
	}
	return results, nil
}

// wrapConnErr maps connection-level failures to SERVICE_UNAVAILABLE while
// keeping SQL-level errors as plain internal errors.
func wrapConnErr(msg string, err error) error {
	if pgconn.Timeout(err) || pgconn.SafeToRetry(err) {
		return domain.NewDomainErrorWithCause(domain.ErrCodeServiceUnavailable, msg, err)
	}
	return fmt.Errorf("%s: %w", msg, err)
}
