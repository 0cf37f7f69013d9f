package record

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
)

// Compile-time check to ensure PostgresStore satisfies the Store interface.
var _ Store = (*PostgresStore)(nil)

// PostgresStore is a Store backed by Postgres with the pgvector extension.
// One row per record, indexed by owner_id; vectors travel as the pgvector
// text encoding ("[0.1,0.2,...]").
type PostgresStore struct {
	db        *sql.DB
	dimension int
}

// NewPostgresStore opens a connection pool and returns a store instance.
func NewPostgresStore(databaseURL string, dimension int) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &PostgresStore{db: db, dimension: dimension}, nil
}

// Close closes the database connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// EnsureSchema creates the resumes table and supporting indexes if missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS resumes (
			id UUID PRIMARY KEY,
			owner_id TEXT NOT NULL,
			source_name VARCHAR(255) NOT NULL,
			source_location VARCHAR(500) NOT NULL,
			embedding vector(%d) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`, s.dimension),
		`CREATE INDEX IF NOT EXISTS idx_resumes_owner_id ON resumes (owner_id)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}

	return nil
}

// Put inserts a new record.
func (s *PostgresStore) Put(ctx context.Context, r *Record) error {
	if len(r.Vector) != s.dimension {
		return &ErrDimensionMismatch{Expected: s.dimension, Actual: len(r.Vector)}
	}

	query := `INSERT INTO resumes (id, owner_id, source_name, source_location, embedding, created_at)
	          VALUES ($1, $2, $3, $4, $5::vector, $6)`

	_, err := s.db.ExecContext(ctx, query,
		r.ID, r.OwnerID, r.SourceName, r.SourceLocation, vectorToString(r.Vector), r.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return ErrDuplicateID
		}
		return fmt.Errorf("put record: %w", err)
	}

	return nil
}

// Get returns the record for id.
func (s *PostgresStore) Get(ctx context.Context, id string) (*Record, error) {
	query := `SELECT id, owner_id, source_name, source_location, embedding::text, created_at
	          FROM resumes WHERE id = $1`

	r, err := scanRecord(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get record: %w", err)
	}

	return r, nil
}

// Delete removes the record for id after verifying ownership.
// The owner check and the delete run in one transaction so a concurrent
// delete cannot turn NotOwner into a silent success.
func (s *PostgresStore) Delete(ctx context.Context, id, ownerID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var storedOwner string
	err = tx.QueryRowContext(ctx, `SELECT owner_id FROM resumes WHERE id = $1 FOR UPDATE`, id).Scan(&storedOwner)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("delete record: %w", err)
	}
	if storedOwner != ownerID {
		return ErrNotOwner
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM resumes WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete record: %w", err)
	}

	return tx.Commit()
}

// ListByOwner returns all records of the owner in insertion order.
func (s *PostgresStore) ListByOwner(ctx context.Context, ownerID string) ([]*Record, error) {
	query := `SELECT id, owner_id, source_name, source_location, embedding::text, created_at
	          FROM resumes WHERE owner_id = $1 ORDER BY created_at, id`

	rows, err := s.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

// Hydrate batch-fetches records, omitting ids with no match. The result
// follows the order of ids, matching the in-memory store.
func (s *PostgresStore) Hydrate(ctx context.Context, ids []string) ([]*Record, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `SELECT id, owner_id, source_name, source_location, embedding::text, created_at
	          FROM resumes WHERE id = ANY($1)`

	rows, err := s.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("hydrate records: %w", err)
	}
	defer rows.Close()

	fetched, err := collectRecords(rows)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*Record, len(fetched))
	for _, r := range fetched {
		byID[r.ID] = r
	}

	records := make([]*Record, 0, len(ids))
	for _, id := range ids {
		if r, ok := byID[id]; ok {
			records = append(records, r)
		}
	}

	return records, nil
}

// ForEach visits every record in insertion order.
func (s *PostgresStore) ForEach(ctx context.Context, fn func(*Record) error) error {
	query := `SELECT id, owner_id, source_name, source_location, embedding::text, created_at
	          FROM resumes ORDER BY created_at, id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("scan records: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return fmt.Errorf("scan records: %w", err)
		}
		if err := fn(r); err != nil {
			return err
		}
	}

	return rows.Err()
}

// Len returns the number of stored records.
func (s *PostgresStore) Len(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM resumes`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var (
		r         Record
		vectorStr string
	)
	if err := row.Scan(&r.ID, &r.OwnerID, &r.SourceName, &r.SourceLocation, &vectorStr, &r.CreatedAt); err != nil {
		return nil, err
	}

	vec, err := parseVector(vectorStr)
	if err != nil {
		return nil, err
	}
	r.Vector = vec

	return &r, nil
}

func collectRecords(rows *sql.Rows) ([]*Record, error) {
	var records []*Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// vectorToString converts a float32 slice to pgvector string format: [0.1,0.2,0.3].
func vectorToString(v []float32) string {
	parts := make([]string, len(v))
	for i, val := range v {
		parts[i] = strconv.FormatFloat(float64(val), 'g', -1, 32)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// parseVector converts the pgvector text encoding back to a float32 slice.
func parseVector(s string) ([]float32, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '[' || s[len(s)-1] != ']' {
		return nil, fmt.Errorf("malformed vector text: %q", s)
	}
	body := s[1 : len(s)-1]
	if body == "" {
		return nil, nil
	}

	parts := strings.Split(body, ",")
	vec := make([]float32, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return nil, fmt.Errorf("malformed vector component %q: %w", p, err)
		}
		vec[i] = float32(f)
	}

	return vec, nil
}
