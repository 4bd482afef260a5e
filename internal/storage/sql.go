package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/codebuildervaibhav/shorts-vault/internal/types"
)

// Dialect selects the SQL flavour of a SQLStore
type Dialect string

// Supported dialects
const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// SQLStore keeps the cache in a single `cache` table
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
}

// NewSQLiteStore opens (or creates) a SQLite cache database
func NewSQLiteStore(dbPath string) (*SQLStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %v", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}
	// One writer keeps upserts from failing with SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	return newSQLStore(db, DialectSQLite)
}

// NewPostgresStore connects to Postgres through the pgx stdlib driver
func NewPostgresStore(ctx context.Context, dsn string) (*SQLStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is required")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return newSQLStore(db, DialectPostgres)
}

func newSQLStore(db *sql.DB, dialect Dialect) (*SQLStore, error) {
	s := &SQLStore{db: db, dialect: dialect}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLStore) migrate() error {
	tsType := "DATETIME"
	if s.dialect == DialectPostgres {
		tsType = "TIMESTAMPTZ"
	}

	statements := []string{
		fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS cache (
		resource_id TEXT PRIMARY KEY,
		source TEXT,
		raw_metadata TEXT,
		transcript TEXT,
		summary TEXT,
		updated_at %s NOT NULL
	)`, tsType),
		`CREATE INDEX IF NOT EXISTS idx_cache_updated_at ON cache(updated_at)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create table: %v", err)
		}
	}
	return nil
}

// Get retrieves one record by resource ID
func (s *SQLStore) Get(ctx context.Context, resourceID string) (*Record, error) {
	query := s.rebind(`
	SELECT resource_id, source, raw_metadata, transcript, summary, updated_at
	FROM cache WHERE resource_id = ?
	`)

	rec, err := scanRecord(s.db.QueryRowContext(ctx, query, resourceID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record %s: %w", resourceID, err)
	}
	return rec, nil
}

// Upsert writes the patch in one statement, coalescing unset fields with
// whatever the row already holds
func (s *SQLStore) Upsert(ctx context.Context, resourceID string, patch Patch) error {
	if patch.IsEmpty() {
		return nil
	}

	query := s.rebind(`
	INSERT INTO cache (resource_id, source, raw_metadata, transcript, summary, updated_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT (resource_id) DO UPDATE SET
		source = COALESCE(cache.source, excluded.source),
		raw_metadata = COALESCE(excluded.raw_metadata, cache.raw_metadata),
		transcript = COALESCE(excluded.transcript, cache.transcript),
		summary = COALESCE(excluded.summary, cache.summary),
		updated_at = excluded.updated_at
	`)

	_, err := s.db.ExecContext(ctx, query,
		resourceID,
		nullable(string(patch.Source)),
		nullable(string(patch.RawMetadata)),
		nullablePtr(patch.Transcript),
		nullablePtr(patch.Summary),
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert record %s: %v", resourceID, err)
	}
	return nil
}

// List returns all records, most recently updated first
func (s *SQLStore) List(ctx context.Context) ([]Record, error) {
	query := `
	SELECT resource_id, source, raw_metadata, transcript, summary, updated_at
	FROM cache ORDER BY updated_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %v", err)
	}
	defer rows.Close()

	records := make([]Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %v", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list records: %v", err)
	}

	return records, nil
}

// Close closes the database connection
func (s *SQLStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var (
		id                               string
		source, raw, transcript, summary sql.NullString
		updatedAt                        time.Time
	)
	if err := row.Scan(&id, &source, &raw, &transcript, &summary, &updatedAt); err != nil {
		return nil, err
	}

	rec := &Record{
		ResourceID:  id,
		Source:      decodeSource(id, source.String),
		RawMetadata: decodeRaw(id, raw.String),
		UpdatedAt:   updatedAt,
	}
	if transcript.Valid {
		rec.Transcript = &transcript.String
	}
	if summary.Valid {
		rec.Summary = &summary.String
	}
	return rec, nil
}

// rebind rewrites ? placeholders as $1..$n for Postgres
func (s *SQLStore) rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullablePtr(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
