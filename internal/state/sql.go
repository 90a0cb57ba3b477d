package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	_ "modernc.org/sqlite"             // registers the "sqlite" driver
)

// Dialect names the SQL flavour behind a SQLBackend.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

type dialectSQL struct {
	driver   string
	schema   string
	get      string
	put      string
	create   string
	delete   string
	deleteIf string
}

var dialects = map[Dialect]dialectSQL{
	DialectSQLite: {
		driver: "sqlite",
		schema: `
	CREATE TABLE IF NOT EXISTS watch_state (
		partition TEXT NOT NULL,
		key TEXT NOT NULL,
		value BLOB NOT NULL,
		updated_at INTEGER NOT NULL,
		PRIMARY KEY (partition, key)
	);`,
		get: "SELECT value FROM watch_state WHERE partition = ? AND key = ?",
		put: `INSERT INTO watch_state (partition, key, value, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (partition, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		create: `INSERT INTO watch_state (partition, key, value, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (partition, key) DO NOTHING`,
		delete:   "DELETE FROM watch_state WHERE partition = ? AND key = ?",
		deleteIf: "DELETE FROM watch_state WHERE partition = ? AND key = ? AND value = ?",
	},
	DialectPostgres: {
		driver: "pgx",
		schema: `
	CREATE TABLE IF NOT EXISTS watch_state (
		partition TEXT NOT NULL,
		key TEXT NOT NULL,
		value BYTEA NOT NULL,
		updated_at BIGINT NOT NULL,
		PRIMARY KEY (partition, key)
	);`,
		get: "SELECT value FROM watch_state WHERE partition = $1 AND key = $2",
		put: `INSERT INTO watch_state (partition, key, value, updated_at) VALUES ($1, $2, $3, $4)
		ON CONFLICT (partition, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		create: `INSERT INTO watch_state (partition, key, value, updated_at) VALUES ($1, $2, $3, $4)
		ON CONFLICT (partition, key) DO NOTHING`,
		delete:   "DELETE FROM watch_state WHERE partition = $1 AND key = $2",
		deleteIf: "DELETE FROM watch_state WHERE partition = $1 AND key = $2 AND value = $3",
	},
}

// SQLBackend stores records as rows of the watch_state table.
type SQLBackend struct {
	db      *sql.DB
	dialect Dialect
	q       dialectSQL
}

// NewSQLBackend opens dsn with the driver for dialect and creates the schema.
// For sqlite use ":memory:" or a file path; for postgres a pgx connection string.
func NewSQLBackend(ctx context.Context, dialect Dialect, dsn string) (*SQLBackend, error) {
	q, ok := dialects[dialect]
	if !ok {
		return nil, fmt.Errorf("unsupported sql dialect %q", dialect)
	}

	db, err := sql.Open(q.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", dialect, err)
	}
	if dialect == DialectSQLite {
		// a single connection keeps ":memory:" databases shared and serialises writers
		db.SetMaxOpenConns(1)
	}

	b := &SQLBackend{db: db, dialect: dialect, q: q}
	if _, err := db.ExecContext(ctx, q.schema); err != nil {
		_ = db.Close() // Best effort cleanup on initialization error
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return b, nil
}

func (s *SQLBackend) Get(ctx context.Context, partition, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, s.q.get, partition, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select %s/%s: %w", partition, key, err)
	}
	return value, nil
}

func (s *SQLBackend) Put(ctx context.Context, partition, key string, value []byte) error {
	if _, err := s.db.ExecContext(ctx, s.q.put, partition, key, value, time.Now().Unix()); err != nil {
		return fmt.Errorf("upsert %s/%s: %w", partition, key, err)
	}
	return nil
}

// Create relies on the primary key: a conflicting insert affects no rows.
func (s *SQLBackend) Create(ctx context.Context, partition, key string, value []byte) error {
	res, err := s.db.ExecContext(ctx, s.q.create, partition, key, value, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("insert %s/%s: %w", partition, key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert %s/%s: %w", partition, key, err)
	}
	if n == 0 {
		return ErrExists
	}
	return nil
}

func (s *SQLBackend) Delete(ctx context.Context, partition, key string) error {
	if _, err := s.db.ExecContext(ctx, s.q.delete, partition, key); err != nil {
		return fmt.Errorf("delete %s/%s: %w", partition, key, err)
	}
	return nil
}

func (s *SQLBackend) DeleteIf(ctx context.Context, partition, key string, expected []byte) (bool, error) {
	res, err := s.db.ExecContext(ctx, s.q.deleteIf, partition, key, expected)
	if err != nil {
		return false, fmt.Errorf("delete %s/%s: %w", partition, key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete %s/%s: %w", partition, key, err)
	}
	return n > 0, nil
}

func (s *SQLBackend) Close() error {
	return s.db.Close()
}
