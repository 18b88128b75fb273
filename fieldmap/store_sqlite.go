package fieldmap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/petal-labs/recordflow/core"
)

const sqliteStoreSchema = `
CREATE TABLE IF NOT EXISTS field_aliases (
	resource TEXT NOT NULL,
	alias TEXT NOT NULL,
	canonical TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	PRIMARY KEY (resource, alias)
);`

const (
	defaultSQLiteStoreDir = ".recordflow"
	defaultSQLiteStoreDB  = "recordflow.db"
)

// SQLiteStoreConfig configures the SQLite-backed alias store.
type SQLiteStoreConfig struct {
	DSN string
}

// SQLiteStore persists workspace-defined field aliases in SQLite. Custom
// aliases are loaded once at startup and merged over the built-in tables
// via NewWithCustom; the store is never consulted on the request path.
type SQLiteStore struct {
	db *sql.DB
}

// DefaultSQLitePath returns the default SQLite path for CLI storage.
func DefaultSQLitePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("fieldmap: resolve user home: %w", err)
	}
	return filepath.Join(home, defaultSQLiteStoreDir, defaultSQLiteStoreDB), nil
}

// NewDefaultSQLiteStore creates a SQLite store at ~/.recordflow/recordflow.db.
func NewDefaultSQLiteStore() (*SQLiteStore, error) {
	path, err := DefaultSQLitePath()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("fieldmap: create store directory: %w", err)
	}
	return NewSQLiteStore(SQLiteStoreConfig{DSN: path})
}

// NewSQLiteStore opens (or creates) a SQLite-backed alias store.
func NewSQLiteStore(cfg SQLiteStoreConfig) (*SQLiteStore, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, errors.New("fieldmap: sqlite store dsn is required")
	}

	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("fieldmap: sqlite store open: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("fieldmap: sqlite store set WAL mode: %w", err)
	}

	if _, err := db.Exec(sqliteStoreSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("fieldmap: sqlite store create schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Put inserts or replaces a custom alias mapping.
func (s *SQLiteStore) Put(ctx context.Context, resource core.ResourceType, alias, canonical string) error {
	alias = strings.ToLower(strings.TrimSpace(alias))
	canonical = strings.TrimSpace(canonical)
	if alias == "" || canonical == "" {
		return errors.New("fieldmap: alias and canonical are required")
	}
	if !resource.Valid() {
		return core.NewAdapterError(core.ErrCodeInvalidResourceType,
			"unknown resource type %q", resource)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO field_aliases (resource, alias, canonical, updated_at) VALUES (?, ?, ?, ?)`,
		resource.String(), alias, canonical, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("fieldmap: sqlite store put: %w", err)
	}
	return nil
}

// Delete removes a custom alias mapping.
func (s *SQLiteStore) Delete(ctx context.Context, resource core.ResourceType, alias string) error {
	alias = strings.ToLower(strings.TrimSpace(alias))
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM field_aliases WHERE resource = ? AND alias = ?`,
		resource.String(), alias)
	if err != nil {
		return fmt.Errorf("fieldmap: sqlite store delete: %w", err)
	}
	return nil
}

// Load reads all custom alias mappings, grouped by resource type, in the
// shape NewWithCustom accepts.
func (s *SQLiteStore) Load(ctx context.Context) (map[core.ResourceType]map[string]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT resource, alias, canonical FROM field_aliases ORDER BY resource, alias`)
	if err != nil {
		return nil, fmt.Errorf("fieldmap: sqlite store load: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[core.ResourceType]map[string]string)
	for rows.Next() {
		var resource, alias, canonical string
		if err := rows.Scan(&resource, &alias, &canonical); err != nil {
			return nil, fmt.Errorf("fieldmap: sqlite store scan: %w", err)
		}
		rt := core.ResourceType(resource)
		table, ok := out[rt]
		if !ok {
			table = make(map[string]string)
			out[rt] = table
		}
		table[alias] = canonical
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("fieldmap: sqlite store iterate: %w", err)
	}
	return out, nil
}
