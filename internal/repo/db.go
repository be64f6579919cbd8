package repo

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

var (
	// ErrNodeNotFound is returned for unknown node ids.
	ErrNodeNotFound = errors.New("node not found")
	// ErrEdgeNotFound is returned when no open edge has the given id.
	ErrEdgeNotFound = errors.New("open edge not found")
)

// Store is the SQLite-backed graph store: context nodes, relationship edges
// and pattern reports.
type Store struct {
	db   *sql.DB
	Path string
}

// Open opens (or creates) the database at path, configures pragmas and runs
// migrations.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return initStore(sqlDB, path)
}

// OpenMemory opens a private in-memory database, for tests.
func OpenMemory() (*Store, error) {
	sqlDB, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open sqlite memory: %w", err)
	}
	// :memory: databases are per connection
	sqlDB.SetMaxOpenConns(1)
	return initStore(sqlDB, ":memory:")
}

func initStore(sqlDB *sql.DB, path string) (*Store, error) {
	s := &Store{db: sqlDB, Path: path}
	if err := s.configurePragmas(); err != nil {
		sqlDB.Close()
		return nil, err
	}
	if err := s.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) configurePragmas() error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := s.db.Exec(p); err != nil {
			return fmt.Errorf("pragma %q: %w", p, err)
		}
	}
	return nil
}
