package cache

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/adminpanel/internal/config"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 1 - resolved_configs table
const currentSchemaVersion = 1

// SQLite persists resolved trees across restarts.
// Uses WAL mode so several processes can share one cache file.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite creates or opens a cache database at path.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode
//   - 5-second busy timeout for lock contention
//
// Opening is idempotent.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to cache database: %w", err)
	}

	// SQLite supports one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Get implements pipeline.Cache. Entries written with another format
// version are reported as misses.
func (s *SQLite) Get(ctx context.Context, fingerprint string) (*config.Tree, bool, error) {
	var (
		version int
		data    string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT format_version, tree FROM resolved_configs WHERE fingerprint = ?
	`, fingerprint).Scan(&version, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read cached config: %w", err)
	}
	if version != config.FormatVersion {
		return nil, false, nil
	}

	tree, err := config.Decode([]byte(data))
	if err != nil {
		return nil, false, fmt.Errorf("read cached config: %w", err)
	}
	return tree, true, nil
}

// Save implements pipeline.Cache. The last writer wins; every writer of a
// fingerprint writes the same content.
func (s *SQLite) Save(ctx context.Context, fingerprint string, tree *config.Tree) error {
	data, err := tree.Encode()
	if err != nil {
		return fmt.Errorf("write cached config: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO resolved_configs (fingerprint, format_version, tree)
		VALUES (?, ?, ?)
		ON CONFLICT(fingerprint) DO UPDATE SET
			format_version = excluded.format_version,
			tree = excluded.tree
	`, fingerprint, tree.Version, string(data))
	if err != nil {
		return fmt.Errorf("write cached config: %w", err)
	}
	return nil
}

// Len returns the number of cached entries.
func (s *SQLite) Len(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM resolved_configs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count cached configs: %w", err)
	}
	return n, nil
}

// Clear removes every cached entry.
func (s *SQLite) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM resolved_configs`); err != nil {
		return fmt.Errorf("clear cached configs: %w", err)
	}
	return nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

// applySchema creates tables if they don't exist and records the schema
// version. A database written by a newer build is refused.
func applySchema(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version > currentSchemaVersion {
		return fmt.Errorf("cache schema version %d is newer than supported version %d", version, currentSchemaVersion)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *SQLite) verifyPragma(name, expected string) error {
	var value string
	if err := s.db.QueryRow(fmt.Sprintf("PRAGMA %s", name)).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
