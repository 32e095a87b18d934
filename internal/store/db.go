// Package store implements obdsentryd's embedded, single-writer SQLite
// database: schema migrations, batched Reading writes, and row-level
// access for every other entity in the data model.
package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/pressly/goose/v3"
	// Pure-Go SQLite driver (no CGO): a daemon on a small single-board
	// computer should not need a C toolchain to build.
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store is the sole writer to the embedded database (SetMaxOpenConns(1)
// below enforces this at the driver level, so WAL readers never contend
// with the one writer connection).
type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// Open opens (creating if necessary) the database at path with WAL
// journaling, foreign keys, and the configured synchronous mode set on
// every connection. The pragmas are baked into the DSN itself, so no
// connection in the pool can be handed out unconfigured.
func Open(ctx context.Context, path string, synchronous string, busyTimeoutMs int, logger *slog.Logger) (*Store, error) {
	dsn := fmt.Sprintf(
		"file:%s?_pragma=journal_mode(WAL)&_pragma=synchronous(%s)"+
			"&_pragma=foreign_keys(ON)&_pragma=busy_timeout(%d)",
		path, synchronous, busyTimeoutMs,
	)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: opening database: %w", err)
	}

	// Single-writer pattern: WAL allows concurrent readers, but obdsentryd
	// only ever has one logical writer (the Store itself), so there is no
	// reason to risk SQLITE_BUSY from a second writer connection.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, path: path, logger: logger}

	if err := s.migrate(ctx); err != nil {
		db.Close()

		return nil, err
	}

	return s, nil
}

// migrate runs all pending schema migrations. Idempotent — running it
// against a populated database changes nothing (testable property 9).
func (s *Store) migrate(ctx context.Context) error {
	subFS, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("store: creating migration sub-filesystem: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectSQLite3, s.db, subFS)
	if err != nil {
		return fmt.Errorf("store: creating migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("store: running migrations: %w", err)
	}

	for _, r := range results {
		s.logger.Info("applied migration",
			slog.String("source", r.Source.Path),
			slog.Int64("duration_ms", r.Duration.Milliseconds()),
		)
	}

	return nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// SnapshotTo writes a consistent copy of the live database to destPath
// using SQLite's own online-backup mechanism (VACUUM INTO), which reads
// the database within its own read transaction regardless of what the
// WAL file currently holds — no separate quiesce step is required for
// correctness, though BackupCoordinator flushes the pending reading
// batch first anyway so the snapshot is as fresh as possible.
func (s *Store) SnapshotTo(ctx context.Context, destPath string) error {
	if _, err := s.db.ExecContext(ctx, `VACUUM INTO ?`, destPath); err != nil {
		return fmt.Errorf("store: snapshotting database to %s: %w", destPath, err)
	}

	return nil
}

// Path returns the on-disk path the Store was opened with; BackupCoordinator
// uses it to place its snapshot file, never to read the live file.
func (s *Store) Path() string {
	return s.path
}
