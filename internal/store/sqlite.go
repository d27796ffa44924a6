// internal/store/sqlite.go
//
// SQLite-backed coordinate store.
// Responsibilities:
//   - Opening SQLite database with safe defaults (WAL, busy timeout).
//   - Applying embedded migrations from sql/*.sql (idempotent, recorded in _migrations).
//   - Reading/writing resolved coordinates so geocoding survives restarts.
//
// Note: only successful lookups are ever written here.

package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/deal-detective/apps/go-server/internal/geocode"
)

//go:embed sql/*.sql
var migrations embed.FS

// SQLite persists coordinates in a single table.
type SQLite struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

/**
 * OpenSQLite opens (and creates if missing) the cache database and migrates it.
 *
 * - Ensures the parent directory exists for relative DSNs (e.g. ./data/geo.db).
 * - Entries older than ttl are treated as misses; ttl <= 0 keeps them forever.
 */
func OpenSQLite(dsn string, ttl time.Duration) (*SQLite, error) {
	db, err := openDB(dsn)
	if err != nil {
		return nil, err
	}
	if err := migrate(db, migrations); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLite{db: db, ttl: ttl, now: time.Now}, nil
}

// Close releases the database handle.
func (s *SQLite) Close() error { return s.db.Close() }

// Get returns unexpired coordinates for key.
func (s *SQLite) Get(ctx context.Context, key string) (geocode.Coordinates, bool, error) {
	var (
		c        geocode.Coordinates
		resolved string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT lat, lng, resolved_at FROM geocode_cache WHERE address=?`, key,
	).Scan(&c.Lat, &c.Lng, &resolved)
	if errors.Is(err, sql.ErrNoRows) {
		return geocode.Coordinates{}, false, nil
	}
	if err != nil {
		return geocode.Coordinates{}, false, fmt.Errorf("select geocode_cache: %w", err)
	}
	if s.ttl > 0 {
		at, err := time.Parse(time.RFC3339, resolved)
		if err != nil || s.now().Sub(at) > s.ttl {
			return geocode.Coordinates{}, false, nil
		}
	}
	return c, true, nil
}

// Save upserts coordinates for key.
func (s *SQLite) Save(ctx context.Context, key string, c geocode.Coordinates) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO geocode_cache (address, lat, lng, resolved_at)
        VALUES (?, ?, ?, ?)
        ON CONFLICT(address) DO UPDATE SET lat=excluded.lat, lng=excluded.lng, resolved_at=excluded.resolved_at`,
		key, c.Lat, c.Lng, s.now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upsert geocode_cache: %w", err)
	}
	return nil
}

/* ----------------------------- plumbing --------------------------------- */

// openDB opens a SQLite file with busy timeout and WAL journaling.
func openDB(dsn string) (*sql.DB, error) {
	dir := filepath.Dir(dsn)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", dsn+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set pragmas: %w", err)
	}
	return db, nil
}

/**
 * migrate applies *.sql files from fsys in lexical order.
 *
 * - Uses a _migrations table to track applied files.
 * - Each file runs inside its own transaction together with its bookkeeping row.
 */
func migrate(db *sql.DB, fsys fs.FS) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS _migrations (name TEXT PRIMARY KEY);`); err != nil {
		return fmt.Errorf("create _migrations: %w", err)
	}

	files, err := fs.Glob(fsys, "sql/*.sql")
	if err != nil {
		return fmt.Errorf("glob migrations: %w", err)
	}
	sort.Strings(files)

	for _, f := range files {
		var done int
		err := db.QueryRow(`SELECT 1 FROM _migrations WHERE name=?`, f).Scan(&done)
		if err == nil {
			log.Debug().Str("migration", f).Msg("already applied")
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("query _migrations: %w", err)
		}

		body, err := fs.ReadFile(fsys, f)
		if err != nil {
			return fmt.Errorf("read %s: %w", f, err)
		}

		tx, err := db.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(string(body)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply %s: %w", f, err)
		}
		if _, err := tx.Exec(`INSERT INTO _migrations(name) VALUES (?)`, f); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record %s: %w", f, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit %s: %w", f, err)
		}
		log.Info().Str("migration", f).Msg("applied")
	}
	return nil
}
