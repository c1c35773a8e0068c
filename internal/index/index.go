package index

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gallery-player/internal/logging"
	"gallery-player/internal/metrics"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Record holds the cached metadata for one image file, keyed by its
// root-relative path. MTime disambiguates stale records after edits.
type Record struct {
	Path      string
	MTime     int64 // unix nanoseconds
	Width     int
	Height    int
	Landscape bool
}

// Index is a persistent metadata cache for the local source. Dimension
// probes are expensive on large photo trees; memoizing them keyed by
// (path, mtime) makes rescans nearly free.
type Index struct {
	db *sql.DB
}

// Open opens (or creates) the metadata index at path.
func Open(path string) (*Index, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create index directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open metadata index: %w", err)
	}

	// Single writer; SQLite serializes the rest.
	db.SetMaxOpenConns(1)

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	logging.Debug("metadata index opened at %s", path)
	return &Index{db: db}, nil
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS images (
			path         TEXT PRIMARY KEY,
			mtime        INTEGER NOT NULL,
			width        INTEGER NOT NULL,
			height       INTEGER NOT NULL,
			is_landscape BOOLEAN NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("failed to initialize index schema: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (ix *Index) Close() error {
	return ix.db.Close()
}

// Lookup returns the cached record for path if one exists with a matching
// mtime. A record with a stale mtime is treated as a miss.
func (ix *Index) Lookup(path string, mtime int64) (Record, bool) {
	start := time.Now()
	var rec Record
	err := ix.db.QueryRow(
		"SELECT path, mtime, width, height, is_landscape FROM images WHERE path = ?",
		path,
	).Scan(&rec.Path, &rec.MTime, &rec.Width, &rec.Height, &rec.Landscape)
	metrics.IndexQueryDuration.WithLabelValues("lookup").Observe(time.Since(start).Seconds())

	switch {
	case errors.Is(err, sql.ErrNoRows):
		metrics.IndexQueryTotal.WithLabelValues("lookup", "success").Inc()
		return Record{}, false
	case err != nil:
		metrics.IndexQueryTotal.WithLabelValues("lookup", "error").Inc()
		logging.Warn("index lookup failed for %s: %v", path, err)
		return Record{}, false
	}

	metrics.IndexQueryTotal.WithLabelValues("lookup", "success").Inc()
	if rec.MTime != mtime {
		return Record{}, false
	}
	return rec, true
}

// Upsert inserts or replaces the record for rec.Path.
func (ix *Index) Upsert(rec Record) error {
	start := time.Now()
	_, err := ix.db.Exec(
		"INSERT OR REPLACE INTO images (path, mtime, width, height, is_landscape) VALUES (?, ?, ?, ?, ?)",
		rec.Path, rec.MTime, rec.Width, rec.Height, rec.Landscape,
	)
	metrics.IndexQueryDuration.WithLabelValues("upsert").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.IndexQueryTotal.WithLabelValues("upsert", "error").Inc()
		return fmt.Errorf("failed to upsert index record for %s: %w", rec.Path, err)
	}
	metrics.IndexQueryTotal.WithLabelValues("upsert", "success").Inc()
	return nil
}

// UpsertBatch writes a batch of records in one transaction.
func (ix *Index) UpsertBatch(recs []Record) error {
	if len(recs) == 0 {
		return nil
	}

	tx, err := ix.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin index transaction: %w", err)
	}

	stmt, err := tx.Prepare(
		"INSERT OR REPLACE INTO images (path, mtime, width, height, is_landscape) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare index upsert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range recs {
		if _, err := stmt.Exec(rec.Path, rec.MTime, rec.Width, rec.Height, rec.Landscape); err != nil {
			tx.Rollback()
			metrics.IndexQueryTotal.WithLabelValues("upsert", "error").Inc()
			return fmt.Errorf("failed to upsert index record for %s: %w", rec.Path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit index transaction: %w", err)
	}
	metrics.IndexQueryTotal.WithLabelValues("upsert", "success").Inc()
	return nil
}

// Prune deletes records whose path is not in keep. It is called after a
// full scan so that removed files stop matching orientation filters.
func (ix *Index) Prune(keep map[string]bool) (int, error) {
	start := time.Now()

	rows, err := ix.db.Query("SELECT path FROM images")
	if err != nil {
		metrics.IndexQueryTotal.WithLabelValues("prune", "error").Inc()
		return 0, fmt.Errorf("failed to list index records: %w", err)
	}

	var stale []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			rows.Close()
			return 0, fmt.Errorf("failed to scan index record: %w", err)
		}
		if !keep[p] {
			stale = append(stale, p)
		}
	}
	if err := rows.Close(); err != nil {
		return 0, err
	}

	if len(stale) > 0 {
		placeholders := strings.Repeat("?,", len(stale))
		args := make([]interface{}, len(stale))
		for i, p := range stale {
			args[i] = p
		}
		if _, err := ix.db.Exec(
			"DELETE FROM images WHERE path IN ("+placeholders[:len(placeholders)-1]+")", args...); err != nil {
			metrics.IndexQueryTotal.WithLabelValues("prune", "error").Inc()
			return 0, fmt.Errorf("failed to prune index records: %w", err)
		}
	}

	metrics.IndexQueryDuration.WithLabelValues("prune").Observe(time.Since(start).Seconds())
	metrics.IndexQueryTotal.WithLabelValues("prune", "success").Inc()
	if len(stale) > 0 {
		logging.Debug("index pruned %d stale records", len(stale))
	}
	return len(stale), nil
}

// Count returns the number of indexed records.
func (ix *Index) Count() (int, error) {
	var n int
	if err := ix.db.QueryRow("SELECT COUNT(*) FROM images").Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
