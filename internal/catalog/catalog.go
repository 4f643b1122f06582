// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package catalog keeps a SQLite ledger of harvested papers. It lets a
// rerun skip papers that already completed and preserves per-paper
// outcomes across runs.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/arxiv-harvester/pkg/types"
)

const dbFile = "harvest.db"

// Store manages the harvest ledger database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the ledger at dir/harvest.db and ensures the
// schema exists.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating catalog directory: %w", err)
	}

	dbPath := filepath.Join(dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS papers (
			id TEXT PRIMARY KEY,
			outcome TEXT NOT NULL,
			title TEXT,
			venue TEXT,
			versions_found INTEGER NOT NULL DEFAULT 0,
			versions_downloaded INTEGER NOT NULL DEFAULT 0,
			reference_count INTEGER NOT NULL DEFAULT 0,
			reference_fetch_failed INTEGER NOT NULL DEFAULT 0,
			error TEXT,
			elapsed_ms INTEGER NOT NULL DEFAULT 0,
			harvested_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_papers_outcome ON papers(outcome)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// IsComplete reports whether the paper finished with a success outcome
// in an earlier run.
func (s *Store) IsComplete(ctx context.Context, paperID string) (bool, error) {
	var outcome string
	err := s.db.QueryRowContext(ctx,
		`SELECT outcome FROM papers WHERE id = ?`, paperID,
	).Scan(&outcome)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("querying paper %s: %w", paperID, err)
	}
	return outcome == string(types.OutcomeSuccess), nil
}

// Record upserts the outcome of one harvested paper.
func (s *Store) Record(ctx context.Context, res types.PaperResult) error {
	title := ""
	venue := res.Venue
	if res.Metadata != nil {
		title = res.Metadata.Title
	}
	refFailed := 0
	if res.ReferenceFetchFailed {
		refFailed = 1
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO papers (id, outcome, title, venue, versions_found, versions_downloaded,
			reference_count, reference_fetch_failed, error, elapsed_ms, harvested_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			outcome=excluded.outcome, title=excluded.title, venue=excluded.venue,
			versions_found=excluded.versions_found, versions_downloaded=excluded.versions_downloaded,
			reference_count=excluded.reference_count, reference_fetch_failed=excluded.reference_fetch_failed,
			error=excluded.error, elapsed_ms=excluded.elapsed_ms, harvested_at=excluded.harvested_at`,
		res.PaperID, string(res.Outcome), title, venue,
		len(res.Versions), res.DownloadedVersions(),
		len(res.References), refFailed, res.Error,
		res.Elapsed.Milliseconds(), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("recording paper %s: %w", res.PaperID, err)
	}
	return nil
}

// Entry is one ledger row.
type Entry struct {
	PaperID            string
	Outcome            types.Outcome
	Title              string
	Venue              string
	VersionsFound      int
	VersionsDownloaded int
	ReferenceCount     int
	HarvestedAt        string
}

// List returns all ledger entries ordered by identifier.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, outcome, title, venue, versions_found, versions_downloaded, reference_count, harvested_at
		 FROM papers ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing papers: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var outcome string
		if err := rows.Scan(&e.PaperID, &outcome, &e.Title, &e.Venue,
			&e.VersionsFound, &e.VersionsDownloaded, &e.ReferenceCount, &e.HarvestedAt); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		e.Outcome = types.Outcome(outcome)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
