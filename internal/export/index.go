// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Source values recorded in the export ledger.
const (
	SourceCache  = "cache"
	SourceShared = "shared"
)

const (
	ledgerDir  = ".granolocal"
	ledgerFile = "index.db"
)

// Index is the SQLite export ledger: one row per exported document,
// updated in place when a document is re-exported. It backs the status
// command and survives across runs.
type Index struct {
	db *sql.DB
}

// OpenIndex opens or creates the ledger under outputDir, creating the
// schema if it does not exist.
func OpenIndex(outputDir string) (*Index, error) {
	dir := filepath.Join(outputDir, ledgerDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating ledger directory: %w", err)
	}

	db, err := sql.Open("sqlite3", filepath.Join(dir, ledgerFile)+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening export ledger: %w", err)
	}

	schema := `CREATE TABLE IF NOT EXISTS exports (
		doc_id TEXT PRIMARY KEY,
		title TEXT,
		path TEXT,
		source TEXT,
		exported_at TEXT
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating ledger schema: %w", err)
	}

	return &Index{db: db}, nil
}

// Close releases the database connection.
func (ix *Index) Close() error {
	return ix.db.Close()
}

// Record upserts one export into the ledger.
func (ix *Index) Record(docID, title, path, source string) error {
	_, err := ix.db.Exec(`INSERT INTO exports (doc_id, title, path, source, exported_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(doc_id) DO UPDATE SET
			title = excluded.title,
			path = excluded.path,
			source = excluded.source,
			exported_at = excluded.exported_at`,
		docID, title, path, source, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("recording export: %w", err)
	}
	return nil
}

// IndexSummary reports ledger totals for the status command.
type IndexSummary struct {
	Total      int
	BySource   map[string]int
	LastExport string
}

// Summary aggregates the ledger.
func (ix *Index) Summary() (IndexSummary, error) {
	sum := IndexSummary{BySource: make(map[string]int)}

	rows, err := ix.db.Query(`SELECT source, count(*) FROM exports GROUP BY source`)
	if err != nil {
		return sum, fmt.Errorf("querying ledger: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var source string
		var count int
		if err := rows.Scan(&source, &count); err != nil {
			return sum, err
		}
		sum.BySource[source] = count
		sum.Total += count
	}
	if err := rows.Err(); err != nil {
		return sum, err
	}

	err = ix.db.QueryRow(`SELECT coalesce(max(exported_at), '') FROM exports`).Scan(&sum.LastExport)
	if err != nil {
		return sum, fmt.Errorf("querying last export: %w", err)
	}
	return sum, nil
}
