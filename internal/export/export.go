// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pdiddy/granolocal/internal/cache"
	"github.com/pdiddy/granolocal/internal/markdown"
	"github.com/pdiddy/granolocal/pkg/types"
)

// summaryPanelTitle marks the AI panels that carry the meeting summary.
const summaryPanelTitle = "Summary"

// progressEvery is how often the export loop reports progress while
// fetching transcripts from the API.
const progressEvery = 50

// TranscriptFetcher backfills transcripts for documents whose transcript
// is missing from the cache.
type TranscriptFetcher interface {
	Transcript(ctx context.Context, docID string) ([]types.TranscriptEntry, error)
}

// Stats summarizes an export run.
type Stats struct {
	Exported       int
	Skipped        int
	WithTranscript int
	Fetched        int
	FetchErrors    int
}

// Exporter walks the cache state and writes one Markdown file per document
// under OutputDir/YYYY/YYYY-MM/.
type Exporter struct {
	State     *cache.State
	OutputDir string
	Overwrite bool

	// Fetcher, when non-nil, supplies transcripts the cache is missing.
	Fetcher TranscriptFetcher
	// FetchDelay paces API calls; the API allows 5 req/s.
	FetchDelay time.Duration

	// Index, when non-nil, records every written file in the export ledger.
	Index *Index
}

// Run exports the cache. Per-document transcript fetch failures are
// counted and reported on w without aborting the run; filesystem errors
// abort, since later documents would fail the same way.
func (e *Exporter) Run(ctx context.Context, w io.Writer) (Stats, error) {
	var stats Stats

	if err := os.MkdirAll(e.OutputDir, 0o755); err != nil {
		return stats, fmt.Errorf("creating output directory: %w", err)
	}

	ids := make([]string, 0, len(e.State.Documents))
	for id := range e.State.Documents {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for i, id := range ids {
		doc := e.State.Documents[id]
		if doc.DeletedAt != "" {
			stats.Skipped++
			continue
		}

		title := doc.Title
		if title == "" {
			title = "Untitled"
		}

		created := docTime(doc.CreatedAt)
		dir := filepath.Join(e.OutputDir, created.Format("2006"), created.Format("2006-01"))
		path := filepath.Join(dir, created.Format("2006-01-02")+" - "+SanitizeFilename(title)+".md")

		// Check before rendering; summaries and API fetches are the
		// expensive part.
		if !e.Overwrite {
			if _, err := os.Stat(path); err == nil {
				stats.Skipped++
				continue
			}
		}

		summary := e.summaryText(id)

		entries := e.State.Transcripts[id]
		if len(entries) == 0 && e.Fetcher != nil {
			fetched, err := e.Fetcher.Transcript(ctx, id)
			if err != nil {
				stats.FetchErrors++
				fmt.Fprintf(w, "  transcript fetch failed for %q: %v\n", title, err)
			} else if len(fetched) > 0 {
				entries = fetched
				stats.Fetched++
			}
			if e.FetchDelay > 0 {
				select {
				case <-ctx.Done():
					return stats, ctx.Err()
				case <-time.After(e.FetchDelay):
				}
			}
		}
		transcript := FormatTranscript(entries)

		if !hasContent(doc, summary, transcript) {
			stats.Skipped++
			continue
		}

		md := BuildMarkdown(doc, summary, transcript)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return stats, fmt.Errorf("creating %s: %w", dir, err)
		}
		if err := os.WriteFile(path, []byte(md), 0o644); err != nil {
			return stats, fmt.Errorf("writing %s: %w", path, err)
		}
		stats.Exported++
		if transcript != "" {
			stats.WithTranscript++
		}

		if e.Index != nil {
			if err := e.Index.Record(id, title, path, SourceCache); err != nil {
				fmt.Fprintf(w, "  ledger update failed for %q: %v\n", title, err)
			}
		}

		if e.Fetcher != nil && (i+1)%progressEvery == 0 {
			fmt.Fprintf(w, "  progress: %d/%d documents\n", i+1, len(ids))
		}
	}

	fmt.Fprintf(w, "\nExported %d documents (%d with transcripts), skipped %d.\n",
		stats.Exported, stats.WithTranscript, stats.Skipped)
	if e.Fetcher != nil {
		fmt.Fprintf(w, "Fetched %d transcripts from the API (%d errors).\n",
			stats.Fetched, stats.FetchErrors)
	}
	return stats, nil
}

// summaryText renders the most recent Summary panel for a document; empty
// when the document has none.
func (e *Exporter) summaryText(docID string) string {
	var newest *types.Panel
	for _, panel := range e.State.DocumentPanels[docID] {
		if panel.Title != summaryPanelTitle {
			continue
		}
		if newest == nil || panel.CreatedAt > newest.CreatedAt {
			p := panel
			newest = &p
		}
	}
	if newest == nil {
		return ""
	}
	return markdown.RenderNode(newest.Content)
}

// hasContent reports whether a document has anything worth exporting.
func hasContent(doc types.Document, summary, transcript string) bool {
	return strings.TrimSpace(summary) != "" ||
		strings.TrimSpace(doc.NotesMarkdown) != "" ||
		strings.TrimSpace(doc.NotesPlain) != "" ||
		transcript != ""
}

// SaveShared writes a downloaded shared note under shared/YYYY/YYYY-MM and
// returns the written path. Existing files are skipped unless overwrite is
// set.
func SaveShared(note types.SharedNote, outputDir string, overwrite bool, idx *Index, w io.Writer) (string, error) {
	created := docTime(note.CreatedAt)
	dir := filepath.Join(outputDir, "shared", created.Format("2006"), created.Format("2006-01"))
	path := filepath.Join(dir, created.Format("2006-01-02")+" - "+SanitizeFilename(note.Title)+".md")

	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			fmt.Fprintf(w, "Skipped (already exists): %s\n", path)
			return path, nil
		}
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", dir, err)
	}
	if err := os.WriteFile(path, []byte(BuildSharedMarkdown(note)), 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}

	if idx != nil {
		if err := idx.Record(note.DocID, note.Title, path, SourceShared); err != nil {
			fmt.Fprintf(w, "ledger update failed for %q: %v\n", note.Title, err)
		}
	}

	fmt.Fprintf(w, "Saved: %s\n", path)
	return path, nil
}
