// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/granolocal/internal/cache"
	"github.com/pdiddy/granolocal/pkg/types"
)

// fakeFetcher returns canned transcripts per document id, or an error.
type fakeFetcher struct {
	entries map[string][]types.TranscriptEntry
	err     error
	calls   []string
}

func (f *fakeFetcher) Transcript(ctx context.Context, docID string) ([]types.TranscriptEntry, error) {
	f.calls = append(f.calls, docID)
	if f.err != nil {
		return nil, f.err
	}
	return f.entries[docID], nil
}

func summaryPanel(created, text string) types.Panel {
	return types.Panel{
		Title:     "Summary",
		CreatedAt: created,
		Content: map[string]any{
			"type": "doc",
			"content": []any{map[string]any{
				"type":    "paragraph",
				"content": []any{map[string]any{"type": "text", "text": text}},
			}},
		},
	}
}

func TestExporterRun(t *testing.T) {
	state := &cache.State{
		Documents: map[string]types.Document{
			"doc-deleted": {Title: "Gone", CreatedAt: "2025-01-01T08:00:00Z", DeletedAt: "2025-02-01T08:00:00Z", NotesPlain: "x"},
			"doc-empty":   {Title: "Empty", CreatedAt: "2025-01-02T08:00:00Z"},
			"doc-notes":   {Title: "With notes", CreatedAt: "2025-03-10T09:00:00Z", NotesMarkdown: "notes body"},
			"doc-panel":   {Title: "With summary", CreatedAt: "2025-03-11T09:00:00Z"},
		},
		Transcripts: map[string][]types.TranscriptEntry{
			"doc-notes": {{Text: "cached line", StartTimestamp: "2025-03-10T09:00:05Z"}},
		},
		DocumentPanels: map[string]map[string]types.Panel{
			"doc-panel": {
				"p-old": summaryPanel("2025-03-11T10:00:00Z", "old summary"),
				"p-new": summaryPanel("2025-03-11T11:00:00Z", "new summary"),
			},
		},
	}

	out := t.TempDir()
	var buf bytes.Buffer
	e := &Exporter{State: state, OutputDir: out}

	stats, err := e.Run(context.Background(), &buf)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Exported)
	assert.Equal(t, 2, stats.Skipped) // deleted + empty
	assert.Equal(t, 1, stats.WithTranscript)

	notesPath := filepath.Join(out, "2025", "2025-03", "2025-03-10 - With notes.md")
	data, err := os.ReadFile(notesPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "## Notes\n\nnotes body")
	assert.Contains(t, string(data), "**[09:00:05]** cached line")

	panelPath := filepath.Join(out, "2025", "2025-03", "2025-03-11 - With summary.md")
	data, err = os.ReadFile(panelPath)
	require.NoError(t, err)
	// The most recent Summary panel wins.
	assert.Contains(t, string(data), "new summary")
	assert.NotContains(t, string(data), "old summary")

	assert.Contains(t, buf.String(), "Exported 2 documents (1 with transcripts), skipped 2.")
}

func TestExporterSkipsExistingUnlessOverwrite(t *testing.T) {
	state := &cache.State{
		Documents: map[string]types.Document{
			"doc-1": {Title: "Keep", CreatedAt: "2025-03-10T09:00:00Z", NotesPlain: "fresh"},
		},
	}

	out := t.TempDir()
	dir := filepath.Join(out, "2025", "2025-03")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, "2025-03-10 - Keep.md")
	require.NoError(t, os.WriteFile(path, []byte("old content"), 0o644))

	var buf bytes.Buffer
	e := &Exporter{State: state, OutputDir: out}
	stats, err := e.Run(context.Background(), &buf)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Exported)
	assert.Equal(t, 1, stats.Skipped)

	data, _ := os.ReadFile(path)
	assert.Equal(t, "old content", string(data))

	e.Overwrite = true
	stats, err = e.Run(context.Background(), &buf)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Exported)

	data, _ = os.ReadFile(path)
	assert.Contains(t, string(data), "fresh")
}

func TestExporterFetchesMissingTranscripts(t *testing.T) {
	state := &cache.State{
		Documents: map[string]types.Document{
			"doc-cached":  {Title: "Cached", CreatedAt: "2025-03-10T09:00:00Z"},
			"doc-missing": {Title: "Missing", CreatedAt: "2025-03-11T09:00:00Z"},
		},
		Transcripts: map[string][]types.TranscriptEntry{
			"doc-cached": {{Text: "from cache"}},
		},
	}

	fetcher := &fakeFetcher{entries: map[string][]types.TranscriptEntry{
		"doc-missing": {{Text: "from api"}},
	}}

	out := t.TempDir()
	var buf bytes.Buffer
	e := &Exporter{State: state, OutputDir: out, Fetcher: fetcher}

	stats, err := e.Run(context.Background(), &buf)
	require.NoError(t, err)

	// Only the document without a cached transcript hits the API.
	assert.Equal(t, []string{"doc-missing"}, fetcher.calls)
	assert.Equal(t, 1, stats.Fetched)
	assert.Equal(t, 2, stats.Exported)
	assert.Contains(t, buf.String(), "Fetched 1 transcripts from the API (0 errors).")
}

func TestExporterCountsFetchErrors(t *testing.T) {
	state := &cache.State{
		Documents: map[string]types.Document{
			"doc-1": {Title: "Flaky", CreatedAt: "2025-03-10T09:00:00Z", NotesPlain: "still exported"},
		},
	}
	fetcher := &fakeFetcher{err: errors.New("api down")}

	out := t.TempDir()
	var buf bytes.Buffer
	e := &Exporter{State: state, OutputDir: out, Fetcher: fetcher}

	stats, err := e.Run(context.Background(), &buf)
	require.NoError(t, err)

	// The fetch failure is counted but the document still exports from
	// its notes.
	assert.Equal(t, 1, stats.FetchErrors)
	assert.Equal(t, 1, stats.Exported)
	assert.Contains(t, buf.String(), "api down")
}

func TestSaveShared(t *testing.T) {
	note := types.SharedNote{
		DocID:     "d-1",
		Title:     "Shared: plan/review",
		CreatedAt: "2025-04-01T12:00:00Z",
		SourceURL: "https://notes.granola.ai/d/d-1",
	}

	out := t.TempDir()
	var buf bytes.Buffer

	path, err := SaveShared(note, out, false, nil, &buf)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(out, "shared", "2025", "2025-04", "2025-04-01 - Shared planreview.md"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# Shared: plan/review")

	// Second save skips without overwrite.
	buf.Reset()
	_, err = SaveShared(note, out, false, nil, &buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Skipped (already exists)")
}
