// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexRecordAndSummary(t *testing.T) {
	idx, err := OpenIndex(t.TempDir())
	require.NoError(t, err)
	defer idx.Close()

	require.NoError(t, idx.Record("doc-1", "First", "/out/a.md", SourceCache))
	require.NoError(t, idx.Record("doc-2", "Second", "/out/b.md", SourceCache))
	require.NoError(t, idx.Record("doc-3", "Third", "/out/shared/c.md", SourceShared))

	sum, err := idx.Summary()
	require.NoError(t, err)
	assert.Equal(t, 3, sum.Total)
	assert.Equal(t, 2, sum.BySource[SourceCache])
	assert.Equal(t, 1, sum.BySource[SourceShared])
	assert.NotEmpty(t, sum.LastExport)
}

func TestIndexRecordUpserts(t *testing.T) {
	idx, err := OpenIndex(t.TempDir())
	require.NoError(t, err)
	defer idx.Close()

	require.NoError(t, idx.Record("doc-1", "Old title", "/out/old.md", SourceCache))
	require.NoError(t, idx.Record("doc-1", "New title", "/out/new.md", SourceCache))

	sum, err := idx.Summary()
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Total)

	var title, path string
	require.NoError(t, idx.db.QueryRow(
		`SELECT title, path FROM exports WHERE doc_id = ?`, "doc-1",
	).Scan(&title, &path))
	assert.Equal(t, "New title", title)
	assert.Equal(t, "/out/new.md", path)
}

func TestSummaryOnEmptyLedger(t *testing.T) {
	idx, err := OpenIndex(t.TempDir())
	require.NoError(t, err)
	defer idx.Close()

	sum, err := idx.Summary()
	require.NoError(t, err)
	assert.Equal(t, 0, sum.Total)
	assert.Empty(t, sum.LastExport)
}
