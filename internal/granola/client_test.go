// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package granola

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withAPIBase(t *testing.T, url string) {
	t.Helper()
	old := APIBase
	APIBase = url
	t.Cleanup(func() { APIBase = old })
}

func TestTranscript(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/get-document-transcript", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer at-1", r.Header.Get("Authorization"))
		assert.Equal(t, "granolocal/1.0", r.Header.Get("User-Agent"))

		var body struct {
			DocumentID string `json:"document_id"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "doc-1", body.DocumentID)

		json.NewEncoder(w).Encode([]map[string]any{
			{"text": "hello", "start_timestamp": "2025-03-10T09:00:05Z"},
			{"text": "there"},
		})
	}))
	defer srv.Close()
	withAPIBase(t, srv.URL)

	c := &Client{HTTP: srv.Client()}
	entries, err := c.Transcript(context.Background(), "doc-1", "at-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "hello", entries[0].Text)
	assert.Equal(t, "2025-03-10T09:00:05Z", entries[0].StartTimestamp)
}

func TestTranscriptNotFoundMeansNoTranscript(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()
	withAPIBase(t, srv.URL)

	c := &Client{HTTP: srv.Client()}
	entries, err := c.Transcript(context.Background(), "doc-1", "at-1")
	require.NoError(t, err)
	assert.Nil(t, entries)
}

func TestTranscriptServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()
	withAPIBase(t, srv.URL)

	c := &Client{HTTP: srv.Client()}
	_, err := c.Transcript(context.Background(), "doc-1", "at-1")
	assert.ErrorContains(t, err, "HTTP 500")
}

func TestTranscriptGzipBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The API can return gzip content without a Content-Encoding
		// header, which the client must sniff.
		zw := gzip.NewWriter(w)
		json.NewEncoder(zw).Encode([]map[string]any{{"text": "zipped"}})
		zw.Close()
	}))
	defer srv.Close()
	withAPIBase(t, srv.URL)

	c := &Client{HTTP: srv.Client()}
	entries, err := c.Transcript(context.Background(), "doc-1", "at-1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "zipped", entries[0].Text)
}
