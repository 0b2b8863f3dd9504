// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package granola is a minimal client for the Granola API endpoints the
// exporter needs.
package granola

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pdiddy/granolocal/internal/httputil"
	"github.com/pdiddy/granolocal/pkg/types"
)

// APIBase is the Granola API root. Declared as a var so tests can
// substitute an httptest server.
var APIBase = "https://api.granola.ai"

const defaultUserAgent = "granolocal/1.0"

// Client makes authenticated requests to the Granola API.
type Client struct {
	HTTP *http.Client
	// UserAgent overrides the default User-Agent header when non-empty.
	UserAgent string
}

// Transcript fetches the transcript entries for a document. A 404 means no
// transcript exists for the document and returns (nil, nil); 429 responses
// are retried with backoff.
func (c *Client) Transcript(ctx context.Context, docID, accessToken string) ([]types.TranscriptEntry, error) {
	body, err := json.Marshal(map[string]string{"document_id": docID})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		APIBase+"/v1/get-document-transcript", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating transcript request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")
	ua := c.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	req.Header.Set("User-Agent", ua)

	resp, err := httputil.DoWithRetry(ctx, c.HTTP, req, 0)
	if err != nil {
		return nil, fmt.Errorf("transcript request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("transcript API returned HTTP %d", resp.StatusCode)
	}

	raw, err := httputil.ReadBody(resp)
	if err != nil {
		return nil, fmt.Errorf("reading transcript response: %w", err)
	}

	var entries []types.TranscriptEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parsing transcript response: %w", err)
	}
	return entries, nil
}
