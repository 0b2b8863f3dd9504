// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache loads the local Granola cache file.
package cache

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pdiddy/granolocal/pkg/types"
)

// State is the decoded cache state: documents, cached transcripts, and AI
// panels, all keyed by document id.
type State struct {
	Documents      map[string]types.Document          `json:"documents"`
	Transcripts    map[string][]types.TranscriptEntry `json:"transcripts"`
	DocumentPanels map[string]map[string]types.Panel  `json:"documentPanels"`
}

// Load reads and decodes the cache file. The file is JSON whose "cache"
// field is itself a JSON-encoded string holding {"state": ...}.
func Load(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading cache: %w", err)
	}

	var outer struct {
		Cache string `json:"cache"`
	}
	if err := json.Unmarshal(data, &outer); err != nil {
		return nil, fmt.Errorf("decoding cache envelope: %w", err)
	}

	var inner struct {
		State State `json:"state"`
	}
	if err := json.Unmarshal([]byte(outer.Cache), &inner); err != nil {
		return nil, fmt.Errorf("decoding cache state: %w", err)
	}

	return &inner.State, nil
}
