// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// ExportConfig holds settings for exporting the local cache. Fields are
// populated from the viper config file and environment, then overridden by
// command flags.
type ExportConfig struct {
	// CachePath is the Granola cache file (cache-v3.json).
	CachePath string `mapstructure:"cache_path"`

	// AuthPath is the Granola auth file holding the WorkOS tokens.
	AuthPath string `mapstructure:"auth_path"`

	// OutputDir is the root of the exported Markdown tree.
	OutputDir string `mapstructure:"output_dir"`

	// UserAgent is sent on all API and page requests (e.g. "granolocal/1.0").
	UserAgent string `mapstructure:"user_agent"`

	// FetchTranscripts enables API backfill for documents whose transcript
	// is missing from the cache.
	FetchTranscripts bool `mapstructure:"fetch_transcripts"`

	// Overwrite re-exports documents whose output file already exists.
	Overwrite bool `mapstructure:"overwrite"`

	// FetchDelay is the pause between transcript API calls. The API allows
	// 5 req/s; the default of 250ms stays safely under that.
	FetchDelay time.Duration `mapstructure:"fetch_delay"`
}
