// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/granolocal/pkg/types"
)

func TestExportConfigUnmarshalsFromViper(t *testing.T) {
	v := viper.New()
	v.Set("cache_path", "/data/cache-v3.json")
	v.Set("auth_path", "/data/supabase.json")
	v.Set("output_dir", "backup")
	v.Set("user_agent", "granolocal/1.0")
	v.Set("fetch_transcripts", true)
	v.Set("overwrite", true)
	v.Set("fetch_delay", "100ms")

	var cfg types.ExportConfig
	require.NoError(t, v.Unmarshal(&cfg))

	assert.Equal(t, "/data/cache-v3.json", cfg.CachePath)
	assert.Equal(t, "/data/supabase.json", cfg.AuthPath)
	assert.Equal(t, "backup", cfg.OutputDir)
	assert.Equal(t, "granolocal/1.0", cfg.UserAgent)
	assert.True(t, cfg.FetchTranscripts)
	assert.True(t, cfg.Overwrite)
	assert.Equal(t, 100*time.Millisecond, cfg.FetchDelay)
}
