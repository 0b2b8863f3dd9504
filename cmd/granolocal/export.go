// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/granolocal/internal/auth"
	"github.com/pdiddy/granolocal/internal/cache"
	"github.com/pdiddy/granolocal/internal/export"
	"github.com/pdiddy/granolocal/internal/granola"
	"github.com/pdiddy/granolocal/pkg/types"
)

// fetchDelay paces transcript API calls under the 5 req/s limit.
const fetchDelay = 250 * time.Millisecond

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export all local Granola meetings to Markdown",
	Long: `Export walks the local Granola cache and writes one Markdown file per
meeting under the output directory, organized by date. Documents whose
output file already exists are skipped unless --overwrite is given.

With --fetch-transcripts, documents missing a cached transcript fetch it
from the Granola API using the locally stored credentials.`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringP("output", "o", "", "output directory (default ./granola-backup)")
	exportCmd.Flags().String("cache", "", "path to the Granola cache file")
	exportCmd.Flags().Bool("fetch-transcripts", false, "fetch missing transcripts from the Granola API")
	exportCmd.Flags().Bool("overwrite", false, "overwrite existing files instead of skipping them")

	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	var cfg types.ExportConfig
	if err := viper.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("reading config: %w", err)
	}
	if v, _ := cmd.Flags().GetString("cache"); v != "" {
		cfg.CachePath = v
	}
	if v, _ := cmd.Flags().GetString("output"); v != "" {
		cfg.OutputDir = v
	}
	if v, _ := cmd.Flags().GetBool("fetch-transcripts"); v {
		cfg.FetchTranscripts = true
	}
	if v, _ := cmd.Flags().GetBool("overwrite"); v {
		cfg.Overwrite = true
	}
	if cfg.FetchDelay <= 0 {
		cfg.FetchDelay = fetchDelay
	}

	stderr := cmd.ErrOrStderr()

	fmt.Fprintf(stderr, "Loading cache from %s ...\n", cfg.CachePath)
	state, err := cache.Load(cfg.CachePath)
	if err != nil {
		return err
	}

	var fetcher export.TranscriptFetcher
	if cfg.FetchTranscripts {
		f, err := newAPIFetcher(cmd.Context(), cfg, stderr)
		if err != nil {
			return fmt.Errorf("cannot fetch transcripts: %w", err)
		}
		fetcher = f
		fmt.Fprintln(stderr, "Authenticated. Missing transcripts will be fetched from the API.")
	}

	idx, err := export.OpenIndex(cfg.OutputDir)
	if err != nil {
		fmt.Fprintf(stderr, "warning: export ledger unavailable: %v\n", err)
	} else {
		defer idx.Close()
	}

	e := &export.Exporter{
		State:      state,
		OutputDir:  cfg.OutputDir,
		Overwrite:  cfg.Overwrite,
		Fetcher:    fetcher,
		FetchDelay: cfg.FetchDelay,
		Index:      idx,
	}
	_, err = e.Run(cmd.Context(), cmd.OutOrStdout())
	return err
}

// apiFetcher adapts the Granola client to the exporter, revalidating the
// WorkOS token before each request so rotation stays ahead of expiry over
// long exports.
type apiFetcher struct {
	client     *granola.Client
	httpClient *http.Client
	tokens     *auth.Tokens
	authPath   string
	out        io.Writer
}

func newAPIFetcher(ctx context.Context, cfg types.ExportConfig, out io.Writer) (*apiFetcher, error) {
	tokens, err := auth.Load(cfg.AuthPath)
	if err != nil {
		return nil, err
	}

	httpClient := &http.Client{Timeout: 30 * time.Second}
	tokens, err = auth.EnsureValid(ctx, httpClient, tokens, cfg.AuthPath, out)
	if err != nil {
		return nil, err
	}

	return &apiFetcher{
		client:     &granola.Client{HTTP: httpClient, UserAgent: cfg.UserAgent},
		httpClient: httpClient,
		tokens:     tokens,
		authPath:   cfg.AuthPath,
		out:        out,
	}, nil
}

func (f *apiFetcher) Transcript(ctx context.Context, docID string) ([]types.TranscriptEntry, error) {
	tokens, err := auth.EnsureValid(ctx, f.httpClient, f.tokens, f.authPath, f.out)
	if err != nil {
		return nil, err
	}
	f.tokens = tokens
	return f.client.Transcript(ctx, docID, tokens.AccessToken)
}
