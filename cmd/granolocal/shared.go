// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/granolocal/internal/export"
	"github.com/pdiddy/granolocal/internal/shared"
)

var sharedCmd = &cobra.Command{
	Use:   "shared [urls...]",
	Short: "Download publicly shared Granola notes as Markdown",
	Long: `Shared downloads one or more publicly shared notes
(https://notes.granola.ai/d/... or /t/... links) and saves them under
output/shared/YYYY/YYYY-MM/. URLs come from the arguments, a YAML file
given with --urls-file, or both.`,
	RunE: runShared,
}

func init() {
	sharedCmd.Flags().StringP("output", "o", "", "output directory (default ./granola-backup)")
	sharedCmd.Flags().String("urls-file", "", "YAML file listing shared note URLs")
	sharedCmd.Flags().Bool("overwrite", false, "overwrite existing files instead of skipping them")

	rootCmd.AddCommand(sharedCmd)
}

func runShared(cmd *cobra.Command, args []string) error {
	outputDir := flagOr(cmd, "output", "output_dir")
	overwrite, _ := cmd.Flags().GetBool("overwrite")
	userAgent := viper.GetString("user_agent")

	urls := args
	if urlsFile, _ := cmd.Flags().GetString("urls-file"); urlsFile != "" {
		fromFile, err := shared.ReadURLFile(urlsFile)
		if err != nil {
			return err
		}
		urls = append(urls, fromFile...)
	}
	if len(urls) == 0 {
		return fmt.Errorf("no URLs given: pass them as arguments or with --urls-file")
	}

	stderr := cmd.ErrOrStderr()

	idx, err := export.OpenIndex(outputDir)
	if err != nil {
		fmt.Fprintf(stderr, "warning: export ledger unavailable: %v\n", err)
	} else {
		defer idx.Close()
	}

	client := &http.Client{Timeout: 30 * time.Second}

	failed := 0
	for _, url := range urls {
		fmt.Fprintf(stderr, "Fetching shared note from %s ...\n", url)
		note, err := shared.FetchNote(cmd.Context(), client, url, userAgent)
		if err != nil {
			fmt.Fprintf(stderr, "error fetching %s: %v\n", url, err)
			failed++
			continue
		}
		if _, err := export.SaveShared(note, outputDir, overwrite, idx, cmd.OutOrStdout()); err != nil {
			fmt.Fprintf(stderr, "error saving %s: %v\n", url, err)
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d shared note(s) failed", failed, len(urls))
	}
	return nil
}
