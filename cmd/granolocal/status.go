// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/pdiddy/granolocal/internal/export"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show what has been exported so far",
	Long: `Status reads the export ledger kept under the output directory and
prints how many documents have been exported, broken down by source,
and when the last export happened.`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringP("output", "o", "", "output directory (default ./granola-backup)")

	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	outputDir := flagOr(cmd, "output", "output_dir")

	idx, err := export.OpenIndex(outputDir)
	if err != nil {
		return err
	}
	defer idx.Close()

	sum, err := idx.Summary()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Exported documents: %d\n", sum.Total)

	sources := make([]string, 0, len(sum.BySource))
	for source := range sum.BySource {
		sources = append(sources, source)
	}
	sort.Strings(sources)
	for _, source := range sources {
		fmt.Fprintf(out, "  %s: %d\n", source, sum.BySource[source])
	}

	if sum.LastExport != "" {
		fmt.Fprintf(out, "Last export: %s\n", sum.LastExport)
	}
	return nil
}
