// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/deckminer/internal/batch"
	"github.com/pdiddy/deckminer/internal/sheet"
	"github.com/pdiddy/deckminer/pkg/types"
)

var sheetCmd = &cobra.Command{
	Use:   "sheet [results...]",
	Short: "Export result JSON files to an .xlsx knowledge sheet",
	Long: `Sheet collects per-deck result files and writes one row per deck to
the "メインDB" worksheet of an .xlsx workbook. Failed decks are left out.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("out")

		loaded, skipped, err := batch.LoadResults(args)
		if err != nil {
			return err
		}
		results := make([]types.DeckResult, len(loaded))
		for i, l := range loaded {
			results[i] = l.Result
		}

		summary, err := sheet.Write(out, results, time.Now())
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Wrote %d row(s) to %s (%d failed deck(s), %d other file(s) skipped)\n",
			summary.Rows, out, summary.Skipped, len(skipped))
		return nil
	},
}

func init() {
	sheetCmd.Flags().String("out", "deckminer.xlsx", "output workbook path")
	rootCmd.AddCommand(sheetCmd)
}
