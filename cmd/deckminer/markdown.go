// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pdiddy/deckminer/internal/batch"
	"github.com/pdiddy/deckminer/internal/markdown"
)

var markdownCmd = &cobra.Command{
	Use:   "markdown [results...]",
	Short: "Render result JSON files as Markdown documents",
	Long: `Markdown reads per-deck result files written by analyze or ai and
renders each one as a Markdown document with YAML frontmatter, ready to load
into a notebook assistant. With --html an HTML page is written as well.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runMarkdown,
}

func runMarkdown(cmd *cobra.Command, args []string) error {
	outDir, _ := cmd.Flags().GetString("out")
	withHTML, _ := cmd.Flags().GetBool("html")

	loaded, skipped, err := batch.LoadResults(args)
	if err != nil {
		return err
	}
	for _, p := range skipped {
		fmt.Fprintf(os.Stdout, "skipped %s (not a deck result)\n", filepath.Base(p))
	}

	var written, failed int
	for _, l := range loaded {
		dir := outDir
		if dir == "" {
			dir = filepath.Dir(l.Path)
		}
		name := l.Result.FileName()
		if name == "" {
			name = filepath.Base(l.Path)
		}

		md, err := markdown.Render(l.Result)
		if err != nil {
			fmt.Fprintf(os.Stdout, "failed  %s: %v\n", name, err)
			failed++
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
		mdPath := filepath.Join(dir, markdown.OutputName(name, ".md"))
		if err := os.WriteFile(mdPath, []byte(md), 0o644); err != nil {
			fmt.Fprintf(os.Stdout, "failed  %s: %v\n", name, err)
			failed++
			continue
		}

		if withHTML {
			html, err := markdown.ToHTML(md, name)
			if err == nil {
				err = os.WriteFile(filepath.Join(dir, markdown.OutputName(name, ".html")), []byte(html), 0o644)
			}
			if err != nil {
				fmt.Fprintf(os.Stdout, "failed  %s: %v\n", name, err)
				failed++
				continue
			}
		}

		fmt.Fprintf(os.Stdout, "wrote   %s\n", mdPath)
		written++
	}

	fmt.Fprintf(os.Stdout, "\n%d written, %d failed, %d skipped\n", written, failed, len(skipped))
	if failed > 0 {
		return fmt.Errorf("%d document(s) failed", failed)
	}
	return nil
}

func init() {
	markdownCmd.Flags().String("out", "", "output directory (default: next to each result file)")
	markdownCmd.Flags().Bool("html", false, "also write an HTML page per document")
	rootCmd.AddCommand(markdownCmd)
}
