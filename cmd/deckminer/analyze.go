// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/deckminer/internal/aggregate"
	"github.com/pdiddy/deckminer/internal/batch"
	"github.com/pdiddy/deckminer/internal/pptx"
	"github.com/pdiddy/deckminer/internal/rules"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [files|dirs...]",
	Short: "Extract facts from decks with the local rule engine",
	Long: `Analyze reads every .pptx deck under the given files and directories
(recursively, skipping Office lock files) and runs the built-in extraction
rules over each slide. One JSON result is written per deck, next to the deck
or into --out, followed by _batch_summary.json.

Extra categories and keywords can be added with a YAML rules file.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnalyze,
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	decks, err := batch.FindDecks(args)
	if err != nil {
		return err
	}
	if len(decks) == 0 {
		return fmt.Errorf("no .pptx files found in %v", args)
	}

	reg, err := loadRules(cmd)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Found %d deck(s)\n\n", len(decks))
	runner := batch.NewRunner(
		batch.Local(aggregate.New(reg), pptx.Reader{}),
		runOptions(cmd, args),
	)
	summary, err := runner.Run(cmd.Context(), decks, os.Stdout)
	if err != nil {
		return err
	}
	if summary.HasFailures() {
		return fmt.Errorf("%d deck(s) failed", summary.Errors)
	}
	return nil
}

// loadRules returns the built-in registry extended by the rules file, if any.
func loadRules(cmd *cobra.Command) (*rules.Registry, error) {
	reg := rules.DefaultRegistry()
	path, _ := cmd.Flags().GetString("rules")
	if path == "" {
		path = cfg.Analysis.RulesFile
	}
	if path == "" {
		return reg, nil
	}
	if err := reg.LoadFile(path); err != nil {
		return nil, err
	}
	for _, s := range reg.Skipped() {
		logger.Warn("skipped invalid rule",
			zap.String("category", s.Category), zap.String("pattern", s.Expr), zap.Error(s.Err))
	}
	return reg, nil
}

// runOptions resolves output locations. The summary goes to --out, else the
// single directory argument, else the current directory.
func runOptions(cmd *cobra.Command, args []string) batch.Options {
	opts := batch.Options{
		OutDir:   cfg.Output.Dir,
		Markdown: cfg.Output.Markdown,
		Logger:   logger,
	}
	if cmd.Flags().Changed("out") {
		opts.OutDir, _ = cmd.Flags().GetString("out")
	}
	if cmd.Flags().Changed("markdown") {
		opts.Markdown, _ = cmd.Flags().GetBool("markdown")
	}
	if opts.OutDir == "" && len(args) == 1 {
		if info, err := os.Stat(args[0]); err == nil && info.IsDir() {
			opts.SummaryDir = args[0]
		}
	}
	return opts
}

// addOutputFlags registers the flags shared by analyze and ai.
func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().String("out", "", "directory for result files (default: next to each deck)")
	cmd.Flags().Bool("markdown", false, "also write a Markdown document per deck")
}

func init() {
	addOutputFlags(analyzeCmd)
	analyzeCmd.Flags().String("rules", "", "YAML file with extra extraction rules")
	rootCmd.AddCommand(analyzeCmd)
}
