// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/deckminer/internal/index"
	"github.com/pdiddy/deckminer/pkg/types"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage the results index (store, retrieve, export, stats)",
	Long: `Index manages a local SQLite database built from per-deck result
files. Use subcommands to ingest results, query facts, or export them.`,
}

// --- store subcommand ---

var indexStoreCmd = &cobra.Command{
	Use:   "store [result dirs...]",
	Short: "Ingest result JSON files into the index",
	Long: `Store walks the given directories (default: the configured output
directory, else the current directory) for result files and loads their
facts and slide text into the index. Unchanged files are skipped on
subsequent runs; batch summaries are ignored.`,
	RunE: runIndexStore,
}

func runIndexStore(cmd *cobra.Command, args []string) error {
	store, err := index.NewStore(indexConfig(cmd))
	if err != nil {
		return err
	}
	defer store.Close()

	dirs := args
	if len(dirs) == 0 {
		dirs = []string{"."}
		if cfg.Output.Dir != "" {
			dirs = []string{cfg.Output.Dir}
		}
	}

	summary, err := store.Ingest(cmd.Context(), dirs, os.Stdout)
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d file(s) failed indexing", summary.Failed)
	}
	return nil
}

// --- retrieve subcommand ---

var indexRetrieveCmd = &cobra.Command{
	Use:   "retrieve [query]",
	Short: "Query indexed facts by text, category, value or deck",
	Long: `Retrieve searches the index with a substring query over fact values
and slide text, structured filters (category, value, file), or both.`,
	RunE: runIndexRetrieve,
}

func runIndexRetrieve(cmd *cobra.Command, args []string) error {
	store, err := index.NewStore(indexConfig(cmd))
	if err != nil {
		return err
	}
	defer store.Close()

	opts := queryOptsFromFlags(cmd, args)
	if opts.IsEmpty() {
		return fmt.Errorf("query or filter required: provide a search query, --category, --value, or --file")
	}

	results, err := store.Retrieve(cmd.Context(), opts)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatRetrieveOutput(results, jsonOutput)
}

func formatRetrieveOutput(results []index.QueryResult, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-4s  %-30s  %-5s  %-12s  %s\n", "Rank", "File", "Slide", "Category", "Value")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 90))
	for i, r := range results {
		fmt.Fprintf(os.Stdout, "%-4d  %-30s  %-5d  %-12s  %s\n",
			i+1, clip(r.FileName, 30), r.SlideNumber, r.Category, clip(r.Value, 60))
	}
	fmt.Fprintf(os.Stdout, "\n%d results\n", len(results))
	return nil
}

// clip shortens s to n characters.
func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// --- export subcommand ---

var indexExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export indexed facts to YAML or JSON",
	Long: `Export writes the index (or a filtered subset) grouped by deck to
export.yaml or export.json next to the database, or to --out. Supports the
same filter flags as retrieve.`,
	RunE: runIndexExport,
}

func runIndexExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	out, _ := cmd.Flags().GetString("out")

	store, err := index.NewStore(indexConfig(cmd))
	if err != nil {
		return err
	}
	defer store.Close()

	opts := queryOptsFromFlags(cmd, args)
	if format == "" {
		format = "yaml"
	}
	if out == "" {
		out = filepath.Join(filepath.Dir(store.Path()), "export."+format)
	}

	switch format {
	case "yaml":
		err = store.ExportYAML(cmd.Context(), out, opts)
	case "json":
		err = store.ExportJSON(cmd.Context(), out, opts)
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
	if err != nil {
		return err
	}
	fmt.Println("Exported to", out)
	return nil
}

// --- stats subcommand ---

var indexStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show deck and fact counts for the index",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := index.NewStore(indexConfig(cmd))
		if err != nil {
			return err
		}
		defer store.Close()

		st, err := store.Stats(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Index:  %s\n", store.Path())
		fmt.Fprintf(os.Stdout, "Decks:  %d (%d failed)\n", st.Decks, st.Failed)
		fmt.Fprintf(os.Stdout, "Facts:  %d\n", st.Facts)
		return nil
	},
}

// --- shared helpers ---

func indexConfig(cmd *cobra.Command) types.IndexConfig {
	c := cfg.Index
	if cmd.Flags().Changed("db") {
		c.Path, _ = cmd.Flags().GetString("db")
	}
	if c.Path == "" {
		c.Path = filepath.Join(cfg.Output.Dir, index.DefaultDBFile)
	}
	if cmd.Flags().Changed("max-results") {
		c.MaxResults, _ = cmd.Flags().GetInt("max-results")
	}
	return c
}

func queryOptsFromFlags(cmd *cobra.Command, args []string) index.QueryOptions {
	queryText, _ := cmd.Flags().GetString("query")
	if queryText == "" && len(args) > 0 {
		queryText = strings.Join(args, " ")
	}
	category, _ := cmd.Flags().GetString("category")
	value, _ := cmd.Flags().GetString("value")
	file, _ := cmd.Flags().GetString("file")
	limit, _ := cmd.Flags().GetInt("limit")

	return index.QueryOptions{
		Query:      queryText,
		Category:   category,
		Value:      value,
		FileName:   file,
		MaxResults: limit,
	}
}

func addFilterFlags(cmd *cobra.Command, what string) {
	cmd.Flags().String("query", "", "substring search"+what)
	cmd.Flags().String("category", "", "filter by category: price, quantity, company, date, deadline, event_type, client, novelty, keyword, text, ..."+what)
	cmd.Flags().String("value", "", "filter by exact fact value"+what)
	cmd.Flags().String("file", "", "filter by deck file name"+what)
}

func init() {
	// Shared flags on the parent command, inherited by subcommands.
	indexCmd.PersistentFlags().String("db", "", "index database path (default: deckminer.db in the output directory)")
	indexCmd.PersistentFlags().Int("max-results", 20, "maximum number of query results")

	// Retrieve flags.
	addFilterFlags(indexRetrieveCmd, "")
	indexRetrieveCmd.Flags().Int("limit", 0, "maximum results (0 = use default)")
	indexRetrieveCmd.Flags().Bool("json", false, "output results as JSON")

	// Export flags.
	addFilterFlags(indexExportCmd, " for partial export")
	indexExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	indexExportCmd.Flags().String("out", "", "export file path")

	indexCmd.AddCommand(indexStoreCmd)
	indexCmd.AddCommand(indexRetrieveCmd)
	indexCmd.AddCommand(indexExportCmd)
	indexCmd.AddCommand(indexStatsCmd)

	rootCmd.AddCommand(indexCmd)
}
