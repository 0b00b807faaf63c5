// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/pdiddy/deckminer/internal/batch"
	"github.com/pdiddy/deckminer/internal/completion"
	"github.com/pdiddy/deckminer/internal/pptx"
	"github.com/pdiddy/deckminer/internal/remote"
	"github.com/pdiddy/deckminer/internal/secrets"
	"github.com/pdiddy/deckminer/internal/usage"
	"github.com/pdiddy/deckminer/pkg/types"
)

// defaultRequestDelay spaces consecutive remote calls in a batch.
const defaultRequestDelay = 2 * time.Second

var aiCmd = &cobra.Command{
	Use:   "ai [files|dirs...]",
	Short: "Extract facts from decks with a completion service",
	Long: `AI sends each deck's text to a completion service (gemini, anthropic or
openai) and records a fixed set of fields with a confidence score.

Calls are counted in a usage ledger. When the daily or monthly limit is
reached the batch stops, the remaining decks are reported as not processed,
and the summary is still written to _batch_summary_gemini.json.

API keys are read from .secrets/<provider>-api-key or <PROVIDER>_API_KEY.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAI,
}

func runAI(cmd *cobra.Command, args []string) error {
	decks, err := batch.FindDecks(args)
	if err != nil {
		return err
	}
	if len(decks) == 0 {
		return fmt.Errorf("no .pptx files found in %v", args)
	}

	aiCfg := aiConfig(cmd)
	completer, err := completion.New(aiCfg)
	if err != nil {
		return err
	}

	ledger, err := usage.Load(usageFilePath(cmd), logger)
	if err != nil {
		return err
	}

	delay := cfg.Analysis.RequestDelay
	if cmd.Flags().Changed("delay") {
		delay, _ = cmd.Flags().GetDuration("delay")
	}
	var limiter *rate.Limiter
	if delay > 0 {
		limiter = rate.NewLimiter(rate.Every(delay), 1)
	}

	adapter := remote.NewAdapter(completer, ledger, remote.Config{
		Limits:         quotaLimits(cmd),
		MaxPromptChars: cfg.Analysis.MaxPromptChars,
		Limiter:        limiter,
		Logger:         logger,
	})

	st := adapter.Status()
	fmt.Fprintf(os.Stdout, "Found %d deck(s); provider %s\n", len(decks), completer.Name())
	fmt.Fprintf(os.Stdout, "Usage today: %d/%d, this month: %d/%d\n\n",
		st.DailyUsed, st.DailyLimit, st.MonthlyUsed, st.MonthlyLimit)

	runner := batch.NewRunner(batch.Remote(adapter, pptx.Reader{}), runOptions(cmd, args))
	summary, err := runner.Run(cmd.Context(), decks, os.Stdout)
	if err != nil {
		return err
	}
	if summary.QuotaExceeded {
		fmt.Fprintf(os.Stdout, "Quota reached; %d deck(s) left for the next run.\n", summary.Skipped)
	}
	if summary.HasFailures() {
		return fmt.Errorf("%d deck(s) failed", summary.Errors)
	}
	return nil
}

// aiConfig merges provider flags over the configuration and resolves the
// API key for the chosen provider.
func aiConfig(cmd *cobra.Command) types.AIConfig {
	c := cfg.AI
	if cmd.Flags().Changed("provider") {
		c.Provider, _ = cmd.Flags().GetString("provider")
	}
	if cmd.Flags().Changed("model") {
		c.Model, _ = cmd.Flags().GetString("model")
	}
	c.Provider = strings.ToLower(c.Provider)
	if c.Provider == "" {
		c.Provider = completion.DefaultProvider
	}
	if c.APIKey == "" {
		c.APIKey = secrets.APIKey(loadedSecrets, c.Provider)
	}
	return c
}

func init() {
	addOutputFlags(aiCmd)
	addQuotaFlags(aiCmd)
	aiCmd.Flags().String("provider", completion.DefaultProvider, "completion provider: "+strings.Join(completion.Providers(), ", "))
	aiCmd.Flags().String("model", "", "model identifier (default depends on provider)")
	aiCmd.Flags().Duration("delay", defaultRequestDelay, "minimum delay between remote calls")

	rootCmd.AddCommand(aiCmd)
}
