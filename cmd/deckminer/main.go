// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the deckminer CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/deckminer/internal/completion"
	"github.com/pdiddy/deckminer/internal/logging"
	"github.com/pdiddy/deckminer/internal/remote"
	"github.com/pdiddy/deckminer/internal/secrets"
	"github.com/pdiddy/deckminer/internal/usage"
	"github.com/pdiddy/deckminer/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// usageFileName is the ledger file created in the home directory.
const usageFileName = ".deckminer_usage.json"

var (
	// loadedSecrets holds API keys loaded from .secrets/ at startup.
	loadedSecrets map[string]string

	// cfg is the resolved configuration for the running command.
	cfg types.Config

	logger = zap.NewNop()
)

// rootCmd is the base command for the deckminer CLI.
var rootCmd = &cobra.Command{
	Use:   "deckminer",
	Short: "Extract business facts from PowerPoint decks",
	Long: `deckminer reads .pptx decks and extracts prices, quantities, dates,
companies and other business facts from their slide text.

Two analysis paths are available: analyze runs a local rule engine, and ai
sends the deck text to a completion service under a daily and monthly call
quota. Results are written as one JSON document per deck plus a batch
summary, and can be rendered to Markdown, indexed in SQLite, or exported to
a spreadsheet.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := viper.Unmarshal(&cfg); err != nil {
			return fmt.Errorf("decoding configuration: %w", err)
		}

		l, err := logging.New(cfg.Log)
		if err != nil {
			return err
		}
		logger = l
		if used := viper.ConfigFileUsed(); used != "" {
			logger.Debug("using config file", zap.String("path", used))
		}

		s, err := secrets.Load(".secrets/", logger)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			logger.Debug("loaded secrets", zap.Strings("keys", keys))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./deckminer.yaml or ~/.config/deckminer/deckminer.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "console", "log format: console or json")

	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))

	setDefaults()
}

func setDefaults() {
	viper.SetDefault("ai.provider", completion.DefaultProvider)
	viper.SetDefault("ai.max_retries", 3)
	viper.SetDefault("ai.max_tokens", completion.DefaultMaxTokens)
	viper.SetDefault("ai.timeout", completion.DefaultTimeout)
	viper.SetDefault("quota.daily_limit", usage.DefaultDailyLimit)
	viper.SetDefault("quota.monthly_limit", usage.DefaultMonthlyLimit)
	viper.SetDefault("analysis.max_prompt_chars", remote.DefaultMaxPromptChars)
	viper.SetDefault("analysis.request_delay", defaultRequestDelay)
	viper.SetDefault("index.max_results", 20)
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("deckminer")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "deckminer"))
		}
	}

	viper.SetEnvPrefix("DECKMINER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			fmt.Fprintln(os.Stderr, "warning: reading config:", err)
		}
	}
}

// usageFilePath resolves the ledger location: flag, then config, then the
// home directory.
func usageFilePath(cmd *cobra.Command) string {
	if p, _ := cmd.Flags().GetString("usage-file"); p != "" {
		return p
	}
	if cfg.Quota.UsageFile != "" {
		return cfg.Quota.UsageFile
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return usageFileName
	}
	return filepath.Join(home, usageFileName)
}

// quotaLimits applies --daily-limit and --monthly-limit over the config.
func quotaLimits(cmd *cobra.Command) usage.Limits {
	limits := usage.Limits{Daily: cfg.Quota.DailyLimit, Monthly: cfg.Quota.MonthlyLimit}
	if cmd.Flags().Changed("daily-limit") {
		limits.Daily, _ = cmd.Flags().GetInt("daily-limit")
	}
	if cmd.Flags().Changed("monthly-limit") {
		limits.Monthly, _ = cmd.Flags().GetInt("monthly-limit")
	}
	return limits
}

// addQuotaFlags registers the ledger flags shared by ai and usage.
func addQuotaFlags(cmd *cobra.Command) {
	cmd.Flags().String("usage-file", "", "usage ledger path (default ~/"+usageFileName+")")
	cmd.Flags().Int("daily-limit", usage.DefaultDailyLimit, "maximum remote calls per day")
	cmd.Flags().Int("monthly-limit", usage.DefaultMonthlyLimit, "maximum remote calls per month")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
