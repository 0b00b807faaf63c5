// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/deckminer/internal/usage"
)

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show remote call usage against the daily and monthly limits",
	RunE: func(cmd *cobra.Command, args []string) error {
		ledger, err := usage.Load(usageFilePath(cmd), logger)
		if err != nil {
			return err
		}
		st := ledger.Status(time.Now(), quotaLimits(cmd))

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(st)
		}

		fmt.Fprintf(os.Stdout, "Ledger:  %s\n", ledger.Path())
		fmt.Fprintf(os.Stdout, "Today:   %s  %d/%d (%d remaining)\n", st.Date, st.DailyUsed, st.DailyLimit, st.DailyRemaining)
		fmt.Fprintf(os.Stdout, "Month:   %s  %d/%d (%d remaining)\n", st.Month, st.MonthlyUsed, st.MonthlyLimit, st.MonthlyRemaining)
		fmt.Fprintf(os.Stdout, "Total:   %d\n", st.Total)
		return nil
	},
}

func init() {
	addQuotaFlags(usageCmd)
	usageCmd.Flags().Bool("json", false, "output status as JSON")
	rootCmd.AddCommand(usageCmd)
}
