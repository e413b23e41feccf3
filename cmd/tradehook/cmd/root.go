package cmd

import (
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "tradehook",
	Short: "Webhook bridge from trade alerts to risk-sized OANDA orders",
	Long: `Tradehook receives trade-alert webhooks, sizes each trade against
current account equity and the alert's stop distance, and places a
bounded-risk bracketed order with OANDA.

It provides:
  - Token- and IP-gated webhook intake for alerting platforms
  - Fractional-risk position sizing with quote-currency conversion
  - Good-til-date limit entries with attached stop-loss/take-profit
  - Close-all-by-side exits
  - A trade audit trail (Google Sheets with a guaranteed local fallback)
  - Best-effort Discord notifications`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "path to the configuration file")
}
