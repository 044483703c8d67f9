package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "polymarket-arb",
	Short: "GMP-basket paper-trading arbitrage watcher",
	Long: `Watches a fixed basket of sibling Polymarket markets for a guaranteed-
minimum-payout arbitrage: when the combined YES ask across the basket drops
below the configured threshold, it opens a paper position and reports the
signal. Positions close when the basket is no longer open, and realized/
unrealized PnL is tracked and persisted throughout.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	// Flags can be added here if needed
}
