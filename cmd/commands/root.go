package commands

// Root command for the Cobra CLI.

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "polymarket-alert",
	Short: "Polymarket Trade Alert - Telegram bot for wallet activity alerts",
	Long: `Polymarket Trade Alert is a Telegram bot that watches Polygon wallet
addresses for subscribers, enriches new transactions with matching
Polymarket trades and pushes alerts to every follower.`,
	Version: "1.0.0",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(botCmd)
}
