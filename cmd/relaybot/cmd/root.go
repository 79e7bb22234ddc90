package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "relaybot",
	Short: "relaybot - Relay messaging channel gateway",
	Long:  `relaybot connects the Relay Partner API (iMessage, RCS, SMS) to a local message bus, with webhook ingestion, outbound delivery, and an optional auto-responder.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(setupCmd)
	rootCmd.AddCommand(gatewayCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(chatsCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(webhookCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
}
