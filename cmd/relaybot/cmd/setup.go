package cmd

import (
	"fmt"

	"github.com/hkuds/relaybot/internal/tui"
	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Run interactive setup wizard",
	Long:  "Run the interactive setup wizard to configure the Relay channel, webhook verification, and the optional auto-responder.",
	RunE:  runSetup,
}

func runSetup(cmd *cobra.Command, args []string) error {
	cfg, err := tui.RunSetup()
	if err != nil {
		return fmt.Errorf("setup failed: %w", err)
	}

	// Show quick status after setup
	fmt.Println()
	tui.ShowQuickStatus(cfg)

	fmt.Println()
	fmt.Println("You can now:")
	fmt.Println("  - Register the webhook: relaybot webhook create --url https://your-host" + cfg.Channels.Relay.WebhookPath)
	fmt.Println("  - Start the gateway:    relaybot gateway")
	fmt.Println("  - Send a test message:  relaybot send --to relay:+15551234567 --message hi")
	fmt.Println("  - View full status:     relaybot status")

	return nil
}
