package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/hkuds/relaybot/internal/outbound"
	"github.com/spf13/cobra"
)

var (
	sendTo      string
	sendMessage string
	sendMedia   string
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send a message through the Relay channel",
	Long:  "Send a text or media message to a recipient, creating the chat on first contact.",
	RunE:  runSend,
}

func init() {
	sendCmd.Flags().StringVar(&sendTo, "to", "", "recipient (phone number or relay:+number)")
	sendCmd.Flags().StringVar(&sendMessage, "message", "", "message text (caption when --media is set)")
	sendCmd.Flags().StringVar(&sendMedia, "media", "", "URL of a media attachment")
}

func runSend(cmd *cobra.Command, args []string) error {
	if sendTo == "" {
		return fmt.Errorf("to is required")
	}
	if sendMessage == "" && sendMedia == "" {
		return fmt.Errorf("either --message or --media is required")
	}

	sender, err := loadSender()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	var result outbound.Result
	if sendMedia != "" {
		result, err = sender.SendMedia(ctx, sendTo, sendMedia, sendMessage)
	} else {
		result, err = sender.SendText(ctx, sendTo, sendMessage)
	}
	if err != nil {
		return fmt.Errorf("send failed: %w", err)
	}

	fmt.Printf("Sent message %s (chat %s)\n", result.MessageID, result.ChatID)
	return nil
}
