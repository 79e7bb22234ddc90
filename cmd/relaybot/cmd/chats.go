package cmd

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/hkuds/relaybot/internal/chatstore"
	"github.com/hkuds/relaybot/internal/config"
	"github.com/spf13/cobra"
)

var chatsRemote bool

var chatsCmd = &cobra.Command{
	Use:   "chats",
	Short: "List known chats",
	Long:  "List locally cached recipient-to-chat mappings, or query the Relay API for all chats with --remote.",
	RunE:  runChats,
}

func init() {
	chatsCmd.Flags().BoolVar(&chatsRemote, "remote", false, "list chats from the Relay API instead of the local cache")
}

func runChats(cmd *cobra.Command, args []string) error {
	if chatsRemote {
		return listRemoteChats()
	}
	return listCachedChats()
}

func listCachedChats() error {
	cfg, err := config.LoadConfig("")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	mappings := chatstore.New(cfg.ChatStorePath()).All()
	if len(mappings) == 0 {
		fmt.Println("No cached chats. Chats are cached on first send or inbound message.")
		return nil
	}

	recipients := make([]string, 0, len(mappings))
	for recipient := range mappings {
		recipients = append(recipients, recipient)
	}
	sort.Strings(recipients)

	for _, recipient := range recipients {
		fmt.Printf("%-24s %s\n", recipient, mappings[recipient])
	}
	return nil
}

func listRemoteChats() error {
	cfg, client, err := loadRelayClient()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	cursor := ""
	total := 0
	for {
		page, err := client.ListChats(ctx, cfg.Channels.Relay.FromNumber, cursor)
		if err != nil {
			return fmt.Errorf("failed to list chats: %w", err)
		}
		for _, chat := range page.Chats {
			fmt.Printf("%-20s %-8s %v\n", chat.ID, chat.Service, chat.Participants)
			total++
		}
		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}

	if total == 0 {
		fmt.Println("No chats found.")
	}
	return nil
}
