package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/hkuds/relaybot/internal/relay"
	"github.com/spf13/cobra"
)

var webhookURL string

var webhookCmd = &cobra.Command{
	Use:   "webhook",
	Short: "Manage webhook subscriptions",
	Long:  "Create, list, and delete Relay webhook subscriptions for this account.",
}

var webhookCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Register a webhook subscription",
	Long:  "Register a webhook subscription for all event types. The signing secret is shown once and never returned again.",
	RunE:  runWebhookCreate,
}

var webhookListCmd = &cobra.Command{
	Use:   "list",
	Short: "List webhook subscriptions",
	RunE:  runWebhookList,
}

var webhookDeleteCmd = &cobra.Command{
	Use:   "delete <subscription-id>",
	Short: "Delete a webhook subscription",
	Args:  cobra.ExactArgs(1),
	RunE:  runWebhookDelete,
}

func init() {
	webhookCreateCmd.Flags().StringVar(&webhookURL, "url", "", "public URL the provider should deliver events to")

	webhookCmd.AddCommand(webhookCreateCmd)
	webhookCmd.AddCommand(webhookListCmd)
	webhookCmd.AddCommand(webhookDeleteCmd)
}

func webhookContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 2*time.Minute)
}

func runWebhookCreate(cmd *cobra.Command, args []string) error {
	if webhookURL == "" {
		return fmt.Errorf("url is required")
	}

	_, client, err := loadRelayClient()
	if err != nil {
		return err
	}

	ctx, cancel := webhookContext()
	defer cancel()

	resp, err := client.CreateWebhookSubscription(ctx, webhookURL, relay.AllEventTypes)
	if err != nil {
		return fmt.Errorf("failed to create webhook subscription: %w", err)
	}

	sub := resp.Subscription
	fmt.Printf("Created webhook subscription %s\n", sub.ID)
	fmt.Printf("  Target URL: %s\n", sub.TargetURL)
	fmt.Printf("  Events:     %d subscribed\n", len(sub.SubscribedEvents))
	fmt.Println()
	fmt.Printf("Signing secret: %s\n", sub.SigningSecret)
	fmt.Println("Store it now as webhook_secret in your config - it will not be shown again.")
	return nil
}

func runWebhookList(cmd *cobra.Command, args []string) error {
	_, client, err := loadRelayClient()
	if err != nil {
		return err
	}

	ctx, cancel := webhookContext()
	defer cancel()

	resp, err := client.ListWebhookSubscriptions(ctx)
	if err != nil {
		return fmt.Errorf("failed to list webhook subscriptions: %w", err)
	}

	if len(resp.Subscriptions) == 0 {
		fmt.Println("No webhook subscriptions.")
		return nil
	}

	for _, sub := range resp.Subscriptions {
		state := "inactive"
		if sub.IsActive {
			state = "active"
		}
		fmt.Printf("%-20s %-8s %s\n", sub.ID, state, sub.TargetURL)
	}
	return nil
}

func runWebhookDelete(cmd *cobra.Command, args []string) error {
	_, client, err := loadRelayClient()
	if err != nil {
		return err
	}

	ctx, cancel := webhookContext()
	defer cancel()

	if _, err := client.DeleteWebhookSubscription(ctx, args[0]); err != nil {
		return fmt.Errorf("failed to delete webhook subscription: %w", err)
	}

	fmt.Printf("Deleted webhook subscription %s\n", args[0])
	return nil
}
