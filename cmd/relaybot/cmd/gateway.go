package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/hkuds/relaybot/internal/bus"
	"github.com/hkuds/relaybot/internal/channels"
	"github.com/hkuds/relaybot/internal/config"
	"github.com/hkuds/relaybot/internal/gateway"
	"github.com/hkuds/relaybot/internal/responder"
	"github.com/hkuds/relaybot/internal/session"
	"github.com/spf13/cobra"
)

var gatewayCmd = &cobra.Command{
	Use:   "gateway",
	Short: "Start the webhook gateway",
	Long:  "Start the gateway server that receives Relay webhooks, delivers outbound messages, and runs the auto-responder when enabled.",
	RunE:  runGateway,
}

func runGateway(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := config.LoadConfig("")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Check if the relay channel is configured
	if !cfg.Channels.Relay.Enabled {
		fmt.Println("Relay channel is not configured.")
		fmt.Println("Run 'relaybot setup' to configure it.")
		return nil
	}

	if err := config.EnsureStateDirs(cfg); err != nil {
		return err
	}

	// Create message bus
	msgBus := bus.NewMessageBus(100)
	defer msgBus.Close()

	// Create the HTTP server that channels mount their webhook handlers on
	server := gateway.NewServer(cfg.Gateway.Host, cfg.Gateway.Port)

	// Create and initialize the channel manager
	manager := channels.NewManager(cfg, msgBus)
	if err := manager.Initialize(server); err != nil {
		return fmt.Errorf("failed to initialize channels: %w", err)
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start outbound message dispatcher
	go msgBus.DispatchOutbound(ctx)

	// Start channels before the server accepts webhook traffic
	if err := manager.StartAll(ctx); err != nil {
		return fmt.Errorf("failed to start channels: %w", err)
	}
	defer manager.StopAll()

	// WaitGroup for tracking running goroutines
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := server.Run(ctx); err != nil {
			fmt.Printf("Gateway server error: %v\n", err)
		}
	}()

	// Start the auto-responder loop
	if cfg.Responder.Enabled {
		sessionMgr := session.NewManager(cfg.StatePath())
		r := responder.New(cfg.Responder, msgBus, sessionMgr)
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Run(ctx)
		}()
		fmt.Printf("Responder: enabled (model: %s)\n", cfg.Responder.Model)
	}

	fmt.Printf("Relay channel: enabled (from %s)\n", cfg.Channels.Relay.FromNumber)
	fmt.Printf("Webhook endpoint: http://%s%s\n", server.Addr(), cfg.Channels.Relay.WebhookPath)
	fmt.Println()
	fmt.Println("Gateway is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	<-sigChan
	fmt.Println("\nShutting down gateway...")

	// Cancel context to stop all goroutines
	cancel()

	// Wait for all goroutines to finish with timeout
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		fmt.Println("Gateway stopped gracefully.")
	case <-time.After(10 * time.Second):
		fmt.Println("Gateway shutdown timed out.")
	}

	return nil
}
