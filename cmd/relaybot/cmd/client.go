package cmd

import (
	"fmt"

	"github.com/hkuds/relaybot/internal/chatstore"
	"github.com/hkuds/relaybot/internal/config"
	"github.com/hkuds/relaybot/internal/outbound"
	"github.com/hkuds/relaybot/internal/relay"
)

// loadRelayClient builds an API client from the stored configuration.
func loadRelayClient() (*config.Config, *relay.Client, error) {
	cfg, err := config.LoadConfig("")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	token := cfg.Channels.Relay.ResolveAPIToken()
	if token == "" {
		return nil, nil, fmt.Errorf("no Relay API token configured; run 'relaybot setup'")
	}

	return cfg, relay.NewClient(token), nil
}

// loadSender builds an outbound sender backed by the configured chat store.
func loadSender() (*outbound.Sender, error) {
	cfg, client, err := loadRelayClient()
	if err != nil {
		return nil, err
	}

	rc := cfg.Channels.Relay
	if rc.FromNumber == "" {
		return nil, fmt.Errorf("no sending number configured; run 'relaybot setup'")
	}

	store := chatstore.New(cfg.ChatStorePath())
	return outbound.NewSender(client, store, rc.FromNumber, relay.Service(rc.PreferredService)), nil
}
