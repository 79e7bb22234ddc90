package channels

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/hkuds/relaybot/internal/bus"
	"github.com/hkuds/relaybot/internal/chatstore"
	"github.com/hkuds/relaybot/internal/config"
	"github.com/hkuds/relaybot/internal/media"
	"github.com/hkuds/relaybot/internal/relay"
)

// Manager manages the lifecycle of communication channels.
type Manager struct {
	config   *config.Config
	bus      *bus.MessageBus
	channels map[string]Channel
	mu       sync.RWMutex
}

// NewManager creates a new channel manager.
func NewManager(cfg *config.Config, msgBus *bus.MessageBus) *Manager {
	return &Manager{
		config:   cfg,
		bus:      msgBus,
		channels: make(map[string]Channel),
	}
}

// Initialize creates enabled channels based on configuration.
// This must be called before StartAll. The registrar mounts webhook
// handlers on the gateway's HTTP server.
func (m *Manager) Initialize(registrar WebhookRegistrar) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.config.Channels.Relay.Enabled {
		relayCfg := m.config.Channels.Relay

		token := relayCfg.ResolveAPIToken()
		if token == "" {
			return fmt.Errorf("relay channel enabled but no API token configured")
		}
		if relayCfg.FromNumber == "" {
			return fmt.Errorf("relay channel enabled but fromNumber not configured")
		}

		client := relay.NewClient(token)
		store := chatstore.New(m.config.ChatStorePath())
		mediaStore := media.NewStore(m.config.MediaDir())

		m.channels["relay"] = NewRelayChannel(relayCfg, m.bus, client, store, mediaStore, registrar)
		log.Println("Relay channel initialized")
	}

	if len(m.channels) == 0 {
		log.Println("Warning: No channels are enabled")
	}

	return nil
}

// StartAll starts all initialized channels.
func (m *Manager) StartAll(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var errs []error

	for name, ch := range m.channels {
		if err := ch.Start(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to start channel %s: %w", name, err))
			continue
		}
		log.Printf("Channel %s started", name)
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors starting channels: %v", errs)
	}

	return nil
}

// StopAll gracefully stops all running channels.
func (m *Manager) StopAll() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var errs []error

	for name, ch := range m.channels {
		if !ch.IsRunning() {
			continue
		}

		if err := ch.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop channel %s: %w", name, err))
			continue
		}
		log.Printf("Channel %s stopped", name)
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors stopping channels: %v", errs)
	}

	return nil
}

// GetChannel returns a channel by name, or nil if not found.
func (m *Manager) GetChannel(name string) Channel {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.channels[name]
}

// ListChannels returns a sorted list of all channel names.
func (m *Manager) ListChannels() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.channels))
	for name := range m.channels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RegisterChannel adds a custom channel to the manager.
// This allows for dynamic channel registration beyond config-based initialization.
func (m *Manager) RegisterChannel(ch Channel) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ch == nil {
		return fmt.Errorf("cannot register nil channel")
	}

	name := ch.Name()
	if _, exists := m.channels[name]; exists {
		return fmt.Errorf("channel %s already registered", name)
	}

	m.channels[name] = ch
	return nil
}

// UnregisterChannel removes a channel from the manager.
// The channel must be stopped before unregistering.
func (m *Manager) UnregisterChannel(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch, exists := m.channels[name]
	if !exists {
		return fmt.Errorf("channel %s not found", name)
	}

	if ch.IsRunning() {
		return fmt.Errorf("cannot unregister running channel %s", name)
	}

	delete(m.channels, name)
	return nil
}

// RunningChannels returns a list of currently running channel names.
func (m *Manager) RunningChannels() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var running []string
	for name, ch := range m.channels {
		if ch.IsRunning() {
			running = append(running, name)
		}
	}
	sort.Strings(running)
	return running
}

// ChannelCount returns the total number of registered channels.
func (m *Manager) ChannelCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.channels)
}
