package config

import (
	"os"
	"path/filepath"
	"strings"
)

// Config represents the root configuration structure for relaybot.
type Config struct {
	Channels  ChannelsConfig  `json:"channels"`
	Responder ResponderConfig `json:"responder"`
	Gateway   GatewayConfig   `json:"gateway"`
	StateDir  string          `json:"stateDir"`
}

// ChannelsConfig holds all communication channel configurations.
type ChannelsConfig struct {
	Relay RelayConfig `json:"relay"`
}

// RelayConfig represents the Relay messaging channel configuration.
type RelayConfig struct {
	Enabled bool `json:"enabled"`

	// APIToken authenticates against the Partner API. TokenFile points to
	// a file holding the token instead; the RELAY_API_TOKEN environment
	// variable is the final fallback.
	APIToken  string `json:"apiToken,omitempty"`
	TokenFile string `json:"tokenFile,omitempty"`

	// FromNumber is the provisioned sender number, e.g. "+15550001111".
	FromNumber string `json:"fromNumber"`

	WebhookSecret string `json:"webhookSecret,omitempty"`
	WebhookPath   string `json:"webhookPath"`

	// PreferredService pins outbound delivery to iMessage, RCS, or SMS.
	// Empty lets the provider choose.
	PreferredService string `json:"preferredService,omitempty"`

	// DMPolicy controls who can talk to the bot: "open" accepts anyone,
	// "allowlist" only senders in AllowFrom.
	DMPolicy  string   `json:"dmPolicy"`
	AllowFrom []string `json:"allowFrom"`

	// ReactionAck adds a tapback reaction to each handled inbound message.
	ReactionAck string `json:"reactionAck,omitempty"`
}

// ResponderConfig holds the automatic reply pipeline configuration.
type ResponderConfig struct {
	Enabled      bool    `json:"enabled"`
	APIKey       string  `json:"apiKey,omitempty"`
	APIBase      string  `json:"apiBase,omitempty"`
	Model        string  `json:"model"`
	MaxTokens    int     `json:"maxTokens"`
	Temperature  float64 `json:"temperature"`
	SystemPrompt string  `json:"systemPrompt,omitempty"`
	MaxHistory   int     `json:"maxHistory"`
}

// GatewayConfig holds HTTP gateway configuration.
type GatewayConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// DefaultConfig returns a new Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		Channels: ChannelsConfig{
			Relay: RelayConfig{
				Enabled:     false,
				WebhookPath: "/webhooks/relay",
				DMPolicy:    "open",
				AllowFrom:   []string{},
			},
		},
		Responder: ResponderConfig{
			Enabled:     false,
			APIBase:     "https://api.openai.com/v1",
			Model:       "gpt-4o-mini",
			MaxTokens:   1024,
			Temperature: 0.7,
			MaxHistory:  20,
		},
		Gateway: GatewayConfig{
			Host: "127.0.0.1",
			Port: 8080,
		},
		StateDir: "~/.relaybot",
	}
}

// StatePath returns the absolute path to the state directory, expanding ~
// to the user's home directory.
func (c *Config) StatePath() string {
	dir := c.StateDir
	if dir == "" {
		dir = "~/" + DefaultConfigDir
	}
	return expandPath(dir)
}

// ChatStorePath returns the path of the recipient-to-chat mapping file.
func (c *Config) ChatStorePath() string {
	return filepath.Join(c.StatePath(), "chats.json")
}

// MediaDir returns the directory inbound attachments are downloaded to.
func (c *Config) MediaDir() string {
	return filepath.Join(c.StatePath(), "media")
}

// SessionsDir returns the conversation session storage directory.
func (c *Config) SessionsDir() string {
	return filepath.Join(c.StatePath(), "sessions")
}

// ResolveAPIToken returns the Partner API token, checking the inline
// config value, then the token file, then the RELAY_API_TOKEN environment
// variable. Returns empty when none is set.
func (r *RelayConfig) ResolveAPIToken() string {
	if r.APIToken != "" {
		return r.APIToken
	}
	if r.TokenFile != "" {
		data, err := os.ReadFile(expandPath(r.TokenFile))
		if err == nil {
			if token := strings.TrimSpace(string(data)); token != "" {
				return token
			}
		}
	}
	return strings.TrimSpace(os.Getenv("RELAY_API_TOKEN"))
}

// SenderAllowed reports whether a sender handle may talk to the bot under
// the configured DM policy.
func (r *RelayConfig) SenderAllowed(sender string) bool {
	if r.DMPolicy != "allowlist" {
		return true
	}
	for _, allowed := range r.AllowFrom {
		if allowed == sender {
			return true
		}
	}
	return false
}

// expandPath expands ~ to the user's home directory and resolves the path.
func expandPath(path string) string {
	if path == "" {
		return path
	}

	// Expand ~ to home directory
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		if len(path) == 1 {
			return home
		}
		// Handle ~/path and ~path cases
		if path[1] == '/' || path[1] == filepath.Separator {
			path = filepath.Join(home, path[2:])
		} else {
			path = filepath.Join(home, path[1:])
		}
	}

	// Convert to absolute path
	absPath, err := filepath.Abs(path)
	if err != nil {
		return path
	}

	return absPath
}
