package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Gateway.Port != 8080 {
		t.Errorf("default port = %d, want 8080", cfg.Gateway.Port)
	}
	if cfg.Channels.Relay.Enabled {
		t.Error("relay channel should be disabled by default")
	}
	if cfg.Channels.Relay.WebhookPath != "/webhooks/relay" {
		t.Errorf("default webhookPath = %q, want /webhooks/relay", cfg.Channels.Relay.WebhookPath)
	}
	if cfg.Channels.Relay.DMPolicy != "open" {
		t.Errorf("default dmPolicy = %q, want open", cfg.Channels.Relay.DMPolicy)
	}
	if cfg.Responder.Enabled {
		t.Error("responder should be disabled by default")
	}
	if cfg.Responder.Model != "gpt-4o-mini" {
		t.Errorf("default model = %q, want gpt-4o-mini", cfg.Responder.Model)
	}
	if cfg.Responder.MaxHistory != 20 {
		t.Errorf("default maxHistory = %d, want 20", cfg.Responder.MaxHistory)
	}
}

func TestStatePath(t *testing.T) {
	cfg := DefaultConfig()
	path := cfg.StatePath()

	if path == "" {
		t.Error("StatePath() should not be empty")
	}
	if path == "~/.relaybot" {
		t.Error("StatePath() should expand tilde")
	}
}

func TestStatePathEmpty(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StateDir = ""
	path := cfg.StatePath()

	if path == "" {
		t.Error("StatePath() should use default when empty")
	}
}

func TestStateSubdirs(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StateDir = "/tmp/relaybot-test"

	if got := cfg.ChatStorePath(); got != "/tmp/relaybot-test/chats.json" {
		t.Errorf("ChatStorePath() = %q", got)
	}
	if got := cfg.MediaDir(); got != "/tmp/relaybot-test/media" {
		t.Errorf("MediaDir() = %q", got)
	}
	if got := cfg.SessionsDir(); got != "/tmp/relaybot-test/sessions" {
		t.Errorf("SessionsDir() = %q", got)
	}
}

func TestResolveAPIToken(t *testing.T) {
	t.Run("inline token wins", func(t *testing.T) {
		r := RelayConfig{APIToken: "inline-token"}
		if got := r.ResolveAPIToken(); got != "inline-token" {
			t.Errorf("ResolveAPIToken() = %q, want inline-token", got)
		}
	})

	t.Run("token file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "token")
		if err := os.WriteFile(path, []byte("  file-token\n"), 0600); err != nil {
			t.Fatal(err)
		}
		r := RelayConfig{TokenFile: path}
		if got := r.ResolveAPIToken(); got != "file-token" {
			t.Errorf("ResolveAPIToken() = %q, want file-token", got)
		}
	})

	t.Run("environment fallback", func(t *testing.T) {
		t.Setenv("RELAY_API_TOKEN", "env-token")
		r := RelayConfig{}
		if got := r.ResolveAPIToken(); got != "env-token" {
			t.Errorf("ResolveAPIToken() = %q, want env-token", got)
		}
	})

	t.Run("missing token file falls through to env", func(t *testing.T) {
		t.Setenv("RELAY_API_TOKEN", "env-token")
		r := RelayConfig{TokenFile: "/nonexistent/token"}
		if got := r.ResolveAPIToken(); got != "env-token" {
			t.Errorf("ResolveAPIToken() = %q, want env-token", got)
		}
	})

	t.Run("nothing configured", func(t *testing.T) {
		t.Setenv("RELAY_API_TOKEN", "")
		r := RelayConfig{}
		if got := r.ResolveAPIToken(); got != "" {
			t.Errorf("ResolveAPIToken() = %q, want empty", got)
		}
	})
}

func TestSenderAllowed(t *testing.T) {
	tests := []struct {
		name   string
		cfg    RelayConfig
		sender string
		want   bool
	}{
		{
			name:   "open policy accepts anyone",
			cfg:    RelayConfig{DMPolicy: "open"},
			sender: "+15551234567",
			want:   true,
		},
		{
			name:   "empty policy accepts anyone",
			cfg:    RelayConfig{},
			sender: "+15551234567",
			want:   true,
		},
		{
			name:   "allowlist accepts listed sender",
			cfg:    RelayConfig{DMPolicy: "allowlist", AllowFrom: []string{"+15551234567"}},
			sender: "+15551234567",
			want:   true,
		},
		{
			name:   "allowlist rejects unlisted sender",
			cfg:    RelayConfig{DMPolicy: "allowlist", AllowFrom: []string{"+15551234567"}},
			sender: "+15559999999",
			want:   false,
		},
		{
			name:   "empty allowlist rejects everyone",
			cfg:    RelayConfig{DMPolicy: "allowlist"},
			sender: "+15551234567",
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.SenderAllowed(tt.sender); got != tt.want {
				t.Errorf("SenderAllowed(%q) = %v, want %v", tt.sender, got, tt.want)
			}
		})
	}
}

func TestLoadConfigMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{"channels":{"relay":{"enabled":true,"fromNumber":"+15550001111"}}}`
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if !cfg.Channels.Relay.Enabled {
		t.Error("relay should be enabled from file")
	}
	if cfg.Channels.Relay.FromNumber != "+15550001111" {
		t.Errorf("fromNumber = %q", cfg.Channels.Relay.FromNumber)
	}
	// Untouched fields keep their defaults.
	if cfg.Gateway.Port != 8080 {
		t.Errorf("gateway port = %d, want default 8080", cfg.Gateway.Port)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Gateway.Port != 8080 {
		t.Error("missing file should yield defaults")
	}
}

func TestSaveAndReloadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.json")

	cfg := DefaultConfig()
	cfg.Channels.Relay.Enabled = true
	cfg.Channels.Relay.WebhookSecret = "whsec_test"
	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("config file mode = %o, want 0600", perm)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if !loaded.Channels.Relay.Enabled {
		t.Error("reloaded config should have relay enabled")
	}
	if loaded.Channels.Relay.WebhookSecret != "whsec_test" {
		t.Errorf("webhookSecret = %q", loaded.Channels.Relay.WebhookSecret)
	}
}

func TestExpandPath(t *testing.T) {
	// Empty path
	if got := expandPath(""); got != "" {
		t.Errorf("expandPath('') = %q, want empty", got)
	}

	// Tilde expansion
	result := expandPath("~/test")
	if result == "~/test" {
		t.Error("expandPath should expand tilde")
	}
	if result == "" {
		t.Error("expandPath should return non-empty path")
	}

	// Just tilde
	result = expandPath("~")
	if result == "~" {
		t.Error("expandPath('~') should expand to home dir")
	}

	// Absolute path
	result = expandPath("/tmp/test")
	if result != "/tmp/test" {
		t.Errorf("expandPath('/tmp/test') = %q, want /tmp/test", result)
	}
}
