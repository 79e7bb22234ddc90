// Package tui provides interactive terminal user interface components for relaybot.
package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/hkuds/relaybot/internal/config"
)

// ServiceOptions lists the delivery services the provider supports.
var ServiceOptions = []string{"", "iMessage", "RCS", "SMS"}

// ModelOptions lists common responder models.
var ModelOptions = []string{
	"gpt-4o-mini",
	"gpt-4o",
	"gpt-4-turbo",
}

// Styles for the setup wizard.
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			MarginBottom(1)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("82")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2)
)

// SetupState holds the state of the setup wizard.
type SetupState struct {
	APIToken         string
	FromNumber       string
	PreferredService string
	WebhookSecret    string
	WebhookPath      string
	DMPolicy         string
	AllowFrom        string
	ReactionAck      string

	ConfigResponder bool
	ResponderAPIKey string
	ResponderModel  string

	GatewayHost string
	GatewayPort string

	Confirmed bool
}

// RunSetup runs the interactive setup wizard.
// Returns the configured Config or error.
func RunSetup() (*config.Config, error) {
	defaults := config.DefaultConfig()
	state := &SetupState{
		WebhookPath: defaults.Channels.Relay.WebhookPath,
		DMPolicy:    defaults.Channels.Relay.DMPolicy,
		GatewayHost: defaults.Gateway.Host,
		GatewayPort: strconv.Itoa(defaults.Gateway.Port),
	}

	// Step 1: Welcome & provider credentials
	if err := runWelcomeStep(state); err != nil {
		return nil, fmt.Errorf("welcome step failed: %w", err)
	}

	// Step 2: Webhook configuration
	if err := runWebhookStep(state); err != nil {
		return nil, fmt.Errorf("webhook step failed: %w", err)
	}

	// Step 3: DM policy
	if err := runPolicyStep(state); err != nil {
		return nil, fmt.Errorf("policy step failed: %w", err)
	}

	// Step 4: Responder
	if err := runResponderStep(state); err != nil {
		return nil, fmt.Errorf("responder step failed: %w", err)
	}

	// Step 5: Gateway
	if err := runGatewayStep(state); err != nil {
		return nil, fmt.Errorf("gateway step failed: %w", err)
	}

	// Step 6: Confirmation
	if err := runConfirmationStep(state); err != nil {
		return nil, fmt.Errorf("confirmation step failed: %w", err)
	}

	if !state.Confirmed {
		return nil, fmt.Errorf("setup cancelled by user")
	}

	cfg := buildConfigFromState(state)

	if err := config.SaveConfig(cfg, ""); err != nil {
		return nil, fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Println(successStyle.Render("\n✓ Configuration saved successfully!"))
	fmt.Println(subtitleStyle.Render("Config file: " + config.GetConfigPath()))
	fmt.Println()

	return cfg, nil
}

// runWelcomeStep displays the welcome message and collects API credentials.
func runWelcomeStep(state *SetupState) error {
	banner := `
              __            __          __
   ________  / /___ ___  __/ /_  ____  / /_
  / ___/ _ \/ / __ '/ / / / __ \/ __ \/ __/
 / /  /  __/ / /_/ / /_/ / /_/ / /_/ / /_
/_/   \___/_/\__,_/\__, /_.___/\____/\__/
                  /____/
`
	fmt.Println(lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Render(banner))

	welcome := boxStyle.Render(
		titleStyle.Render("Welcome to relaybot Setup") + "\n\n" +
			"This wizard will help you connect relaybot to the Relay\n" +
			"Partner API. You can always edit the configuration later at:\n" +
			subtitleStyle.Render(config.GetConfigPath()),
	)
	fmt.Println(welcome)
	fmt.Println()

	serviceOptions := []huh.Option[string]{
		huh.NewOption("Auto (let the provider pick)", ""),
		huh.NewOption("iMessage", "iMessage"),
		huh.NewOption("RCS", "RCS"),
		huh.NewOption("SMS", "SMS"),
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Relay API token").
				Description("Leave empty to use the RELAY_API_TOKEN environment variable").
				Placeholder("rk_live_...").
				EchoMode(huh.EchoModePassword).
				Value(&state.APIToken),
			huh.NewInput().
				Title("Sender number").
				Description("The provisioned number messages are sent from").
				Placeholder("+15550001111").
				Value(&state.FromNumber).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("sender number is required")
					}
					return nil
				}),
			huh.NewSelect[string]().
				Title("Preferred delivery service").
				Options(serviceOptions...).
				Value(&state.PreferredService),
		),
	)

	return form.Run()
}

// runWebhookStep configures the inbound webhook.
func runWebhookStep(state *SetupState) error {
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Webhook signing secret").
				Description("Shown once when creating a subscription with 'relaybot webhook create'").
				Placeholder("whsec_...").
				EchoMode(huh.EchoModePassword).
				Value(&state.WebhookSecret),
			huh.NewInput().
				Title("Webhook path").
				Description("The local path the gateway serves webhook deliveries on").
				Placeholder("/webhooks/relay").
				Value(&state.WebhookPath),
		),
	)

	return form.Run()
}

// runPolicyStep configures who may talk to the bot.
func runPolicyStep(state *SetupState) error {
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Direct message policy").
				Options(
					huh.NewOption("Open (accept messages from anyone)", "open"),
					huh.NewOption("Allowlist (only listed numbers)", "allowlist"),
				).
				Value(&state.DMPolicy),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}

	if state.DMPolicy == "allowlist" {
		allowForm := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Allowed numbers").
					Description("Comma-separated list of handles that can message the bot").
					Placeholder("+15551234567, +15559876543").
					Value(&state.AllowFrom),
			),
		)
		if err := allowForm.Run(); err != nil {
			return err
		}
	}

	ackForm := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Reaction acknowledgement").
				Description("Tapback added to each handled inbound message").
				Options(
					huh.NewOption("None", ""),
					huh.NewOption("Like", "like"),
					huh.NewOption("Love", "love"),
					huh.NewOption("Emphasize", "emphasize"),
				).
				Value(&state.ReactionAck),
		),
	)
	return ackForm.Run()
}

// runResponderStep configures the automatic reply pipeline.
func runResponderStep(state *SetupState) error {
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Enable automatic replies?").
				Description("Answer inbound messages with an LLM").
				Value(&state.ConfigResponder),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}

	if !state.ConfigResponder {
		return nil
	}

	options := make([]huh.Option[string], len(ModelOptions))
	for i, m := range ModelOptions {
		options[i] = huh.NewOption(m, m)
	}

	responderForm := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("OpenAI API key").
				Placeholder("sk-...").
				EchoMode(huh.EchoModePassword).
				Value(&state.ResponderAPIKey).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("API key is required")
					}
					return nil
				}),
			huh.NewSelect[string]().
				Title("Model").
				Options(options...).
				Value(&state.ResponderModel),
		),
	)
	return responderForm.Run()
}

// runGatewayStep configures the HTTP gateway listener.
func runGatewayStep(state *SetupState) error {
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Gateway host").
				Placeholder("127.0.0.1").
				Value(&state.GatewayHost),
			huh.NewInput().
				Title("Gateway port").
				Placeholder("8080").
				Value(&state.GatewayPort).
				Validate(func(s string) error {
					if _, err := strconv.Atoi(strings.TrimSpace(s)); err != nil {
						return fmt.Errorf("port must be a number")
					}
					return nil
				}),
		),
	)
	return form.Run()
}

// runConfirmationStep shows a summary and confirms the configuration.
func runConfirmationStep(state *SetupState) error {
	summary := buildSummary(state)
	fmt.Println(boxStyle.Render(summary))
	fmt.Println()

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Save this configuration?").
				Affirmative("Yes, save").
				Negative("No, cancel").
				Value(&state.Confirmed),
		),
	)

	return form.Run()
}

// buildSummary creates a text summary of the configuration.
func buildSummary(state *SetupState) string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("Configuration Summary"))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Sender number: %s\n", successStyle.Render(state.FromNumber)))
	if state.PreferredService != "" {
		sb.WriteString(fmt.Sprintf("Service: %s\n", state.PreferredService))
	} else {
		sb.WriteString("Service: auto\n")
	}
	if state.APIToken == "" {
		sb.WriteString(fmt.Sprintf("API token: %s\n", warningStyle.Render("from RELAY_API_TOKEN")))
	} else {
		sb.WriteString("API token: configured\n")
	}

	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Webhook path: %s\n", state.WebhookPath))
	if state.WebhookSecret == "" {
		sb.WriteString(fmt.Sprintf("Webhook secret: %s\n", warningStyle.Render("not set (inbound disabled)")))
	} else {
		sb.WriteString("Webhook secret: configured\n")
	}

	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("DM policy: %s\n", state.DMPolicy))
	if state.DMPolicy == "allowlist" && state.AllowFrom != "" {
		sb.WriteString(fmt.Sprintf("  Allowed: %s\n", state.AllowFrom))
	}
	if state.ReactionAck != "" {
		sb.WriteString(fmt.Sprintf("Reaction ack: %s\n", state.ReactionAck))
	}

	sb.WriteString("\n")
	if state.ConfigResponder {
		sb.WriteString(fmt.Sprintf("Responder: %s (%s)\n", successStyle.Render("enabled"), state.ResponderModel))
	} else {
		sb.WriteString(fmt.Sprintf("Responder: %s\n", subtitleStyle.Render("disabled")))
	}

	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Gateway: %s:%s\n", state.GatewayHost, state.GatewayPort))

	return sb.String()
}

// buildConfigFromState creates a Config from the setup state.
func buildConfigFromState(state *SetupState) *config.Config {
	cfg := config.DefaultConfig()

	relay := &cfg.Channels.Relay
	relay.Enabled = true
	relay.APIToken = strings.TrimSpace(state.APIToken)
	relay.FromNumber = strings.TrimSpace(state.FromNumber)
	relay.PreferredService = state.PreferredService
	relay.WebhookSecret = strings.TrimSpace(state.WebhookSecret)
	if path := strings.TrimSpace(state.WebhookPath); path != "" {
		relay.WebhookPath = path
	}
	relay.DMPolicy = state.DMPolicy
	relay.ReactionAck = state.ReactionAck
	if state.AllowFrom != "" {
		handles := strings.Split(state.AllowFrom, ",")
		for i, h := range handles {
			handles[i] = strings.TrimSpace(h)
		}
		relay.AllowFrom = handles
	}

	if state.ConfigResponder {
		cfg.Responder.Enabled = true
		cfg.Responder.APIKey = strings.TrimSpace(state.ResponderAPIKey)
		if state.ResponderModel != "" {
			cfg.Responder.Model = state.ResponderModel
		}
	}

	if host := strings.TrimSpace(state.GatewayHost); host != "" {
		cfg.Gateway.Host = host
	}
	if port, err := strconv.Atoi(strings.TrimSpace(state.GatewayPort)); err == nil && port > 0 {
		cfg.Gateway.Port = port
	}

	return cfg
}
