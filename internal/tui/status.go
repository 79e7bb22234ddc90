package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/hkuds/relaybot/internal/config"
)

// Status display styles.
var (
	statusTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("205")).
				MarginBottom(1).
				Padding(0, 1)

	statusBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Width(60)

	statusSectionStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				MarginTop(1)

	statusLabelStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("252")).
				Width(20)

	statusValueStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("255"))

	statusEnabledStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("82")).
				Bold(true)

	statusDisabledStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240"))

	statusWarningStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("214"))

	statusErrorStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("196")).
				Bold(true)
)

// ShowStatus displays the current configuration status.
func ShowStatus(cfg *config.Config) error {
	var sb strings.Builder

	title := statusTitleStyle.Render("relaybot Configuration Status")
	sb.WriteString(title)
	sb.WriteString("\n\n")

	sb.WriteString(statusSectionStyle.Render("Relay Channel"))
	sb.WriteString("\n")
	sb.WriteString(renderRelayStatus(cfg))
	sb.WriteString("\n")

	sb.WriteString(statusSectionStyle.Render("Responder"))
	sb.WriteString("\n")
	sb.WriteString(renderResponderStatus(cfg))
	sb.WriteString("\n")

	sb.WriteString(statusSectionStyle.Render("Gateway"))
	sb.WriteString("\n")
	sb.WriteString(renderGatewayStatus(cfg))

	content := statusBoxStyle.Render(sb.String())
	fmt.Println(content)

	return nil
}

// renderRelayStatus renders the relay channel configuration status.
func renderRelayStatus(cfg *config.Config) string {
	var sb strings.Builder
	relay := cfg.Channels.Relay

	if !relay.Enabled {
		sb.WriteString(renderStatusRow("Status", statusDisabledStyle.Render("disabled")))
		sb.WriteString(renderStatusRow("", statusWarningStyle.Render("Run 'relaybot setup' to configure")))
		return sb.String()
	}

	sb.WriteString(renderStatusRow("Status", statusEnabledStyle.Render("enabled")))
	sb.WriteString(renderStatusRow("From", statusValueStyle.Render(relay.FromNumber)))

	service := relay.PreferredService
	if service == "" {
		service = "auto"
	}
	sb.WriteString(renderStatusRow("Service", statusValueStyle.Render(service)))

	if token := relay.ResolveAPIToken(); token != "" {
		sb.WriteString(renderStatusRow("API Token", statusValueStyle.Render(maskToken(token))))
	} else {
		sb.WriteString(renderStatusRow("API Token", statusErrorStyle.Render("not configured")))
	}

	if relay.WebhookSecret != "" {
		sb.WriteString(renderStatusRow("Webhook", statusValueStyle.Render(relay.WebhookPath)))
	} else {
		sb.WriteString(renderStatusRow("Webhook", statusWarningStyle.Render("no signing secret")))
	}

	if relay.DMPolicy == "allowlist" {
		allowed := strings.Join(relay.AllowFrom, ", ")
		if len(allowed) > 30 {
			allowed = allowed[:27] + "..."
		}
		sb.WriteString(renderStatusRow("DM Policy", statusValueStyle.Render("allowlist")))
		sb.WriteString(renderStatusRow("  Allowed", statusValueStyle.Render(allowed)))
	} else {
		sb.WriteString(renderStatusRow("DM Policy", statusWarningStyle.Render("open (anyone can message)")))
	}

	if relay.ReactionAck != "" {
		sb.WriteString(renderStatusRow("Reaction Ack", statusValueStyle.Render(relay.ReactionAck)))
	}

	return sb.String()
}

// renderResponderStatus renders the responder configuration status.
func renderResponderStatus(cfg *config.Config) string {
	var sb strings.Builder

	if !cfg.Responder.Enabled {
		sb.WriteString(renderStatusRow("Status", statusDisabledStyle.Render("disabled")))
		return sb.String()
	}

	sb.WriteString(renderStatusRow("Status", statusEnabledStyle.Render("enabled")))
	sb.WriteString(renderStatusRow("Model", statusValueStyle.Render(cfg.Responder.Model)))
	if cfg.Responder.APIKey != "" {
		sb.WriteString(renderStatusRow("API Key", statusValueStyle.Render(maskToken(cfg.Responder.APIKey))))
	} else {
		sb.WriteString(renderStatusRow("API Key", statusErrorStyle.Render("not configured")))
	}
	sb.WriteString(renderStatusRow("Max History", statusValueStyle.Render(fmt.Sprintf("%d", cfg.Responder.MaxHistory))))

	return sb.String()
}

// renderGatewayStatus renders the gateway configuration status.
func renderGatewayStatus(cfg *config.Config) string {
	var sb strings.Builder

	sb.WriteString(renderStatusRow("Listen", statusValueStyle.Render(fmt.Sprintf("%s:%d", cfg.Gateway.Host, cfg.Gateway.Port))))
	sb.WriteString(renderStatusRow("State Dir", statusValueStyle.Render(cfg.StatePath())))

	return sb.String()
}

// renderStatusRow renders a label-value row.
func renderStatusRow(label, value string) string {
	if label == "" {
		return fmt.Sprintf("  %s\n", value)
	}
	return fmt.Sprintf("  %s %s\n",
		statusLabelStyle.Render(label+":"),
		value,
	)
}

// maskToken masks a credential for display.
func maskToken(token string) string {
	if len(token) <= 8 {
		return "****"
	}
	return token[:4] + "****" + token[len(token)-4:]
}

// ShowQuickStatus shows a minimal one-line status.
func ShowQuickStatus(cfg *config.Config) {
	var channel string
	if cfg.Channels.Relay.Enabled {
		channel = statusEnabledStyle.Render("relay enabled")
	} else {
		channel = statusErrorStyle.Render("not configured")
	}

	responder := statusDisabledStyle.Render("no responder")
	if cfg.Responder.Enabled {
		responder = statusEnabledStyle.Render("responder: " + cfg.Responder.Model)
	}

	fmt.Printf("relaybot: %s | %s\n", channel, responder)
}
