package webhook

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hkuds/relaybot/internal/relay"
)

// Envelope is the top-level webhook payload. Only EventType and Data feed
// into parsing; the rest is provider bookkeeping that is not retained.
type Envelope struct {
	APIVersion     string          `json:"api_version"`
	WebhookVersion string          `json:"webhook_version"`
	EventType      relay.EventType `json:"event_type"`
	EventID        string          `json:"event_id"`
	CreatedAt      string          `json:"created_at"`
	TraceID        string          `json:"trace_id"`
	PartnerID      string          `json:"partner_id"`
	Data           json.RawMessage `json:"data"`
}

// Event is one normalized webhook event: *InboundMessage, *StatusEvent,
// *ReactionEvent, or *TypingEvent.
type Event interface {
	EventKind() string
}

// Attachment is a media reference carried by an inbound message.
type Attachment struct {
	URL      string
	MimeType string
	Filename string
}

// InboundMessage is a message received from a remote sender. Text is all
// text parts joined by newlines; Attachments preserves media part order.
type InboundMessage struct {
	MessageID   string
	ChatID      string
	From        string
	To          string
	Text        string
	Attachments []Attachment
	Service     string
	SentAt      string
}

func (*InboundMessage) EventKind() string { return "message" }

// StatusEvent reports a delivery-state change for an outbound message.
// Status is one of "delivered", "read", "failed".
type StatusEvent struct {
	MessageID string
	ChatID    string
	Status    string
}

func (*StatusEvent) EventKind() string { return "status" }

// ReactionEvent reports a tapback added to or removed from a message.
type ReactionEvent struct {
	MessageID string
	ChatID    string
	From      string
	Reaction  string
	Added     bool
}

func (*ReactionEvent) EventKind() string { return "reaction" }

// TypingEvent reports the remote party starting or stopping typing.
type TypingEvent struct {
	ChatID  string
	From    string
	Started bool
}

func (*TypingEvent) EventKind() string { return "typing" }

// webhookChat is the chat object nested in message event data.
type webhookChat struct {
	ID          string       `json:"id"`
	IsGroup     bool         `json:"is_group"`
	OwnerHandle relay.Handle `json:"owner_handle"`
}

// messageData is the data blob for message.* events.
type messageData struct {
	ID           string              `json:"id"`
	Chat         webhookChat         `json:"chat"`
	Parts        []relay.MessagePart `json:"parts"`
	SenderHandle relay.Handle        `json:"sender_handle"`
	Direction    string              `json:"direction"`
	SentAt       string              `json:"sent_at"`
	Service      relay.Service       `json:"service"`
}

// reactionData is the data blob for reaction.* events.
type reactionData struct {
	ChatID       string `json:"chat_id"`
	MessageID    string `json:"message_id"`
	From         string `json:"from"`
	ReactionType string `json:"reaction_type"`
}

// typingData is the data blob for chat.typing_indicator.* events.
type typingData struct {
	ChatID string `json:"chat_id"`
	From   string `json:"from"`
}

// ParseEvent maps a webhook envelope to exactly one normalized event.
// Unrecognized event types yield (nil, nil): they are ignored, not errors.
func ParseEvent(env Envelope) (Event, error) {
	switch env.EventType {
	case relay.EventMessageReceived:
		var data messageData
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return nil, fmt.Errorf("decode %s data: %w", env.EventType, err)
		}
		return parseInboundMessage(data), nil

	case relay.EventMessageDelivered, relay.EventMessageRead, relay.EventMessageFailed:
		var data messageData
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return nil, fmt.Errorf("decode %s data: %w", env.EventType, err)
		}
		return &StatusEvent{
			MessageID: data.ID,
			ChatID:    data.Chat.ID,
			Status:    strings.TrimPrefix(string(env.EventType), "message."),
		}, nil

	case relay.EventReactionAdded, relay.EventReactionRemoved:
		var data reactionData
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return nil, fmt.Errorf("decode %s data: %w", env.EventType, err)
		}
		return &ReactionEvent{
			MessageID: data.MessageID,
			ChatID:    data.ChatID,
			From:      data.From,
			Reaction:  data.ReactionType,
			Added:     env.EventType == relay.EventReactionAdded,
		}, nil

	case relay.EventTypingStarted, relay.EventTypingStopped:
		var data typingData
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return nil, fmt.Errorf("decode %s data: %w", env.EventType, err)
		}
		return &TypingEvent{
			ChatID:  data.ChatID,
			From:    data.From,
			Started: env.EventType == relay.EventTypingStarted,
		}, nil

	default:
		return nil, nil
	}
}

func parseInboundMessage(data messageData) *InboundMessage {
	var text strings.Builder
	var attachments []Attachment

	for _, part := range data.Parts {
		switch part.Type {
		case relay.PartTypeText:
			if text.Len() > 0 {
				text.WriteByte('\n')
			}
			text.WriteString(part.Value)
		case relay.PartTypeMedia:
			attachments = append(attachments, Attachment{
				URL:      part.URL,
				MimeType: part.MimeType,
				Filename: part.Filename,
			})
		}
	}

	return &InboundMessage{
		MessageID:   data.ID,
		ChatID:      data.Chat.ID,
		From:        data.SenderHandle.Handle,
		To:          data.Chat.OwnerHandle.Handle,
		Text:        text.String(),
		Attachments: attachments,
		Service:     string(data.Service),
		SentAt:      data.SentAt,
	}
}
