package bus

import (
	"time"

	"github.com/google/uuid"
)

// InboundMessage represents a message received from any channel.
type InboundMessage struct {
	ID        string                 `json:"id"`
	Channel   string                 `json:"channel"` // relay, cli, system
	SenderID  string                 `json:"senderId"`
	ChatID    string                 `json:"chatId"`
	Content   string                 `json:"content"`
	Timestamp time.Time              `json:"timestamp"`
	Media     []string               `json:"media,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// NewInboundMessage creates an inbound message with a fresh ID and the
// current timestamp.
func NewInboundMessage(channel, senderID, chatID, content string) InboundMessage {
	return InboundMessage{
		ID:        uuid.NewString(),
		Channel:   channel,
		SenderID:  senderID,
		ChatID:    chatID,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// SessionKey returns a unique identifier for the conversation session.
func (m *InboundMessage) SessionKey() string {
	return m.Channel + ":" + m.ChatID
}

// OutboundMessage represents a message to be sent to a channel.
type OutboundMessage struct {
	Channel  string                 `json:"channel"`
	ChatID   string                 `json:"chatId"`
	Content  string                 `json:"content"`
	ReplyTo  string                 `json:"replyTo,omitempty"`
	Media    []string               `json:"media,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}
