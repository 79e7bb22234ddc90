// Package outbound resolves recipients to provider chats and sends
// messages, typing indicators, and read receipts through the Relay API.
package outbound

import (
	"context"
	"strings"

	"github.com/hkuds/relaybot/internal/chatstore"
	"github.com/hkuds/relaybot/internal/relay"
)

// recipientPrefix is the channel-qualified address prefix stripped from
// recipients before provider calls ("relay:+15551234567").
const recipientPrefix = "relay:"

// Result identifies a completed (or no-op) send. MessageID is empty when
// nothing was sent because every part was filtered out.
type Result struct {
	MessageID string
	ChatID    string
}

// Sender resolves chats and delivers outbound traffic. Chats are created
// lazily on the first send to a recipient and remembered in the store.
type Sender struct {
	client  *relay.Client
	store   *chatstore.Store
	from    string
	service relay.Service
}

// NewSender creates a dispatcher sending from the given number. service
// may be empty to let the provider pick.
func NewSender(client *relay.Client, store *chatstore.Store, from string, service relay.Service) *Sender {
	return &Sender{client: client, store: store, from: from, service: service}
}

// NormalizeRecipient strips the channel address prefix from a recipient.
func NormalizeRecipient(to string) string {
	if len(to) >= len(recipientPrefix) && strings.EqualFold(to[:len(recipientPrefix)], recipientPrefix) {
		return to[len(recipientPrefix):]
	}
	return to
}

// resolveChat returns the chat ID for a recipient, creating the chat and
// persisting the mapping on first contact.
func (s *Sender) resolveChat(ctx context.Context, to string) (string, error) {
	if chatID, ok := s.store.Lookup(to); ok {
		return chatID, nil
	}
	resp, err := s.client.CreateChat(ctx, s.from, []string{to}, nil)
	if err != nil {
		return "", err
	}
	s.store.Write(to, resp.Chat.ID)
	return resp.Chat.ID, nil
}

// SendMessage sends the given parts to a recipient. Text parts that are
// empty after trimming are dropped before transmission; if nothing
// remains the send is a no-op and the result carries an empty MessageID.
func (s *Sender) SendMessage(ctx context.Context, to string, parts []relay.MessagePart) (Result, error) {
	to = NormalizeRecipient(to)

	chatID, err := s.resolveChat(ctx, to)
	if err != nil {
		return Result{}, err
	}

	valid := make([]relay.MessagePart, 0, len(parts))
	for _, p := range parts {
		if p.Type == relay.PartTypeText && strings.TrimSpace(p.Value) == "" {
			continue
		}
		valid = append(valid, p)
	}
	if len(valid) == 0 {
		return Result{ChatID: chatID}, nil
	}

	var opts *relay.SendMessageOptions
	if s.service != "" {
		opts = &relay.SendMessageOptions{Service: s.service}
	}
	resp, err := s.client.SendMessage(ctx, chatID, valid, opts)
	if err != nil {
		return Result{}, err
	}

	result := Result{MessageID: resp.Message.ID, ChatID: resp.Message.ChatID}
	if result.ChatID == "" {
		result.ChatID = resp.ChatID
	}
	if result.ChatID == "" {
		// Defensive: no response has been observed without a chat id, but
		// the resolved one is always correct to report.
		result.ChatID = chatID
	}
	return result, nil
}

// SendText sends a single text message.
func (s *Sender) SendText(ctx context.Context, to, text string) (Result, error) {
	return s.SendMessage(ctx, to, []relay.MessagePart{relay.TextPart(text)})
}

// SendMedia sends a media attachment with an optional text caption.
func (s *Sender) SendMedia(ctx context.Context, to, mediaURL, caption string) (Result, error) {
	var parts []relay.MessagePart
	if caption != "" {
		parts = append(parts, relay.TextPart(caption))
	}
	parts = append(parts, relay.MediaPart(mediaURL, "", ""))
	return s.SendMessage(ctx, to, parts)
}
