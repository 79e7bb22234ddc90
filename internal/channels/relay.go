package channels

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/hkuds/relaybot/internal/bus"
	"github.com/hkuds/relaybot/internal/chatstore"
	"github.com/hkuds/relaybot/internal/config"
	"github.com/hkuds/relaybot/internal/media"
	"github.com/hkuds/relaybot/internal/outbound"
	"github.com/hkuds/relaybot/internal/relay"
	"github.com/hkuds/relaybot/internal/webhook"
)

// WebhookRegistrar mounts and unmounts webhook handlers on the gateway's
// HTTP server.
type WebhookRegistrar interface {
	Mount(path string, handler http.Handler)
	Unmount(path string)
}

// RelayChannel implements the Channel interface for the Relay messaging
// provider. Inbound traffic arrives over a signed webhook; outbound
// traffic goes through the Partner API.
type RelayChannel struct {
	BaseChannel
	cfg       config.RelayConfig
	client    *relay.Client
	store     *chatstore.Store
	sender    *outbound.Sender
	media     *media.Store
	registrar WebhookRegistrar
	handler   *webhook.Handler

	// acks tracks detached provider acknowledgements (read receipts,
	// reactions, typing) so tests can wait for them to settle.
	acks sync.WaitGroup

	cancel context.CancelFunc
}

// NewRelayChannel creates a new Relay channel instance.
func NewRelayChannel(cfg config.RelayConfig, msgBus *bus.MessageBus, client *relay.Client, store *chatstore.Store, mediaStore *media.Store, registrar WebhookRegistrar) *RelayChannel {
	return &RelayChannel{
		BaseChannel: NewBaseChannel("relay", msgBus),
		cfg:         cfg,
		client:      client,
		store:       store,
		sender:      outbound.NewSender(client, store, cfg.FromNumber, relay.Service(cfg.PreferredService)),
		media:       mediaStore,
		registrar:   registrar,
	}
}

// Start mounts the webhook handler and subscribes to outbound messages.
func (c *RelayChannel) Start(ctx context.Context) error {
	if c.IsRunning() {
		return fmt.Errorf("relay channel is already running")
	}
	if c.cfg.WebhookSecret == "" {
		return fmt.Errorf("relay channel enabled but webhookSecret not configured")
	}

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	// Drop the in-memory chat cache so restarts pick up external edits.
	c.store.ResetCache()

	c.handler = webhook.NewHandler(c.cfg.WebhookSecret, func(event webhook.Event) {
		c.handleEvent(ctx, event)
	})
	c.registrar.Mount(c.cfg.WebhookPath, c.handler)

	c.setRunning(true)

	c.getBus().SubscribeOutbound("relay", func(msg bus.OutboundMessage) {
		if err := c.Send(msg); err != nil {
			log.Printf("[relay] send failed: %v", err)
		}
	})

	log.Printf("[relay] channel started, webhook at %s", c.cfg.WebhookPath)
	return nil
}

// Stop unmounts the webhook handler and drains in-flight event processing.
func (c *RelayChannel) Stop() error {
	if !c.IsRunning() {
		return nil
	}

	c.registrar.Unmount(c.cfg.WebhookPath)
	if c.cancel != nil {
		c.cancel()
	}
	if c.handler != nil {
		c.handler.Wait()
	}

	c.setRunning(false)
	log.Println("[relay] channel stopped")
	return nil
}

// Send delivers an outbound message through the Relay API. Content is
// stripped of markdown and split into provider-sized text parts; media
// entries are passed through as URLs.
func (c *RelayChannel) Send(msg bus.OutboundMessage) error {
	if !c.IsRunning() {
		return fmt.Errorf("relay channel is not running")
	}

	var parts []relay.MessagePart
	for _, chunk := range ChunkText(StripMarkdown(msg.Content), chunkLimit) {
		parts = append(parts, relay.TextPart(chunk))
	}
	for _, url := range msg.Media {
		parts = append(parts, relay.MediaPart(url, "", ""))
	}

	to := msg.ChatID
	if to == "" {
		return fmt.Errorf("outbound message has no recipient")
	}

	result, err := c.sender.SendMessage(context.Background(), to, parts)
	if err != nil {
		return err
	}
	if result.MessageID == "" {
		log.Printf("[relay] nothing to send to %s after filtering", to)
		// Delivery normally clears the typing indicator; a filtered-out
		// reply leaves it dangling.
		if err := c.sender.StopTyping(context.Background(), to); err != nil {
			log.Printf("[relay] stop typing: %v", err)
		}
	}
	return nil
}

// ack issues one best-effort provider call on its own goroutine. The
// outcome is observed only for logging; callers never wait on it.
func (c *RelayChannel) ack(name string, call func() error) {
	c.acks.Add(1)
	go func() {
		defer c.acks.Done()
		if err := call(); err != nil {
			log.Printf("[relay] %s: %v", name, err)
		}
	}()
}

// handleEvent routes one verified webhook event.
func (c *RelayChannel) handleEvent(ctx context.Context, event webhook.Event) {
	switch e := event.(type) {
	case *webhook.InboundMessage:
		c.handleInbound(ctx, e)
	case *webhook.StatusEvent:
		log.Printf("[relay] message %s status=%s", e.MessageID, e.Status)
	case *webhook.ReactionEvent:
		log.Printf("[relay] reaction %s added=%v on message %s", e.Reaction, e.Added, e.MessageID)
	case *webhook.TypingEvent:
		// Typing indicators carry no conversation content.
	}
}

// handleInbound applies the DM policy, acknowledges the message, and
// publishes it to the bus.
func (c *RelayChannel) handleInbound(ctx context.Context, msg *webhook.InboundMessage) {
	if !c.cfg.SenderAllowed(msg.From) {
		log.Printf("[security] channel=relay action=denied reason=dm_policy sender=%s", msg.From)
		return
	}

	// Acknowledgements are detached; a slow or failed receipt never drops
	// or delays the message.
	chatID, messageID := msg.ChatID, msg.MessageID
	c.ack("mark read", func() error {
		return c.client.MarkRead(context.Background(), chatID)
	})
	if c.cfg.ReactionAck != "" {
		reaction := relay.ReactionType(c.cfg.ReactionAck)
		c.ack("reaction ack", func() error {
			return c.client.AddReaction(context.Background(), messageID, reaction)
		})
	}
	c.ack("start typing", func() error {
		return c.client.StartTyping(context.Background(), chatID)
	})

	var localMedia []string
	for _, att := range msg.Attachments {
		path, err := c.media.Download(ctx, att.URL, att.Filename, att.MimeType)
		if err != nil {
			log.Printf("[relay] attachment download: %v", err)
			continue
		}
		localMedia = append(localMedia, path)
	}

	// Remember the chat so replies skip the create-chat call.
	c.store.Write(msg.From, msg.ChatID)

	metadata := map[string]interface{}{
		"messageId": msg.MessageID,
		"chatId":    msg.ChatID,
		"service":   string(msg.Service),
	}
	if msg.SentAt != "" {
		metadata["sentAt"] = msg.SentAt
	}
	// Bus ChatID is the reply target; the provider chat id travels in
	// metadata and the chat store.
	c.publishInbound(msg.From, msg.From, msg.Text, localMedia, metadata)
}
