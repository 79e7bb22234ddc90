// Package responder turns inbound bus messages into LLM-generated replies
// published back on the outbound side of the bus.
package responder

import (
	"context"
	"fmt"
	"log"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/hkuds/relaybot/internal/bus"
	"github.com/hkuds/relaybot/internal/config"
	"github.com/hkuds/relaybot/internal/session"
)

const defaultSystemPrompt = "You are a helpful assistant replying over text message. Keep answers short and plain text."

// Responder consumes inbound messages, maintains per-conversation history,
// and generates replies through an OpenAI-compatible chat completion API.
type Responder struct {
	cfg      config.ResponderConfig
	bus      *bus.MessageBus
	sessions *session.Manager
	client   *openai.Client
}

// New creates a responder from config. The sessions manager persists
// conversation history across restarts.
func New(cfg config.ResponderConfig, msgBus *bus.MessageBus, sessions *session.Manager) *Responder {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.APIBase != "" {
		clientCfg.BaseURL = cfg.APIBase
	}

	sessions.SetMaxHistory(cfg.MaxHistory)

	return &Responder{
		cfg:      cfg,
		bus:      msgBus,
		sessions: sessions,
		client:   openai.NewClientWithConfig(clientCfg),
	}
}

// Run consumes inbound messages until the context is cancelled. Each
// message is handled synchronously so replies in one conversation stay
// ordered.
func (r *Responder) Run(ctx context.Context) {
	for {
		msg, err := r.bus.ConsumeInboundWithTimeout(ctx, time.Second)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			continue
		}
		if err := r.Handle(ctx, msg); err != nil {
			log.Printf("[responder] %s: %v", msg.SessionKey(), err)
		}
	}
}

// Handle generates and publishes a reply to one inbound message.
func (r *Responder) Handle(ctx context.Context, msg bus.InboundMessage) error {
	if msg.Content == "" {
		return nil
	}

	sess := r.sessions.GetOrCreate(msg.SessionKey())
	sess.Source = msg.Channel
	sess.AddMessage("user", msg.Content)

	reply, err := r.complete(ctx, sess)
	if err != nil {
		r.sendErrorReply(msg)
		return fmt.Errorf("chat completion: %w", err)
	}

	sess.AddMessage("assistant", reply)
	if err := r.sessions.Save(sess); err != nil {
		log.Printf("[responder] save session %s: %v", sess.Key, err)
	}

	out := bus.OutboundMessage{
		Channel: msg.Channel,
		ChatID:  msg.ChatID,
		Content: reply,
	}
	if id, ok := msg.Metadata["messageId"].(string); ok {
		out.ReplyTo = id
	}
	r.bus.PublishOutbound(out)
	return nil
}

// sendErrorReply tells the user something went wrong instead of going
// silent. The failed exchange is not persisted to the session.
func (r *Responder) sendErrorReply(msg bus.InboundMessage) {
	r.bus.PublishOutbound(bus.OutboundMessage{
		Channel: msg.Channel,
		ChatID:  msg.ChatID,
		Content: "I encountered an error processing your request. Please try again.",
	})
}

// complete calls the chat completion API with the session's recent history.
func (r *Responder) complete(ctx context.Context, sess *session.Session) (string, error) {
	prompt := r.cfg.SystemPrompt
	if prompt == "" {
		prompt = defaultSystemPrompt
	}

	history := session.TrimToMessageCount(sess.GetMessages(), r.cfg.MaxHistory)
	messages := make([]openai.ChatCompletionMessage, 0, len(history)+1)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: prompt,
	})
	for _, m := range history {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       r.cfg.Model,
		Messages:    messages,
		MaxTokens:   r.cfg.MaxTokens,
		Temperature: float32(r.cfg.Temperature),
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty completion response")
	}
	return resp.Choices[0].Message.Content, nil
}
