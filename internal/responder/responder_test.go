package responder

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"github.com/hkuds/relaybot/internal/bus"
	"github.com/hkuds/relaybot/internal/config"
	"github.com/hkuds/relaybot/internal/session"
)

// completionStub serves an OpenAI-compatible chat completions endpoint and
// records the requests it sees.
type completionStub struct {
	server *httptest.Server

	mu       sync.Mutex
	requests []openai.ChatCompletionRequest
	reply    string
}

func newCompletionStub(t *testing.T, reply string) *completionStub {
	t.Helper()
	s := &completionStub{reply: reply}
	mux := http.NewServeMux()
	mux.HandleFunc("/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		var req openai.ChatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode completion request: %v", err)
		}
		s.mu.Lock()
		s.requests = append(s.requests, req)
		s.mu.Unlock()
		json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{Role: "assistant", Content: s.reply}},
			},
		})
	})
	s.server = httptest.NewServer(mux)
	t.Cleanup(s.server.Close)
	return s
}

func (s *completionStub) lastRequest(t *testing.T) openai.ChatCompletionRequest {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		t.Fatal("no completion requests received")
	}
	return s.requests[len(s.requests)-1]
}

func newTestResponder(t *testing.T, stub *completionStub) (*Responder, *bus.MessageBus) {
	t.Helper()
	cfg := config.ResponderConfig{
		Enabled:    true,
		APIKey:     "test-key",
		APIBase:    stub.server.URL,
		Model:      "gpt-4o-mini",
		MaxTokens:  256,
		MaxHistory: 10,
	}
	msgBus := bus.NewMessageBus(8)
	sessions := session.NewManager(t.TempDir())
	return New(cfg, msgBus, sessions), msgBus
}

func TestHandlePublishesReply(t *testing.T) {
	stub := newCompletionStub(t, "hi, how can I help?")
	r, msgBus := newTestResponder(t, stub)

	msg := bus.NewInboundMessage("relay", "+15552223333", "+15552223333", "hello")
	msg.Metadata = map[string]interface{}{"messageId": "msg_in"}
	if err := r.Handle(context.Background(), msg); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	out := msgBus.ConsumeOutbound()
	if out.Channel != "relay" {
		t.Errorf("Channel = %q, want relay", out.Channel)
	}
	if out.ChatID != "+15552223333" {
		t.Errorf("ChatID = %q", out.ChatID)
	}
	if out.Content != "hi, how can I help?" {
		t.Errorf("Content = %q", out.Content)
	}
	if out.ReplyTo != "msg_in" {
		t.Errorf("ReplyTo = %q, want msg_in", out.ReplyTo)
	}
}

func TestHandleSendsSystemPromptAndHistory(t *testing.T) {
	stub := newCompletionStub(t, "second reply")
	r, msgBus := newTestResponder(t, stub)

	first := bus.NewInboundMessage("relay", "+1555", "+1555", "first question")
	if err := r.Handle(context.Background(), first); err != nil {
		t.Fatal(err)
	}
	msgBus.ConsumeOutbound()

	second := bus.NewInboundMessage("relay", "+1555", "+1555", "second question")
	if err := r.Handle(context.Background(), second); err != nil {
		t.Fatal(err)
	}
	msgBus.ConsumeOutbound()

	req := stub.lastRequest(t)
	if req.Messages[0].Role != "system" {
		t.Errorf("first message role = %q, want system", req.Messages[0].Role)
	}
	// System + first user + first assistant + second user.
	if len(req.Messages) != 4 {
		t.Fatalf("request has %d messages, want 4", len(req.Messages))
	}
	if req.Messages[1].Content != "first question" {
		t.Errorf("history missing first question: %+v", req.Messages)
	}
	if req.Messages[2].Role != "assistant" {
		t.Errorf("history missing assistant turn: %+v", req.Messages)
	}
}

func TestHandleSkipsEmptyContent(t *testing.T) {
	stub := newCompletionStub(t, "should not be called")
	r, msgBus := newTestResponder(t, stub)

	msg := bus.NewInboundMessage("relay", "+1555", "+1555", "")
	if err := r.Handle(context.Background(), msg); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if msgBus.OutboundSize() != 0 {
		t.Error("empty message should not produce a reply")
	}
	stub.mu.Lock()
	defer stub.mu.Unlock()
	if len(stub.requests) != 0 {
		t.Error("empty message should not hit the completion API")
	}
}

func TestHandleCompletionError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"boom"}}`, http.StatusInternalServerError)
	}))
	defer server.Close()

	dir := t.TempDir()
	cfg := config.ResponderConfig{APIKey: "k", APIBase: server.URL, Model: "m", MaxHistory: 5}
	msgBus := bus.NewMessageBus(4)
	r := New(cfg, msgBus, session.NewManager(dir))

	msg := bus.NewInboundMessage("relay", "+1555", "+1555", "hello")
	if err := r.Handle(context.Background(), msg); err == nil {
		t.Error("Handle should surface completion errors")
	}

	out := msgBus.ConsumeOutbound()
	if !strings.Contains(out.Content, "error") {
		t.Errorf("expected apologetic reply, got %q", out.Content)
	}

	// The failed exchange must not be persisted.
	loaded := session.NewManager(dir).Get("relay:+1555")
	if loaded != nil {
		t.Error("failed exchange should not be persisted")
	}
}

func TestHandlePersistsSession(t *testing.T) {
	stub := newCompletionStub(t, "reply")
	dir := t.TempDir()

	cfg := config.ResponderConfig{APIKey: "k", APIBase: stub.server.URL, Model: "m", MaxHistory: 5}
	msgBus := bus.NewMessageBus(4)
	r := New(cfg, msgBus, session.NewManager(dir))

	msg := bus.NewInboundMessage("relay", "+1555", "+1555", "remember this")
	if err := r.Handle(context.Background(), msg); err != nil {
		t.Fatal(err)
	}

	loaded := session.NewManager(dir).Get("relay:+1555")
	if loaded == nil {
		t.Fatal("session was not persisted")
	}
	if loaded.MessageCount() != 2 {
		t.Errorf("persisted MessageCount = %d, want 2", loaded.MessageCount())
	}
}
