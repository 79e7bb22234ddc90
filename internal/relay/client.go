// Package relay implements the HTTP client for the Relay Partner API:
// chats, messages, typing indicators, read receipts, reactions, and
// webhook subscription management.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// DefaultBaseURL is the production Partner API endpoint.
const DefaultBaseURL = "https://api.relaymsg.com/api/partner"

const (
	maxRetries   = 3
	retryBase    = 1 * time.Second
	requestLimit = 60 * time.Second
)

// Client is a Relay Partner API client. Every request carries the bearer
// token and is retried on rate limiting, server errors, and connection
// failures with exponential backoff (1s, 2s, 4s).
type Client struct {
	apiToken string
	baseURL  string
	client   *http.Client

	// sleep is replaced in tests to avoid real backoff delays.
	sleep func(ctx context.Context, d time.Duration) error
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient sets a custom HTTP client (useful for testing).
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.client = client
	}
}

// NewClient creates a Partner API client with the given bearer token.
func NewClient(apiToken string, opts ...Option) *Client {
	c := &Client{
		apiToken: apiToken,
		baseURL:  DefaultBaseURL,
		client:   &http.Client{Timeout: requestLimit},
		sleep:    sleepCtx,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateChat creates a new chat from the given number to the recipients.
// initial may be nil to create the chat without a first message.
func (c *Client) CreateChat(ctx context.Context, from string, to []string, initial *InitialMessage) (*CreateChatResponse, error) {
	body := CreateChatRequest{From: from, To: to, InitialMessage: initial}
	var out CreateChatResponse
	if err := c.request(ctx, http.MethodPost, "/v3/chats", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListChats returns one page of chats, optionally filtered by from number.
// Pass the returned NextCursor to fetch the next page.
func (c *Client) ListChats(ctx context.Context, from, cursor string) (*ListChatsResponse, error) {
	params := url.Values{}
	if from != "" {
		params.Set("from", from)
	}
	if cursor != "" {
		params.Set("cursor", cursor)
	}
	path := "/v3/chats"
	if qs := params.Encode(); qs != "" {
		path += "?" + qs
	}
	var out ListChatsResponse
	if err := c.request(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SendMessage sends a message with the given parts to an existing chat.
func (c *Client) SendMessage(ctx context.Context, chatID string, parts []MessagePart, opts *SendMessageOptions) (*SendMessageResponse, error) {
	message := map[string]any{"parts": parts}
	body := map[string]any{"message": message}
	if opts != nil {
		if opts.ReplyToMessageID != "" {
			message["reply_to_message_id"] = opts.ReplyToMessageID
		}
		if opts.Service != "" {
			body["service"] = opts.Service
		}
	}
	var out SendMessageResponse
	path := "/v3/chats/" + url.PathEscape(chatID) + "/messages"
	if err := c.request(ctx, http.MethodPost, path, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// StartTyping shows the typing indicator in a chat.
func (c *Client) StartTyping(ctx context.Context, chatID string) error {
	return c.request(ctx, http.MethodPost, "/v3/chats/"+url.PathEscape(chatID)+"/typing", nil, nil)
}

// StopTyping hides the typing indicator in a chat.
func (c *Client) StopTyping(ctx context.Context, chatID string) error {
	return c.request(ctx, http.MethodDelete, "/v3/chats/"+url.PathEscape(chatID)+"/typing", nil, nil)
}

// MarkRead marks the messages in a chat as read.
func (c *Client) MarkRead(ctx context.Context, chatID string) error {
	return c.request(ctx, http.MethodPost, "/v3/chats/"+url.PathEscape(chatID)+"/read", nil, nil)
}

// AddReaction adds a tapback reaction to a message.
func (c *Client) AddReaction(ctx context.Context, messageID string, reaction ReactionType) error {
	body := map[string]any{"operation": "add", "type": reaction}
	return c.request(ctx, http.MethodPost, "/v3/messages/"+url.PathEscape(messageID)+"/reactions", body, nil)
}

// RemoveReaction removes a tapback reaction from a message.
func (c *Client) RemoveReaction(ctx context.Context, messageID string, reaction ReactionType) error {
	body := map[string]any{"operation": "remove", "type": reaction}
	return c.request(ctx, http.MethodPost, "/v3/messages/"+url.PathEscape(messageID)+"/reactions", body, nil)
}

// CreateWebhookSubscription registers a webhook target for the given event
// types. The response carries the signing secret exactly once.
func (c *Client) CreateWebhookSubscription(ctx context.Context, targetURL string, events []EventType) (*CreateWebhookResponse, error) {
	body := CreateWebhookRequest{TargetURL: targetURL, SubscribedEvents: events}
	var out CreateWebhookResponse
	if err := c.request(ctx, http.MethodPost, "/v3/webhook-subscriptions", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListWebhookSubscriptions returns all registered webhook subscriptions.
func (c *Client) ListWebhookSubscriptions(ctx context.Context) (*ListWebhooksResponse, error) {
	var out ListWebhooksResponse
	if err := c.request(ctx, http.MethodGet, "/v3/webhook-subscriptions", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteWebhookSubscription removes a webhook subscription.
func (c *Client) DeleteWebhookSubscription(ctx context.Context, subscriptionID string) (*DeleteWebhookResponse, error) {
	var out DeleteWebhookResponse
	path := "/v3/webhook-subscriptions/" + url.PathEscape(subscriptionID)
	if err := c.request(ctx, http.MethodDelete, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// request performs one API call with the uniform retry policy. body is
// JSON-encoded when non-nil; the response body is decoded into out unless
// out is nil or the response is 204.
func (c *Client) request(ctx context.Context, method, path string, body any, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
	}

	var lastErr *APIError

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			delay := retryBase << (attempt - 1)
			if err := c.sleep(ctx, delay); err != nil {
				return err
			}
		}

		apiErr, err := c.do(ctx, method, path, payload, out)
		if err != nil {
			return err
		}
		if apiErr == nil {
			return nil
		}
		if !apiErr.Retryable() {
			return apiErr
		}
		lastErr = apiErr
	}

	if lastErr != nil {
		return lastErr
	}
	return &APIError{Method: method, Path: path, Body: "failed after retries"}
}

// do performs a single attempt. A returned *APIError is a failed call
// (possibly retryable); a plain error is unrecoverable (bad request
// construction or cancelled context) and aborts the retry loop.
func (c *Client) do(ctx context.Context, method, path string, payload []byte, out any) (*APIError, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiToken)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		// Connection-level failure: retryable.
		return &APIError{Method: method, Path: path, Err: err}, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil || resp.StatusCode == http.StatusNoContent {
			return nil, nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return nil, fmt.Errorf("decode response for %s %s: %w", method, path, err)
		}
		return nil, nil
	}

	// Error body is informational only; a read failure leaves it empty.
	errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &APIError{
		Method:     method,
		Path:       path,
		StatusCode: resp.StatusCode,
		Body:       string(errBody),
	}, nil
}

// sleepCtx waits for d or until the context is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
