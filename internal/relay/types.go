package relay

// Service identifies the delivery service for a message.
type Service string

const (
	ServiceIMessage Service = "iMessage"
	ServiceRCS      Service = "RCS"
	ServiceSMS      Service = "SMS"
)

// Part types used in message part lists.
const (
	PartTypeText  = "text"
	PartTypeMedia = "media"
)

// MessagePart is one unit of message content: either text or a media
// reference. Type is "text" (Value set) or "media" (URL plus optional
// MimeType and Filename).
type MessagePart struct {
	Type     string `json:"type"`
	Value    string `json:"value,omitempty"`
	URL      string `json:"url,omitempty"`
	MimeType string `json:"mime_type,omitempty"`
	Filename string `json:"filename,omitempty"`
}

// TextPart builds a text message part.
func TextPart(value string) MessagePart {
	return MessagePart{Type: PartTypeText, Value: value}
}

// MediaPart builds a media message part.
func MediaPart(url, mimeType, filename string) MessagePart {
	return MessagePart{Type: PartTypeMedia, URL: url, MimeType: mimeType, Filename: filename}
}

// Chat is a provider-side conversation between a from identity and one or
// more participants.
type Chat struct {
	ID           string   `json:"id"`
	From         string   `json:"from"`
	Participants []string `json:"participants"`
	Service      Service  `json:"service"`
	CreatedAt    string   `json:"created_at"`
	UpdatedAt    string   `json:"updated_at"`
}

// CreateChatRequest is the body for POST /v3/chats.
type CreateChatRequest struct {
	From           string          `json:"from"`
	To             []string        `json:"to"`
	InitialMessage *InitialMessage `json:"initial_message,omitempty"`
}

// InitialMessage optionally seeds a new chat with a first message.
type InitialMessage struct {
	Parts   []MessagePart `json:"parts"`
	Service Service       `json:"service,omitempty"`
}

// CreateChatResponse is the result of creating a chat.
type CreateChatResponse struct {
	Chat    Chat   `json:"chat"`
	TraceID string `json:"trace_id"`
}

// ListChatsResponse is one page of chats.
type ListChatsResponse struct {
	Chats      []Chat `json:"chats"`
	NextCursor string `json:"next_cursor,omitempty"`
	TraceID    string `json:"trace_id"`
}

// SendMessageOptions carries optional send-message parameters.
type SendMessageOptions struct {
	Service          Service
	ReplyToMessageID string
}

// Message is a message as reported by the API.
type Message struct {
	ID            string        `json:"id"`
	ChatID        string        `json:"chat_id"`
	From          string        `json:"from"`
	Parts         []MessagePart `json:"parts"`
	Service       Service       `json:"service"`
	Direction     string        `json:"direction"`
	Status        string        `json:"status"`
	SentAt        string        `json:"sent_at"`
	DeliveredAt   string        `json:"delivered_at,omitempty"`
	ReadAt        string        `json:"read_at,omitempty"`
	FailedAt      string        `json:"failed_at,omitempty"`
	FailureReason string        `json:"failure_reason,omitempty"`
}

// SendMessageResponse is the result of sending a message.
type SendMessageResponse struct {
	Message Message `json:"message"`
	ChatID  string  `json:"chat_id,omitempty"`
	TraceID string  `json:"trace_id"`
}

// ReactionType enumerates the tapback reactions the API accepts.
type ReactionType string

const (
	ReactionLove      ReactionType = "love"
	ReactionLike      ReactionType = "like"
	ReactionDislike   ReactionType = "dislike"
	ReactionLaugh     ReactionType = "laugh"
	ReactionEmphasize ReactionType = "emphasize"
	ReactionQuestion  ReactionType = "question"
)

// EventType is a webhook event type tag.
type EventType string

const (
	EventMessageReceived  EventType = "message.received"
	EventMessageDelivered EventType = "message.delivered"
	EventMessageRead      EventType = "message.read"
	EventMessageFailed    EventType = "message.failed"
	EventReactionAdded    EventType = "reaction.added"
	EventReactionRemoved  EventType = "reaction.removed"
	EventTypingStarted    EventType = "chat.typing_indicator.started"
	EventTypingStopped    EventType = "chat.typing_indicator.stopped"
)

// AllEventTypes lists every event type a subscription can cover.
var AllEventTypes = []EventType{
	EventMessageReceived,
	EventMessageDelivered,
	EventMessageRead,
	EventMessageFailed,
	EventReactionAdded,
	EventReactionRemoved,
	EventTypingStarted,
	EventTypingStopped,
}

// WebhookSubscription is a registered webhook target. SigningSecret is
// only present in the create response and never returned again.
type WebhookSubscription struct {
	ID               string      `json:"id"`
	TargetURL        string      `json:"target_url"`
	SubscribedEvents []EventType `json:"subscribed_events"`
	SigningSecret    string      `json:"signing_secret,omitempty"`
	IsActive         bool        `json:"is_active"`
	CreatedAt        string      `json:"created_at"`
	UpdatedAt        string      `json:"updated_at,omitempty"`
}

// CreateWebhookRequest is the body for POST /v3/webhook-subscriptions.
type CreateWebhookRequest struct {
	TargetURL        string      `json:"target_url"`
	SubscribedEvents []EventType `json:"subscribed_events"`
}

// CreateWebhookResponse is the result of creating a webhook subscription.
type CreateWebhookResponse struct {
	Subscription WebhookSubscription `json:"subscription"`
	TraceID      string              `json:"trace_id"`
}

// ListWebhooksResponse lists registered webhook subscriptions.
type ListWebhooksResponse struct {
	Subscriptions []WebhookSubscription `json:"subscriptions"`
	TraceID       string                `json:"trace_id"`
}

// DeleteWebhookResponse is the result of deleting a webhook subscription.
type DeleteWebhookResponse struct {
	TraceID string `json:"trace_id"`
}

// Handle describes a chat participant or message sender as reported in
// webhook payloads.
type Handle struct {
	Handle   string  `json:"handle"`
	ID       string  `json:"id"`
	IsMe     bool    `json:"is_me"`
	JoinedAt string  `json:"joined_at,omitempty"`
	LeftAt   string  `json:"left_at,omitempty"`
	Service  Service `json:"service,omitempty"`
	Status   string  `json:"status,omitempty"`
}
