package outbound

import "context"

// StartTyping shows the typing indicator to a recipient. Without a known
// chat there is nothing to address the call to, so it is silently skipped;
// chats are never created just to show an indicator.
func (s *Sender) StartTyping(ctx context.Context, to string) error {
	chatID, ok := s.store.Lookup(NormalizeRecipient(to))
	if !ok {
		return nil
	}
	return s.client.StartTyping(ctx, chatID)
}

// StopTyping hides the typing indicator for a recipient. Skipped when the
// chat is unknown, like StartTyping.
func (s *Sender) StopTyping(ctx context.Context, to string) error {
	chatID, ok := s.store.Lookup(NormalizeRecipient(to))
	if !ok {
		return nil
	}
	return s.client.StopTyping(ctx, chatID)
}

// MarkRead marks a recipient's chat as read. Skipped when the chat is
// unknown.
func (s *Sender) MarkRead(ctx context.Context, to string) error {
	chatID, ok := s.store.Lookup(NormalizeRecipient(to))
	if !ok {
		return nil
	}
	return s.client.MarkRead(ctx, chatID)
}
