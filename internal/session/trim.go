package session

// TrimToMessageCount returns the most recent maxCount messages, copied so
// callers cannot mutate the session's backing slice. maxCount <= 0 means
// no limit.
func TrimToMessageCount(messages []Message, maxCount int) []Message {
	if maxCount <= 0 || maxCount >= len(messages) {
		out := make([]Message, len(messages))
		copy(out, messages)
		return out
	}

	out := make([]Message, maxCount)
	copy(out, messages[len(messages)-maxCount:])
	return out
}
