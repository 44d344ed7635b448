package models

// Conversation is the message history between the local user and one partner.
// Conversations are created lazily and never deleted.
type Conversation struct {
	PartnerUsername string    `json:"partnerUsername"`
	Messages        []Message `json:"messages"`
	// Unread counts messages filed while the partner was not the active target.
	Unread int `json:"unread,omitempty"`
}

// LastMessageAt returns the timestamp of the newest message, or 0 when empty.
func (c Conversation) LastMessageAt() int64 {
	if len(c.Messages) == 0 {
		return 0
	}
	return c.Messages[len(c.Messages)-1].Timestamp
}

// CloneConversations deep-copies a conversation list so callers can't alias
// the session's slices.
func CloneConversations(in []Conversation) []Conversation {
	if in == nil {
		return nil
	}
	out := make([]Conversation, len(in))
	for i, c := range in {
		out[i] = c
		out[i].Messages = append([]Message(nil), c.Messages...)
	}
	return out
}
