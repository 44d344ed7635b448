package models

import "encoding/json"

// Broadcast event names exchanged over the realtime channel.
const (
	EventMessage    = "message"
	EventUserJoined = "user_joined"
	EventUserLeft   = "user_left"
)

// FrameType separates broadcast traffic from presence diffs.
type FrameType string

const (
	FrameBroadcast FrameType = "broadcast"
	FramePresence  FrameType = "presence"
)

// Frame is the envelope published on the realtime broker.
type Frame struct {
	Type    FrameType       `json:"type"`
	Event   string          `json:"event,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Joins   []User          `json:"joins,omitempty"`
	Leaves  []User          `json:"leaves,omitempty"`
	// Ref identifies the publishing channel instance.
	Ref string `json:"ref,omitempty"`
}

// ToastVariant mirrors the browser toast styles.
type ToastVariant string

const (
	ToastDefault     ToastVariant = "default"
	ToastDestructive ToastVariant = "destructive"
)

// Toast is user-visible feedback raised by a session operation.
type Toast struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Variant     ToastVariant `json:"variant"`
}

// SessionState is a point-in-time copy of a chat session, safe to hand to
// renderers on other goroutines.
type SessionState struct {
	Connected      bool           `json:"connected"`
	LoggedIn       bool           `json:"loggedIn"`
	InChat         bool           `json:"inChat"`
	Username       string         `json:"username"`
	Self           User           `json:"self"`
	TargetUsername string         `json:"targetUsername"`
	Users          []User         `json:"users"`
	Messages       []Message      `json:"messages"`
	Conversations  []Conversation `json:"conversations"`
}
