package models

import (
	"time"

	"github.com/google/uuid"
)

// MessageKind distinguishes user-authored messages from system notifications.
type MessageKind string

const (
	KindMessage      MessageKind = "message"
	KindNotification MessageKind = "notification"
)

// SystemUserID and SystemUsername tag notifications produced locally.
const (
	SystemUserID   = "system"
	SystemUsername = "System"
)

// Message is a single entry of a conversation. Once created it is never mutated.
type Message struct {
	ID             string      `json:"id"`
	Text           string      `json:"text"`
	SenderUserID   string      `json:"userId"`
	SenderUsername string      `json:"username"`
	Timestamp      int64       `json:"timestamp"` // Unix milliseconds
	Kind           MessageKind `json:"type"`
	// TargetUsername is the intended recipient; empty for notifications.
	TargetUsername string `json:"targetUsername,omitempty"`
}

// NewTextMessage builds a message authored by sender and addressed to target.
func NewTextMessage(sender User, target, text string) Message {
	return Message{
		ID:             uuid.NewString(),
		Text:           text,
		SenderUserID:   sender.ID,
		SenderUsername: sender.Username,
		Timestamp:      time.Now().UnixMilli(),
		Kind:           KindMessage,
		TargetUsername: target,
	}
}

// NewNotification builds a synthetic system message.
func NewNotification(text string) Message {
	return Message{
		ID:             uuid.NewString(),
		Text:           text,
		SenderUserID:   SystemUserID,
		SenderUsername: SystemUsername,
		Timestamp:      time.Now().UnixMilli(),
		Kind:           KindNotification,
	}
}

// IsNotification reports whether the message is a system notification.
func (m Message) IsNotification() bool {
	return m.Kind == KindNotification
}
