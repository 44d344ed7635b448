package view

import (
	"time"

	"chatterbox/backend/internal/config"
	"chatterbox/backend/internal/models"
)

const noMessagesText = "No messages yet. Start the conversation!"

// Location is the zone message times are rendered in.
var Location = time.Local

// MessageList is the active message pane.
type MessageList struct {
	Groups    []MessageGroup `json:"groups"`
	EmptyText string         `json:"emptyText,omitempty"`
}

// MessageGroup is a run of consecutive messages from one sender, or a single
// notification.
type MessageGroup struct {
	Notification   bool          `json:"notification"`
	SenderUserID   string        `json:"userId,omitempty"`
	SenderUsername string        `json:"username,omitempty"`
	Own            bool          `json:"own"`
	Color          string        `json:"color,omitempty"`
	Messages       []MessageItem `json:"messages"`
}

type MessageItem struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Time      string `json:"time"`
	Timestamp int64  `json:"timestamp"`
}

// NewMessageList groups messages for display. Own messages are the ones whose
// sender name equals username.
func NewMessageList(messages []models.Message, username string) MessageList {
	list := MessageList{Groups: []MessageGroup{}}
	if len(messages) == 0 {
		list.EmptyText = noMessagesText
		return list
	}

	for _, m := range messages {
		item := MessageItem{
			ID:        m.ID,
			Text:      m.Text,
			Time:      FormatTime(m.Timestamp, Location),
			Timestamp: m.Timestamp,
		}

		if m.IsNotification() {
			list.Groups = append(list.Groups, MessageGroup{
				Notification: true,
				Messages:     []MessageItem{item},
			})
			continue
		}

		if n := len(list.Groups); n > 0 {
			last := &list.Groups[n-1]
			if !last.Notification && last.SenderUserID == m.SenderUserID {
				last.Messages = append(last.Messages, item)
				continue
			}
		}

		g := MessageGroup{
			SenderUserID:   m.SenderUserID,
			SenderUsername: m.SenderUsername,
			Own:            username != "" && m.SenderUsername == username,
			Messages:       []MessageItem{item},
		}
		if !g.Own {
			g.Color = UserColor(m.SenderUserID)
		}
		list.Groups = append(list.Groups, g)
	}
	return list
}

// UserColor picks a palette entry from the sum of the id's character codes.
func UserColor(userID string) string {
	sum := 0
	for _, r := range userID {
		sum += int(r)
	}
	return config.UserColors[sum%len(config.UserColors)]
}

// FormatTime renders a Unix-millisecond timestamp as HH:mm.
func FormatTime(ts int64, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return time.UnixMilli(ts).In(loc).Format("15:04")
}
