package config

import "time"

const (
	// Username
	MinUsernameLength = 2
	MaxUsernameLength = 15

	// Message input
	SendCooldown = 500 * time.Millisecond

	// Realtime
	DefaultTopic        = "public:chat_room"
	SessionInboxSize    = 256
	ClientSendQueueSize = 256

	// Local storage
	ConversationsStorageKey = "chat_conversations"
	StorageCacheTTL         = 24 * time.Hour

	// Identity token
	ClientTokenTTL    = 30 * 24 * time.Hour
	ClientTokenIssuer = "chatterbox-service"
)

// UserColors is the palette a sender's display color is picked from.
var UserColors = []string{
	"chat-user1",
	"chat-user2",
	"chat-user3",
	"chat-user4",
	"chat-user5",
}
