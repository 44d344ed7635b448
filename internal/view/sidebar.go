package view

import (
	"sort"

	"chatterbox/backend/internal/models"
)

const noConversationsText = "No active conversations"

// UserItem is one entry of the online list.
type UserItem struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Self     bool   `json:"self"`
	Color    string `json:"color"`
}

func newUserItem(u, self models.User) UserItem {
	return UserItem{
		ID:       u.ID,
		Username: u.Username,
		Self:     isSelf(u, self),
		Color:    UserColor(u.ID),
	}
}

// Roster is the online users sidebar.
type Roster struct {
	Users []UserItem `json:"users"`
	Count int        `json:"count"`
}

func NewRoster(users []models.User, self models.User) Roster {
	r := Roster{Users: make([]UserItem, 0, len(users))}
	for _, u := range users {
		r.Users = append(r.Users, newUserItem(u, self))
	}
	r.Count = len(r.Users)
	return r
}

// ConversationsList is the conversation sidebar.
type ConversationsList struct {
	Items       []ConversationItem `json:"items"`
	UnreadTotal int                `json:"unreadTotal"`
	EmptyText   string             `json:"emptyText,omitempty"`
}

type ConversationItem struct {
	PartnerUsername string `json:"partnerUsername"`
	Active          bool   `json:"active"`
	Unread          int    `json:"unread"`
	LastMessageAt   int64  `json:"lastMessageAt"`
	Preview         string `json:"preview,omitempty"`
}

// NewConversationsList sorts conversations newest first. Conversations with
// no messages keep their relative order at the end.
func NewConversationsList(convs []models.Conversation, target string) ConversationsList {
	list := ConversationsList{Items: make([]ConversationItem, 0, len(convs))}
	for _, c := range convs {
		item := ConversationItem{
			PartnerUsername: c.PartnerUsername,
			Active:          c.PartnerUsername == target,
			Unread:          c.Unread,
			LastMessageAt:   c.LastMessageAt(),
		}
		if n := len(c.Messages); n > 0 {
			item.Preview = c.Messages[n-1].Text
		}
		list.Items = append(list.Items, item)
		list.UnreadTotal += c.Unread
	}

	sort.SliceStable(list.Items, func(i, j int) bool {
		return list.Items[i].LastMessageAt > list.Items[j].LastMessageAt
	})

	if len(list.Items) == 0 {
		list.EmptyText = noConversationsText
	}
	return list
}
