package view

import (
	"strings"
	"unicode/utf8"

	"chatterbox/backend/internal/config"
	"chatterbox/backend/internal/models"
)

const (
	noPartnersText       = "No other users online"
	messageInputHint     = "Type a message..."
	connectingStatusText = "Connecting to server..."
)

// LoginForm is the username form shown before joining.
type LoginForm struct {
	Connected bool   `json:"connected"`
	Status    string `json:"status,omitempty"`
	MinLength int    `json:"minLength"`
	MaxLength int    `json:"maxLength"`
}

func NewLoginForm(connected bool) LoginForm {
	f := LoginForm{
		Connected: connected,
		MinLength: config.MinUsernameLength,
		MaxLength: config.MaxUsernameLength,
	}
	if !connected {
		f.Status = connectingStatusText
	}
	return f
}

// LoginSubmitDisabled reports whether the join button is disabled for input.
func LoginSubmitDisabled(connected bool, input string) bool {
	return !connected || tooShort(input)
}

// PartnerPicker lists who the user can start a chat with.
type PartnerPicker struct {
	Partners  []UserItem `json:"partners"`
	EmptyText string     `json:"emptyText,omitempty"`
	MinLength int        `json:"minLength"`
	MaxLength int        `json:"maxLength"`
}

func NewPartnerPicker(users []models.User, self models.User) PartnerPicker {
	p := PartnerPicker{
		Partners:  []UserItem{},
		MinLength: config.MinUsernameLength,
		MaxLength: config.MaxUsernameLength,
	}
	for _, u := range users {
		if isSelf(u, self) {
			continue
		}
		p.Partners = append(p.Partners, newUserItem(u, self))
	}
	if len(p.Partners) == 0 {
		p.EmptyText = noPartnersText
	}
	return p
}

// MessageInput is the compose box.
type MessageInput struct {
	Disabled    bool   `json:"disabled"`
	Placeholder string `json:"placeholder"`
}

func NewMessageInput(connected, sending bool) MessageInput {
	return MessageInput{
		Disabled:    !connected || sending,
		Placeholder: messageInputHint,
	}
}

func tooShort(input string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(input)) < config.MinUsernameLength
}

func isSelf(u, self models.User) bool {
	if self.ID != "" {
		return u.ID == self.ID
	}
	return self.Username != "" && u.Username == self.Username
}
