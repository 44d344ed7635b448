// Package view turns a session snapshot into the view model the browser
// renders. Everything here is a pure function of its input.
package view

import (
	"chatterbox/backend/internal/models"
)

// Screen names the top-level page the browser shows.
type Screen string

const (
	ScreenLogin  Screen = "login"
	ScreenPicker Screen = "picker"
	ScreenChat   Screen = "chat"
)

// Page is the complete view model for one session.
type Page struct {
	Screen    Screen         `json:"screen"`
	Connected bool           `json:"connected"`
	Username  string         `json:"username,omitempty"`
	Login     *LoginForm     `json:"login,omitempty"`
	Picker    *PartnerPicker `json:"picker,omitempty"`
	Chat      *ChatRoom      `json:"chat,omitempty"`
}

// ChatRoom is the in-chat screen: messages, input and both sidebars.
type ChatRoom struct {
	TargetUsername string            `json:"targetUsername"`
	Messages       MessageList       `json:"messages"`
	Input          MessageInput      `json:"input"`
	Roster         Roster            `json:"roster"`
	Conversations  ConversationsList `json:"conversations"`
}

// Render builds the page for state. inputDisabled marks the message input
// as busy while a send cooldown runs.
func Render(state models.SessionState, inputDisabled bool) Page {
	page := Page{
		Connected: state.Connected,
		Username:  state.Username,
	}

	switch {
	case !state.LoggedIn:
		page.Screen = ScreenLogin
		form := NewLoginForm(state.Connected)
		page.Login = &form

	case !state.InChat:
		page.Screen = ScreenPicker
		picker := NewPartnerPicker(state.Users, state.Self)
		page.Picker = &picker

	default:
		page.Screen = ScreenChat
		page.Chat = &ChatRoom{
			TargetUsername: state.TargetUsername,
			Messages:       NewMessageList(state.Messages, state.Username),
			Input:          NewMessageInput(state.Connected, inputDisabled),
			Roster:         NewRoster(state.Users, state.Self),
			Conversations:  NewConversationsList(state.Conversations, state.TargetUsername),
		}
	}
	return page
}
