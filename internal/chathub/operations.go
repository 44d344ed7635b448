package chathub

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"unicode/utf8"

	"chatterbox/backend/internal/audit"
	"chatterbox/backend/internal/config"
	"chatterbox/backend/internal/models"
	"chatterbox/backend/internal/observability"
)

// Login joins the chat as username.
func (s *Session) Login(ctx context.Context, username string) error {
	observability.IncSessionEvent("ui", "login")
	return s.call(ctx, true, func() error { return s.login(ctx, username) })
}

// Join checks that username is free among the online users, then logs in.
func (s *Session) Join(ctx context.Context, username string) error {
	observability.IncSessionEvent("ui", "join")
	return s.call(ctx, true, func() error {
		name := strings.TrimSpace(username)
		if name != "" && !s.loggedIn && s.channel.Connected() {
			available, err := s.checkUsernameAvailability(name)
			if err != nil {
				return s.fail(err, "toast.connection_error")
			}
			if !available {
				return s.fail(ErrUsernameTaken, "toast.username_taken", name)
			}
		}
		return s.login(ctx, username)
	})
}

// CheckUsernameAvailability reports whether no online user already uses name.
func (s *Session) CheckUsernameAvailability(ctx context.Context, name string) (bool, error) {
	observability.IncSessionEvent("ui", "check_username")
	var available bool
	err := s.call(ctx, false, func() error {
		var err error
		available, err = s.checkUsernameAvailability(name)
		return err
	})
	return available, err
}

// StartChat opens the conversation with partner.
func (s *Session) StartChat(ctx context.Context, partner string) error {
	observability.IncSessionEvent("ui", "start_chat")
	return s.call(ctx, true, func() error { return s.startChat(ctx, partner, false) })
}

// SelectPartner resolves picker input against the online users and starts
// the chat with the match.
func (s *Session) SelectPartner(ctx context.Context, input string) error {
	observability.IncSessionEvent("ui", "select_partner")
	return s.call(ctx, true, func() error {
		partner, err := MatchPartner(s.users, s.self, input)
		switch {
		case err == nil:
			return s.startChat(ctx, partner, false)
		case errors.Is(err, ErrNoTarget):
			return s.fail(err, "toast.no_target")
		case errors.Is(err, ErrSelfTarget):
			return s.fail(err, "toast.self_target")
		default:
			return s.fail(err, "toast.partner_offline")
		}
	})
}

// SwitchConversation makes partner's conversation the active one.
func (s *Session) SwitchConversation(ctx context.Context, partner string) error {
	observability.IncSessionEvent("ui", "switch_conversation")
	return s.call(ctx, true, func() error { return s.startChat(ctx, partner, true) })
}

// SendMessage broadcasts text to the active partner. It reports whether a
// message was sent; blank text or a session without an active chat is a no-op.
func (s *Session) SendMessage(ctx context.Context, text string) (bool, error) {
	observability.IncSessionEvent("ui", "send_message")
	var sent bool
	err := s.call(ctx, true, func() error {
		var err error
		sent, err = s.sendMessage(ctx, text)
		return err
	})
	return sent, err
}

// Logout leaves the chat. Conversations are kept.
func (s *Session) Logout(ctx context.Context) error {
	observability.IncSessionEvent("ui", "logout")
	return s.call(ctx, true, func() error {
		s.logout(ctx)
		return nil
	})
}

func (s *Session) login(ctx context.Context, username string) error {
	name := strings.TrimSpace(username)
	if name == "" {
		return s.fail(ErrUsernameRequired, "toast.username_required")
	}
	if !s.channel.Connected() {
		return s.fail(ErrNotConnected, "toast.connection_error")
	}
	if s.loggedIn {
		return s.fail(ErrAlreadyLoggedIn, "toast.already_logged_in", s.self.Username)
	}
	if n := utf8.RuneCountInString(name); n < config.MinUsernameLength || n > config.MaxUsernameLength {
		return s.fail(ErrUsernameLength, "toast.username_length", config.MinUsernameLength, config.MaxUsernameLength)
	}

	user := models.NewUser(name)
	if err := s.channel.Track(ctx, user); err != nil {
		return s.fail(fmt.Errorf("track %s: %w", name, err), "toast.connection_error")
	}

	s.self = user
	if !s.hasUser(user.ID) {
		s.users = append(s.users, user)
	}
	s.notify("notify.you_joined")
	s.loggedIn = true
	s.raise(models.ToastDefault, "toast.welcome", name)
	s.record(ctx, audit.EventLogin, name)
	return nil
}

func (s *Session) checkUsernameAvailability(name string) (bool, error) {
	if !s.channel.Connected() {
		return false, ErrNotConnected
	}
	for _, u := range s.users {
		if models.SameName(u.Username, name) {
			return false, nil
		}
	}
	return true, nil
}

func (s *Session) startChat(ctx context.Context, partner string, switching bool) error {
	partner = strings.TrimSpace(partner)
	if partner == "" {
		return s.fail(ErrNoTarget, "toast.no_target")
	}

	i := s.ensureConversation(partner)
	s.conversations[i].Unread = 0

	notifyKey, toastKey := "notify.chat_started", "toast.chat_started"
	if switching {
		notifyKey, toastKey = "notify.chat_switched", "toast.chat_switched"
	}

	active := make([]models.Message, 0, len(s.conversations[i].Messages)+1)
	active = append(active, models.NewNotification(s.loc.Format(s.lang, notifyKey, partner)))
	active = append(active, s.conversations[i].Messages...)
	s.messages = active

	s.target = partner
	s.inChat = true
	s.raise(models.ToastDefault, toastKey, partner)
	if !switching {
		s.record(ctx, audit.EventChatStarted, s.self.Username)
	}
	s.saveConversations(ctx)
	return nil
}

func (s *Session) sendMessage(ctx context.Context, text string) (bool, error) {
	if strings.TrimSpace(text) == "" || !s.channel.Connected() || !s.loggedIn || !s.inChat || s.target == "" {
		return false, nil
	}

	msg := models.NewTextMessage(s.self, s.target, text)
	s.processed[msg.ID] = struct{}{}

	if err := s.channel.Send(ctx, models.EventMessage, msg); err != nil {
		delete(s.processed, msg.ID)
		return false, s.fail(fmt.Errorf("broadcast message: %w", err), "toast.send_failed")
	}

	s.messages = append(s.messages, msg)
	i := s.ensureConversation(s.target)
	s.conversations[i].Messages = append(s.conversations[i].Messages, msg)
	observability.IncMessageSent()
	s.saveConversations(ctx)
	return true, nil
}

func (s *Session) logout(ctx context.Context) {
	if err := s.channel.Untrack(ctx); err != nil {
		log.Printf("[chathub] untrack on logout failed for client %s: %v", s.clientID, err)
	}

	name := s.self.Username
	s.loggedIn = false
	s.inChat = false
	s.self = models.User{}
	s.target = ""
	s.users = nil
	s.messages = nil
	s.processed = make(map[string]struct{})

	s.raise(models.ToastDefault, "toast.goodbye")
	s.record(ctx, audit.EventLogout, name)
}

func (s *Session) hasUser(id string) bool {
	for _, u := range s.users {
		if u.ID == id {
			return true
		}
	}
	return false
}
