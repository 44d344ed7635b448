package chathub

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"chatterbox/backend/internal/models"
	"chatterbox/backend/internal/observability"
)

const saveTimeout = 5 * time.Second

func (s *Session) handleMessage(payload json.RawMessage) {
	observability.IncSessionEvent("channel", models.EventMessage)

	var msg models.Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		log.Printf("[chathub] dropping undecodable message for client %s: %v", s.clientID, err)
		observability.IncMessageDropped("decode")
		return
	}

	if _, seen := s.processed[msg.ID]; seen {
		observability.IncMessageDropped("duplicate")
		return
	}
	if s.self.ID != "" && msg.SenderUserID == s.self.ID {
		observability.IncMessageDropped("self")
		return
	}
	// routing is by username; anything not addressed to us is someone else's chat
	if !s.loggedIn || msg.TargetUsername != s.self.Username {
		observability.IncMessageDropped("not_addressed")
		return
	}

	s.processed[msg.ID] = struct{}{}

	i := s.ensureConversation(msg.SenderUsername)
	s.conversations[i].Messages = append(s.conversations[i].Messages, msg)

	if s.inChat && s.target == msg.SenderUsername {
		s.messages = append(s.messages, msg)
	} else {
		s.conversations[i].Unread++
		if s.notifier != nil {
			s.notifier.Toast(models.Toast{
				Title:       s.loc.Format(s.lang, "toast.new_message.title", msg.SenderUsername),
				Description: s.loc.Format(s.lang, "toast.new_message.desc", msg.Text),
				Variant:     models.ToastDefault,
			})
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	s.saveConversations(ctx)
}

func (s *Session) handleUserJoined(payload json.RawMessage) {
	observability.IncSessionEvent("channel", models.EventUserJoined)

	var user models.User
	if err := json.Unmarshal(payload, &user); err != nil {
		log.Printf("[chathub] dropping undecodable join for client %s: %v", s.clientID, err)
		return
	}
	if user.ID == "" || user.ID == s.self.ID {
		return
	}
	if s.hasUser(user.ID) {
		return
	}

	s.users = append(s.users, user)
	s.notify("notify.user_joined", user.Username)
}

func (s *Session) handleUserLeft(payload json.RawMessage) {
	observability.IncSessionEvent("channel", models.EventUserLeft)

	var user models.User
	if err := json.Unmarshal(payload, &user); err != nil {
		log.Printf("[chathub] dropping undecodable leave for client %s: %v", s.clientID, err)
		return
	}
	if user.ID == "" || user.ID == s.self.ID {
		return
	}

	kept := s.users[:0]
	removed := false
	for _, u := range s.users {
		if u.ID == user.ID {
			removed = true
			continue
		}
		kept = append(kept, u)
	}
	s.users = kept

	if removed {
		s.notify("notify.user_left", user.Username)
	}
}

// handleSync replaces the roster with the presence snapshot, self first.
func (s *Session) handleSync(snapshot []models.User) {
	observability.IncSessionEvent("channel", "sync")

	users := make([]models.User, 0, len(snapshot)+1)
	if s.loggedIn {
		users = append(users, s.self)
	}
	for _, u := range snapshot {
		if s.loggedIn && u.ID == s.self.ID {
			continue
		}
		users = append(users, u)
	}
	s.users = users
}
