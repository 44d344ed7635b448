package chathub

import (
	"context"
	"log"

	"chatterbox/backend/internal/localization"
	"chatterbox/backend/internal/observability"
)

// ChannelFactory opens a fresh, unsubscribed realtime channel for one session.
type ChannelFactory func() Channel

// ManagerService tracks the live clients of this process.
type ManagerService struct {
	Clients map[string]Client

	RegisterCh   chan Client
	UnregisterCh chan Client

	Storage    ConversationStore
	Localizer  *localization.Localizer
	Auditor    Auditor
	NewChannel ChannelFactory

	done chan struct{}
}

// NewManagerService creates a manager. s may be nil to run without persistence.
func NewManagerService(s ConversationStore, newChannel ChannelFactory) *ManagerService {
	return &ManagerService{
		Clients:      make(map[string]Client),
		RegisterCh:   make(chan Client),
		UnregisterCh: make(chan Client),
		Storage:      s,
		Localizer:    localization.Default(),
		NewChannel:   newChannel,
		done:         make(chan struct{}),
	}
}

func (m *ManagerService) SetAuditor(a Auditor) {
	m.Auditor = a
}

// OpenSession builds a session on a new channel for the browser clientID.
func (m *ManagerService) OpenSession(clientID string, notifier Notifier) *Session {
	s := NewSession(clientID, m.NewChannel(), m.Storage, notifier, m.Localizer)
	if m.Auditor != nil {
		s.SetAuditor(m.Auditor)
	}
	return s
}

// Register hands c to the Run loop. After shutdown c is closed instead.
func (m *ManagerService) Register(c Client) bool {
	select {
	case m.RegisterCh <- c:
		return true
	case <-m.done:
		c.Close()
		return false
	}
}

// Unregister removes c. It never blocks once the manager has stopped.
func (m *ManagerService) Unregister(c Client) {
	select {
	case m.UnregisterCh <- c:
	case <-m.done:
		c.Close()
	}
}

// Run owns the client registry until ctx is done, then closes every client.
func (m *ManagerService) Run(ctx context.Context) {
	log.Println("[chathub] manager started")
	defer close(m.done)

	for {
		select {
		case client := <-m.RegisterCh:
			m.Clients[client.GetID()] = client
			observability.IncActiveSessions()
			log.Printf("[chathub] client %s registered (browser %s), %d active", client.GetID(), client.GetClientID(), len(m.Clients))

		case client := <-m.UnregisterCh:
			if _, ok := m.Clients[client.GetID()]; ok {
				delete(m.Clients, client.GetID())
				observability.DecActiveSessions()
				client.Close()
				log.Printf("[chathub] client %s unregistered, %d active", client.GetID(), len(m.Clients))
			}

		case <-ctx.Done():
			for id, client := range m.Clients {
				client.Close()
				delete(m.Clients, id)
				observability.DecActiveSessions()
			}
			log.Println("[chathub] manager stopped")
			return
		}
	}
}
