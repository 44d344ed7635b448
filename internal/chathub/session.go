package chathub

import (
	"context"
	"encoding/json"
	"log"
	"sync/atomic"

	"chatterbox/backend/internal/audit"
	"chatterbox/backend/internal/config"
	"chatterbox/backend/internal/localization"
	"chatterbox/backend/internal/models"
	"chatterbox/backend/internal/observability"
	"chatterbox/backend/internal/realtime"
)

// Channel is the realtime channel a Session drives. *realtime.Channel
// satisfies it.
type Channel interface {
	Connected() bool
	On(event string, h realtime.BroadcastHandler)
	OnPresence(event realtime.PresenceEvent, h realtime.PresenceHandler)
	Subscribe(ctx context.Context, status func(realtime.Status, error)) error
	Unsubscribe(ctx context.Context) error
	Send(ctx context.Context, event string, payload any) error
	Track(ctx context.Context, user models.User) error
	Untrack(ctx context.Context) error
}

// ConversationStore persists a client's conversation list.
type ConversationStore interface {
	LoadConversations(ctx context.Context, clientID string) ([]models.Conversation, error)
	SaveConversations(ctx context.Context, clientID string, convs []models.Conversation) error
}

// Notifier receives everything a session shows to its user. Calls happen on
// the dispatch loop and must not block.
type Notifier interface {
	Toast(t models.Toast)
	StateChanged(state models.SessionState)
}

// Auditor records session lifecycle events.
type Auditor interface {
	Record(ctx context.Context, eventType, clientID, username, detail string)
}

type command struct {
	fn      func()
	publish bool
}

// Session is the chat state of one browser connection. All state is owned by
// the dispatch loop started with Run; operations and channel events are
// queued onto it. Until the loop runs, operations execute on the caller's
// goroutine.
type Session struct {
	clientID string
	lang     string

	channel  Channel
	store    ConversationStore
	notifier Notifier
	loc      *localization.Localizer
	auditor  Auditor

	inbox   chan command
	done    chan struct{}
	running atomic.Bool

	loggedIn      bool
	inChat        bool
	self          models.User
	target        string
	users         []models.User
	messages      []models.Message
	conversations []models.Conversation
	processed     map[string]struct{}
}

// NewSession creates a session for the browser identified by clientID.
// store and notifier may be nil.
func NewSession(clientID string, ch Channel, store ConversationStore, notifier Notifier, loc *localization.Localizer) *Session {
	if loc == nil {
		loc = localization.Default()
	}
	return &Session{
		clientID:  clientID,
		lang:      localization.DefaultLanguage,
		channel:   ch,
		store:     store,
		notifier:  notifier,
		loc:       loc,
		inbox:     make(chan command, config.SessionInboxSize),
		done:      make(chan struct{}),
		processed: make(map[string]struct{}),
	}
}

func (s *Session) SetAuditor(a Auditor) { s.auditor = a }

// SetLanguage selects the translation used for notifications and toasts.
func (s *Session) SetLanguage(lang string) {
	if lang != "" {
		s.lang = lang
	}
}

func (s *Session) ClientID() string { return s.clientID }

// Run drains the command queue until ctx is done.
func (s *Session) Run(ctx context.Context) {
	s.running.Store(true)
	defer close(s.done)

	for {
		select {
		case cmd := <-s.inbox:
			cmd.fn()
			if cmd.publish {
				s.publishState()
			}
		case <-ctx.Done():
			return
		}
	}
}

// Start launches the dispatch loop, loads the saved conversations and
// subscribes the channel. Subscription failure is reported to the user and
// returned.
func (s *Session) Start(ctx context.Context) error {
	if !s.running.Swap(true) {
		go s.Run(ctx)
	}

	if err := s.call(ctx, true, func() error {
		s.loadConversations(ctx)
		return nil
	}); err != nil {
		return err
	}

	s.bind()
	if err := s.channel.Subscribe(ctx, func(status realtime.Status, err error) {
		s.enqueue(func() { s.handleStatus(status, err) })
	}); err != nil {
		return err
	}
	s.record(ctx, audit.EventConnected, "")
	return nil
}

// Close tears down the channel, which also removes the presence record.
func (s *Session) Close(ctx context.Context) {
	if err := s.channel.Unsubscribe(ctx); err != nil {
		log.Printf("[chathub] unsubscribe failed for client %s: %v", s.clientID, err)
	}
	s.record(ctx, audit.EventDisconnected, "")
}

func (s *Session) record(ctx context.Context, eventType, username string) {
	if s.auditor != nil {
		s.auditor.Record(ctx, eventType, s.clientID, username, "")
	}
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot(ctx context.Context) (models.SessionState, error) {
	var st models.SessionState
	err := s.call(ctx, false, func() error {
		st = s.state()
		return nil
	})
	return st, err
}

// bind routes channel events onto the dispatch loop.
func (s *Session) bind() {
	s.channel.On(models.EventMessage, func(p json.RawMessage) {
		s.enqueue(func() { s.handleMessage(p) })
	})
	s.channel.On(models.EventUserJoined, func(p json.RawMessage) {
		s.enqueue(func() { s.handleUserJoined(p) })
	})
	s.channel.On(models.EventUserLeft, func(p json.RawMessage) {
		s.enqueue(func() { s.handleUserLeft(p) })
	})
	s.channel.OnPresence(realtime.PresenceSync, func(users []models.User) {
		s.enqueue(func() { s.handleSync(users) })
	})
}

// call runs fn on the dispatch loop and waits for its result.
func (s *Session) call(ctx context.Context, publish bool, fn func() error) error {
	if !s.running.Load() {
		err := fn()
		if publish {
			s.publishState()
		}
		return err
	}

	res := make(chan error, 1)
	select {
	case s.inbox <- command{fn: func() { res <- fn() }, publish: publish}:
	case <-s.done:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-res:
		return err
	case <-s.done:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// enqueue queues fn without waiting. Used from broker delivery goroutines so
// event order is kept.
func (s *Session) enqueue(fn func()) {
	select {
	case s.inbox <- command{fn: fn, publish: true}:
	case <-s.done:
	}
}

func (s *Session) publishState() {
	if s.notifier != nil {
		s.notifier.StateChanged(s.state())
	}
}

func (s *Session) state() models.SessionState {
	return models.SessionState{
		Connected:      s.channel.Connected(),
		LoggedIn:       s.loggedIn,
		InChat:         s.inChat,
		Username:       s.self.Username,
		Self:           s.self,
		TargetUsername: s.target,
		Users:          append([]models.User(nil), s.users...),
		Messages:       append([]models.Message(nil), s.messages...),
		Conversations:  models.CloneConversations(s.conversations),
	}
}

func (s *Session) handleStatus(status realtime.Status, err error) {
	switch status {
	case realtime.StatusSubscribed:
		s.raise(models.ToastDefault, "toast.connected")
	case realtime.StatusChannelError:
		log.Printf("[chathub] channel error for client %s: %v", s.clientID, err)
		s.raise(models.ToastDestructive, "toast.connection_error")
	}
}

// raise emits a toast whose title takes no arguments.
func (s *Session) raise(variant models.ToastVariant, key string, descArgs ...any) {
	if s.notifier == nil {
		return
	}
	s.notifier.Toast(models.Toast{
		Title:       s.loc.GetString(s.lang, key+".title"),
		Description: s.loc.Format(s.lang, key+".desc", descArgs...),
		Variant:     variant,
	})
}

// fail raises a destructive toast for err and returns it.
func (s *Session) fail(err error, key string, descArgs ...any) error {
	s.raise(models.ToastDestructive, key, descArgs...)
	return err
}

func (s *Session) notify(key string, args ...any) {
	s.messages = append(s.messages, models.NewNotification(s.loc.Format(s.lang, key, args...)))
}

func (s *Session) loadConversations(ctx context.Context) {
	if s.store == nil {
		return
	}
	convs, err := s.store.LoadConversations(ctx, s.clientID)
	if err != nil {
		log.Printf("[chathub] failed to load conversations for client %s: %v", s.clientID, err)
		observability.IncStorageError("load")
		return
	}
	if convs != nil {
		s.conversations = convs
	}
}

func (s *Session) saveConversations(ctx context.Context) {
	if s.store == nil || len(s.conversations) == 0 {
		return
	}
	if err := s.store.SaveConversations(ctx, s.clientID, models.CloneConversations(s.conversations)); err != nil {
		log.Printf("[chathub] failed to save conversations for client %s: %v", s.clientID, err)
		observability.IncStorageError("save")
	}
}

// ensureConversation returns the index of partner's conversation, creating it if absent.
func (s *Session) ensureConversation(partner string) int {
	for i := range s.conversations {
		if s.conversations[i].PartnerUsername == partner {
			return i
		}
	}
	s.conversations = append(s.conversations, models.Conversation{
		PartnerUsername: partner,
		Messages:        []models.Message{},
	})
	return len(s.conversations) - 1
}
