package chathub

import (
	"context"
	"encoding/json"
	"sync"

	"chatterbox/backend/internal/models"
	"chatterbox/backend/internal/realtime"

	"github.com/stretchr/testify/mock"
)

type sentEvent struct {
	Event   string
	Payload any
}

// fakeChannel records what a session asks of its channel. Nothing is delivered
// back; tests drive the inbound handlers directly.
type fakeChannel struct {
	mu sync.Mutex

	connected    bool
	subscribeErr error
	sendErr      error
	trackErr     error

	sent         []sentEvent
	tracked      *models.User
	untrackCalls int
	unsubscribed bool

	broadcast map[string]realtime.BroadcastHandler
	presence  map[realtime.PresenceEvent]realtime.PresenceHandler
}

func newFakeChannel(connected bool) *fakeChannel {
	return &fakeChannel{
		connected: connected,
		broadcast: make(map[string]realtime.BroadcastHandler),
		presence:  make(map[realtime.PresenceEvent]realtime.PresenceHandler),
	}
}

func (f *fakeChannel) Connected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakeChannel) On(event string, h realtime.BroadcastHandler) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.broadcast[event] = h
}

func (f *fakeChannel) OnPresence(event realtime.PresenceEvent, h realtime.PresenceHandler) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.presence[event] = h
}

func (f *fakeChannel) Subscribe(_ context.Context, status func(realtime.Status, error)) error {
	f.mu.Lock()
	err := f.subscribeErr
	if err == nil {
		f.connected = true
	}
	f.mu.Unlock()

	if err != nil {
		status(realtime.StatusChannelError, err)
		return err
	}
	status(realtime.StatusSubscribed, nil)
	return nil
}

func (f *fakeChannel) Unsubscribe(ctx context.Context) error {
	_ = f.Untrack(ctx)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = false
	f.unsubscribed = true
	return nil
}

func (f *fakeChannel) Send(_ context.Context, event string, payload any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, sentEvent{Event: event, Payload: payload})
	return nil
}

func (f *fakeChannel) Track(_ context.Context, user models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.trackErr != nil {
		return f.trackErr
	}
	u := user
	f.tracked = &u
	return nil
}

func (f *fakeChannel) Untrack(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.untrackCalls++
	f.tracked = nil
	return nil
}

func (f *fakeChannel) sentMessages() []models.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Message
	for _, s := range f.sent {
		if m, ok := s.Payload.(models.Message); ok {
			out = append(out, m)
		}
	}
	return out
}

// MockStore is a testify mock of ConversationStore.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) LoadConversations(ctx context.Context, clientID string) ([]models.Conversation, error) {
	args := m.Called(ctx, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Conversation), args.Error(1)
}

func (m *MockStore) SaveConversations(ctx context.Context, clientID string, convs []models.Conversation) error {
	args := m.Called(ctx, clientID, convs)
	return args.Error(0)
}

// MockAuditor is a testify mock of Auditor.
type MockAuditor struct {
	mock.Mock
}

func (m *MockAuditor) Record(ctx context.Context, eventType, clientID, username, detail string) {
	m.Called(ctx, eventType, clientID, username, detail)
}

type recordingNotifier struct {
	mu     sync.Mutex
	toasts []models.Toast
	states []models.SessionState
}

func (n *recordingNotifier) Toast(t models.Toast) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.toasts = append(n.toasts, t)
}

func (n *recordingNotifier) StateChanged(s models.SessionState) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.states = append(n.states, s)
}

func (n *recordingNotifier) lastToast() models.Toast {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.toasts) == 0 {
		return models.Toast{}
	}
	return n.toasts[len(n.toasts)-1]
}

func (n *recordingNotifier) toastTitles() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.toasts))
	for _, t := range n.toasts {
		out = append(out, t.Title)
	}
	return out
}

func mustJSON(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}
