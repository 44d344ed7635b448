package chathub_test

import (
	"sync"
	"sync/atomic"

	"chatterbox/backend/internal/models"
)

type MockClient struct {
	id       string
	clientID string
	closed   atomic.Int32
	ran      atomic.Bool
}

func newMockClient(id string) *MockClient {
	return &MockClient{id: id, clientID: "browser-" + id}
}

func (c *MockClient) GetID() string       { return c.id }
func (c *MockClient) GetClientID() string { return c.clientID }
func (c *MockClient) Run()                { c.ran.Store(true) }
func (c *MockClient) Close()              { c.closed.Add(1) }

// recordingNotifier collects a session's output across goroutines.
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

func (n *recordingNotifier) hasToast(title string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, t := range n.toasts {
		if t.Title == title {
			return true
		}
	}
	return false
}
