package audit

import (
	"context"
	"log"
	"time"

	"chatterbox/backend/internal/observability"
)

// Session lifecycle event types.
const (
	EventConnected    = "session.connected"
	EventDisconnected = "session.disconnected"
	EventLogin        = "session.login"
	EventLogout       = "session.logout"
	EventChatStarted  = "session.chat_started"
)

// Envelope is the JSON body published for every audit event.
type Envelope struct {
	SchemaVersion int    `json:"schema_version"`
	EventType     string `json:"event_type"`
	OccurredAt    string `json:"occurred_at"`
	Service       string `json:"service"`
	Environment   string `json:"environment"`
	ClientID      string `json:"client_id"`
	Username      string `json:"username,omitempty"`
	Detail        string `json:"detail,omitempty"`
}

// Emitter stamps events with service metadata and publishes them.
type Emitter struct {
	publisher   Publisher
	service     string
	environment string
}

func NewEmitter(publisher Publisher, service, environment string) *Emitter {
	return &Emitter{
		publisher:   publisher,
		service:     service,
		environment: environment,
	}
}

// Record publishes one event with the event type as routing key. Failures
// are logged and counted, never returned.
func (e *Emitter) Record(ctx context.Context, eventType, clientID, username, detail string) {
	if e == nil || e.publisher == nil {
		return
	}

	envelope := Envelope{
		SchemaVersion: 1,
		EventType:     eventType,
		OccurredAt:    time.Now().UTC().Format(time.RFC3339Nano),
		Service:       e.service,
		Environment:   e.environment,
		ClientID:      clientID,
		Username:      username,
		Detail:        detail,
	}

	if err := e.publisher.Publish(ctx, eventType, envelope); err != nil {
		observability.IncAuditPublishError()
		log.Printf("[audit] publish %s failed: %v", eventType, err)
	}
}
