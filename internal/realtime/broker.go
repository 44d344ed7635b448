// Package realtime is the transport adapter between a chat session and the
// hosted pub/sub service. A Channel gives one session a single logical
// channel with broadcast and presence semantics; the Broker underneath is
// Redis, NATS or an in-process implementation.
package realtime

import (
	"context"
	"errors"
	"strings"

	"chatterbox/backend/internal/models"
)

// ErrNotSubscribed is returned by Channel operations that need an active subscription.
var ErrNotSubscribed = errors.New("realtime: channel not subscribed")

// Subscription is a live broker subscription.
type Subscription interface {
	Close() error
}

// Broker is the hosted service as seen by a Channel.
//
// Frames published on a topic reach every subscriber of that topic, the
// publisher included. Deliveries to a single subscriber are sequential and in
// publish order.
type Broker interface {
	Subscribe(ctx context.Context, topic string, deliver func(models.Frame)) (Subscription, error)
	Publish(ctx context.Context, topic string, frame models.Frame) error

	PutPresence(ctx context.Context, topic, key string, user models.User) error
	DeletePresence(ctx context.Context, topic, key string) error
	ListPresence(ctx context.Context, topic string) ([]models.User, error)
}

type subscriptionFunc func() error

func (f subscriptionFunc) Close() error { return f() }

// sanitizeTopic maps a topic to [A-Za-z0-9_-] for backends with strict naming rules.
func sanitizeTopic(topic string) string {
	var b strings.Builder
	for _, r := range topic {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
