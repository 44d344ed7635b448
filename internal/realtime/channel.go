package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"chatterbox/backend/internal/models"

	"github.com/google/uuid"
)

// Status is reported to the Subscribe callback.
type Status string

const (
	StatusSubscribed   Status = "SUBSCRIBED"
	StatusChannelError Status = "CHANNEL_ERROR"
	StatusClosed       Status = "CLOSED"
)

// PresenceEvent names the presence callbacks.
type PresenceEvent string

const (
	PresenceSync  PresenceEvent = "sync"
	PresenceJoin  PresenceEvent = "join"
	PresenceLeave PresenceEvent = "leave"
)

// BroadcastHandler receives the raw payload of a named broadcast event.
type BroadcastHandler func(payload json.RawMessage)

// PresenceHandler receives the joined or left records for join/leave, and the
// full presence snapshot for sync.
type PresenceHandler func(users []models.User)

const presenceQueryTimeout = 5 * time.Second

// Channel is one logical realtime channel owned by a single session.
type Channel struct {
	broker Broker
	topic  string
	ref    string // this channel's presence key and publisher ref

	mu        sync.RWMutex
	connected bool
	tracked   *models.User
	sub       Subscription
	status    func(Status, error)

	broadcast map[string][]BroadcastHandler
	presence  map[PresenceEvent][]PresenceHandler
}

// NewChannel creates an unsubscribed channel on topic.
func NewChannel(broker Broker, topic string) *Channel {
	return &Channel{
		broker:    broker,
		topic:     topic,
		ref:       uuid.NewString(),
		broadcast: make(map[string][]BroadcastHandler),
		presence:  make(map[PresenceEvent][]PresenceHandler),
	}
}

// Connected reports whether the subscription is live.
func (c *Channel) Connected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// On registers a handler for a named broadcast event. Handlers must be
// registered before Subscribe.
func (c *Channel) On(event string, h BroadcastHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.broadcast[event] = append(c.broadcast[event], h)
}

// OnPresence registers a presence handler. Handlers must be registered before Subscribe.
func (c *Channel) OnPresence(event PresenceEvent, h PresenceHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.presence[event] = append(c.presence[event], h)
}

// Subscribe joins the topic. status is invoked with StatusSubscribed on
// success or StatusChannelError on failure; on success an initial presence
// sync is delivered before Subscribe returns.
func (c *Channel) Subscribe(ctx context.Context, status func(Status, error)) error {
	if status == nil {
		status = func(Status, error) {}
	}

	sub, err := c.broker.Subscribe(ctx, c.topic, c.dispatch)
	if err != nil {
		c.mu.Lock()
		c.connected = false
		c.mu.Unlock()
		status(StatusChannelError, err)
		return fmt.Errorf("subscribe %s: %w", c.topic, err)
	}

	c.mu.Lock()
	c.sub = sub
	c.connected = true
	c.status = status
	c.mu.Unlock()

	log.Printf("[realtime] channel %s subscribed to %s", c.ref, c.topic)
	status(StatusSubscribed, nil)
	c.sync(ctx)
	return nil
}

// Unsubscribe untracks presence and tears the subscription down. The channel
// cannot be resubscribed.
func (c *Channel) Unsubscribe(ctx context.Context) error {
	if err := c.Untrack(ctx); err != nil {
		log.Printf("[realtime] untrack on unsubscribe failed for %s: %v", c.ref, err)
	}

	c.mu.Lock()
	sub := c.sub
	status := c.status
	c.sub = nil
	c.connected = false
	c.mu.Unlock()

	if sub == nil {
		return nil
	}
	err := sub.Close()
	if status != nil {
		status(StatusClosed, err)
	}
	return err
}

// Send broadcasts a named event to every subscriber of the topic, self included.
func (c *Channel) Send(ctx context.Context, event string, payload any) error {
	if !c.Connected() {
		return ErrNotSubscribed
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", event, err)
	}

	frame := models.Frame{
		Type:    models.FrameBroadcast,
		Event:   event,
		Payload: data,
		Ref:     c.ref,
	}
	if err := c.broker.Publish(ctx, c.topic, frame); err != nil {
		return fmt.Errorf("publish %s: %w", event, err)
	}
	return nil
}

// Track registers user as this channel's presence record.
func (c *Channel) Track(ctx context.Context, user models.User) error {
	if !c.Connected() {
		return ErrNotSubscribed
	}

	if err := c.broker.PutPresence(ctx, c.topic, c.ref, user); err != nil {
		return fmt.Errorf("track presence: %w", err)
	}

	c.mu.Lock()
	u := user
	c.tracked = &u
	c.mu.Unlock()

	return c.broker.Publish(ctx, c.topic, models.Frame{
		Type:  models.FramePresence,
		Joins: []models.User{user},
		Ref:   c.ref,
	})
}

// Untrack removes this channel's presence record. It is a no-op when nothing is tracked.
func (c *Channel) Untrack(ctx context.Context) error {
	c.mu.Lock()
	tracked := c.tracked
	c.tracked = nil
	c.mu.Unlock()

	if tracked == nil {
		return nil
	}

	if err := c.broker.DeletePresence(ctx, c.topic, c.ref); err != nil {
		return fmt.Errorf("untrack presence: %w", err)
	}
	return c.broker.Publish(ctx, c.topic, models.Frame{
		Type:   models.FramePresence,
		Leaves: []models.User{*tracked},
		Ref:    c.ref,
	})
}

// PresenceState returns the current presence snapshot ordered by username.
func (c *Channel) PresenceState(ctx context.Context) ([]models.User, error) {
	users, err := c.broker.ListPresence(ctx, c.topic)
	if err != nil {
		return nil, fmt.Errorf("presence state: %w", err)
	}
	sort.SliceStable(users, func(i, j int) bool {
		return users[i].Username < users[j].Username
	})
	return users, nil
}

// dispatch runs on the broker's delivery goroutine.
func (c *Channel) dispatch(frame models.Frame) {
	switch frame.Type {
	case models.FrameBroadcast:
		for _, h := range c.broadcastHandlers(frame.Event) {
			h(frame.Payload)
		}

	case models.FramePresence:
		if len(frame.Joins) > 0 {
			c.emitPresence(PresenceJoin, frame.Joins)
			c.relay(models.EventUserJoined, frame.Joins)
		}
		if len(frame.Leaves) > 0 {
			c.emitPresence(PresenceLeave, frame.Leaves)
			c.relay(models.EventUserLeft, frame.Leaves)
		}
		ctx, cancel := context.WithTimeout(context.Background(), presenceQueryTimeout)
		c.sync(ctx)
		cancel()

	default:
		log.Printf("[realtime] channel %s dropped frame with unknown type %q", c.ref, frame.Type)
	}
}

// relay surfaces presence diffs as user_joined / user_left events.
func (c *Channel) relay(event string, users []models.User) {
	handlers := c.broadcastHandlers(event)
	if len(handlers) == 0 {
		return
	}
	for _, u := range users {
		data, err := json.Marshal(u)
		if err != nil {
			continue
		}
		for _, h := range handlers {
			h(data)
		}
	}
}

func (c *Channel) sync(ctx context.Context) {
	handlers := c.presenceHandlers(PresenceSync)
	if len(handlers) == 0 {
		return
	}
	users, err := c.PresenceState(ctx)
	if err != nil {
		log.Printf("[realtime] channel %s presence sync failed: %v", c.ref, err)
		return
	}
	for _, h := range handlers {
		h(append([]models.User(nil), users...))
	}
}

func (c *Channel) emitPresence(event PresenceEvent, users []models.User) {
	for _, h := range c.presenceHandlers(event) {
		h(append([]models.User(nil), users...))
	}
}

func (c *Channel) broadcastHandlers(event string) []BroadcastHandler {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.broadcast[event]
}

func (c *Channel) presenceHandlers(event PresenceEvent) []PresenceHandler {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.presence[event]
}
