package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"

	"chatterbox/backend/internal/models"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// NatsBroker implements Broker on core NATS subjects, with presence records
// kept in a JetStream KeyValue bucket per topic.
type NatsBroker struct {
	nc *nats.Conn
	js jetstream.JetStream

	mu      sync.Mutex
	buckets map[string]jetstream.KeyValue
}

// NewNatsBroker connects to NATS and initializes JetStream.
func NewNatsBroker(url string) (*NatsBroker, error) {
	nc, err := nats.Connect(url, nats.Name("chatterbox"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create jetstream context: %w", err)
	}

	log.Printf("[nats] Connected to NATS at %s", url)
	return &NatsBroker{nc: nc, js: js, buckets: make(map[string]jetstream.KeyValue)}, nil
}

// Close closes the NATS connection.
func (b *NatsBroker) Close() {
	if b.nc != nil {
		b.nc.Close()
	}
}

func natsSubject(topic string) string { return "realtime." + sanitizeTopic(topic) }
func natsBucket(topic string) string  { return "presence_" + sanitizeTopic(topic) }

// Subscribe registers an async subscription. NATS invokes the callback
// serially per subscription, which preserves delivery order.
func (b *NatsBroker) Subscribe(ctx context.Context, topic string, deliver func(models.Frame)) (Subscription, error) {
	subject := natsSubject(topic)
	sub, err := b.nc.Subscribe(subject, func(msg *nats.Msg) {
		var frame models.Frame
		if err := json.Unmarshal(msg.Data, &frame); err != nil {
			log.Printf("[nats] error unmarshaling frame from subject '%s': %v", msg.Subject, err)
			return
		}
		deliver(frame)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to subject '%s': %w", subject, err)
	}

	// Make sure the server has registered interest before reporting success.
	if err := b.nc.FlushWithContext(ctx); err != nil {
		_ = sub.Unsubscribe()
		return nil, fmt.Errorf("flush subscription '%s': %w", subject, err)
	}

	return subscriptionFunc(sub.Unsubscribe), nil
}

func (b *NatsBroker) Publish(ctx context.Context, topic string, frame models.Frame) error {
	data, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("failed to marshal frame: %w", err)
	}
	if err := b.nc.Publish(natsSubject(topic), data); err != nil {
		return fmt.Errorf("failed to publish to subject '%s': %w", natsSubject(topic), err)
	}
	return nil
}

func (b *NatsBroker) PutPresence(ctx context.Context, topic, key string, user models.User) error {
	kv, err := b.bucket(ctx, topic)
	if err != nil {
		return err
	}
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}
	_, err = kv.Put(ctx, key, data)
	return err
}

func (b *NatsBroker) DeletePresence(ctx context.Context, topic, key string) error {
	kv, err := b.bucket(ctx, topic)
	if err != nil {
		return err
	}
	return kv.Delete(ctx, key)
}

func (b *NatsBroker) ListPresence(ctx context.Context, topic string) ([]models.User, error) {
	kv, err := b.bucket(ctx, topic)
	if err != nil {
		return nil, err
	}

	keys, err := kv.Keys(ctx)
	if errors.Is(err, jetstream.ErrNoKeysFound) {
		return []models.User{}, nil
	}
	if err != nil {
		return nil, err
	}

	users := make([]models.User, 0, len(keys))
	for _, key := range keys {
		entry, err := kv.Get(ctx, key)
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			continue // deleted between Keys and Get
		}
		if err != nil {
			return nil, err
		}
		var u models.User
		if err := json.Unmarshal(entry.Value(), &u); err != nil {
			log.Printf("[nats] skipping corrupt presence record %s: %v", key, err)
			continue
		}
		users = append(users, u)
	}
	return users, nil
}

func (b *NatsBroker) bucket(ctx context.Context, topic string) (jetstream.KeyValue, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	name := natsBucket(topic)
	if kv, ok := b.buckets[name]; ok {
		return kv, nil
	}

	kv, err := b.js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      name,
		Description: "Presence records for " + topic,
		History:     1,
		Storage:     jetstream.MemoryStorage,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open presence bucket '%s': %w", name, err)
	}
	b.buckets[name] = kv
	return kv, nil
}
