package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"chatterbox/backend/internal/models"

	"github.com/redis/go-redis/v9"
)

// RedisBroker implements Broker on Redis Pub/Sub, with presence records kept
// in a hash per topic.
type RedisBroker struct {
	Redis *redis.Client
}

// NewRedisBroker wraps an existing client.
func NewRedisBroker(rdb *redis.Client) *RedisBroker {
	return &RedisBroker{Redis: rdb}
}

func redisChannelKey(topic string) string  { return "realtime:" + topic }
func redisPresenceKey(topic string) string { return "realtime:" + topic + ":presence" }

// Subscribe waits for the subscription confirmation, then starts a goroutine
// that decodes frames and hands them to deliver in order.
func (b *RedisBroker) Subscribe(ctx context.Context, topic string, deliver func(models.Frame)) (Subscription, error) {
	pubsub := b.Redis.Subscribe(ctx, redisChannelKey(topic))

	// Receive blocks until Redis confirms the subscription (or fails).
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("redis subscribe %s: %w", topic, err)
	}

	ch := pubsub.Channel()
	go func() {
		for msg := range ch {
			var frame models.Frame
			if err := json.Unmarshal([]byte(msg.Payload), &frame); err != nil {
				log.Printf("[realtime] error unmarshalling Redis frame on %s: %v", msg.Channel, err)
				continue
			}
			deliver(frame)
		}
	}()

	return pubsub, nil
}

// Publish sends a frame to every subscriber of topic.
func (b *RedisBroker) Publish(ctx context.Context, topic string, frame models.Frame) error {
	data, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	return b.Redis.Publish(ctx, redisChannelKey(topic), data).Err()
}

func (b *RedisBroker) PutPresence(ctx context.Context, topic, key string, user models.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return b.Redis.HSet(ctx, redisPresenceKey(topic), key, data).Err()
}

func (b *RedisBroker) DeletePresence(ctx context.Context, topic, key string) error {
	return b.Redis.HDel(ctx, redisPresenceKey(topic), key).Err()
}

func (b *RedisBroker) ListPresence(ctx context.Context, topic string) ([]models.User, error) {
	entries, err := b.Redis.HGetAll(ctx, redisPresenceKey(topic)).Result()
	if err != nil {
		return nil, err
	}

	users := make([]models.User, 0, len(entries))
	for key, raw := range entries {
		var u models.User
		if err := json.Unmarshal([]byte(raw), &u); err != nil {
			log.Printf("[realtime] skipping corrupt presence record %s: %v", key, err)
			continue
		}
		users = append(users, u)
	}
	return users, nil
}
