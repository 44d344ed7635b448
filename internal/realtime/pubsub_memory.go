package realtime

import (
	"context"
	"log"
	"sync"

	"chatterbox/backend/internal/models"
)

const memoryQueueSize = 256

// MemoryBroker is an in-process Broker for development and tests.
type MemoryBroker struct {
	mu       sync.Mutex
	subs     map[string]map[*memorySub]struct{}
	presence map[string]*presenceTable
}

type memorySub struct {
	queue chan models.Frame
	done  chan struct{}
	once  sync.Once
}

// presenceTable keeps presence records in insertion order.
type presenceTable struct {
	keys  []string
	users map[string]models.User
}

// NewMemoryBroker creates an empty broker.
func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{
		subs:     make(map[string]map[*memorySub]struct{}),
		presence: make(map[string]*presenceTable),
	}
}

func (b *MemoryBroker) Subscribe(ctx context.Context, topic string, deliver func(models.Frame)) (Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sub := &memorySub{
		queue: make(chan models.Frame, memoryQueueSize),
		done:  make(chan struct{}),
	}

	b.mu.Lock()
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[*memorySub]struct{})
	}
	b.subs[topic][sub] = struct{}{}
	b.mu.Unlock()

	go func() {
		for {
			select {
			case frame := <-sub.queue:
				deliver(frame)
			case <-sub.done:
				return
			}
		}
	}()

	return subscriptionFunc(func() error {
		b.mu.Lock()
		delete(b.subs[topic], sub)
		b.mu.Unlock()
		sub.once.Do(func() { close(sub.done) })
		return nil
	}), nil
}

// Publish never blocks: a subscriber whose queue is full misses the frame.
func (b *MemoryBroker) Publish(ctx context.Context, topic string, frame models.Frame) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	targets := make([]*memorySub, 0, len(b.subs[topic]))
	for sub := range b.subs[topic] {
		targets = append(targets, sub)
	}
	b.mu.Unlock()

	for _, sub := range targets {
		select {
		case sub.queue <- frame:
		case <-sub.done:
		default:
			log.Printf("[realtime] subscriber queue full on %s, dropping %s frame", topic, frame.Type)
		}
	}
	return nil
}

func (b *MemoryBroker) PutPresence(_ context.Context, topic, key string, user models.User) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	t := b.presence[topic]
	if t == nil {
		t = &presenceTable{users: make(map[string]models.User)}
		b.presence[topic] = t
	}
	if _, ok := t.users[key]; !ok {
		t.keys = append(t.keys, key)
	}
	t.users[key] = user
	return nil
}

func (b *MemoryBroker) DeletePresence(_ context.Context, topic, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	t := b.presence[topic]
	if t == nil {
		return nil
	}
	if _, ok := t.users[key]; !ok {
		return nil
	}
	delete(t.users, key)
	for i, k := range t.keys {
		if k == key {
			t.keys = append(t.keys[:i], t.keys[i+1:]...)
			break
		}
	}
	return nil
}

func (b *MemoryBroker) ListPresence(_ context.Context, topic string) ([]models.User, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	t := b.presence[topic]
	if t == nil {
		return []models.User{}, nil
	}
	users := make([]models.User, 0, len(t.keys))
	for _, k := range t.keys {
		users = append(users, t.users[k])
	}
	return users, nil
}
