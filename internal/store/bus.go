package store

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/folio-cms/folio/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// DefaultChannel is the Redis Pub/Sub channel carrying change notices.
const DefaultChannel = "folio:changes"

// Change notifies that a document was written or deleted.
type Change struct {
	Collection string `json:"collection"`
	ID         string `json:"id"`
}

// Bus fans change notices out to every live store sharing a repository.
type Bus interface {
	Publish(ctx context.Context, c Change) error
	Subscribe(ctx context.Context, fn func(Change)) (func(), error)
}

// LocalBus delivers notices synchronously inside one process.
type LocalBus struct {
	mu   sync.RWMutex
	next int
	fns  map[int]func(Change)
}

func NewLocalBus() *LocalBus {
	return &LocalBus{fns: make(map[int]func(Change))}
}

func (b *LocalBus) Publish(ctx context.Context, c Change) error {
	b.mu.RLock()
	fns := make([]func(Change), 0, len(b.fns))
	for _, fn := range b.fns {
		fns = append(fns, fn)
	}
	b.mu.RUnlock()
	for _, fn := range fns {
		fn(c)
	}
	return nil
}

func (b *LocalBus) Subscribe(ctx context.Context, fn func(Change)) (func(), error) {
	b.mu.Lock()
	id := b.next
	b.next++
	b.fns[id] = fn
	b.mu.Unlock()
	return func() {
		b.mu.Lock()
		delete(b.fns, id)
		b.mu.Unlock()
	}, nil
}

// RedisBus carries notices over Redis Pub/Sub so several processes writing
// the same database see each other's changes.
type RedisBus struct {
	client  *redis.Client
	channel string
}

func NewRedisBus(client *redis.Client, channel string) *RedisBus {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisBus{client: client, channel: channel}
}

func (b *RedisBus) Publish(ctx context.Context, c Change) error {
	payload, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, b.channel, payload).Err()
}

// Subscribe returns once the subscription is confirmed by the server.
func (b *RedisBus) Subscribe(ctx context.Context, fn func(Change)) (func(), error) {
	ps := b.client.Subscribe(ctx, b.channel)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, err
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		for msg := range ps.Channel() {
			var c Change
			if err := json.Unmarshal([]byte(msg.Payload), &c); err != nil {
				logger.Warnf("store: dropping malformed change notice %q: %v", msg.Payload, err)
				continue
			}
			fn(c)
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() {
			_ = ps.Close()
			<-done
		})
	}, nil
}
