package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/go-redis/redis/v8"
)

// RedisBroker implements MessageBroker using Redis pub/sub. Delivery is
// at-most-once, matching the best-effort semantics of the dispatcher itself.
type RedisBroker struct {
	client *redis.Client
	mu     sync.RWMutex
	closed bool
}

// NewRedisBroker creates a new Redis message broker. The client is shared
// with the rest of the application and is not closed by the broker.
func NewRedisBroker(client *redis.Client) *RedisBroker {
	return &RedisBroker{client: client}
}

// Publish sends an envelope to the specified channel.
func (b *RedisBroker) Publish(ctx context.Context, channel string, envelope Envelope) error {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return fmt.Errorf("broker is closed")
	}
	b.mu.RUnlock()

	return b.client.Publish(ctx, channel, envelope).Err()
}

// Subscribe starts listening for envelopes on the specified channel.
func (b *RedisBroker) Subscribe(ctx context.Context, channel string) (<-chan Envelope, error) {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return nil, fmt.Errorf("broker is closed")
	}
	b.mu.RUnlock()

	pubsub := b.client.Subscribe(ctx, channel)

	// Receive confirms the subscription is established before we return.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", channel, err)
	}

	envelopes := make(chan Envelope, 100)

	go func() {
		defer close(envelopes)
		defer pubsub.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-pubsub.Channel():
				if !ok {
					return
				}
				var envelope Envelope
				if err := json.Unmarshal([]byte(msg.Payload), &envelope); err != nil {
					log.Printf("Envelope decode error on channel %s: %v", channel, err)
					continue
				}
				select {
				case envelopes <- envelope:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return envelopes, nil
}

// Close marks the broker as closed. The underlying Redis client is owned by
// the caller.
func (b *RedisBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

// Type returns the broker implementation name.
func (b *RedisBroker) Type() string {
	return "redis"
}
