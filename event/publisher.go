// Package event publishes account lifecycle events over Redis pub/sub so
// sibling services (audit trails, welcome-mail senders) can react without
// coupling to the engine.
package event

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// ErrPublishFailed wraps any transport failure while publishing.
var ErrPublishFailed = errors.New("event publish failed")

// RedisPublisher fans events out on a single Redis channel.
type RedisPublisher struct {
	redis   redis.UniversalClient
	channel string
}

// NewRedisPublisher returns a publisher writing to channel.
func NewRedisPublisher(client redis.UniversalClient, channel string) *RedisPublisher {
	return &RedisPublisher{
		redis:   client,
		channel: channel,
	}
}

// Publish sends event to every subscriber of the channel. Delivery is
// fire-and-forget; zero subscribers is not an error.
func (p *RedisPublisher) Publish(ctx context.Context, event string) error {
	if err := p.redis.Publish(ctx, p.channel, event).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrPublishFailed, err)
	}
	return nil
}

// Nop discards every event. Used when no publisher is configured.
type Nop struct{}

// Publish discards event.
func (Nop) Publish(ctx context.Context, event string) error {
	return nil
}
