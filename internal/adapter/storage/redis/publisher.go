package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"bank-ledger/internal/core/domain"

	goredis "github.com/redis/go-redis/v9"
)

// EventPublisher implements ports.EventPublisher with Redis PUBLISH.
type EventPublisher struct {
	client  *goredis.Client
	channel string
}

// NewEventPublisher publishes transaction events on channel.
func NewEventPublisher(client *goredis.Client, channel string) *EventPublisher {
	return &EventPublisher{client: client, channel: channel}
}

// Publish sends event as JSON. Subscribers that are offline miss it.
func (p *EventPublisher) Publish(ctx context.Context, event domain.TransactionEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal transaction event: %w", err)
	}
	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("redis publish %s: %w", p.channel, err)
	}
	return nil
}

// Close is a no-op; the client is owned by the caller.
func (p *EventPublisher) Close() error {
	return nil
}
