package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// EventDedupe remembers webhook event ids so replayed deliveries are
// acknowledged without reprocessing. The provider delivers at-least-once.
type EventDedupe struct {
	client *redis.Client
	ttl    time.Duration
}

// NewEventDedupe creates a dedupe store. Keys expire after ttl; a replay
// arriving later than that is processed again, which the reconciliation
// handlers tolerate.
func NewEventDedupe(client *redis.Client, ttl time.Duration) *EventDedupe {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &EventDedupe{client: client, ttl: ttl}
}

// MarkProcessed records the event id. Returns true if this is the first
// delivery, false if the id was already seen.
func (d *EventDedupe) MarkProcessed(ctx context.Context, eventID string) (bool, error) {
	ok, err := d.client.SetNX(ctx, "webhook:event:"+eventID, 1, d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("mark webhook event: %w", err)
	}
	return ok, nil
}

// Unmark deletes the event id so the provider's retry of a failed delivery
// is not treated as a duplicate.
func (d *EventDedupe) Unmark(ctx context.Context, eventID string) error {
	if err := d.client.Del(ctx, "webhook:event:"+eventID).Err(); err != nil {
		return fmt.Errorf("unmark webhook event: %w", err)
	}
	return nil
}
