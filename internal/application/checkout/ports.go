package checkout

import "context"

// Publisher emits downstream messages. Implemented by the RabbitMQ
// publisher; tests use an in-memory capture.
type Publisher interface {
	Publish(ctx context.Context, message any) error
}

// EventDeduper remembers processed webhook event ids across at-least-once
// deliveries.
type EventDeduper interface {
	// MarkProcessed returns true on the first delivery of an event id.
	MarkProcessed(ctx context.Context, eventID string) (bool, error)
	// Unmark forgets an event id so a later delivery is processed again.
	// Called when handling fails after the id was marked.
	Unmark(ctx context.Context, eventID string) error
}
