package rabbitmq

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// MessageHandler processes one message body. A non-nil error rejects the
// message without requeueing so a poison message cannot stall the queue.
type MessageHandler func(ctx context.Context, body []byte) error

// Consumer drains the catalog queue in a long-lived background task.
type Consumer struct {
	client *Client
	logger zerolog.Logger
}

// NewConsumer creates a consumer on the client's catalog queue.
func NewConsumer(client *Client, logger zerolog.Logger) *Consumer {
	return &Consumer{client: client, logger: logger}
}

// Run consumes until ctx is cancelled or the delivery channel closes.
// Cancellation is observed at the next receive.
func (c *Consumer) Run(ctx context.Context, handler MessageHandler) error {
	if err := c.client.ch.Qos(50, 0, false); err != nil {
		c.logger.Warn().Err(err).Msg("set QoS failed")
	}

	deliveries, err := c.client.ch.Consume(c.client.queue, "", false, false, false, false, nil)
	if err != nil {
		return err
	}

	c.logger.Info().Str("queue", c.client.queue).Msg("Catalog consumer started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return amqp.ErrClosed
			}
			if err := handler(ctx, d.Body); err != nil {
				c.logger.Error().Err(err).Msg("Failed to process catalog message")
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}
