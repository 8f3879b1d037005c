package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher emits downstream messages on the topic exchange.
type Publisher struct {
	client     *Client
	routingKey string
}

// NewPublisher creates a publisher for the given routing key.
func NewPublisher(client *Client, routingKey string) *Publisher {
	return &Publisher{client: client, routingKey: routingKey}
}

// Publish marshals v to JSON and publishes it persistently.
func (p *Publisher) Publish(ctx context.Context, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	err = p.client.pubCh.PublishWithContext(ctx,
		p.client.exchange,
		p.routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}
	return nil
}
