package rabbitmq

import (
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/clubsync/payments/internal/infrastructure/config"
)

// Client owns the broker connection and declares the topology this service
// needs: one durable topic exchange plus the catalog queue bound to it. It
// is constructed once at startup and injected into both the consumer loop
// and the publisher, so no package-level connection state exists.
//
// The consumer and the publisher each get their own channel: a channel
// error on the consuming side (a rejected ack, a server-side channel close)
// must not take publishing down with it.
type Client struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	pubCh    *amqp.Channel
	exchange string
	queue    string
}

// NewClient dials the broker, declares the exchange, queue and binding, and
// opens a separate publishing channel.
func NewClient(cfg *config.RabbitMQConfig) (*Client, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open consumer channel: %w", err)
	}

	if err := ch.ExchangeDeclare(cfg.Exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	if _, err := ch.QueueDeclare(cfg.CatalogQueue, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}

	if err := ch.QueueBind(cfg.CatalogQueue, cfg.CatalogRoutingKey, cfg.Exchange, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("bind queue: %w", err)
	}

	pubCh, err := conn.Channel()
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("open publisher channel: %w", err)
	}

	return &Client{
		conn:     conn,
		ch:       ch,
		pubCh:    pubCh,
		exchange: cfg.Exchange,
		queue:    cfg.CatalogQueue,
	}, nil
}

// Close releases both channels and the connection.
func (c *Client) Close() error {
	var errs []error
	if err := c.ch.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close consumer channel: %w", err))
	}
	if err := c.pubCh.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close publisher channel: %w", err))
	}
	if err := c.conn.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close connection: %w", err))
	}
	return errors.Join(errs...)
}

// Ping reports whether the broker connection is still open.
func (c *Client) Ping() error {
	if c.conn.IsClosed() {
		return fmt.Errorf("broker connection closed")
	}
	return nil
}
