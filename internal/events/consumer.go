package events

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// Handler processes the raw body of one delivered event. Handlers must be
// idempotent: the broker may redeliver, and deletes can arrive before the
// create they logically follow.
type Handler func(ctx context.Context, body []byte) error

// Consumer binds a durable, service-owned queue to the events exchange and
// dispatches deliveries by routing key. A message is either fully processed
// and acked, or left unacked for redelivery on crash. Handler errors are
// logged and the message is acked anyway; requeue-forever loops belong to the
// broker's dead-letter configuration, not to this client.
type Consumer struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	queue    string
	handlers map[string]Handler
	logger   *logrus.Logger
}

func NewConsumer(url, queue string, logger *logrus.Logger) (*Consumer, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	c := &Consumer{
		conn:     conn,
		channel:  ch,
		queue:    queue,
		handlers: make(map[string]Handler),
		logger:   logger,
	}

	if err := c.setup(); err != nil {
		c.Close()
		return nil, err
	}

	return c, nil
}

func (c *Consumer) setup() error {
	err := c.channel.ExchangeDeclare(
		Exchange,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	_, err = c.channel.QueueDeclare(
		c.queue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	return nil
}

// Bind subscribes the queue to a routing key and registers its handler.
func (c *Consumer) Bind(routingKey string, handler Handler) error {
	err := c.channel.QueueBind(
		c.queue,
		routingKey,
		Exchange,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to bind queue to %s: %w", routingKey, err)
	}

	c.handlers[routingKey] = handler
	return nil
}

// Start consumes until ctx is cancelled. It runs as an independent long-lived
// task per service, decoupled from the request path.
func (c *Consumer) Start(ctx context.Context) error {
	msgs, err := c.channel.Consume(
		c.queue,
		"",    // consumer
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("failed to register a consumer: %w", err)
	}

	c.logger.WithField("queue", c.queue).Info("event consumer started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("delivery channel closed for queue %s", c.queue)
			}
			c.dispatch(ctx, msg)
		}
	}
}

func (c *Consumer) dispatch(ctx context.Context, msg amqp.Delivery) {
	handler, ok := c.handlers[msg.RoutingKey]
	if !ok {
		c.logger.WithField("routing_key", msg.RoutingKey).Warn("no handler for event, discarding")
		c.ack(msg)
		return
	}

	// Loop cancellation stops pulling new deliveries; it must not fail the
	// store calls of a message already in flight, which would then be acked
	// half-processed and lost.
	ctx = context.WithoutCancel(ctx)

	if err := handler(ctx, msg.Body); err != nil {
		c.logger.WithError(err).WithField("routing_key", msg.RoutingKey).Error("event handler failed")
	}
	c.ack(msg)
}

func (c *Consumer) ack(msg amqp.Delivery) {
	if err := msg.Ack(false); err != nil {
		c.logger.WithError(err).Error("failed to ack message")
	}
}

func (c *Consumer) Close() {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		c.conn.Close()
	}
}
