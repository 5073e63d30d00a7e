package events

import (
	"context"
	"encoding/json"
	"fmt"
	"net"

	"github.com/Houeta/homecare-api/internal/metrics"
	amqp "github.com/rabbitmq/amqp091-go"
)

// QueueName is the durable queue lifecycle events travel through.
const QueueName = "task.lifecycle"

// RabbitPublisher publishes lifecycle events to a durable RabbitMQ queue.
type RabbitPublisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	metrics *metrics.Metrics
}

// NewRabbitPublisher dials the broker and declares the lifecycle queue.
func NewRabbitPublisher(host, port, user, password string, mtx *metrics.Metrics) (*RabbitPublisher, error) {
	url := fmt.Sprintf("amqp://%s:%s@%s/", user, password, net.JoinHostPort(host, port))

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	_, err = channel.QueueDeclare(QueueName, true, false, false, false, nil)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue %q: %w", QueueName, err)
	}

	return &RabbitPublisher{conn: conn, channel: channel, metrics: mtx}, nil
}

// Publish sends one event with persistent delivery.
func (p *RabbitPublisher) Publish(ctx context.Context, event LifecycleEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal lifecycle event: %w", err)
	}

	err = p.channel.PublishWithContext(ctx, "", QueueName, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	if err != nil {
		p.metrics.EventsPublished.WithLabelValues("failure").Inc()
		return fmt.Errorf("failed to publish lifecycle event: %w", err)
	}

	p.metrics.EventsPublished.WithLabelValues("success").Inc()
	return nil
}

// Consume returns the delivery stream for the lifecycle queue. Messages must
// be acknowledged by the consumer.
func (p *RabbitPublisher) Consume() (<-chan amqp.Delivery, error) {
	deliveries, err := p.channel.Consume(QueueName, "", false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start consuming %q: %w", QueueName, err)
	}
	return deliveries, nil
}

// Ping reports whether the broker connection is still open.
func (p *RabbitPublisher) Ping() error {
	if p.conn.IsClosed() {
		return amqp.ErrClosed
	}
	return nil
}

// Close releases the channel and connection.
func (p *RabbitPublisher) Close() error {
	if err := p.channel.Close(); err != nil {
		return fmt.Errorf("failed to close channel: %w", err)
	}
	if err := p.conn.Close(); err != nil {
		return fmt.Errorf("failed to close connection: %w", err)
	}
	return nil
}
