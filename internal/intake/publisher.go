package intake

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

const defaultResultsQueue = "calculation_results_queue"

// Publisher pushes result messages to the results queue over its own
// connection, dialling lazily and redialling after a drop. Safe for
// concurrent use.
type Publisher struct {
	addr   string
	queue  string
	logger zerolog.Logger

	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
}

// PublisherOptions contains configuration for creating a Publisher.
type PublisherOptions struct {
	Addr   string
	Queue  string // default "calculation_results_queue"
	Logger zerolog.Logger
}

// NewPublisher creates a publisher for the results queue. No connection is
// made until the first publish.
func NewPublisher(opts PublisherOptions) *Publisher {
	queue := opts.Queue
	if queue == "" {
		queue = defaultResultsQueue
	}
	return &Publisher{
		addr:   opts.Addr,
		queue:  queue,
		logger: opts.Logger,
	}
}

// PublishResult marshals and publishes one result message.
func (p *Publisher) PublishResult(ctx context.Context, msg *ResultMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal result %s: %w", msg.MeasurementID, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.ensureChannel()
	if err != nil {
		return err
	}

	err = ch.PublishWithContext(
		ctx,
		"",      // exchange (default: routes by queue name)
		p.queue, // routing key
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
	if err != nil {
		// Drop the channel so the next call redials.
		p.teardownLocked()
		return fmt.Errorf("publish result %s: %w", msg.MeasurementID, err)
	}
	return nil
}

// ensureChannel returns the live channel, dialling and declaring the queue
// when needed. Caller holds p.mu.
func (p *Publisher) ensureChannel() (*amqp.Channel, error) {
	if p.channel != nil && !p.channel.IsClosed() {
		return p.channel, nil
	}
	p.teardownLocked()

	conn, err := amqp.Dial(p.addr)
	if err != nil {
		return nil, fmt.Errorf("dial broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if _, err := ch.QueueDeclare(
		p.queue, // name
		true,    // durable
		false,   // delete when unused
		false,   // exclusive
		false,   // no-wait
		nil,     // arguments
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare queue %s: %w", p.queue, err)
	}

	p.conn = conn
	p.channel = ch
	p.logger.Info().Str("queue", p.queue).Msg("Result publisher connected")
	return ch, nil
}

func (p *Publisher) teardownLocked() {
	if p.channel != nil {
		p.channel.Close()
		p.channel = nil
	}
	if p.conn != nil {
		p.conn.Close()
		p.conn = nil
	}
}

// Close shuts down the connection. The publisher can be reused; the next
// publish redials.
func (p *Publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.teardownLocked()
}
