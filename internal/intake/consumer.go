package intake

import (
	"context"
	"errors"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"bodycomp-lab/internal/calc"
	"bodycomp-lab/internal/domain"
	"bodycomp-lab/internal/observability"
	"bodycomp-lab/internal/storage"
)

const (
	reconnectDelay = 5 * time.Second
	reInitDelay    = 2 * time.Second

	defaultMeasurementsQueue = "measurements_queue"
	defaultPrefetch          = 8
)

// ResultPublisher publishes computed results for downstream consumers.
type ResultPublisher interface {
	PublishResult(ctx context.Context, msg *ResultMessage) error
}

// Consumer drains the measurements queue. Each message is computed and
// persisted through the shared processor, then acknowledged; malformed
// payloads are dropped (nack without requeue), storage faults are
// requeued for redelivery.
type Consumer struct {
	addr      string
	queue     string
	prefetch  int
	processor *Processor
	publisher ResultPublisher
	logger    zerolog.Logger
}

// ConsumerOptions contains configuration for creating a Consumer.
type ConsumerOptions struct {
	Addr         string
	Queue        string // default "measurements_queue"
	Prefetch     int    // default 8
	Calculator   *calc.Calculator
	Measurements storage.MeasurementStore
	Results      storage.ResultStore
	History      storage.ResultHistoryStore
	Publisher    ResultPublisher // optional; nil disables result publishing
	Logger       zerolog.Logger
}

// NewConsumer creates a consumer for the measurements queue.
func NewConsumer(opts ConsumerOptions) *Consumer {
	queue := opts.Queue
	if queue == "" {
		queue = defaultMeasurementsQueue
	}

	prefetch := opts.Prefetch
	if prefetch == 0 {
		prefetch = defaultPrefetch
	}

	return &Consumer{
		addr:      opts.Addr,
		queue:     queue,
		prefetch:  prefetch,
		processor: NewProcessor(opts.Calculator, opts.Measurements, opts.Results, opts.History),
		publisher: opts.Publisher,
		logger:    opts.Logger,
	}
}

// Run consumes until the context is cancelled. Connection and channel
// drops are retried with a fixed backoff; unacknowledged deliveries are
// redelivered by the broker after a drop.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		conn, err := amqp.Dial(c.addr)
		if err != nil {
			c.logger.Error().Err(err).Msg("Failed to connect to broker")
			if !sleepCtx(ctx, reconnectDelay) {
				return ctx.Err()
			}
			continue
		}
		c.logger.Info().Str("queue", c.queue).Msg("Connected to broker")

		err = c.consumeConn(ctx, conn)
		conn.Close()
		if ctx.Err() != nil {
			c.logger.Info().Msg("Consumer stopping")
			return ctx.Err()
		}
		c.logger.Warn().Err(err).Msg("Broker connection lost, reconnecting")
		if !sleepCtx(ctx, reconnectDelay) {
			return ctx.Err()
		}
	}
}

// consumeConn serves one connection, re-initializing the channel when only
// the channel drops. Returns when the connection dies or ctx is cancelled.
func (c *Consumer) consumeConn(ctx context.Context, conn *amqp.Connection) error {
	notifyConnClose := make(chan *amqp.Error, 1)
	conn.NotifyClose(notifyConnClose)

	for {
		ch, deliveries, err := c.initChannel(conn)
		if err != nil {
			c.logger.Error().Err(err).Msg("Failed to initialize channel")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case closeErr := <-notifyConnClose:
				return amqpCloseErr(closeErr)
			case <-time.After(reInitDelay):
				continue
			}
		}

		notifyChanClose := make(chan *amqp.Error, 1)
		ch.NotifyClose(notifyChanClose)

		reinit, err := c.drain(ctx, deliveries, notifyConnClose, notifyChanClose)
		ch.Close()
		if !reinit {
			return err
		}
		c.logger.Warn().Err(err).Msg("Channel closed, re-initializing")
	}
}

// initChannel opens a channel, declares the queue and starts consuming.
func (c *Consumer) initChannel(conn *amqp.Connection) (*amqp.Channel, <-chan amqp.Delivery, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, nil, err
	}

	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		ch.Close()
		return nil, nil, err
	}

	if _, err := ch.QueueDeclare(
		c.queue, // name
		true,    // durable
		false,   // delete when unused
		false,   // exclusive
		false,   // no-wait
		nil,     // arguments
	); err != nil {
		ch.Close()
		return nil, nil, err
	}

	deliveries, err := ch.Consume(
		c.queue, // queue
		"",      // consumer tag
		false,   // auto-ack
		false,   // exclusive
		false,   // no-local
		false,   // no-wait
		nil,     // args
	)
	if err != nil {
		ch.Close()
		return nil, nil, err
	}
	return ch, deliveries, nil
}

// drain processes deliveries until the context is cancelled or the channel
// or connection drops. reinit is true when only the channel died.
func (c *Consumer) drain(ctx context.Context, deliveries <-chan amqp.Delivery, notifyConnClose, notifyChanClose chan *amqp.Error) (reinit bool, err error) {
	for {
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case closeErr := <-notifyConnClose:
			return false, amqpCloseErr(closeErr)
		case closeErr := <-notifyChanClose:
			return true, amqpCloseErr(closeErr)
		case d, ok := <-deliveries:
			if !ok {
				return true, errors.New("deliveries channel closed")
			}
			c.handleDelivery(ctx, d)
		}
	}
}

// handleDelivery processes one delivery and settles it. Ack/nack failures
// only get logged: the broker redelivers unsettled messages and processing
// is idempotent.
func (c *Consumer) handleDelivery(ctx context.Context, d amqp.Delivery) {
	r, err := c.processor.Process(ctx, d.Body)
	switch {
	case err == nil:
		observability.RecordMeasurementProcessed()
		observability.RecordResultComputed("intake")
		c.publishResult(ctx, r)
		c.logger.Info().
			Str("measurement_id", r.MeasurementID).
			Str("subject_id", r.SubjectID).
			Int("warnings", len(r.Warnings)).
			Msg("Measurement processed")
		if err := d.Ack(false); err != nil {
			c.logger.Error().Err(err).Msg("Failed to ack delivery")
		}

	case errors.Is(err, ErrMalformedMessage):
		observability.RecordMeasurementRejected("malformed")
		c.logger.Warn().Err(err).Msg("Dropping malformed measurement message")
		if err := d.Nack(false, false); err != nil {
			c.logger.Error().Err(err).Msg("Failed to nack delivery")
		}

	default:
		observability.RecordMeasurementRejected("storage")
		c.logger.Error().Err(err).Msg("Failed to process measurement, requeueing")
		if err := d.Nack(false, true); err != nil {
			c.logger.Error().Err(err).Msg("Failed to nack delivery")
		}
	}
}

// publishResult pushes the result message when a publisher is wired.
// Publish failure is not a processing failure: the result is already
// persisted, requeueing the measurement would recompute for nothing.
func (c *Consumer) publishResult(ctx context.Context, r *domain.CalculationResult) {
	if c.publisher == nil {
		return
	}
	err := c.publisher.PublishResult(ctx, NewResultMessage(r))
	observability.RecordResultPublished(err)
	if err != nil {
		c.logger.Warn().Err(err).Str("measurement_id", r.MeasurementID).Msg("Failed to publish result")
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

// amqpCloseErr converts a NotifyClose payload to a plain error. A nil
// payload means a clean local close.
func amqpCloseErr(err *amqp.Error) error {
	if err == nil {
		return errors.New("connection closed")
	}
	return err
}
