package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/SheliVas/therapySessionAnalyzer/internal/domain/entity"
	"github.com/SheliVas/therapySessionAnalyzer/internal/domain/port"
	"github.com/SheliVas/therapySessionAnalyzer/internal/infra/metrics"
)

// MessageHandler processes one raw message body. Returning nil acks the
// delivery; returning an error wrapping entity.ErrMalformedEvent triggers
// the malformed-message policy; any other error nacks for redelivery.
type MessageHandler func(ctx context.Context, body []byte) error

// MalformedPolicy decides what happens to messages that fail to decode.
type MalformedPolicy string

const (
	// MalformedReject nacks without requeue so the broker can dead-letter
	// the message per its own policy. The consumer never acks garbage.
	MalformedReject MalformedPolicy = "reject"
	// MalformedDrop copies the body to the stage DLQ with a reason header,
	// then acks the original.
	MalformedDrop MalformedPolicy = "drop"
)

func ParseMalformedPolicy(s string) (MalformedPolicy, error) {
	switch MalformedPolicy(s) {
	case MalformedReject, MalformedDrop:
		return MalformedPolicy(s), nil
	default:
		return "", fmt.Errorf("unknown malformed message policy %q", s)
	}
}

type ConsumerConfig struct {
	URL              string
	Queue            string
	DLQ              string
	ConnectAttempts  int
	ConnectBaseDelay time.Duration
	RetryBaseDelay   time.Duration
	HandlerTimeout   time.Duration
	MalformedPolicy  MalformedPolicy
}

// Consumer owns one connection and drains one durable queue, one message at
// a time. Acknowledgement is sent only after the handler's side effects
// (transform, persist, publish) have all succeeded.
type Consumer struct {
	conn           *amqp.Connection
	channel        *amqp.Channel
	queue          string
	dlq            string
	retryBaseDelay time.Duration
	handlerTimeout time.Duration
	policy         MalformedPolicy
	handler        MessageHandler
	notifier       port.DeadLetterNotifier
	logger         *zap.Logger
	wg             sync.WaitGroup
}

// NewConsumer dials the broker, retrying with capped exponential backoff so
// a worker starting before the broker is ready does not fail fast, then
// declares the inbound queue durable and sets prefetch to one in-flight
// message. notifier may be nil.
func NewConsumer(cfg ConsumerConfig, handler MessageHandler, notifier port.DeadLetterNotifier, logger *zap.Logger) (*Consumer, error) {
	conn, err := dialWithRetry(cfg.URL, cfg.ConnectAttempts, cfg.ConnectBaseDelay, logger)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if _, err := ch.QueueDeclare(cfg.Queue, true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare queue %s: %w", cfg.Queue, err)
	}

	if cfg.MalformedPolicy == MalformedDrop {
		if _, err := ch.QueueDeclare(cfg.DLQ, true, false, false, false, nil); err != nil {
			conn.Close()
			return nil, fmt.Errorf("declare dlq %s: %w", cfg.DLQ, err)
		}
	}

	if err := ch.Qos(1, 0, false); err != nil {
		conn.Close()
		return nil, fmt.Errorf("set qos: %w", err)
	}

	return &Consumer{
		conn:           conn,
		channel:        ch,
		queue:          cfg.Queue,
		dlq:            cfg.DLQ,
		retryBaseDelay: cfg.RetryBaseDelay,
		handlerTimeout: cfg.HandlerTimeout,
		policy:         cfg.MalformedPolicy,
		handler:        handler,
		notifier:       notifier,
		logger:         logger,
	}, nil
}

func dialWithRetry(url string, attempts int, baseDelay time.Duration, logger *zap.Logger) (*amqp.Connection, error) {
	var lastErr error
	for i := 1; i <= attempts; i++ {
		conn, err := amqp.Dial(url)
		if err == nil {
			return conn, nil
		}
		lastErr = err

		delay := backoffDelay(baseDelay, i, 30*time.Second)
		logger.Warn("broker not ready, retrying",
			zap.Int("attempt", i),
			zap.Int("max_attempts", attempts),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		time.Sleep(delay)
	}
	return nil, fmt.Errorf("dial rabbitmq after %d attempts: %w", attempts, lastErr)
}

// Start registers the handler and blocks until ctx is cancelled. Shutdown
// stops pulling new messages, drains the in-flight one and returns.
func (c *Consumer) Start(ctx context.Context) error {
	deliveries, err := c.channel.ConsumeWithContext(
		ctx,
		c.queue,
		"",
		false, // autoAck=false
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}

	c.logger.Info("consuming", zap.String("queue", c.queue), zap.String("malformed_policy", string(c.policy)))

	c.wg.Add(1)
	go c.loop(ctx, deliveries)

	<-ctx.Done()
	c.logger.Info("context cancelled, draining in-flight message")
	c.wg.Wait()
	return nil
}

func (c *Consumer) loop(ctx context.Context, deliveries <-chan amqp.Delivery) {
	defer c.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				c.logger.Info("delivery channel closed")
				return
			}
			c.processDelivery(ctx, d)
		}
	}
}

func (c *Consumer) processDelivery(ctx context.Context, d amqp.Delivery) {
	metrics.ActiveWorkers.Inc()
	defer metrics.ActiveWorkers.Dec()

	hctx := ctx
	if c.handlerTimeout > 0 {
		var cancel context.CancelFunc
		hctx, cancel = context.WithTimeout(ctx, c.handlerTimeout)
		defer cancel()
	}

	err := c.handler(hctx, d.Body)
	if err == nil {
		_ = d.Ack(false)
		return
	}

	if errors.Is(err, entity.ErrMalformedEvent) {
		c.handleMalformed(ctx, d, err)
		return
	}

	attempt := attemptFromHeaders(d)
	delay := backoffDelay(c.retryBaseDelay, attempt, 60*time.Second)
	c.logger.Warn("message processing failed, nacking for redelivery",
		zap.Error(err),
		zap.Uint64("delivery_tag", d.DeliveryTag),
		zap.Int("attempt", attempt),
		zap.Duration("delay", delay),
	)
	metrics.RetryTotal.WithLabelValues(c.queue).Inc()

	select {
	case <-time.After(delay):
	case <-ctx.Done():
		_ = d.Nack(false, false)
		return
	}

	_ = d.Nack(false, true)
}

func (c *Consumer) handleMalformed(ctx context.Context, d amqp.Delivery, cause error) {
	c.logger.Error("malformed message",
		zap.Error(cause),
		zap.String("policy", string(c.policy)),
		zap.ByteString("body", d.Body),
	)
	metrics.MalformedTotal.WithLabelValues(c.queue, string(c.policy)).Inc()

	if c.policy != MalformedDrop {
		_ = d.Nack(false, false)
		return
	}

	if err := c.publishToDLQ(ctx, d.Body, cause.Error()); err != nil {
		// Could not park the message; leave it to the broker instead of
		// acking it into oblivion.
		c.logger.Error("dlq publish failed", zap.Error(err))
		_ = d.Nack(false, false)
		return
	}
	_ = d.Ack(false)

	if c.notifier != nil {
		if err := c.notifier.NotifyDeadLetter(ctx, c.queue, cause.Error(), d.Body); err != nil {
			c.logger.Warn("dead letter notification failed", zap.Error(err))
		}
	}
}

func (c *Consumer) publishToDLQ(ctx context.Context, body []byte, reason string) error {
	return c.channel.PublishWithContext(ctx,
		"",
		c.dlq,
		false, false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Headers: amqp.Table{
				"x-dlq-reason": reason,
			},
		},
	)
}

// attemptFromHeaders derives the redelivery count from the broker's x-death
// header; first delivery counts as attempt 1.
func attemptFromHeaders(d amqp.Delivery) int {
	if d.Headers == nil {
		return 1
	}
	if xDeath, ok := d.Headers["x-death"]; ok {
		if deaths, ok := xDeath.([]interface{}); ok && len(deaths) > 0 {
			return len(deaths) + 1
		}
	}
	return 1
}

func backoffDelay(base time.Duration, attempt int, cap time.Duration) time.Duration {
	delay := base
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= cap {
			return cap
		}
	}
	if delay > cap {
		delay = cap
	}
	return delay
}

func (c *Consumer) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
