package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/giobyte8/imagescaler/internal/models"
	"github.com/giobyte8/imagescaler/internal/session"
	"github.com/giobyte8/imagescaler/internal/telemetry"
	"github.com/giobyte8/imagescaler/internal/telemetry/metrics"
)

// Holds the config params for the consumer
type AMQPConfig struct {
	AMQPUri  string
	Exchange string

	BatchQueueName string
}

type AMQPConsumer struct {
	conn      *amqp.Connection
	channel   *amqp.Channel
	config    AMQPConfig
	runner    BatchRunner
	telemetry *telemetry.TelemetrySvc
	done      chan struct{}
}

// Creates a new AMQPConsumer instance ready to connect to broker
func NewAMQPConsumer(
	config AMQPConfig,
	runner BatchRunner,
	telemetry *telemetry.TelemetrySvc,
) (*AMQPConsumer, error) {

	if config.AMQPUri == "" {
		return nil, fmt.Errorf("AMQP URI cannot be empty in config")
	}
	if config.Exchange == "" {
		return nil, fmt.Errorf("AMQP exchange cannot be empty in config")
	}
	if config.BatchQueueName == "" {
		return nil, fmt.Errorf(
			"AMQP batch requests queue name cannot be empty in config",
		)
	}

	return &AMQPConsumer{
		config:    config,
		runner:    runner,
		telemetry: telemetry,
		done:      make(chan struct{}),
	}, nil
}

// Connects to AMQP broker, declares exchange and queue and
// starts consuming messages
func (c *AMQPConsumer) Start(ctx context.Context) error {
	slog.Debug("AMQP - Initializing AMQP Consumer")

	var err error
	c.conn, err = amqp.Dial(c.config.AMQPUri)
	if err != nil {
		return fmt.Errorf("AMQP - Connection to broker failed: %w", err)
	}

	c.channel, err = c.conn.Channel()
	if err != nil {
		c.conn.Close()
		return fmt.Errorf("AMQP - Failed to open channel: %w", err)
	}

	err = c.channel.ExchangeDeclare(
		c.config.Exchange,
		"direct",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		c.channel.Close()
		c.conn.Close()
		return fmt.Errorf("AMQP - Failed to declare exchange: %w", err)
	}

	_, err = c.channel.QueueDeclare(
		c.config.BatchQueueName,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err == nil {
		err = c.channel.QueueBind(
			c.config.BatchQueueName, // Queue
			c.config.BatchQueueName, // Routing key
			c.config.Exchange,       // Exchange
			false,                   // No-wait
			nil,                     // Arguments
		)
	}
	if err != nil {
		c.channel.Close()
		c.conn.Close()
		return fmt.Errorf(
			"AMQP - Failed to declare/bind batch requests queue: %w",
			err,
		)
	}

	// Batches run one at a time, never hold more than one unacked message
	if err := c.channel.Qos(1, 0, false); err != nil {
		c.channel.Close()
		c.conn.Close()
		return fmt.Errorf("AMQP - Failed to set prefetch: %w", err)
	}

	msgs, err := c.channel.Consume(
		c.config.BatchQueueName,
		"imagescaler-batch", // Consumer tag
		false,               // Auto-acknowledge
		false,               // Exclusive
		false,               // No-local
		false,               // No-wait
		nil,                 // Arguments
	)
	if err != nil {
		c.channel.Close()
		c.conn.Close()
		return fmt.Errorf(
			"AMQP - Failed to create batch requests consumer: %w",
			err,
		)
	}

	go c.consumeBatchRequests(ctx, msgs)
	return nil
}

// Gracefully stops the AMQP consumer
func (c *AMQPConsumer) Stop() {
	slog.Info("AMQP - Stopping AMQP Consumer...")

	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			slog.Error("AMQP - Failed to close channel", "error", err)
		} else {
			slog.Debug("AMQP - Channel closed")
		}
	}

	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			slog.Error("AMQP - Failed to close connection", "error", err)
		} else {
			slog.Debug("AMQP - Connection closed")
		}
	}

	slog.Info("AMQP - AMQP Consumer stopped")
}

// Done is closed when the consumption goroutine exits.
func (c *AMQPConsumer) Done() <-chan struct{} {
	return c.done
}

func (c *AMQPConsumer) consumeBatchRequests(
	ctx context.Context,
	msgs <-chan amqp.Delivery,
) {
	defer close(c.done)

	for {
		select {
		case msg, ok := <-msgs:
			if !ok {
				slog.Info(
					"AMQP - Batch requests channel closed. goroutine exiting",
				)
				return
			}
			c.handleDelivery(ctx, msg)

		case <-ctx.Done():
			slog.Info(
				"AMQP - Context done signal received, " +
					"stopping batch requests goroutine...",
			)
			return
		}
	}
}

func (c *AMQPConsumer) handleDelivery(ctx context.Context, msg amqp.Delivery) {
	var request models.BatchRequest
	if err := json.Unmarshal(msg.Body, &request); err != nil {
		slog.Error(
			"AMQP - Failed to unmarshal batch request",
			"error",
			err,
			"message",
			string(msg.Body),
		)
		c.nack(msg, false)
		return
	}

	c.telemetry.Metrics().Increment(metrics.BatchRequestReceived, nil)
	slog.Info(
		"AMQP - Batch request received",
		"batchRequestId",
		request.BatchRequestId,
		"sourceDir",
		request.SourceDir,
	)

	if request.SourceDir == "" {
		slog.Error(
			"AMQP - Batch request without source directory",
			"batchRequestId",
			request.BatchRequestId,
		)
		c.nack(msg, false)
		return
	}

	err := c.runner.RunBatch(ctx, request.SourceDir)
	if err != nil {
		slog.Error(
			"AMQP - Failed to process batch request",
			"error",
			err,
			"batchRequestId",
			request.BatchRequestId,
			"sourceDir",
			request.SourceDir,
		)

		// Busy sessions and interrupted waits can be retried later
		requeue := errors.Is(err, session.ErrBatchRunning) ||
			errors.Is(err, context.Canceled)
		c.nack(msg, requeue)
		return
	}

	// Acknowledge the message
	if err := msg.Ack(false); err != nil {
		slog.Error(
			"AMQP - Failed to acknowledge batch request",
			"error",
			err,
		)
	}
}

func (c *AMQPConsumer) nack(msg amqp.Delivery, requeue bool) {
	if nackErr := msg.Nack(false, requeue); nackErr != nil {
		slog.Error(
			"AMQP - Failed to nack batch request",
			"error",
			nackErr,
		)
	}
}
