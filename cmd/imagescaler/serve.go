package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/giobyte8/imagescaler/internal/config"
	"github.com/giobyte8/imagescaler/internal/consumer"
	"github.com/giobyte8/imagescaler/internal/presenter"
	"github.com/giobyte8/imagescaler/internal/telemetry"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Consume batch requests from RabbitMQ",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			return runServe(cfg)
		},
	}
}

func prepareAMQPConsumer(
	cfg config.Config,
	runner consumer.BatchRunner,
	telemetry *telemetry.TelemetrySvc,
) (*consumer.AMQPConsumer, error) {
	var amqpCfg consumer.AMQPConfig
	amqpCfg.AMQPUri = cfg.AMQP.URI()
	amqpCfg.Exchange = cfg.AMQP.Exchange
	amqpCfg.BatchQueueName = cfg.AMQP.BatchQueueName

	return consumer.NewAMQPConsumer(amqpCfg, runner, telemetry)
}

func runServe(cfg config.Config) error {
	slog.Info("Starting imagescaler service...")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init telemetry services
	telemetry, err := telemetry.NewTelemetrySvc(ctx, cfg.OtelEnabled)
	if err != nil {
		slog.Error("Failed to initialize Telemetry services", "error", err)
		return err
	}

	// Nobody is in front of the service to answer confirmations
	cfg.ConfirmStart = false
	s, err := prepareSession(cfg, presenter.NewLogPresenter(nil, true), telemetry)
	if err != nil {
		return err
	}

	amqpConsumer, err := prepareAMQPConsumer(cfg, s, telemetry)
	if err != nil {
		slog.Error("Failed to create AMQP consumer", "error", err)
		return err
	}

	if err := amqpConsumer.Start(ctx); err != nil {
		slog.Error("Failed to start AMQP consumer", "error", err)
		return err
	}
	slog.Info("imagescaler service is running. Press Ctrl+C to stop.")

	// Graceful shutdown (listen for OS signals)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received OS signal, shutting down...", "signal", sig.String())
	case <-amqpConsumer.Done():
		slog.Warn("AMQP consumer exited, shutting down...")
	}

	// --- --- --- --- --- --- --- --- --- --- --- ---
	// Perform graceful shutdown operations
	// before cancelling context

	amqpConsumer.Stop()
	if err := telemetry.Shutdown(ctx); err != nil {
		slog.Error("Failed to shutdown telemetry services", "error", err)
	}

	// Trigger context cancellation
	cancel()
	slog.Info("imagescaler service exited gracefully.")
	return nil
}
