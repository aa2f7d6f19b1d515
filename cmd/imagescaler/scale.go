package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/giobyte8/imagescaler/internal/config"
	"github.com/giobyte8/imagescaler/internal/presenter"
	"github.com/giobyte8/imagescaler/internal/session"
	"github.com/giobyte8/imagescaler/internal/telemetry"
)

func newScaleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scale [dir]",
		Short: "Scale every image in a directory and wait for the batch to finish",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if len(args) == 1 {
				cfg.SourceDir = args[0]
			}

			return runScale(cmd.Context(), cfg)
		},
	}
}

func runScale(ctx context.Context, cfg config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}

	tel, err := telemetry.NewTelemetrySvc(ctx, cfg.OtelEnabled)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry services: %w", err)
	}
	defer func() {
		if err := tel.Shutdown(ctx); err != nil {
			slog.Error("Failed to shutdown telemetry services", "error", err)
		}
	}()

	if cfg.Presenter == config.PresenterTUI {
		return runScaleTUI(cfg, tel)
	}

	// Nobody answers prompts in log mode, confirmations are implied
	p := presenter.NewLogPresenter(slog.Default(), true)
	s, err := prepareSession(cfg, p, tel)
	if err != nil {
		return err
	}

	batch, err := s.StartBatch(cfg.SourceDir)
	if err != nil {
		return err
	}
	<-batch.Done()

	return batchResult(batch)
}

// The TUI owns the terminal, logs go to a file while it runs
func runScaleTUI(cfg config.Config, tel *telemetry.TelemetrySvc) error {
	logFile, err := os.OpenFile(tuiLogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", tuiLogFile, err)
	}
	defer logFile.Close()
	setupLogging(logFile)

	p := presenter.NewTUIPresenter("imagescaler")
	s, err := prepareSession(cfg, p, tel)
	if err != nil {
		return err
	}

	uiErr := make(chan error, 1)
	go func() { uiErr <- p.Run() }()

	batch, err := s.StartBatch(cfg.SourceDir)
	if err == nil {
		<-batch.Done()
	}

	// Leave the final status on screen until the user quits
	if runErr := <-uiErr; runErr != nil {
		return runErr
	}
	if err != nil {
		return err
	}

	return batchResult(batch)
}

func batchResult(batch *session.Batch) error {
	counters := batch.Counters()
	if failed := counters.Completed - counters.Succeeded; failed > 0 {
		return fmt.Errorf(
			"%d of %d images could not be fully scaled",
			failed,
			counters.Submitted,
		)
	}

	return nil
}
