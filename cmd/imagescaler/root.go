package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/giobyte8/imagescaler/internal/config"
	"github.com/giobyte8/imagescaler/internal/presenter"
	"github.com/giobyte8/imagescaler/internal/scaler"
	"github.com/giobyte8/imagescaler/internal/session"
	"github.com/giobyte8/imagescaler/internal/source"
	"github.com/giobyte8/imagescaler/internal/telemetry"
)

const tuiLogFile = "imagescaler.log"

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "imagescaler",
		Short: "Batch scale a directory of images from 10% to 90%",
		Long: `imagescaler writes nine scaled copies (10% to 90% of the original
size) of every image found in a directory, one subfolder per image.

Settings are read from the environment, optionally seeded from a .env
file in the working directory.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			err := config.LoadEnvFile(".env")
			setupLogging(os.Stdout)
			return err
		},
	}

	cmd.AddCommand(newScaleCmd())
	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newServeCmd())

	return cmd
}

func loadConfig() (config.Config, error) {
	cfg, err := config.FromEnv(os.Getenv)
	if err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func prepareSession(
	cfg config.Config,
	p presenter.Presenter,
	t *telemetry.TelemetrySvc,
) (*session.Session, error) {
	s, err := scaler.New(cfg.ScalerBackend, scaler.Options{
		JPEGQuality:  cfg.JPEGQuality,
		Interpolator: cfg.Interpolator,
	})
	if err != nil {
		return nil, err
	}

	return session.New(
		session.Config{
			Percentages:  cfg.Percentages,
			Monitor:      cfg.Monitor,
			ConfirmStart: cfg.ConfirmStart,
		},
		source.NewDirImageSource(),
		s,
		p,
		t,
	), nil
}
