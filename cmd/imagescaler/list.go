package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/giobyte8/imagescaler/internal/models"
	"github.com/giobyte8/imagescaler/internal/presenter"
	"github.com/giobyte8/imagescaler/internal/telemetry"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <dir> <image>",
		Short: "List the scaled variants stored for an image",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			s, err := prepareSession(
				cfg,
				presenter.NewLogPresenter(nil, false),
				telemetry.NewNoopTelemetrySvc(),
			)
			if err != nil {
				return err
			}

			variants, err := s.ListScaled(models.NewImageDescriptor(args[0], args[1]))
			if err != nil {
				return err
			}

			for _, variant := range variants {
				fmt.Fprintln(cmd.OutOrStdout(), variant.SourcePath)
			}
			return nil
		},
	}
}
