// Package worker holds the per-image unit of work of a scaling batch.
package worker

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strconv"

	"github.com/giobyte8/imagescaler/internal/models"
	"github.com/giobyte8/imagescaler/internal/scaler"
	"github.com/giobyte8/imagescaler/internal/telemetry/metrics"
)

const errorHeader = "Error"

var (
	ErrDirectoryReset = errors.New("output directory reset failed")
	ErrResize         = errors.New("resize failed")
)

type Options struct {

	// Scale factors to apply, generated in ascending order whatever
	// the order given. Defaults to scaler.DefaultPercentages
	Percentages []int

	// Receives every non-fatal failure, already formatted for users
	ReportError func(header, message string)

	// Receives the image once the worker ran to the end
	Publish func(image models.ImageDescriptor)

	Metrics metrics.MetricsSvc
}

// Outcome summarizes what a worker achieved. A worker always runs to
// the end; Errors lists every step that failed on the way.
type Outcome struct {
	Image    models.ImageDescriptor
	Variants []string
	Errors   []error
}

func (o Outcome) Succeeded() bool {
	return len(o.Errors) == 0
}

// ScaleWorker regenerates the scaled variants of a single image.
type ScaleWorker struct {
	image  models.ImageDescriptor
	scaler scaler.Scaler
	opts   Options
}

func NewScaleWorker(
	image models.ImageDescriptor,
	s scaler.Scaler,
	opts Options,
) *ScaleWorker {
	if len(opts.Percentages) == 0 {
		opts.Percentages = scaler.DefaultPercentages
	}

	// Variants are always generated smallest first
	opts.Percentages = slices.Sorted(slices.Values(opts.Percentages))
	opts.Percentages = slices.Compact(opts.Percentages)

	if opts.ReportError == nil {
		opts.ReportError = func(string, string) {}
	}
	if opts.Publish == nil {
		opts.Publish = func(models.ImageDescriptor) {}
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewNoopMetricsSvc()
	}

	return &ScaleWorker{image: image, scaler: s, opts: opts}
}

func (w *ScaleWorker) Image() models.ImageDescriptor {
	return w.image
}

// Execute runs the worker and reports whether every step succeeded.
func (w *ScaleWorker) Execute() bool {
	return w.Run().Succeeded()
}

// Run wipes the output directory of the image, recreates it and writes
// one variant per configured percentage. Failures are reported and
// never stop the worker before it reaches the end.
func (w *ScaleWorker) Run() Outcome {
	outcome := Outcome{Image: w.image}
	slog.Debug("Scaling image", "image", w.image.Name)

	if err := w.removeOutputDir(); err != nil {
		w.fail(&outcome, err)
	}

	if err := os.MkdirAll(w.image.OutputPath, 0755); err != nil {
		w.fail(&outcome, fmt.Errorf(
			"%w: failed to create %s: %v",
			ErrDirectoryReset,
			w.image.OutputPath,
			err,
		))
	}

	original, openErr := w.scaler.Open(w.image.SourcePath)
	if openErr == nil {
		defer original.Close()
	}

	for _, percent := range w.opts.Percentages {
		variantPath := w.image.VariantPath(percent)

		err := openErr
		if err == nil {
			width, height := scaler.TargetDimensions(
				original.Width(),
				original.Height(),
				percent,
			)
			err = w.scaler.Scale(original, width, height, variantPath)
		}

		// Image names stay in logs, metric attributes must be bounded
		attrs := map[string]string{"percent": strconv.Itoa(percent)}
		if err != nil {
			w.opts.Metrics.Increment(metrics.VariantFailed, attrs)
			w.fail(&outcome, fmt.Errorf(
				"%w: %s at %d%%: %v",
				ErrResize,
				w.image.Name,
				percent,
				err,
			))
			continue
		}

		w.opts.Metrics.Increment(metrics.VariantCreated, attrs)
		outcome.Variants = append(outcome.Variants, variantPath)
	}

	w.opts.Metrics.Increment(metrics.ImageCompleted, map[string]string{
		"succeeded": strconv.FormatBool(outcome.Succeeded()),
	})
	w.opts.Publish(w.image)

	slog.Debug(
		"Image scaled",
		"image", w.image.Name,
		"variants", len(outcome.Variants),
		"errors", len(outcome.Errors),
	)
	return outcome
}

func (w *ScaleWorker) removeOutputDir() error {
	info, err := os.Stat(w.image.OutputPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf(
			"%w: failed to stat %s: %v",
			ErrDirectoryReset,
			w.image.OutputPath,
			err,
		)
	}
	if !info.IsDir() {
		return nil
	}

	slog.Debug("Removing stale output dir", "path", w.image.OutputPath)
	if err := os.RemoveAll(w.image.OutputPath); err != nil {
		return fmt.Errorf(
			"%w: failed to delete %s: %v",
			ErrDirectoryReset,
			w.image.OutputPath,
			err,
		)
	}

	return nil
}

func (w *ScaleWorker) fail(outcome *Outcome, err error) {
	outcome.Errors = append(outcome.Errors, err)

	slog.Error("Scaling step failed", "image", w.image.Name, "error", err)
	w.opts.ReportError(errorHeader, err.Error())
}
