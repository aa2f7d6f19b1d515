// Package session orchestrates scaling batches: discovery, the worker
// pool, the progress monitor and the presenter they report to.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/google/uuid"

	"github.com/giobyte8/imagescaler/internal/models"
	"github.com/giobyte8/imagescaler/internal/monitor"
	"github.com/giobyte8/imagescaler/internal/pool"
	"github.com/giobyte8/imagescaler/internal/presenter"
	"github.com/giobyte8/imagescaler/internal/scaler"
	"github.com/giobyte8/imagescaler/internal/source"
	"github.com/giobyte8/imagescaler/internal/telemetry"
	"github.com/giobyte8/imagescaler/internal/telemetry/metrics"
	"github.com/giobyte8/imagescaler/internal/worker"
)

const (
	errorHeader   = "Error"
	confirmHeader = "Start scaling"
)

var (
	ErrBatchRunning   = errors.New("a batch is already running")
	ErrBatchDeclined  = errors.New("batch declined by user")
	ErrOutputConflict = errors.New("images share an output folder")
)

type State int

const (
	Idle State = iota
	Running
	Terminal
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Terminal:
		return "terminal"
	default:
		return "unknown"
	}
}

type Config struct {
	Percentages  []int
	Monitor      monitor.Config
	ConfirmStart bool
}

type Session struct {
	cfg       Config
	source    source.ImageSource
	scaler    scaler.Scaler
	presenter presenter.Presenter
	telemetry *telemetry.TelemetrySvc

	mu      sync.Mutex
	state   State
	current *Batch

	// Serializes result publication coming from worker goroutines
	publishMu sync.Mutex
}

func New(
	cfg Config,
	src source.ImageSource,
	s scaler.Scaler,
	p presenter.Presenter,
	t *telemetry.TelemetrySvc,
) *Session {
	if len(cfg.Percentages) == 0 {
		cfg.Percentages = scaler.DefaultPercentages
	}
	if cfg.Monitor == (monitor.Config{}) {
		cfg.Monitor = monitor.DefaultConfig()
	}
	if t == nil {
		t = telemetry.NewNoopTelemetrySvc()
	}

	return &Session{
		cfg:       cfg,
		source:    src,
		scaler:    s,
		presenter: p,
		telemetry: t,
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

// Current returns the running batch, or the last one once idle.
func (s *Session) Current() *Batch {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.current
}

// StartBatch scales every image found in 'sourceDir'. It returns as
// soon as the work is scheduled; Batch.Done is closed once the monitor
// saw every worker finish and controls were enabled again.
//
// A directory without images is a no-op: the returned batch is already
// done and no pool is started.
func (s *Session) StartBatch(sourceDir string) (*Batch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Idle {
		return nil, ErrBatchRunning
	}

	s.presenter.SetControlsEnabled(false)
	s.presenter.ClearResults()

	batch := newBatch(uuid.New(), sourceDir)
	log := slog.With("batchId", batch.ID.String(), "sourceDir", sourceDir)

	slots := s.source.CountImages(sourceDir)
	images, err := s.source.ListImages(sourceDir)
	if err != nil {
		log.Error("Image discovery failed", "error", err)
		s.presenter.ReportError(errorHeader, err.Error())
		s.presenter.SetControlsEnabled(true)
		return nil, err
	}

	if len(images) == 0 {
		log.Warn("No images found, nothing to scale")
		s.presenter.Notify(fmt.Sprintf("No images found in %s.", sourceDir))
		s.presenter.SetControlsEnabled(true)
		batch.finish()
		s.current = batch
		return batch, nil
	}

	images = s.dropOutputConflicts(log, images)

	if s.cfg.ConfirmStart {
		question := fmt.Sprintf("Scale %d images in %s?", len(images), sourceDir)
		if !s.presenter.Confirm(confirmHeader, question) {
			log.Info("Batch declined")
			s.presenter.SetControlsEnabled(true)
			return nil, ErrBatchDeclined
		}
	}

	tasks := make([]pool.Task, 0, len(images))
	for _, image := range images {
		tasks = append(tasks, worker.NewScaleWorker(image, s.scaler, worker.Options{
			Percentages: s.cfg.Percentages,
			ReportError: s.presenter.ReportError,
			Publish:     func(d models.ImageDescriptor) { s.publish(batch, d) },
			Metrics:     s.telemetry.Metrics(),
		}))
	}

	workerPool := pool.New(slots)
	batch.pool = workerPool
	if err := workerPool.Start(tasks); err != nil {
		// Unreachable with a non-empty task list
		panic(fmt.Sprintf("session: pool rejected %d tasks: %v", len(tasks), err))
	}

	progress := monitor.New(
		workerPool,
		s.cfg.Monitor,
		s.presenter.Notify,
		func() { s.onTerminal(batch) },
	)
	progress.Start()

	s.state = Running
	s.current = batch
	s.telemetry.Metrics().Increment(metrics.BatchStarted, nil)
	log.Info("Batch started", "images", len(images), "slots", slots)

	return batch, nil
}

// dropOutputConflicts keeps the first image, in name order, of every
// group whose names only differ by extension. Their workers would wipe
// each other's output folder.
func (s *Session) dropOutputConflicts(
	log *slog.Logger,
	images []models.ImageDescriptor,
) []models.ImageDescriptor {
	owners := make(map[string]string, len(images))
	kept := images[:0:0]

	for _, image := range images {
		owner, taken := owners[image.OutputPath]
		if !taken {
			owners[image.OutputPath] = image.Name
			kept = append(kept, image)
			continue
		}

		err := fmt.Errorf(
			"%w: %s skipped, %s already writes to %s",
			ErrOutputConflict,
			image.Name,
			owner,
			image.OutputPath,
		)
		log.Warn("Skipping image", "image", image.Name, "error", err)
		s.presenter.ReportError(errorHeader, err.Error())
	}

	return kept
}

func (s *Session) publish(batch *Batch, image models.ImageDescriptor) {
	s.publishMu.Lock()
	defer s.publishMu.Unlock()

	batch.addResult(image)
	s.presenter.AppendResult(image)
}

func (s *Session) onTerminal(batch *Batch) {
	s.mu.Lock()
	s.state = Terminal

	s.presenter.SetControlsEnabled(true)
	s.state = Idle
	s.mu.Unlock()

	counters := batch.Counters()
	slog.Info(
		"Batch finished",
		"batchId", batch.ID.String(),
		"completed", counters.Completed,
		"succeeded", counters.Succeeded,
		"submitted", counters.Submitted,
	)
	batch.finish()
}

// ListScaled lists the variants currently stored for 'image'.
func (s *Session) ListScaled(
	image models.ImageDescriptor,
) ([]models.ImageDescriptor, error) {
	if _, err := os.Stat(image.OutputPath); err != nil {
		s.presenter.ReportError(errorHeader, fmt.Sprintf(
			"No scaled images for %s",
			image.Name,
		))
		return nil, fmt.Errorf(
			"failed to read output dir of %s: %w",
			image.Name,
			err,
		)
	}

	return s.source.ListImages(image.OutputPath)
}

// RunBatch starts a batch and blocks until it finished or ctx is done.
// A done ctx stops the wait only; the batch keeps running to the end.
func (s *Session) RunBatch(ctx context.Context, sourceDir string) error {
	batch, err := s.StartBatch(sourceDir)
	if err != nil {
		return err
	}

	select {
	case <-batch.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
