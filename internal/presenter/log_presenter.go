package presenter

import (
	"log/slog"
	"sync"

	"github.com/giobyte8/imagescaler/internal/models"
)

// LogPresenter renders everything as structured log records. It is
// non-interactive: Confirm answers with the configured default.
type LogPresenter struct {
	logger      *slog.Logger
	autoConfirm bool

	mu              sync.Mutex
	results         []models.ImageDescriptor
	lastStatus      string
	controlsEnabled bool
}

func NewLogPresenter(logger *slog.Logger, autoConfirm bool) *LogPresenter {
	if logger == nil {
		logger = slog.Default()
	}

	return &LogPresenter{
		logger:          logger,
		autoConfirm:     autoConfirm,
		controlsEnabled: true,
	}
}

func (p *LogPresenter) Notify(status string) {
	p.mu.Lock()
	p.lastStatus = status
	p.mu.Unlock()

	p.logger.Info(status)
}

func (p *LogPresenter) AppendResult(image models.ImageDescriptor) {
	p.mu.Lock()
	p.results = append(p.results, image)
	p.mu.Unlock()

	p.logger.Info("Image scaled", "image", image.Name, "outputPath", image.OutputPath)
}

func (p *LogPresenter) ReportError(header, message string) {
	p.logger.Error(header, "message", message)
}

func (p *LogPresenter) Confirm(header, message string) bool {
	p.logger.Info(header, "message", message, "confirmed", p.autoConfirm)
	return p.autoConfirm
}

func (p *LogPresenter) SetControlsEnabled(enabled bool) {
	p.mu.Lock()
	p.controlsEnabled = enabled
	p.mu.Unlock()

	p.logger.Debug("Controls state changed", "enabled", enabled)
}

func (p *LogPresenter) ClearResults() {
	p.mu.Lock()
	p.results = nil
	p.mu.Unlock()
}

// Results returns a copy of the descriptors published so far.
func (p *LogPresenter) Results() []models.ImageDescriptor {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]models.ImageDescriptor(nil), p.results...)
}

func (p *LogPresenter) LastStatus() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.lastStatus
}

func (p *LogPresenter) ControlsEnabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.controlsEnabled
}
