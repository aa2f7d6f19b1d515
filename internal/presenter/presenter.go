// Package presenter defines the presentation collaborator the scaling
// core reports to, plus the implementations shipped with the CLI.
package presenter

import (
	"github.com/giobyte8/imagescaler/internal/models"
)

// Presenter receives status, results and errors from a batch run.
// Implementations must be safe to call from any goroutine; the core
// never calls AppendResult concurrently with itself.
type Presenter interface {
	Notify(status string)
	AppendResult(image models.ImageDescriptor)
	ReportError(header, message string)
	Confirm(header, message string) bool
	SetControlsEnabled(enabled bool)
	ClearResults()
}
