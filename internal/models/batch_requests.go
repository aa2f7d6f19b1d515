package models

import (
	"github.com/google/uuid"
)

type BatchRequest struct {
	BatchRequestId uuid.UUID `json:"batchRequestId"`

	// Directory holding the original images. Scaled variants are
	// written into one subfolder per image inside this same directory
	SourceDir string `json:"sourceDir"`
}
