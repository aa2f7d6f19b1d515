package consumer

import (
	"context"
)

type MessageConsumer interface {
	Start(ctx context.Context) error

	Stop()
}

// BatchRunner runs one scaling batch to completion.
type BatchRunner interface {
	RunBatch(ctx context.Context, sourceDir string) error
}
