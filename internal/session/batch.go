package session

import (
	"sync"

	"github.com/google/uuid"

	"github.com/giobyte8/imagescaler/internal/models"
	"github.com/giobyte8/imagescaler/internal/pool"
)

// Counters is a snapshot of the pool counters of a batch. Completed
// counts images whose worker ran to the end, Succeeded only those that
// produced every variant.
type Counters struct {
	Submitted int
	Completed int
	Succeeded int
}

// Batch is the handle of one scaling run.
type Batch struct {
	ID        uuid.UUID
	SourceDir string

	pool *pool.WorkerPool
	done chan struct{}
	once sync.Once

	mu      sync.Mutex
	results []models.ImageDescriptor
}

func newBatch(id uuid.UUID, sourceDir string) *Batch {
	return &Batch{
		ID:        id,
		SourceDir: sourceDir,
		done:      make(chan struct{}),
	}
}

// Done is closed once the session is idle again.
func (b *Batch) Done() <-chan struct{} {
	return b.done
}

// Results returns the images published so far, in completion order.
func (b *Batch) Results() []models.ImageDescriptor {
	b.mu.Lock()
	defer b.mu.Unlock()

	return append([]models.ImageDescriptor(nil), b.results...)
}

func (b *Batch) Counters() Counters {
	if b.pool == nil {
		return Counters{}
	}

	return Counters{
		Submitted: b.pool.SubmittedCount(),
		Completed: b.pool.CompletedCount(),
		Succeeded: b.pool.SucceededCount(),
	}
}

func (b *Batch) addResult(image models.ImageDescriptor) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.results = append(b.results, image)
}

func (b *Batch) finish() {
	b.once.Do(func() { close(b.done) })
}
