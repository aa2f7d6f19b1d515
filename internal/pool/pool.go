// Package pool runs a batch of tasks on a bounded set of goroutines and
// exposes its progress through thread-safe counters.
package pool

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

var (
	ErrNoWork         = errors.New("no tasks to run")
	ErrAlreadyStarted = errors.New("pool already started")
)

// Task is one unit of work. Execute must run to the end and handle its
// own failures; the returned flag only tells whether it fully succeeded.
type Task interface {
	Execute() bool
}

// WorkerPool executes a fixed set of tasks on up to 'slots' goroutines.
// A pool runs a single batch: once started, no more work is accepted.
type WorkerPool struct {
	slots int

	startOnce sync.Once
	started   atomic.Bool
	submitted atomic.Int64
	completed atomic.Int64
	succeeded atomic.Int64
	terminal  atomic.Bool
	done      chan struct{}
}

// New sizes a pool to 'slots' concurrent tasks. Sizing a pool to less
// than one slot is a programming error.
func New(slots int) *WorkerPool {
	if slots < 1 {
		panic(fmt.Sprintf("pool: invalid slot count %d", slots))
	}

	return &WorkerPool{
		slots: slots,
		done:  make(chan struct{}),
	}
}

// Start submits every task and closes submission. It returns right away;
// use Wait or the counters to follow progress.
func (p *WorkerPool) Start(tasks []Task) error {
	if len(tasks) == 0 {
		return ErrNoWork
	}

	err := ErrAlreadyStarted
	p.startOnce.Do(func() {
		err = nil
		p.run(tasks)
	})

	return err
}

func (p *WorkerPool) run(tasks []Task) {
	p.submitted.Store(int64(len(tasks)))
	p.started.Store(true)

	slog.Debug("Starting worker pool", "slots", p.slots, "tasks", len(tasks))

	var g errgroup.Group
	g.SetLimit(p.slots)

	go func() {
		for _, task := range tasks {
			g.Go(func() error {
				ok := task.Execute()
				if ok {
					p.succeeded.Add(1)
				}
				if p.completed.Add(1) > p.submitted.Load() {
					panic("pool: more completions than submitted tasks")
				}
				return nil
			})
		}

		// Tasks never return errors, Wait only blocks until all finished
		_ = g.Wait()
		p.terminal.Store(true)
		close(p.done)

		slog.Debug(
			"Worker pool terminated",
			"completed", p.completed.Load(),
			"succeeded", p.succeeded.Load(),
		)
	}()
}

// Slots is the maximum number of tasks running at the same time.
func (p *WorkerPool) Slots() int {
	return p.slots
}

// SubmittedCount is the number of tasks handed to Start.
func (p *WorkerPool) SubmittedCount() int {
	return int(p.submitted.Load())
}

// CompletedCount is the number of tasks that ran to the end, whether
// they succeeded or not.
func (p *WorkerPool) CompletedCount() int {
	return int(p.completed.Load())
}

// SucceededCount is the number of completed tasks that fully succeeded.
func (p *WorkerPool) SucceededCount() int {
	return int(p.succeeded.Load())
}

// IsTerminal reports whether every submitted task has finished. A pool
// that was never started is not terminal.
func (p *WorkerPool) IsTerminal() bool {
	return p.terminal.Load()
}

// Wait blocks until the pool is terminal. It returns ErrNoWork when the
// pool was never started.
func (p *WorkerPool) Wait() error {
	if !p.started.Load() {
		return ErrNoWork
	}

	<-p.done
	return nil
}
