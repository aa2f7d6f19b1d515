package pool

import (
	"errors"
	"sync"
	"testing"
	"time"
)

type funcTask func() bool

func (f funcTask) Execute() bool { return f() }

func TestPoolRunsAllTasks(t *testing.T) {
	tasks := []Task{
		funcTask(func() bool { return true }),
		funcTask(func() bool { return false }),
		funcTask(func() bool { return true }),
	}

	p := New(len(tasks))
	if err := p.Start(tasks); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := p.Wait(); err != nil {
		t.Fatalf("wait: %v", err)
	}

	if !p.IsTerminal() {
		t.Fatal("expected terminal pool")
	}
	if p.SubmittedCount() != 3 || p.CompletedCount() != 3 {
		t.Fatalf("expected 3/3, got %d/%d", p.CompletedCount(), p.SubmittedCount())
	}
	if p.SucceededCount() != 2 {
		t.Fatalf("expected 2 succeeded, got %d", p.SucceededCount())
	}
}

func TestPoolRunsOneTaskPerSlotConcurrently(t *testing.T) {
	const n = 8

	var started sync.WaitGroup
	started.Add(n)
	allStarted := make(chan struct{})
	go func() {
		started.Wait()
		close(allStarted)
	}()

	tasks := make([]Task, n)
	for i := range tasks {
		tasks[i] = funcTask(func() bool {
			started.Done()
			select {
			case <-allStarted:
				return true
			case <-time.After(5 * time.Second):
				return false
			}
		})
	}

	p := New(n)
	if p.Slots() != n {
		t.Fatalf("Slots() = %d, want %d", p.Slots(), n)
	}
	if err := p.Start(tasks); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := p.Wait(); err != nil {
		t.Fatalf("wait: %v", err)
	}

	if p.SucceededCount() != n {
		t.Fatalf("expected every task to run in parallel, %d of %d did", p.SucceededCount(), n)
	}
}

func TestPoolWithoutTasksNeverTerminates(t *testing.T) {
	p := New(1)
	if err := p.Start(nil); !errors.Is(err, ErrNoWork) {
		t.Fatalf("expected ErrNoWork, got %v", err)
	}
	if p.IsTerminal() {
		t.Fatal("a pool with no work must not report terminal")
	}
	if err := p.Wait(); !errors.Is(err, ErrNoWork) {
		t.Fatalf("expected ErrNoWork from wait, got %v", err)
	}
	if p.SubmittedCount() != 0 || p.CompletedCount() != 0 {
		t.Fatal("expected zero counters")
	}
}

func TestPoolAcceptsSingleBatch(t *testing.T) {
	p := New(1)
	task := funcTask(func() bool { return true })

	if err := p.Start([]Task{task}); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := p.Start([]Task{task}); !errors.Is(err, ErrAlreadyStarted) {
		t.Fatalf("expected ErrAlreadyStarted, got %v", err)
	}

	_ = p.Wait()
	if p.SubmittedCount() != 1 || p.CompletedCount() != 1 {
		t.Fatalf("second start must not submit work, got %d/%d", p.CompletedCount(), p.SubmittedCount())
	}
}

func TestPoolCountersNeverExceedSubmitted(t *testing.T) {
	release := make(chan struct{})
	tasks := make([]Task, 4)
	for i := range tasks {
		tasks[i] = funcTask(func() bool {
			<-release
			return true
		})
	}

	p := New(2)
	if err := p.Start(tasks); err != nil {
		t.Fatalf("start: %v", err)
	}

	if p.IsTerminal() || p.CompletedCount() != 0 {
		t.Fatal("pool must not progress before tasks are released")
	}

	close(release)
	_ = p.Wait()

	if p.CompletedCount() != p.SubmittedCount() {
		t.Fatalf("expected %d completed, got %d", p.SubmittedCount(), p.CompletedCount())
	}
}

func TestNewRejectsEmptyPool(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for zero slots")
		}
	}()
	New(0)
}
