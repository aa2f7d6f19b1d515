// Package monitor polls a running pool and publishes its progress until
// every task has finished.
package monitor

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

const (
	DefaultInitialDelay = 500 * time.Millisecond
	DefaultPeriod       = time.Second
)

type State int32

const (
	Scheduled State = iota
	Polling
	Stopped
)

func (s State) String() string {
	switch s {
	case Scheduled:
		return "scheduled"
	case Polling:
		return "polling"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// PoolState is the read-only view of a pool the monitor samples.
type PoolState interface {
	IsTerminal() bool
	CompletedCount() int
	SubmittedCount() int
}

type Config struct {

	// Wait before the first sample
	InitialDelay time.Duration

	// Wait between two consecutive samples
	Period time.Duration
}

func DefaultConfig() Config {
	return Config{
		InitialDelay: DefaultInitialDelay,
		Period:       DefaultPeriod,
	}
}

func (c Config) Validate() error {
	if c.InitialDelay < 0 {
		return fmt.Errorf("monitor initial delay must not be negative, got %s", c.InitialDelay)
	}
	if c.Period <= 0 {
		return fmt.Errorf("monitor period must be positive, got %s", c.Period)
	}

	return nil
}

// StatusLine formats the progress published on every sample.
func StatusLine(completed, submitted int) string {
	return fmt.Sprintf("%d of %d tasks finished.", completed, submitted)
}

// ProgressMonitor samples a pool on a fixed schedule. It stops on the
// first sample that finds the pool terminal and then calls onDone,
// exactly once.
type ProgressMonitor struct {
	pool   PoolState
	cfg    Config
	notify func(status string)
	onDone func()

	state     atomic.Int32
	samples   atomic.Int64
	startOnce sync.Once
	stopOnce  sync.Once
	done      chan struct{}
}

func New(
	pool PoolState,
	cfg Config,
	notify func(status string),
	onDone func(),
) *ProgressMonitor {
	if err := cfg.Validate(); err != nil {
		panic("monitor: " + err.Error())
	}
	if notify == nil {
		notify = func(string) {}
	}
	if onDone == nil {
		onDone = func() {}
	}

	return &ProgressMonitor{
		pool:   pool,
		cfg:    cfg,
		notify: notify,
		onDone: onDone,
		done:   make(chan struct{}),
	}
}

// Start schedules the sampling loop. Calling it more than once has no
// effect.
func (m *ProgressMonitor) Start() {
	m.startOnce.Do(func() {
		go m.loop()
	})
}

func (m *ProgressMonitor) State() State {
	return State(m.state.Load())
}

// Samples returns how many times the pool has been sampled.
func (m *ProgressMonitor) Samples() int {
	return int(m.samples.Load())
}

// Done is closed once the monitor stopped and onDone returned.
func (m *ProgressMonitor) Done() <-chan struct{} {
	return m.done
}

func (m *ProgressMonitor) loop() {
	delay := time.NewTimer(m.cfg.InitialDelay)
	<-delay.C

	m.state.Store(int32(Polling))
	slog.Debug("Progress monitor polling", "period", m.cfg.Period)

	ticker := time.NewTicker(m.cfg.Period)
	defer ticker.Stop()

	for !m.sample() {
		<-ticker.C
	}
}

// sample publishes the pool progress and reports whether the pool
// reached its terminal state. Terminal is read before the counters so
// the last status always reflects every completed task.
func (m *ProgressMonitor) sample() bool {
	terminal := m.pool.IsTerminal()
	completed := m.pool.CompletedCount()
	submitted := m.pool.SubmittedCount()

	m.samples.Add(1)
	m.notify(StatusLine(completed, submitted))

	if terminal {
		m.stop()
	}
	return terminal
}

func (m *ProgressMonitor) stop() {
	m.stopOnce.Do(func() {
		m.state.Store(int32(Stopped))
		slog.Debug("Progress monitor stopped", "samples", m.samples.Load())

		m.onDone()
		close(m.done)
	})
}
