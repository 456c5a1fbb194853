package task

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/hashicorp/go-hclog"
)

// SubmitOutcome describes how a submitted task was forwarded.
type SubmitOutcome int

const (
	// SubmitAccepted means the task was queued without configuration.
	SubmitAccepted SubmitOutcome = iota + 1

	// SubmitConfigured means the task went through its configuration
	// step and the confirmed task was queued.
	SubmitConfigured
)

// String returns the outcome name.
func (o SubmitOutcome) String() string {
	switch o {
	case SubmitAccepted:
		return "accepted"
	case SubmitConfigured:
		return "configured"
	default:
		return "none"
	}
}

// Scheduler forwards tasks to a Pool and relays pool and progress events to
// the Table through a Poster.
type Scheduler struct {
	pool    Pool
	poster  Poster
	configs *Configurations
	table   *Table
	logger  hclog.Logger

	stopping     atomic.Bool
	stopOnce     sync.Once
	teardownOnce sync.Once
	done         chan struct{}

	mu          sync.Mutex
	teardowns   []func()
	unsubscribe []func()
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithConfigurations sets the task type to configuration table.
func WithConfigurations(c *Configurations) SchedulerOption {
	return func(s *Scheduler) {
		if c != nil {
			s.configs = c
		}
	}
}

// WithTable sets the display sink.
func WithTable(t *Table) SchedulerOption {
	return func(s *Scheduler) {
		if t != nil {
			s.table = t
		}
	}
}

// WithLogger sets the scheduler logger.
func WithLogger(l hclog.Logger) SchedulerOption {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l.Named("scheduler")
		}
	}
}

// NewScheduler creates a scheduler over pool. Events are applied to the
// table only from closures handed to poster.
func NewScheduler(pool Pool, poster Poster, opts ...SchedulerOption) *Scheduler {
	if poster == nil {
		poster = InlinePoster
	}
	s := &Scheduler{
		pool:    pool,
		poster:  poster,
		configs: NewConfigurations(),
		table:   NewTable(),
		logger:  hclog.NewNullLogger(),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.unsubscribe = []func(){
		pool.OnQueued(s.handleQueued),
		pool.OnStarted(s.handleStarted),
		pool.OnFinished(s.handleFinished),
		pool.OnStopped(s.handleStopped),
	}
	return s
}

// Start starts the underlying pool.
func (s *Scheduler) Start() error {
	return s.pool.Start()
}

// Table returns the display sink.
func (s *Scheduler) Table() *Table {
	return s.table
}

// Configurations returns the task type to configuration table.
func (s *Scheduler) Configurations() *Configurations {
	return s.configs
}

// Submit forwards t to the pool. If t's type has a configuration step, the
// configurator runs first and blocks until the user confirms or cancels.
// A cancelled or failed configuration leaves no trace: nothing is queued
// and no row is created.
func (s *Scheduler) Submit(ctx context.Context, t Task) (SubmitOutcome, error) {
	if t == nil {
		return 0, ErrNilTask
	}
	if s.stopping.Load() {
		return 0, ErrSchedulerStopped
	}

	typed, ok := t.(Typed)
	if !ok {
		return SubmitAccepted, s.Execute(t)
	}
	factory, ok := s.configs.Lookup(typed.Type())
	if !ok {
		return SubmitAccepted, s.Execute(t)
	}

	configured, err := s.configure(ctx, typed.Type(), factory, t)
	if err != nil {
		return 0, err
	}
	if err := s.Execute(configured); err != nil {
		return 0, err
	}
	return SubmitConfigured, nil
}

func (s *Scheduler) configure(ctx context.Context, taskType string, factory ConfiguratorFactory, t Task) (Task, error) {
	cfg, err := build(factory)
	if err != nil {
		s.logger.Error("configuration surface unavailable", "type", taskType, "error", err)
		return nil, &ConfigurationError{TaskType: taskType, Err: err}
	}

	configured, err := cfg.Configure(ctx, t)
	switch {
	case errors.Is(err, ErrConfigurationCancelled):
		s.logger.Info("task configuration cancelled", "task", t.Name(), "type", taskType)
		return nil, err
	case err != nil:
		return nil, &ConfigurationError{TaskType: taskType, Err: err}
	case configured == nil:
		return nil, ErrConfigurationCancelled
	}
	return configured, nil
}

// Execute attaches the progress observer to t and queues it on the pool.
func (s *Scheduler) Execute(t Task) error {
	if t == nil {
		return ErrNilTask
	}
	if s.stopping.Load() {
		return ErrSchedulerStopped
	}

	if r, ok := t.(ProgressReporter); ok {
		id := t.ID()
		r.OnProgress(func(p Progress) {
			if p.TaskID == "" {
				p.TaskID = id
			}
			s.post(func() { s.applyProgress(p) })
		})
	}

	if err := s.pool.Queue(t); err != nil {
		return fmt.Errorf("queue task %q: %w", t.Name(), err)
	}
	return nil
}

// Stop requests the pool to stop. Teardown runs once, after the pool
// reports it stopped. Further calls do nothing.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.stopping.Store(true)
		if err := s.pool.Stop(); err != nil {
			// The pool will never report stopped; tear down directly.
			s.logger.Warn("pool stop failed", "error", err)
			s.post(s.teardown)
		}
	})
}

// Stopping reports whether Stop has been called.
func (s *Scheduler) Stopping() bool {
	return s.stopping.Load()
}

// OnTeardown registers fn to run once during teardown, in registration order.
func (s *Scheduler) OnTeardown(fn func()) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	s.teardowns = append(s.teardowns, fn)
	s.mu.Unlock()
}

// Done is closed after teardown completes.
func (s *Scheduler) Done() <-chan struct{} {
	return s.done
}

func (s *Scheduler) handleQueued(t Task) {
	s.post(func() { s.table.Add(t) })
}

func (s *Scheduler) handleStarted(t Task) {
	id := t.ID()
	s.post(func() { s.table.Start(id) })
}

func (s *Scheduler) handleFinished(t Task, err error) {
	id, name := t.ID(), t.Name()
	state := stateFor(err)
	if state == StateFailed {
		s.logger.Warn("task failed", "task", name, "id", id, "error", err)
	}
	s.post(func() { s.table.Finish(id, state) })
}

func (s *Scheduler) handleStopped() {
	s.post(s.teardown)
}

func (s *Scheduler) applyProgress(p Progress) {
	if !s.table.Update(p.TaskID, p.Percent, p.Message) {
		s.logger.Trace("progress dropped", "id", p.TaskID)
	}
}

func (s *Scheduler) teardown() {
	s.teardownOnce.Do(func() {
		s.mu.Lock()
		teardowns := make([]func(), len(s.teardowns))
		copy(teardowns, s.teardowns)
		unsubscribe := s.unsubscribe
		s.unsubscribe = nil
		s.mu.Unlock()

		for _, fn := range unsubscribe {
			fn()
		}
		for _, fn := range teardowns {
			func() {
				defer func() {
					if r := recover(); r != nil {
						s.logger.Error("teardown panic", "panic", r)
					}
				}()
				fn()
			}()
		}
		close(s.done)
	})
}

// post hands fn to the control goroutine. Teardown must still happen when
// the poster has gone away, so it falls back to running inline.
func (s *Scheduler) post(fn func()) {
	if !s.poster.Post(fn) {
		s.logger.Debug("poster closed, running inline")
		fn()
	}
}

// stateFor maps a task's return value to its terminal state.
func stateFor(err error) State {
	switch {
	case err == nil:
		return StateSucceeded
	case errors.Is(err, context.Canceled):
		return StateCancelled
	default:
		return StateFailed
	}
}
