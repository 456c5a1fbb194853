package task

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Task is a unit of work submitted for asynchronous execution.
type Task interface {
	// ID returns the unique identity of the task.
	ID() string

	// Name returns the display name.
	Name() string

	// Run executes the task. Cancellation of ctx is cooperative.
	Run(ctx context.Context) error
}

// Typed is implemented by tasks that belong to a configurable task type.
// An empty type means no configuration step.
type Typed interface {
	Type() string
}

// Progress is a progress event emitted by a running task.
type Progress struct {
	TaskID  string
	Percent float64
	Message string
}

// ProgressFunc observes progress events.
type ProgressFunc func(Progress)

// ProgressReporter is implemented by tasks that emit progress.
type ProgressReporter interface {
	OnProgress(fn ProgressFunc)
}

// Param is a user-settable task parameter.
type Param struct {
	Name        string
	Description string
	Value       string
}

// Parameterized is implemented by tasks whose parameters can be edited by a
// configuration step.
type Parameterized interface {
	Params() []Param
	SetParam(name, value string) error
}

// NewID returns a new unique task identity.
func NewID() string {
	return uuid.NewString()
}

// ProgressEmitter implements ProgressReporter and can be embedded in tasks.
type ProgressEmitter struct {
	mu        sync.RWMutex
	observers []ProgressFunc
}

// OnProgress adds a progress observer.
func (e *ProgressEmitter) OnProgress(fn ProgressFunc) {
	if fn == nil {
		return
	}
	e.mu.Lock()
	e.observers = append(e.observers, fn)
	e.mu.Unlock()
}

// Emit delivers p to all observers. Percent is clamped to [0, 100].
func (e *ProgressEmitter) Emit(p Progress) {
	switch {
	case p.Percent < 0:
		p.Percent = 0
	case p.Percent > 100:
		p.Percent = 100
	}

	e.mu.RLock()
	observers := make([]ProgressFunc, len(e.observers))
	copy(observers, e.observers)
	e.mu.RUnlock()

	for _, fn := range observers {
		fn(p)
	}
}

// ReportFunc reports progress from inside a RunFunc.
type ReportFunc func(percent float64, message string)

// RunFunc is the body of a FuncTask.
type RunFunc func(ctx context.Context, report ReportFunc) error

// FuncTask is a Task built from a function.
type FuncTask struct {
	ProgressEmitter

	id   string
	name string
	typ  string
	fn   RunFunc
}

// Option configures a FuncTask.
type Option func(*FuncTask)

// WithID overrides the generated identity.
func WithID(id string) Option {
	return func(t *FuncTask) {
		if id != "" {
			t.id = id
		}
	}
}

// WithType sets the task type used to look up a configuration step.
func WithType(typ string) Option {
	return func(t *FuncTask) {
		t.typ = typ
	}
}

// New creates a function task.
func New(name string, fn RunFunc, opts ...Option) *FuncTask {
	t := &FuncTask{
		id:   NewID(),
		name: name,
		fn:   fn,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// ID implements Task.
func (t *FuncTask) ID() string { return t.id }

// Name implements Task.
func (t *FuncTask) Name() string { return t.name }

// Type implements Typed.
func (t *FuncTask) Type() string { return t.typ }

// Run implements Task.
func (t *FuncTask) Run(ctx context.Context) error {
	if t.fn == nil {
		return nil
	}
	return t.fn(ctx, t.Report)
}

// Report emits a progress event for this task.
func (t *FuncTask) Report(percent float64, message string) {
	t.Emit(Progress{TaskID: t.id, Percent: percent, Message: message})
}
