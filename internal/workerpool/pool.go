package workerpool

import (
	"context"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/hashicorp/go-hclog"

	"github.com/dshills/toolbox/internal/task"
)

// Default sizing.
const (
	DefaultWorkers   = 2
	DefaultQueueSize = 64
)

// Pool executes task.Task values on a fixed number of workers.
// It implements task.Pool.
type Pool struct {
	workers   int
	queueSize int
	logger    hclog.Logger

	// seq orders queue sends against started notifications so a task is
	// never reported started before it is reported queued.
	seq     sync.Mutex
	queue   chan task.Task
	running atomic.Bool
	stopped atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	queued   listeners[func(task.Task)]
	started  listeners[func(task.Task)]
	finished listeners[func(task.Task, error)]
	stoppedL listeners[func()]

	stats Stats
}

// Stats holds pool counters.
type Stats struct {
	Queued    atomic.Uint64
	Succeeded atomic.Uint64
	Failed    atomic.Uint64
	Cancelled atomic.Uint64
	Panicked  atomic.Uint64
	Rejected  atomic.Uint64
}

// Option configures a Pool.
type Option func(*Pool)

// WithWorkers sets the number of worker goroutines.
func WithWorkers(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithQueueSize sets the queue capacity.
func WithQueueSize(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.queueSize = n
		}
	}
}

// WithLogger sets the pool logger.
func WithLogger(l hclog.Logger) Option {
	return func(p *Pool) {
		if l != nil {
			p.logger = l.Named("pool")
		}
	}
}

// New creates an idle pool.
func New(opts ...Option) *Pool {
	p := &Pool{
		workers:   DefaultWorkers,
		queueSize: DefaultQueueSize,
		logger:    hclog.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

var _ task.Pool = (*Pool)(nil)

// Start launches the workers.
func (p *Pool) Start() error {
	p.seq.Lock()
	defer p.seq.Unlock()

	if p.stopped.Load() {
		return ErrStopped
	}
	if p.running.Load() {
		return ErrAlreadyRunning
	}

	p.queue = make(chan task.Task, p.queueSize)
	p.ctx, p.cancel = context.WithCancel(context.Background())
	p.running.Store(true)

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	p.logger.Debug("pool started", "workers", p.workers, "queue", p.queueSize)
	return nil
}

// Stop cancels running tasks and returns without waiting. Tasks still in
// the queue are reported finished with context.Canceled.
func (p *Pool) Stop() error {
	p.seq.Lock()
	if !p.running.Load() {
		p.seq.Unlock()
		return ErrNotRunning
	}
	p.running.Store(false)
	p.stopped.Store(true)
	p.cancel()
	close(p.queue)
	p.seq.Unlock()

	go func() {
		p.wg.Wait()
		p.logger.Debug("pool drained")
		for _, fn := range p.stoppedL.snapshot() {
			p.safe("stopped", func() { fn() })
		}
	}()
	return nil
}

// Running reports whether the pool accepts tasks.
func (p *Pool) Running() bool {
	return p.running.Load()
}

// Queue adds t to the queue.
func (p *Pool) Queue(t task.Task) error {
	if t == nil {
		return ErrNilTask
	}

	p.seq.Lock()
	defer p.seq.Unlock()

	if !p.running.Load() {
		return ErrNotRunning
	}

	select {
	case p.queue <- t:
	default:
		p.stats.Rejected.Add(1)
		return ErrQueueFull
	}
	p.stats.Queued.Add(1)

	for _, fn := range p.queued.snapshot() {
		p.safe("queued", func() { fn(t) })
	}
	return nil
}

// QueueDepth returns the number of tasks waiting for a worker.
func (p *Pool) QueueDepth() int {
	p.seq.Lock()
	defer p.seq.Unlock()
	if p.queue == nil {
		return 0
	}
	return len(p.queue)
}

// Stats returns the pool counters.
func (p *Pool) Stats() *Stats {
	return &p.stats
}

// OnQueued registers fn to be called after a task enters the queue.
func (p *Pool) OnQueued(fn func(task.Task)) func() {
	return p.queued.add(fn)
}

// OnStarted registers fn to be called when a worker picks up a task.
func (p *Pool) OnStarted(fn func(task.Task)) func() {
	return p.started.add(fn)
}

// OnFinished registers fn to be called with a task's result.
func (p *Pool) OnFinished(fn func(task.Task, error)) func() {
	return p.finished.add(fn)
}

// OnStopped registers fn to be called once all workers have exited.
func (p *Pool) OnStopped(fn func()) func() {
	return p.stoppedL.add(fn)
}

func (p *Pool) worker(n int) {
	defer p.wg.Done()

	for t := range p.queue {
		if p.ctx.Err() != nil {
			p.stats.Cancelled.Add(1)
			p.emitFinished(t, context.Canceled)
			continue
		}

		p.seq.Lock()
		//nolint:staticcheck // barrier only
		p.seq.Unlock()

		for _, fn := range p.started.snapshot() {
			p.safe("started", func() { fn(t) })
		}

		err := p.execute(t)
		switch {
		case err == nil:
			p.stats.Succeeded.Add(1)
		case p.ctx.Err() != nil:
			p.stats.Cancelled.Add(1)
		default:
			p.stats.Failed.Add(1)
		}
		p.logger.Trace("task finished", "worker", n, "task", t.Name(), "error", err)
		p.emitFinished(t, err)
	}
}

func (p *Pool) execute(t task.Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			p.stats.Panicked.Add(1)
			p.logger.Error("task panicked", "task", t.Name(), "panic", r, "stack", string(debug.Stack()))
			err = &PanicError{Task: t.Name(), Value: r}
		}
	}()
	return t.Run(p.ctx)
}

func (p *Pool) emitFinished(t task.Task, err error) {
	for _, fn := range p.finished.snapshot() {
		p.safe("finished", func() { fn(t, err) })
	}
}

// safe invokes a listener, recovering any panic.
func (p *Pool) safe(kind string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("listener panicked", "kind", kind, "panic", r)
		}
	}()
	fn()
}
