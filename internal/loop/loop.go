package loop

import (
	"context"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/hashicorp/go-hclog"
)

// Loop is a single-consumer FIFO of closures.
type Loop struct {
	mu      sync.Mutex
	pending []func()
	closed  bool

	wake    chan struct{}
	done    chan struct{}
	running atomic.Bool

	logger hclog.Logger
}

// Option configures a Loop.
type Option func(*Loop)

// WithLogger sets the logger used to report panics in posted closures.
func WithLogger(l hclog.Logger) Option {
	return func(lp *Loop) {
		if l != nil {
			lp.logger = l.Named("loop")
		}
	}
}

// New creates an open loop.
func New(opts ...Option) *Loop {
	l := &Loop{
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
		logger: hclog.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Post appends fn to the queue. It returns false if the loop is closed,
// in which case fn will never run.
func (l *Loop) Post(fn func()) bool {
	if fn == nil {
		return false
	}
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return false
	}
	l.pending = append(l.pending, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// Run executes posted closures in order on the calling goroutine until ctx
// is cancelled or Close is called. Closures posted before Close still run.
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer l.running.Store(false)

	for {
		l.Drain()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		case <-l.done:
			l.Drain()
			return nil
		}
	}
}

// Drain runs every closure currently queued and returns how many ran.
// It must be called from the control goroutine.
func (l *Loop) Drain() int {
	n := 0
	for {
		l.mu.Lock()
		if len(l.pending) == 0 {
			l.mu.Unlock()
			return n
		}
		batch := l.pending
		l.pending = nil
		l.mu.Unlock()

		for _, fn := range batch {
			l.invoke(fn)
			n++
		}
	}
}

// Close stops accepting closures and makes Run return once the queue is
// empty. It is safe to call more than once.
func (l *Loop) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.closed = true
	close(l.done)
}

// Closed reports whether Close has been called.
func (l *Loop) Closed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

// Len returns the number of closures waiting to run.
func (l *Loop) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.pending)
}

func (l *Loop) invoke(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("posted closure panicked", "panic", r, "stack", string(debug.Stack()))
		}
	}()
	fn()
}
