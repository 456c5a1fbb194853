package workerpool

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/toolbox/internal/task"
)

type recorder struct {
	mu       sync.Mutex
	events   []string
	results  map[string]error
	stopped  int
	stopDone chan struct{}
}

func newRecorder(p *Pool) *recorder {
	r := &recorder{results: make(map[string]error), stopDone: make(chan struct{})}
	p.OnQueued(func(t task.Task) { r.add("queued:" + t.Name()) })
	p.OnStarted(func(t task.Task) { r.add("started:" + t.Name()) })
	p.OnFinished(func(t task.Task, err error) {
		r.mu.Lock()
		r.results[t.Name()] = err
		r.mu.Unlock()
		r.add("finished:" + t.Name())
	})
	p.OnStopped(func() {
		r.mu.Lock()
		r.stopped++
		r.mu.Unlock()
		close(r.stopDone)
	})
	return r
}

func (r *recorder) add(ev string) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *recorder) index(ev string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, e := range r.events {
		if e == ev {
			return i
		}
	}
	return -1
}

func (r *recorder) result(name string) (error, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	err, ok := r.results[name]
	return err, ok
}

func waitStopped(t *testing.T, r *recorder) {
	t.Helper()
	select {
	case <-r.stopDone:
	case <-time.After(2 * time.Second):
		t.Fatal("pool did not report stopped")
	}
}

func TestPool_StartTwice(t *testing.T) {
	p := New()
	require.NoError(t, p.Start())
	assert.ErrorIs(t, p.Start(), ErrAlreadyRunning)
	require.NoError(t, p.Stop())
	assert.ErrorIs(t, p.Stop(), ErrNotRunning)
	assert.ErrorIs(t, p.Start(), ErrStopped)
}

func TestPool_QueueNotRunning(t *testing.T) {
	p := New()
	err := p.Queue(task.New("t", nil))
	assert.ErrorIs(t, err, ErrNotRunning)
	assert.ErrorIs(t, p.Queue(nil), ErrNilTask)
}

func TestPool_EventOrder(t *testing.T) {
	p := New(WithWorkers(4))
	rec := newRecorder(p)
	require.NoError(t, p.Start())

	names := []string{"a", "b", "c", "d", "e", "f"}
	for _, n := range names {
		require.NoError(t, p.Queue(task.New(n, func(context.Context, task.ReportFunc) error { return nil })))
	}
	require.NoError(t, p.Stop())
	waitStopped(t, rec)

	for _, n := range names {
		q, f := rec.index("queued:"+n), rec.index("finished:"+n)
		require.NotEqual(t, -1, q, n)
		require.NotEqual(t, -1, f, n)
		assert.Less(t, q, f, n)
		if s := rec.index("started:" + n); s != -1 {
			assert.Less(t, q, s, n)
			assert.Less(t, s, f, n)
		}
	}
}

func TestPool_ErrorAndPanic(t *testing.T) {
	p := New(WithWorkers(1))
	rec := newRecorder(p)
	require.NoError(t, p.Start())

	boom := errors.New("boom")
	require.NoError(t, p.Queue(task.New("fail", func(context.Context, task.ReportFunc) error { return boom })))
	require.NoError(t, p.Queue(task.New("panic", func(context.Context, task.ReportFunc) error { panic("oops") })))
	require.NoError(t, p.Queue(task.New("ok", func(context.Context, task.ReportFunc) error { return nil })))

	require.Eventually(t, func() bool {
		_, ok := rec.result("ok")
		return ok
	}, 2*time.Second, 5*time.Millisecond)

	err, _ := rec.result("fail")
	assert.ErrorIs(t, err, boom)

	err, _ = rec.result("panic")
	var pe *PanicError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "oops", pe.Value)

	err, _ = rec.result("ok")
	assert.NoError(t, err)

	assert.EqualValues(t, 1, p.Stats().Panicked.Load())
	require.NoError(t, p.Stop())
	waitStopped(t, rec)
}

func TestPool_QueueFull(t *testing.T) {
	p := New(WithWorkers(1), WithQueueSize(1))
	rec := newRecorder(p)
	require.NoError(t, p.Start())

	release := make(chan struct{})
	running := make(chan struct{})
	require.NoError(t, p.Queue(task.New("blocker", func(ctx context.Context, _ task.ReportFunc) error {
		close(running)
		<-release
		return nil
	})))
	<-running

	require.NoError(t, p.Queue(task.New("waiting", nil)))
	assert.ErrorIs(t, p.Queue(task.New("rejected", nil)), ErrQueueFull)
	assert.EqualValues(t, 1, p.Stats().Rejected.Load())

	close(release)
	require.NoError(t, p.Stop())
	waitStopped(t, rec)
}

func TestPool_StopCancelsPending(t *testing.T) {
	p := New(WithWorkers(1), WithQueueSize(8))
	rec := newRecorder(p)
	require.NoError(t, p.Start())

	running := make(chan struct{})
	require.NoError(t, p.Queue(task.New("long", func(ctx context.Context, _ task.ReportFunc) error {
		close(running)
		<-ctx.Done()
		return ctx.Err()
	})))
	<-running
	require.NoError(t, p.Queue(task.New("pending", nil)))

	require.NoError(t, p.Stop())
	waitStopped(t, rec)

	err, ok := rec.result("long")
	require.True(t, ok)
	assert.ErrorIs(t, err, context.Canceled)

	err, ok = rec.result("pending")
	require.True(t, ok)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, -1, rec.index("started:pending"))

	rec.mu.Lock()
	assert.Equal(t, 1, rec.stopped)
	rec.mu.Unlock()
}

func TestPool_Unsubscribe(t *testing.T) {
	p := New()
	calls := 0
	unsub := p.OnQueued(func(task.Task) { calls++ })
	done := make(chan struct{})
	p.OnStopped(func() { close(done) })

	require.NoError(t, p.Start())
	require.NoError(t, p.Queue(task.New("one", nil)))
	unsub()
	unsub()
	require.NoError(t, p.Queue(task.New("two", nil)))
	require.NoError(t, p.Stop())
	<-done

	assert.Equal(t, 1, calls)
}

func TestPool_ListenerPanicRecovered(t *testing.T) {
	p := New()
	p.OnQueued(func(task.Task) { panic("listener") })
	rec := newRecorder(p)
	require.NoError(t, p.Start())

	assert.NoError(t, p.Queue(task.New("x", nil)))
	require.NoError(t, p.Stop())
	waitStopped(t, rec)
	assert.NotEqual(t, -1, rec.index("queued:x"))
}
