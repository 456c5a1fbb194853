package task

// Pool is the worker-pool collaborator that executes task bodies.
// Callbacks may be invoked from any goroutine.
type Pool interface {
	Start() error

	// Stop requests a cooperative stop and returns without waiting.
	// OnStopped callbacks fire once the pool has drained.
	Stop() error

	Queue(t Task) error

	OnQueued(fn func(Task)) (unsubscribe func())
	OnStarted(fn func(Task)) (unsubscribe func())
	OnFinished(fn func(Task, error)) (unsubscribe func())
	OnStopped(fn func()) (unsubscribe func())
}

// Poster hands closures to the control goroutine.
// Post returns false if the closure will never run.
type Poster interface {
	Post(fn func()) bool
}

// PosterFunc adapts a function to Poster.
type PosterFunc func(fn func()) bool

// Post implements Poster.
func (f PosterFunc) Post(fn func()) bool {
	return f(fn)
}

// InlinePoster runs closures on the calling goroutine. It is only suitable
// when the caller already serializes access to the Table.
var InlinePoster Poster = PosterFunc(func(fn func()) bool {
	fn()
	return true
})
