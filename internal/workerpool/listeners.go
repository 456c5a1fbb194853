package workerpool

import "sync"

// listeners is a slot list of callbacks. Unsubscribing nils the slot so
// indexes held by other unsubscribe funcs stay valid.
type listeners[F any] struct {
	mu    sync.RWMutex
	slots []*F
}

func (l *listeners[F]) add(fn F) func() {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := len(l.slots)
	l.slots = append(l.slots, &fn)

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if idx < len(l.slots) {
			l.slots[idx] = nil
		}
	}
}

func (l *listeners[F]) snapshot() []F {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]F, 0, len(l.slots))
	for _, fn := range l.slots {
		if fn != nil {
			out = append(out, *fn)
		}
	}
	return out
}
