package task

import (
	"sync"
	"time"
)

// Row is one entry of the task display.
type Row struct {
	ID       string
	Name     string
	State    State
	Percent  float64
	Message  string
	Started  time.Time
	Finished time.Time
}

// Table is the display-side record of tasks, keyed by task identity.
// Rows are kept in insertion order and removed only by Remove.
type Table struct {
	mu       sync.RWMutex
	rows     map[string]*Row
	order    []string
	onChange []func(Row)
	now      func() time.Time
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{
		rows: make(map[string]*Row),
		now:  time.Now,
	}
}

// Add inserts a queued row for t. Returns false if the id is already present.
func (tb *Table) Add(t Task) bool {
	if t == nil {
		return false
	}

	tb.mu.Lock()
	if _, exists := tb.rows[t.ID()]; exists {
		tb.mu.Unlock()
		return false
	}
	row := &Row{ID: t.ID(), Name: t.Name(), State: StateQueued}
	tb.rows[row.ID] = row
	tb.order = append(tb.order, row.ID)
	snapshot := *row
	tb.mu.Unlock()

	tb.notify(snapshot)
	return true
}

// Start marks the row as running and records the start time.
func (tb *Table) Start(id string) bool {
	return tb.mutate(id, func(r *Row) bool {
		if !r.State.CanTransition(StateRunning) {
			return false
		}
		r.State = StateRunning
		r.Started = tb.now()
		return true
	})
}

// Finish moves the row to a terminal state and records the end time.
func (tb *Table) Finish(id string, state State) bool {
	if !state.IsTerminal() {
		return false
	}
	return tb.mutate(id, func(r *Row) bool {
		if !r.State.CanTransition(state) {
			return false
		}
		r.State = state
		r.Finished = tb.now()
		if r.Started.IsZero() {
			r.Started = r.Finished
		}
		return true
	})
}

// Update sets the progress of the row with the given id.
// Returns false when no row matches or the row is already terminal.
func (tb *Table) Update(id string, percent float64, message string) bool {
	return tb.mutate(id, func(r *Row) bool {
		if r.State.IsTerminal() {
			return false
		}
		r.Percent = percent
		r.Message = message
		return true
	})
}

// Remove deletes the row with the given id.
func (tb *Table) Remove(id string) bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	if _, exists := tb.rows[id]; !exists {
		return false
	}
	delete(tb.rows, id)
	for i, rid := range tb.order {
		if rid == id {
			tb.order = append(tb.order[:i], tb.order[i+1:]...)
			break
		}
	}
	return true
}

// Get returns a copy of the row with the given id.
func (tb *Table) Get(id string) (Row, bool) {
	tb.mu.RLock()
	defer tb.mu.RUnlock()

	r, ok := tb.rows[id]
	if !ok {
		return Row{}, false
	}
	return *r, true
}

// Rows returns copies of all rows in insertion order.
func (tb *Table) Rows() []Row {
	tb.mu.RLock()
	defer tb.mu.RUnlock()

	out := make([]Row, 0, len(tb.order))
	for _, id := range tb.order {
		out = append(out, *tb.rows[id])
	}
	return out
}

// Len returns the number of rows.
func (tb *Table) Len() int {
	tb.mu.RLock()
	defer tb.mu.RUnlock()
	return len(tb.order)
}

// OnChange registers fn to be called with a copy of every changed row.
// Returns a function that removes the callback.
func (tb *Table) OnChange(fn func(Row)) func() {
	if fn == nil {
		return func() {}
	}

	tb.mu.Lock()
	tb.onChange = append(tb.onChange, fn)
	index := len(tb.onChange) - 1
	tb.mu.Unlock()

	return func() {
		tb.mu.Lock()
		defer tb.mu.Unlock()
		if index < len(tb.onChange) {
			tb.onChange[index] = nil
		}
	}
}

func (tb *Table) mutate(id string, fn func(*Row) bool) bool {
	tb.mu.Lock()
	r, ok := tb.rows[id]
	if !ok || !fn(r) {
		tb.mu.Unlock()
		return false
	}
	snapshot := *r
	tb.mu.Unlock()

	tb.notify(snapshot)
	return true
}

func (tb *Table) notify(row Row) {
	tb.mu.RLock()
	callbacks := make([]func(Row), len(tb.onChange))
	copy(callbacks, tb.onChange)
	tb.mu.RUnlock()

	for _, fn := range callbacks {
		if fn != nil {
			fn(row)
		}
	}
}
