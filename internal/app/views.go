package app

import (
	"strconv"
	"sync"

	"github.com/dshills/toolbox/internal/plugin"
)

// OpenView is a view added to the workspace by a plugin.
type OpenView struct {
	ID string
	plugin.View
}

// ViewManager tracks the workspace views in open order.
type ViewManager struct {
	mu        sync.RWMutex
	views     map[string]OpenView
	order     []string
	active    string
	counter   int
	listeners []func(OpenView)
}

// NewViewManager creates an empty view manager.
func NewViewManager() *ViewManager {
	return &ViewManager{
		views: make(map[string]OpenView),
	}
}

// Add adds v, makes it active and returns its id.
func (vm *ViewManager) Add(v plugin.View) OpenView {
	vm.mu.Lock()
	vm.counter++
	ov := OpenView{ID: "view-" + strconv.Itoa(vm.counter), View: v}
	vm.views[ov.ID] = ov
	vm.order = append(vm.order, ov.ID)
	vm.active = ov.ID
	listeners := make([]func(OpenView), len(vm.listeners))
	copy(listeners, vm.listeners)
	vm.mu.Unlock()

	for _, fn := range listeners {
		fn(ov)
	}
	return ov
}

// Close removes the view. The most recently opened remaining view becomes
// active.
func (vm *ViewManager) Close(id string) error {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	if _, ok := vm.views[id]; !ok {
		return ErrViewNotFound
	}
	delete(vm.views, id)
	for i, v := range vm.order {
		if v == id {
			vm.order = append(vm.order[:i], vm.order[i+1:]...)
			break
		}
	}
	if vm.active == id {
		vm.active = ""
		if n := len(vm.order); n > 0 {
			vm.active = vm.order[n-1]
		}
	}
	return nil
}

// Active returns the active view.
func (vm *ViewManager) Active() (OpenView, bool) {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	v, ok := vm.views[vm.active]
	return v, ok
}

// Get returns a view by id.
func (vm *ViewManager) Get(id string) (OpenView, bool) {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	v, ok := vm.views[id]
	return v, ok
}

// All returns the views in open order.
func (vm *ViewManager) All() []OpenView {
	vm.mu.RLock()
	defer vm.mu.RUnlock()

	out := make([]OpenView, 0, len(vm.order))
	for _, id := range vm.order {
		out = append(out, vm.views[id])
	}
	return out
}

// Count returns the number of open views.
func (vm *ViewManager) Count() int {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return len(vm.views)
}

// OnAdd registers fn to observe added views.
func (vm *ViewManager) OnAdd(fn func(OpenView)) {
	if fn == nil {
		return
	}
	vm.mu.Lock()
	vm.listeners = append(vm.listeners, fn)
	vm.mu.Unlock()
}
