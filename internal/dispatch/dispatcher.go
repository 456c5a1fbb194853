package dispatch

import (
	"fmt"
	"sync"

	"github.com/hashicorp/go-hclog"

	"github.com/dshills/toolbox/internal/plugin"
)

// Dispatcher routes files and menu requests to registered plugins.
type Dispatcher struct {
	registry *plugin.Registry
	host     plugin.Host
	logger   hclog.Logger

	mu    sync.Mutex
	bound map[string]struct{}
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the dispatcher logger.
func WithLogger(l hclog.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l.Named("dispatch")
		}
	}
}

// New creates a dispatcher over registry. Plugins implementing
// plugin.HostBinder are bound to host before first use.
func New(registry *plugin.Registry, host plugin.Host, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registry: registry,
		host:     host,
		logger:   hclog.NewNullLogger(),
		bound:    make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// FileHandler returns the first registered file opener accepting path.
func (d *Dispatcher) FileHandler(path string) (*plugin.Descriptor, bool) {
	for _, desc := range d.registry.ByCapability(plugin.CapFileOpen) {
		d.bind(desc)
		if d.predicate(desc, "file-open", func() bool { return desc.FileOpener().SupportsFileOpen(path) }) {
			return desc, true
		}
	}
	return nil, false
}

// OpenFile opens path with the first matching plugin. It returns false
// without error when no plugin claims the file.
func (d *Dispatcher) OpenFile(path string) (bool, error) {
	desc, ok := d.FileHandler(path)
	if !ok {
		d.logger.Debug("no file handler", "path", path)
		return false, nil
	}

	if err := d.call(desc, func() error { return desc.FileOpener().OpenFile(path) }); err != nil {
		return true, &OpenError{PluginID: desc.ID(), Path: path, Err: err}
	}
	d.logger.Debug("file opened", "plugin", desc.ID(), "path", path)
	return true, nil
}

// PopupMenu returns the items of every popup provider accepting path, in
// registration order. Items are neither deduplicated nor sorted.
func (d *Dispatcher) PopupMenu(path string) []plugin.MenuAction {
	var items []plugin.MenuAction
	for _, desc := range d.registry.ByCapability(plugin.CapPopupMenu) {
		d.bind(desc)
		provider := desc.PopupMenu()
		if !d.predicate(desc, "popup-menu", func() bool { return provider.SupportsPopupMenu(path) }) {
			continue
		}

		var contributed []plugin.MenuAction
		if err := d.call(desc, func() error {
			contributed = provider.PopupMenu(path)
			return nil
		}); err != nil {
			d.logger.Error("popup menu failed", "plugin", desc.ID(), "error", err)
			continue
		}
		for _, item := range contributed {
			item.PluginID = desc.ID()
			items = append(items, item)
		}
	}
	return items
}

// Preferences returns every preference contribution in registration order.
func (d *Dispatcher) Preferences() []plugin.PreferenceContribution {
	var out []plugin.PreferenceContribution
	for _, desc := range d.registry.ByCapability(plugin.CapPreference) {
		d.bind(desc)

		var contributed []plugin.PreferenceContribution
		if err := d.call(desc, func() error {
			contributed = desc.Preference().Preferences()
			return nil
		}); err != nil {
			d.logger.Error("preferences failed", "plugin", desc.ID(), "error", err)
			continue
		}
		for _, c := range contributed {
			c.PluginID = desc.ID()
			out = append(out, c)
		}
	}
	return out
}

// BindAll binds the host to every registered plugin.
func (d *Dispatcher) BindAll() {
	for _, desc := range d.registry.All() {
		d.bind(desc)
	}
}

// Bound reports whether the plugin with id has been bound to the host.
func (d *Dispatcher) Bound(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.bound[id]
	return ok
}

// bind hands the host to desc once.
func (d *Dispatcher) bind(desc *plugin.Descriptor) {
	binder := desc.HostBinder()
	if binder == nil || d.host == nil {
		return
	}

	d.mu.Lock()
	if _, ok := d.bound[desc.ID()]; ok {
		d.mu.Unlock()
		return
	}
	d.bound[desc.ID()] = struct{}{}
	d.mu.Unlock()

	if err := d.call(desc, func() error {
		binder.BindHost(d.host)
		return nil
	}); err != nil {
		d.logger.Error("bind host failed", "plugin", desc.ID(), "error", err)
	}
}

// predicate evaluates a support predicate. A panic counts as no match.
func (d *Dispatcher) predicate(desc *plugin.Descriptor, role string, fn func() bool) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("predicate panicked", "plugin", desc.ID(), "role", role, "panic", r)
			ok = false
		}
	}()
	return fn()
}

// call runs a plugin action, converting a panic into an error.
func (d *Dispatcher) call(desc *plugin.Descriptor, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("plugin %s panicked: %v", desc.ID(), r)
		}
	}()
	return fn()
}
