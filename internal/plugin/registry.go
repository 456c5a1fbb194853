package plugin

import (
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"sync"

	"github.com/hashicorp/go-hclog"
)

// Factory constructs exactly one instance of an extension.
type Factory func() (Plugin, error)

// Descriptor is the registry's record of one extension.
// It is created at registration and never mutated.
type Descriptor struct {
	id     string
	plugin Plugin
	caps   CapabilitySet
	order  int

	fileOpener FileOpener
	popupMenu  PopupMenuProvider
	preference PreferenceProvider
	hostBinder HostBinder
}

// ID returns the plugin identity.
func (d *Descriptor) ID() string { return d.id }

// Plugin returns the instantiated extension.
func (d *Descriptor) Plugin() Plugin { return d.plugin }

// Capabilities returns the recorded capability set.
func (d *Descriptor) Capabilities() CapabilitySet { return d.caps }

// Order returns the registration position, starting at zero.
func (d *Descriptor) Order() int { return d.order }

// Has reports whether the plugin implements c.
func (d *Descriptor) Has(c Capability) bool { return d.caps.Has(c) }

// FileOpener returns the file-open view, or nil without CapFileOpen.
func (d *Descriptor) FileOpener() FileOpener { return d.fileOpener }

// PopupMenu returns the popup-menu view, or nil without CapPopupMenu.
func (d *Descriptor) PopupMenu() PopupMenuProvider { return d.popupMenu }

// Preference returns the preference view, or nil without CapPreference.
func (d *Descriptor) Preference() PreferenceProvider { return d.preference }

// HostBinder returns the host binding view, or nil if the plugin never calls back.
func (d *Descriptor) HostBinder() HostBinder { return d.hostBinder }

// Registry owns the instantiated extensions in registration order.
type Registry struct {
	mu     sync.RWMutex
	byID   map[string]*Descriptor
	order  []*Descriptor
	frozen bool
	logger hclog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the registry logger.
func WithLogger(l hclog.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l.Named("registry")
		}
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		byID:   make(map[string]*Descriptor),
		logger: hclog.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register constructs the plugin produced by f and records it.
// Construction failures and panics are reported as *InstantiationError and
// the plugin is not added. A second plugin with an existing identity is
// rejected with ErrAlreadyRegistered; the first registration is kept.
func (r *Registry) Register(f Factory) (*Descriptor, error) {
	if f == nil {
		return nil, r.fail("<nil>", ErrNilFactory)
	}

	name := factoryName(f)
	if r.Frozen() {
		return nil, r.fail(name, ErrRegistryFrozen)
	}

	p, id, err := construct(f)
	if err != nil {
		return nil, r.fail(name, &InstantiationError{Factory: name, Err: err})
	}
	if id == "" {
		return nil, r.fail(name, &InstantiationError{Factory: name, Err: ErrEmptyID})
	}

	d := probe(p, id)

	r.mu.Lock()
	if r.frozen {
		r.mu.Unlock()
		return nil, r.fail(name, ErrRegistryFrozen)
	}
	if _, exists := r.byID[d.id]; exists {
		r.mu.Unlock()
		return nil, r.fail(name, fmt.Errorf("plugin %q: %w", d.id, ErrAlreadyRegistered))
	}
	d.order = len(r.order)
	r.byID[d.id] = d
	r.order = append(r.order, d)
	r.mu.Unlock()

	r.logger.Debug("registered plugin", "plugin", d.id, "capabilities", d.caps.String())
	return d, nil
}

// RegisterAll registers each factory in order. Failures do not stop the
// remaining registrations; they are returned joined.
func (r *Registry) RegisterAll(factories ...Factory) error {
	var errs []error
	for _, f := range factories {
		if _, err := r.Register(f); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("failed to register %d plugins: %w", len(errs), errors.Join(errs...))
	}
	return nil
}

// Freeze ends the registration phase.
func (r *Registry) Freeze() {
	r.mu.Lock()
	r.frozen = true
	r.mu.Unlock()
}

// Frozen reports whether Freeze has been called.
func (r *Registry) Frozen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frozen
}

// All returns every descriptor in registration order.
func (r *Registry) All() []*Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Descriptor, len(r.order))
	copy(out, r.order)
	return out
}

// ByCapability returns the descriptors implementing c in registration order.
func (r *Registry) ByCapability(c Capability) []*Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Descriptor, 0, len(r.order))
	for _, d := range r.order {
		if d.caps.Has(c) {
			out = append(out, d)
		}
	}
	return out
}

// Get returns the descriptor for id.
func (r *Registry) Get(id string) (*Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.byID[id]
	return d, ok
}

// Len returns the number of registered plugins.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

func (r *Registry) fail(factory string, err error) error {
	r.logger.Error("plugin registration failed", "factory", factory, "error", err)
	return err
}

// construct runs the factory, converting panics into errors.
func construct(f Factory) (p Plugin, id string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			p, id, err = nil, "", fmt.Errorf("panic: %v", rec)
		}
	}()
	p, err = f()
	if err != nil {
		return nil, "", err
	}
	if p == nil || isNilValue(p) {
		return nil, "", ErrNilPlugin
	}
	return p, p.ID(), nil
}

// probe records which capability interfaces p satisfies.
func probe(p Plugin, id string) *Descriptor {
	d := &Descriptor{id: id, plugin: p}

	if v, ok := p.(FileOpener); ok {
		d.fileOpener = v
		d.caps = d.caps.With(CapFileOpen)
	}
	if v, ok := p.(PopupMenuProvider); ok {
		d.popupMenu = v
		d.caps = d.caps.With(CapPopupMenu)
	}
	if v, ok := p.(PreferenceProvider); ok {
		d.preference = v
		d.caps = d.caps.With(CapPreference)
	}
	if v, ok := p.(HostBinder); ok {
		d.hostBinder = v
	}

	if decl, ok := p.(CapabilityDeclarer); ok {
		d.caps = d.caps.Intersect(decl.DeclaredCapabilities())
		if !d.caps.Has(CapFileOpen) {
			d.fileOpener = nil
		}
		if !d.caps.Has(CapPopupMenu) {
			d.popupMenu = nil
		}
		if !d.caps.Has(CapPreference) {
			d.preference = nil
		}
	}
	return d
}

func factoryName(f Factory) string {
	if fn := runtime.FuncForPC(reflect.ValueOf(f).Pointer()); fn != nil {
		return fn.Name()
	}
	return "<unknown>"
}

func isNilValue(p Plugin) bool {
	v := reflect.ValueOf(p)
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface, reflect.Chan:
		return v.IsNil()
	}
	return false
}
