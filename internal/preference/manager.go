package preference

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/hashicorp/go-hclog"
	"github.com/magiconair/properties"

	"github.com/dshills/toolbox/internal/plugin"
)

// FileName is the name of a plugin's preference file.
const FileName = "preference.properties"

// Path returns the preference file location of plugin id under root.
func Path(root, id string) string {
	return filepath.Join(root, "plugin", id, FileName)
}

// Manager loads and saves plugin preference files under a root directory.
type Manager struct {
	root   string
	logger hclog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the manager logger.
func WithLogger(l hclog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l.Named("preference")
		}
	}
}

// NewManager creates a manager rooted at root.
func NewManager(root string, opts ...Option) *Manager {
	m := &Manager{
		root:   root,
		logger: hclog.NewNullLogger(),
		locks:  make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Root returns the root directory.
func (m *Manager) Root() string {
	return m.root
}

// Load reads the store of plugin id. A missing file yields an empty store.
func (m *Manager) Load(id string) (*Store, error) {
	if id == "" {
		return nil, ErrEmptyID
	}
	unlock := m.lock(id)
	defer unlock()

	path := Path(m.root, id)
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return NewStore(), nil
	}

	loader := &properties.Loader{Encoding: properties.UTF8, DisableExpansion: true}
	p, err := loader.LoadFile(path)
	if err != nil {
		return nil, &FileError{Op: "load", Path: path, Err: err}
	}
	return wrap(p), nil
}

// Save writes store as the preference file of plugin id, creating parent
// directories. The file is replaced atomically.
func (m *Manager) Save(id string, store *Store) error {
	if id == "" {
		return ErrEmptyID
	}
	if store == nil {
		store = NewStore()
	}
	unlock := m.lock(id)
	defer unlock()

	path := Path(m.root, id)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &FileError{Op: "mkdir", Path: dir, Err: err}
	}

	tmp, err := os.CreateTemp(dir, FileName+".*")
	if err != nil {
		return &FileError{Op: "create", Path: path, Err: err}
	}
	tmpName := tmp.Name()

	if _, err := store.WriteTo(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &FileError{Op: "write", Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &FileError{Op: "write", Path: path, Err: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return &FileError{Op: "rename", Path: path, Err: err}
	}
	return nil
}

// LoadAll loads the store of every preference plugin in descs and hands it
// to the plugin. Failures are logged and the plugin receives an empty store.
func (m *Manager) LoadAll(descs []*plugin.Descriptor) {
	for _, d := range descs {
		provider := d.Preference()
		if provider == nil {
			continue
		}
		store, err := m.Load(d.ID())
		if err != nil {
			m.logger.Warn("load preferences failed, using defaults", "plugin", d.ID(), "error", err)
			store = NewStore()
		}
		if err := guard(func() { provider.LoadPreferences(store) }); err != nil {
			m.logger.Error("plugin rejected preferences", "plugin", d.ID(), "error", err)
		}
	}
}

// StoreAll asks every preference plugin in descs to fill a fresh store and
// saves it. Every plugin is attempted; failures are logged and returned joined.
func (m *Manager) StoreAll(descs []*plugin.Descriptor) error {
	var errs []error
	for _, d := range descs {
		provider := d.Preference()
		if provider == nil {
			continue
		}
		store := NewStore()
		if err := guard(func() { provider.StorePreferences(store) }); err != nil {
			m.logger.Error("plugin failed to store preferences", "plugin", d.ID(), "error", err)
			errs = append(errs, fmt.Errorf("plugin %s: %w", d.ID(), err))
			continue
		}
		if err := m.Save(d.ID(), store); err != nil {
			m.logger.Error("save preferences failed", "plugin", d.ID(), "error", err)
			errs = append(errs, err)
			continue
		}
		m.logger.Debug("preferences saved", "plugin", d.ID(), "keys", store.Len())
	}
	return errors.Join(errs...)
}

func (m *Manager) lock(id string) func() {
	m.mu.Lock()
	l, ok := m.locks[id]
	if !ok {
		l = &sync.Mutex{}
		m.locks[id] = l
	}
	m.mu.Unlock()

	l.Lock()
	return l.Unlock
}

func guard(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	fn()
	return nil
}
