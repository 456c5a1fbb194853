package preference

import (
	"io"
	"sync"

	"github.com/magiconair/properties"

	"github.com/dshills/toolbox/internal/plugin"
)

// Store is a plugin.KeyValueStore backed by a properties document.
// Values are stored literally; ${...} references are not expanded.
type Store struct {
	mu    sync.RWMutex
	props *properties.Properties
}

var _ plugin.KeyValueStore = (*Store)(nil)

// NewStore creates an empty store.
func NewStore() *Store {
	p := properties.NewProperties()
	p.DisableExpansion = true
	return &Store{props: p}
}

func wrap(p *properties.Properties) *Store {
	p.DisableExpansion = true
	return &Store{props: p}
}

// Get returns the value for key.
func (s *Store) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.props.Get(key)
}

// GetDefault returns the value for key or def.
func (s *Store) GetDefault(key, def string) string {
	if v, ok := s.Get(key); ok {
		return v
	}
	return def
}

// Set stores value under key.
func (s *Store) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Expansion is disabled, so Set cannot fail on circular references.
	_, _, _ = s.props.Set(key, value)
}

// Delete removes key.
func (s *Store) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.props.Delete(key)
}

// Keys returns the keys in insertion order.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.props.Keys()
}

// Len returns the number of keys.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.props.Len()
}

// Map returns a copy of the contents.
func (s *Store) Map() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.props.Map()
}

// WriteTo writes the store in properties format.
func (s *Store) WriteTo(w io.Writer) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, err := s.props.Write(w, properties.UTF8)
	return int64(n), err
}
