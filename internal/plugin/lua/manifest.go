package lua

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/pelletier/go-toml/v2"

	"github.com/dshills/toolbox/internal/plugin"
)

// ManifestFile is the manifest name inside an extension directory.
const ManifestFile = "plugin.toml"

// Manifest describes a Lua extension.
type Manifest struct {
	ID           string   `toml:"id"`
	Name         string   `toml:"name"`
	Version      string   `toml:"version"`
	Description  string   `toml:"description"`
	Main         string   `toml:"main"`
	Capabilities []string `toml:"capabilities"`

	dir  string
	caps plugin.CapabilitySet
}

// Validation errors.
var (
	ErrMissingID      = errors.New("manifest: id is required")
	ErrInvalidID      = errors.New("manifest: id must be lowercase alphanumeric with hyphens or dots")
	ErrInvalidVersion = errors.New("manifest: version must be valid semver")
	ErrInvalidMain    = errors.New("manifest: main must be a .lua file inside the extension")
	ErrNoCapabilities = errors.New("manifest: at least one capability is required")
)

var (
	idPattern     = regexp.MustCompile(`^[a-z][a-z0-9.-]*[a-z0-9]$|^[a-z]$`)
	semverPattern = regexp.MustCompile(`^\d+\.\d+\.\d+(-[a-zA-Z0-9.-]+)?(\+[a-zA-Z0-9.-]+)?$`)
)

// LoadManifest reads and validates the manifest in dir.
func LoadManifest(dir string) (*Manifest, error) {
	path := filepath.Join(dir, ManifestFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ManifestError{Path: path, Err: err}
	}

	m, err := ParseManifest(data)
	if err != nil {
		return nil, &ManifestError{Path: path, Err: err}
	}
	m.dir = dir
	return m, nil
}

// ParseManifest decodes and validates manifest TOML.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	m.applyDefaults()
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Manifest) applyDefaults() {
	if m.Main == "" {
		m.Main = "main.lua"
	}
	if m.Version == "" {
		m.Version = "0.0.0"
	}
	if m.Name == "" {
		m.Name = m.ID
	}
}

// Validate checks the manifest and resolves its capability set.
func (m *Manifest) Validate() error {
	if m.ID == "" {
		return ErrMissingID
	}
	if !idPattern.MatchString(m.ID) {
		return fmt.Errorf("%w: %s", ErrInvalidID, m.ID)
	}
	if !semverPattern.MatchString(m.Version) {
		return fmt.Errorf("%w: %s", ErrInvalidVersion, m.Version)
	}
	if filepath.Ext(m.Main) != ".lua" || !filepath.IsLocal(m.Main) {
		return fmt.Errorf("%w: %s", ErrInvalidMain, m.Main)
	}
	if len(m.Capabilities) == 0 {
		return ErrNoCapabilities
	}

	var caps plugin.CapabilitySet
	for _, name := range m.Capabilities {
		c, err := plugin.ParseCapability(name)
		if err != nil {
			return fmt.Errorf("manifest: %w", err)
		}
		caps = caps.With(c)
	}
	m.caps = caps
	return nil
}

// CapabilitySet returns the declared capabilities.
func (m *Manifest) CapabilitySet() plugin.CapabilitySet {
	return m.caps
}

// Dir returns the extension directory.
func (m *Manifest) Dir() string {
	return m.dir
}

// MainPath returns the entry script path.
func (m *Manifest) MainPath() string {
	return filepath.Join(m.dir, m.Main)
}
