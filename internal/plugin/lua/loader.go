package lua

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/dshills/toolbox/internal/plugin"
)

// Discover finds extension directories under root and returns one factory
// per valid manifest, in directory name order. A missing root yields no
// factories. Invalid manifests are skipped and returned joined.
func Discover(root string, opts ...Option) ([]plugin.Factory, error) {
	manifests, err := DiscoverManifests(root)

	factories := make([]plugin.Factory, 0, len(manifests))
	for _, m := range manifests {
		factories = append(factories, Factory(m, opts...))
	}
	return factories, err
}

// DiscoverManifests loads the manifest of every extension directory under root.
func DiscoverManifests(root string) ([]*Manifest, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var (
		manifests []*Manifest
		errs      []error
	)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(root, entry.Name())
		if _, err := os.Stat(filepath.Join(dir, ManifestFile)); err != nil {
			continue
		}
		m, err := LoadManifest(dir)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		manifests = append(manifests, m)
	}
	return manifests, errors.Join(errs...)
}
