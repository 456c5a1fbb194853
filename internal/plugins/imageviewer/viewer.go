package imageviewer

import (
	"fmt"
	"image"
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/hashicorp/go-hclog"

	"github.com/dshills/toolbox/internal/plugin"
)

// Identity and preference keys.
const (
	ID = "imageviewer"

	PrefKeySize = "thumbnail.size"
	DefaultSize = 128
	MinSize     = 16
	MaxSize     = 4096
)

var imagePattern = regexp.MustCompile(`^.*\.(png|jpg|jpeg)$`)

// Info is the view content of an opened image.
type Info struct {
	Path   string
	Format string
	Width  int
	Height int
}

// ThumbnailPanel is the preference panel reference.
type ThumbnailPanel struct {
	Key     string
	Default int
	Min     int
	Max     int
}

// Viewer implements the file-open, popup-menu and preference roles.
type Viewer struct {
	mu   sync.RWMutex
	host plugin.Host
	size int
}

var (
	_ plugin.FileOpener         = (*Viewer)(nil)
	_ plugin.PopupMenuProvider  = (*Viewer)(nil)
	_ plugin.PreferenceProvider = (*Viewer)(nil)
	_ plugin.HostBinder         = (*Viewer)(nil)
)

// New is the plugin factory.
func New() (plugin.Plugin, error) {
	return &Viewer{size: DefaultSize}, nil
}

// ID implements plugin.Plugin.
func (v *Viewer) ID() string { return ID }

// BindHost implements plugin.HostBinder.
func (v *Viewer) BindHost(h plugin.Host) {
	v.mu.Lock()
	v.host = h
	v.mu.Unlock()
}

// ThumbnailSize returns the configured thumbnail edge length.
func (v *Viewer) ThumbnailSize() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.size
}

// IsImage reports whether path names a supported image, by extension.
func IsImage(path string) bool {
	return imagePattern.MatchString(strings.ToLower(filepath.Base(path)))
}

// SupportsFileOpen implements plugin.FileOpener.
func (v *Viewer) SupportsFileOpen(path string) bool {
	return IsImage(path)
}

// OpenFile implements plugin.FileOpener.
func (v *Viewer) OpenFile(path string) error {
	info, err := Describe(path)
	if err != nil {
		return err
	}

	host := v.boundHost()
	if host == nil {
		return ErrNoHost
	}
	host.AddView(plugin.View{
		Title:   filepath.Base(path),
		Tooltip: path,
		Content: info,
	})
	return nil
}

// Describe reads the image header of path.
func Describe(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, err
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return Info{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return Info{Path: path, Format: format, Width: cfg.Width, Height: cfg.Height}, nil
}

// SupportsPopupMenu implements plugin.PopupMenuProvider.
func (v *Viewer) SupportsPopupMenu(path string) bool {
	return IsImage(path)
}

// PopupMenu implements plugin.PopupMenuProvider.
func (v *Viewer) PopupMenu(path string) []plugin.MenuAction {
	return []plugin.MenuAction{
		{
			ID:    "thumbnail",
			Title: "Create thumbnail",
			Run: func() error {
				host := v.boundHost()
				if host == nil {
					return ErrNoHost
				}
				_, err := host.SubmitTask(NewThumbnailTask(path, v.ThumbnailSize()))
				return err
			},
		},
	}
}

// Preferences implements plugin.PreferenceProvider.
func (v *Viewer) Preferences() []plugin.PreferenceContribution {
	return []plugin.PreferenceContribution{
		{
			Path:  "viewer/thumbnail",
			Title: "Thumbnail",
			Panel: ThumbnailPanel{Key: PrefKeySize, Default: DefaultSize, Min: MinSize, Max: MaxSize},
		},
	}
}

// LoadPreferences implements plugin.PreferenceProvider. Invalid sizes fall
// back to the default.
func (v *Viewer) LoadPreferences(store plugin.KeyValueStore) {
	size := DefaultSize
	if raw, ok := store.Get(PrefKeySize); ok {
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil || n < MinSize || n > MaxSize {
			v.logger().Warn("invalid thumbnail size, using default", "value", raw)
		} else {
			size = n
		}
	}

	v.mu.Lock()
	v.size = size
	v.mu.Unlock()
}

// StorePreferences implements plugin.PreferenceProvider.
func (v *Viewer) StorePreferences(store plugin.KeyValueStore) {
	store.Set(PrefKeySize, strconv.Itoa(v.ThumbnailSize()))
}

func (v *Viewer) boundHost() plugin.Host {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.host
}

func (v *Viewer) logger() hclog.Logger {
	if h := v.boundHost(); h != nil {
		return h.Logger().Named(ID)
	}
	return hclog.NewNullLogger()
}
