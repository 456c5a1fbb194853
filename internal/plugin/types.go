package plugin

import (
	"github.com/hashicorp/go-hclog"

	"github.com/dshills/toolbox/internal/task"
)

// Plugin is the base interface every extension implements.
type Plugin interface {
	// ID returns the stable identity of the extension. It keys the
	// registry and the preference file location.
	ID() string
}

// FileOpener is implemented by plugins that can open files.
type FileOpener interface {
	// SupportsFileOpen reports whether the plugin can open path.
	SupportsFileOpen(path string) bool

	// OpenFile opens path, typically by adding a view to the host.
	OpenFile(path string) error
}

// PopupMenuProvider is implemented by plugins that contribute popup menu items.
type PopupMenuProvider interface {
	// SupportsPopupMenu reports whether the plugin has items for path.
	SupportsPopupMenu(path string) bool

	// PopupMenu returns the ordered items for path.
	PopupMenu(path string) []MenuAction
}

// PreferenceProvider is implemented by plugins with persistent preferences.
type PreferenceProvider interface {
	// Preferences returns the preference panels the plugin contributes.
	Preferences() []PreferenceContribution

	// LoadPreferences reads the plugin's settings from store.
	LoadPreferences(store KeyValueStore)

	// StorePreferences writes the plugin's settings into store.
	StorePreferences(store KeyValueStore)
}

// CapabilityDeclarer restricts the probed capability set to the declared roles.
type CapabilityDeclarer interface {
	DeclaredCapabilities() CapabilitySet
}

// HostBinder is implemented by plugins that call back into the host.
type HostBinder interface {
	BindHost(host Host)
}

// Host is the application context handed to plugins.
type Host interface {
	// SubmitTask submits work for asynchronous execution.
	SubmitTask(t task.Task) (task.SubmitOutcome, error)

	// AddView adds a view to the workspace.
	AddView(view View)

	// Logger returns a logger scoped to the host.
	Logger() hclog.Logger
}

// View is a unit of content a plugin adds to the workspace.
type View struct {
	Title   string
	Tooltip string

	// Content is opaque to the host.
	Content any
}

// MenuAction is a popup menu item contributed by a plugin.
type MenuAction struct {
	// ID identifies the action within its plugin.
	ID string

	// Title is the display label.
	Title string

	// PluginID is filled in by the dispatcher.
	PluginID string

	// Run performs the action.
	Run func() error
}

// PreferenceContribution is one preference panel contributed by a plugin.
type PreferenceContribution struct {
	// Path places the panel in the preference tree (e.g. "viewer/thumbnail").
	Path  string
	Title string

	// Panel is an opaque reference to the panel implementation.
	Panel any

	// PluginID is filled in by the dispatcher.
	PluginID string
}

// KeyValueStore is the persisted settings store of a single plugin.
type KeyValueStore interface {
	Get(key string) (string, bool)
	Set(key, value string)
	Delete(key string)
	Keys() []string
}
