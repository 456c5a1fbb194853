// Package plugin provides the extension registry for ToolBox.
//
// An extension is any Go value implementing Plugin. At registration time the
// registry probes which capability interfaces the extension satisfies and
// records them in a CapabilitySet. Dispatch is then purely a matter of set
// membership:
//
//	reg := plugin.NewRegistry(plugin.WithLogger(logger))
//	reg.Register(imageviewer.New)
//
//	for _, d := range reg.ByCapability(plugin.CapFileOpen) {
//	    if d.FileOpener().SupportsFileOpen(path) {
//	        ...
//	    }
//	}
//
// # Capabilities
//
//   - CapFileOpen: FileOpener, opens a file into a view
//   - CapPopupMenu: PopupMenuProvider, contributes context menu actions
//   - CapPreference: PreferenceProvider, contributes preference panels and
//     persists a key/value store
//
// An extension that implements CapabilityDeclarer restricts the probed set to
// the roles it declares. Scripted extensions use this because their Go
// adapter implements every interface.
//
// # Lifecycle
//
// Registration happens once at startup. After Freeze the registry rejects
// further registrations and is safe for concurrent reads. There is no
// unregister operation.
package plugin
