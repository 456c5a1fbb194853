// Package lua hosts extensions written in Lua.
//
// Each extension lives in its own directory under the extension root:
//
//	extensions/
//	    markdown/
//	        plugin.toml
//	        main.lua
//
// The manifest names the extension and declares its capabilities:
//
//	id = "markdown"
//	name = "Markdown preview"
//	version = "1.0.0"
//	main = "main.lua"
//	capabilities = ["file-open", "popup-menu"]
//
// The script defines global functions for the declared roles:
//
//	function supports_file_open(path) return path:match("%.md$") ~= nil end
//	function open_file(path) toolbox.add_view(path, "markdown") end
//	function supports_popup_menu(path) return supports_file_open(path) end
//	function popup_menu(path) return { { id = "render", title = "Render" } } end
//	function on_menu(id, path) toolbox.submit("render " .. path, "render") end
//	function render(report) report(100, "done") end
//	function preferences() return { { path = "markdown/render", title = "Render" } } end
//	function load_preferences(prefs) width = prefs["width"] or "80" end
//	function store_preferences() return { width = width } end
//
// The toolbox table gives scripts access to the host: toolbox.log(level,
// msg), toolbox.add_view(title, content) and toolbox.submit(name, fn).
// Submitted functions run on a worker goroutine in a fresh interpreter
// loaded from the same script, so they do not see globals changed by other
// callbacks and cannot call toolbox.add_view or toolbox.submit. They receive
// a report function for progress.
//
// Scripts run in a sandbox without io, os, debug or file loading. A State
// serializes all calls into its interpreter.
package lua
