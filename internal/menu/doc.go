// Package menu builds the command namespace from "a/b/c" path strings.
//
// Paths are split on "/" into non-empty segments. Adding a path walks the
// tree from a synthetic root, creating group nodes as needed, and sets the
// display text of the final node. Adding an existing path updates its text
// in place; children under one parent never share an id.
//
// Generate turns the tree into presentable Items. A node without children is
// an actionable leaf identified by its full path. Activating a leaf emits that
// path to every listener in registration order; listeners switch on the
// path string:
//
//	tree.OnAction(func(path string) {
//	    switch path {
//	    case "file/exit":
//	        app.Shutdown()
//	    }
//	})
package menu
