// Package watch observes a drop folder and reports newly created files.
//
// A Watcher wraps an fsnotify watcher over a single directory. Create and
// write events for a path are coalesced until the file has been quiet for
// the settle delay, then the handler receives the path if it names a
// regular file. Hidden files are ignored.
//
// The handler runs on the watcher's goroutines; callers that need the
// control goroutine post the path onward themselves.
package watch
