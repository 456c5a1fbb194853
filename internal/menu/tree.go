package menu

import (
	"strings"
	"sync"

	"github.com/agnivade/levenshtein"
)

// Separator joins path segments.
const Separator = "/"

// node is one segment of the command namespace.
type node struct {
	id       string
	text     string
	children []*node
	index    map[string]*node
}

func newNode(id string) *node {
	return &node{id: id, index: make(map[string]*node)}
}

func (n *node) isLeaf() bool {
	return len(n.children) == 0
}

// label returns the display text, falling back to the id.
func (n *node) label() string {
	if n.text != "" {
		return n.text
	}
	return n.id
}

func (n *node) child(id string) *node {
	if c, ok := n.index[id]; ok {
		return c
	}
	c := newNode(id)
	n.children = append(n.children, c)
	n.index[id] = c
	return c
}

// Item is a generated menu entry.
type Item struct {
	// Label is the node text, or its id when no text was set.
	Label string

	// Path is the full path of the node. For leaves it is the action id.
	Path string

	// Children is empty for leaves.
	Children []Item
}

// IsLeaf reports whether the item is actionable.
func (i Item) IsLeaf() bool {
	return len(i.Children) == 0
}

// Tree is a command namespace. The zero value is not usable; call NewTree.
type Tree struct {
	mu        sync.RWMutex
	root      *node
	listeners []func(string)
}

// NewTree creates an empty tree.
func NewTree() *Tree {
	return &Tree{root: newNode("")}
}

// Split returns the non-empty segments of path.
func Split(path string) []string {
	parts := strings.Split(path, Separator)
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Normalize rejoins the non-empty segments of path.
func Normalize(path string) string {
	return strings.Join(Split(path), Separator)
}

// Add inserts path and sets the text of its final node. Intermediate nodes
// are created as needed; existing nodes are reused.
func (t *Tree) Add(path, text string) error {
	segments := Split(path)
	if len(segments) == 0 {
		return ErrEmptyPath
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	n := t.root
	for _, seg := range segments {
		n = n.child(seg)
	}
	n.text = text
	return nil
}

// Generate converts the tree, excluding the root, into items in insertion order.
func (t *Tree) Generate() []Item {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return generate(t.root, "")
}

func generate(n *node, prefix string) []Item {
	items := make([]Item, 0, len(n.children))
	for _, c := range n.children {
		path := c.id
		if prefix != "" {
			path = prefix + Separator + c.id
		}
		item := Item{Label: c.label(), Path: path}
		if !c.isLeaf() {
			item.Children = generate(c, path)
		}
		items = append(items, item)
	}
	return items
}

// Lookup returns the generated item at path.
func (t *Tree) Lookup(path string) (Item, bool) {
	segments := Split(path)
	if len(segments) == 0 {
		return Item{}, false
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	n := t.find(segments)
	if n == nil {
		return Item{}, false
	}
	full := strings.Join(segments, Separator)
	item := Item{Label: n.label(), Path: full}
	if !n.isLeaf() {
		item.Children = generate(n, full)
	}
	return item, true
}

func (t *Tree) find(segments []string) *node {
	n := t.root
	for _, seg := range segments {
		c, ok := n.index[seg]
		if !ok {
			return nil
		}
		n = c
	}
	return n
}

// Leaves returns the full paths of all leaves in depth-first insertion order.
func (t *Tree) Leaves() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var out []string
	t.eachLeaf(func(path string) { out = append(out, path) })
	return out
}

// eachLeaf requires the read lock.
func (t *Tree) eachLeaf(fn func(path string)) {
	var walk func(n *node, prefix string)
	walk = func(n *node, prefix string) {
		for _, c := range n.children {
			path := c.id
			if prefix != "" {
				path = prefix + Separator + c.id
			}
			if c.isLeaf() {
				fn(path)
				continue
			}
			walk(c, path)
		}
	}
	walk(t.root, "")
}

// OnAction registers fn to receive activated leaf paths.
// Returns a function that removes the listener.
func (t *Tree) OnAction(fn func(path string)) func() {
	if fn == nil {
		return func() {}
	}

	t.mu.Lock()
	t.listeners = append(t.listeners, fn)
	index := len(t.listeners) - 1
	t.mu.Unlock()

	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if index < len(t.listeners) {
			t.listeners[index] = nil
		}
	}
}

// Activate emits the leaf path to every listener, once each, in
// registration order. A listener that panics does not prevent the others
// from running; the first panic is returned as an error.
func (t *Tree) Activate(path string) error {
	segments := Split(path)

	t.mu.RLock()
	var n *node
	if len(segments) > 0 {
		n = t.find(segments)
	}
	if n == nil || !n.isLeaf() {
		t.mu.RUnlock()
		return &UnknownPathError{Path: path, Suggestion: t.suggest(path)}
	}
	listeners := make([]func(string), len(t.listeners))
	copy(listeners, t.listeners)
	t.mu.RUnlock()

	full := strings.Join(segments, Separator)
	var firstErr error
	for _, fn := range listeners {
		if fn == nil {
			continue
		}
		if err := emit(fn, full); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func emit(fn func(string), path string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &ListenerPanicError{Path: path, Value: r}
		}
	}()
	fn(path)
	return nil
}

// Suggest returns the leaf path closest to path, or "" when none is close.
func (t *Tree) Suggest(path string) string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.suggest(path)
}

// suggest requires the read lock.
func (t *Tree) suggest(path string) string {
	target := Normalize(path)
	best, bestDist := "", -1

	t.eachLeaf(func(leaf string) {
		d := levenshtein.ComputeDistance(target, leaf)
		if bestDist < 0 || d < bestDist {
			best, bestDist = leaf, d
		}
	})

	// Every character replaced: nothing in common.
	if bestDist < 0 || bestDist >= len(best) {
		return ""
	}
	return best
}
