package watch

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, dir string, opts ...Option) (*Watcher, <-chan string) {
	t.Helper()
	got := make(chan string, 16)
	w, err := New(dir, func(path string) { got <- path }, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { w.Close() })
	return w, got
}

func expectPath(t *testing.T, got <-chan string, want string) {
	t.Helper()
	select {
	case p := <-got:
		assert.Equal(t, want, p)
	case <-time.After(3 * time.Second):
		t.Fatalf("no event for %s", want)
	}
}

func expectNone(t *testing.T, got <-chan string) {
	t.Helper()
	select {
	case p := <-got:
		t.Fatalf("unexpected event for %s", p)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcher_ReportsNewFile(t *testing.T) {
	dir := t.TempDir()
	w, got := collect(t, dir, WithSettle(20*time.Millisecond))

	path := filepath.Join(w.Dir(), "photo.png")
	require.NoError(t, os.WriteFile(path, []byte("data"), 0o644))

	expectPath(t, got, path)
	expectNone(t, got)
}

func TestWatcher_IgnoresHiddenAndDirectories(t *testing.T) {
	dir := t.TempDir()
	_, got := collect(t, dir, WithSettle(10*time.Millisecond))

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".partial"), []byte("x"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

	expectNone(t, got)
}

func TestWatcher_RemovedBeforeSettle(t *testing.T) {
	dir := t.TempDir()
	_, got := collect(t, dir, WithSettle(500*time.Millisecond))

	path := filepath.Join(dir, "gone.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	require.NoError(t, os.Remove(path))

	select {
	case p := <-got:
		t.Fatalf("unexpected event for %s", p)
	case <-time.After(800 * time.Millisecond):
	}
}

func TestWatcher_HandlerPanicRecovered(t *testing.T) {
	dir := t.TempDir()
	got := make(chan string, 4)
	var calls atomic.Int32
	w, err := New(dir, func(path string) {
		n := calls.Add(1)
		got <- path
		if n == 1 {
			panic("boom")
		}
	}, WithSettle(0))
	require.NoError(t, err)
	defer w.Close()

	a := filepath.Join(w.Dir(), "a")
	require.NoError(t, os.WriteFile(a, nil, 0o644))
	expectPath(t, got, a)

	b := filepath.Join(w.Dir(), "b")
	require.NoError(t, os.WriteFile(b, nil, 0o644))
	expectPath(t, got, b)
}

func TestNew_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := New(filepath.Join(dir, "missing"), func(string) {})
	assert.ErrorIs(t, err, ErrPathNotExist)

	file := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	_, err = New(file, func(string) {})
	assert.ErrorIs(t, err, ErrNotDirectory)

	_, err = New(dir, nil)
	assert.ErrorIs(t, err, ErrNilHandler)
}

func TestWatcher_CloseIdempotent(t *testing.T) {
	w, err := New(t.TempDir(), func(string) {})
	require.NoError(t, err)
	require.NoError(t, w.Close())
	assert.NoError(t, w.Close())
}
