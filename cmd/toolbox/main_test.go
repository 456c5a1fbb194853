package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/toolbox/internal/dispatch"
	"github.com/dshills/toolbox/internal/menu"
	"github.com/dshills/toolbox/internal/task"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCommand()
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func baseArgs(dir string) []string {
	return []string{"--config", filepath.Join(dir, "toolbox.toml"), "--data-dir", dir, "--log-level", "off"}
}

func TestMenuCommand(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, "", append([]string{"menu"}, baseArgs(dir)...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "file\n")
	assert.Contains(t, out, "  Open  file/open")
	assert.Contains(t, out, "  About  help/about")
}

func TestMenuCommand_ActivateAbout(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, "", append([]string{"menu", "--activate", "help/about"}, baseArgs(dir)...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "ToolBox 0.1.0")
}

func TestMenuCommand_Unknown(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, "", append([]string{"menu", "--activate", "help/abut"}, baseArgs(dir)...)...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "help/about")
}

func TestRunCommand(t *testing.T) {
	dir := t.TempDir()
	tasks := fmt.Sprintf("tasks:\n  - name: hello\n    dir: %s\n    cmds: [\"echo hi\"]\n", dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tasks.yaml"), []byte(tasks), 0o644))

	out, err := execute(t, "y\n", append([]string{"run", "hello"}, baseArgs(dir)...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Run hello? [Y/n]")
	assert.Contains(t, out, "succeeded")

	out, err = execute(t, "n\n", append([]string{"run", "hello"}, baseArgs(dir)...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "cancelled")

	_, err = execute(t, "", append([]string{"run", "missing"}, baseArgs(dir)...)...)
	assert.Error(t, err)
}

func TestRunCommand_Failure(t *testing.T) {
	dir := t.TempDir()
	tasks := "tasks:\n  - name: broken\n    cmds: [\"exit 1\"]\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tasks.yaml"), []byte(tasks), 0o644))

	out, err := execute(t, "\n", append([]string{"run", "broken"}, baseArgs(dir)...)...)
	assert.ErrorIs(t, err, errTasksFailed)
	assert.Contains(t, out, "failed")
}

func TestOpenCommand_Unhandled(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, "", append([]string{"open", "notes.txt"}, baseArgs(dir)...)...)
	assert.ErrorIs(t, err, dispatch.ErrNoHandler)
	assert.Contains(t, out, "no extension handles notes.txt")
}

func TestPrefsAndPopupCommands(t *testing.T) {
	dir := t.TempDir()

	out, err := execute(t, "", append([]string{"prefs"}, baseArgs(dir)...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "viewer/thumbnail")

	out, err = execute(t, "", append([]string{"popup", "x.png"}, baseArgs(dir)...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Create thumbnail  imageviewer/thumbnail")
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "", append([]string{"version"}, baseArgs(t.TempDir())...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "ToolBox dev")
}

func TestRenderMenu(t *testing.T) {
	tree := menu.NewTree()
	require.NoError(t, tree.Add("a/b", "B"))
	require.NoError(t, tree.Add("a/c", "C"))

	assert.Equal(t, "a\n  B  a/b\n  C  a/c\n", renderMenu(tree.Generate()))
}

func TestRenderTasks(t *testing.T) {
	out := renderTasks([]task.Row{{Name: "thumbnail", State: task.StateRunning, Percent: 57, Message: "scaling"}})
	assert.Contains(t, out, "running")
	assert.Contains(t, out, " 57.0%")
	assert.Contains(t, out, "thumbnail  scaling")
}
