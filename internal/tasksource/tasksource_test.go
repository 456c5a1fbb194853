package tasksource

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/toolbox/internal/menu"
	"github.com/dshills/toolbox/internal/task"
)

const sample = `
env:
  GREETING: hello
tasks:
  - name: build
    title: Build project
    cmds:
      - echo building ${PKG}
    params:
      - name: PKG
        description: package pattern
        default: ./...
  - name: deploy
    menu: release/deploy
    cmds:
      - echo one
      - echo two
`

func TestParse(t *testing.T) {
	s, err := Parse([]byte(sample))
	require.NoError(t, err)
	require.Equal(t, 2, s.Len())

	build, err := s.Get("build")
	require.NoError(t, err)
	assert.Equal(t, "tasks/build", build.MenuPath())
	assert.Equal(t, "Build project", build.MenuText())

	deploy, err := s.Get("deploy")
	require.NoError(t, err)
	assert.Equal(t, "release/deploy", deploy.MenuPath())
	assert.Equal(t, "deploy", deploy.MenuText())

	_, err = s.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestParse_InvalidDefinitionsSkipped(t *testing.T) {
	data := `
tasks:
  - name: ok
    cmds: ["true"]
  - name: ""
    cmds: ["true"]
  - name: empty
  - name: ok
    cmds: ["false"]
`
	s, err := Parse([]byte(data))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmptyName)
	assert.ErrorIs(t, err, ErrNoCommands)
	assert.ErrorIs(t, err, ErrDuplicateName)

	require.Equal(t, 1, s.Len())
	def, _ := s.Get("ok")
	assert.Equal(t, []string{"true"}, def.Cmds)
}

func TestParse_Malformed(t *testing.T) {
	_, err := Parse([]byte("tasks: {"))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	s, err := Load(filepath.Join(dir, "tasks.yaml"))
	require.NoError(t, err)
	assert.Zero(t, s.Len())

	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))
	s, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, path, s.Path())
}

func TestSource_AddToMenu(t *testing.T) {
	s, err := Parse([]byte(sample))
	require.NoError(t, err)

	tree := menu.NewTree()
	require.NoError(t, s.AddToMenu(tree))
	assert.ElementsMatch(t, []string{"tasks/build", "release/deploy"}, tree.Leaves())

	def, ok := s.ByMenuPath("/release//deploy")
	require.True(t, ok)
	assert.Equal(t, "deploy", def.Name)
}

func TestShellTask_Params(t *testing.T) {
	s, err := Parse([]byte(sample))
	require.NoError(t, err)
	tk, err := s.NewTask("build")
	require.NoError(t, err)

	assert.Equal(t, TaskType, tk.Type())
	assert.Equal(t, []task.Param{{Name: "PKG", Description: "package pattern", Value: "./..."}}, tk.Params())
	assert.Equal(t, []string{"echo building ./..."}, tk.Commands())

	require.NoError(t, tk.SetParam("PKG", "./cmd/..."))
	assert.Equal(t, []string{"echo building ./cmd/..."}, tk.Commands())
	assert.ErrorIs(t, tk.SetParam("OTHER", "x"), task.ErrUnknownParam)
}

func TestShellTask_UnknownPlaceholderKept(t *testing.T) {
	tk := NewShellTask(Definition{Name: "x", Cmds: []string{"echo ${HOME} ${A}"}, Params: []ParamDef{{Name: "A", Default: "1"}}})
	assert.Equal(t, []string{"echo ${HOME} 1"}, tk.Commands())
}

func TestShellTask_ParamValueIsOneWord(t *testing.T) {
	dir := t.TempDir()
	tk := NewShellTask(Definition{
		Name:   "x",
		Dir:    dir,
		Cmds:   []string{"echo ${A}"},
		Params: []ParamDef{{Name: "A"}},
	})

	values := []string{"a; touch injected", "$(touch injected)", "`touch injected`", "it's | touch injected"}
	for _, v := range values {
		require.NoError(t, tk.SetParam("A", v))
		require.NoError(t, tk.Run(context.Background()), v)
		assert.NoFileExists(t, filepath.Join(dir, "injected"), v)
	}
	assert.Equal(t, strings.Join(values, "\n")+"\n", tk.Output())
}

func TestShellTask_Run(t *testing.T) {
	s, err := Parse([]byte(sample))
	require.NoError(t, err)
	tk, err := s.NewTask("deploy")
	require.NoError(t, err)

	var progress []task.Progress
	tk.OnProgress(func(p task.Progress) { progress = append(progress, p) })

	require.NoError(t, tk.Run(context.Background()))
	assert.Equal(t, "one\ntwo\n", tk.Output())

	require.Len(t, progress, 3)
	assert.Equal(t, 0.0, progress[0].Percent)
	assert.Equal(t, "echo one", progress[0].Message)
	assert.Equal(t, 50.0, progress[1].Percent)
	assert.Equal(t, 100.0, progress[2].Percent)
	for _, p := range progress {
		assert.Equal(t, tk.ID(), p.TaskID)
	}
}

func TestShellTask_Env(t *testing.T) {
	s, err := Parse([]byte(sample))
	require.NoError(t, err)
	def, _ := s.Get("build")
	def.Cmds = []string{"echo $GREETING"}

	tk := NewShellTask(def, WithEnv(map[string]string{"GREETING": "hello"}))
	require.NoError(t, tk.Run(context.Background()))
	assert.Equal(t, "hello\n", tk.Output())
}

func TestShellTask_FailureStopsSequence(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, "marker")
	tk := NewShellTask(Definition{
		Name: "fail",
		Dir:  dir,
		Cmds: []string{"echo boom; exit 3", "touch marker"},
	})

	err := tk.Run(context.Background())
	var cmdErr *CommandError
	require.True(t, errors.As(err, &cmdErr))
	assert.Equal(t, 0, cmdErr.Index)
	assert.Equal(t, "boom", cmdErr.Output)

	_, statErr := os.Stat(marker)
	assert.True(t, os.IsNotExist(statErr))
}

func TestShellTask_Cancelled(t *testing.T) {
	tk := NewShellTask(Definition{Name: "c", Cmds: []string{"true"}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, tk.Run(ctx), context.Canceled)
}
