package tasksource

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/kballard/go-shellquote"

	"github.com/dshills/toolbox/internal/task"
)

// TaskType is the configuration type of shell tasks.
const TaskType = "shell"

// DefaultShell runs commands when neither the file nor an option names one.
const DefaultShell = "/bin/sh"

var paramPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// ShellTask runs the commands of a definition in sequence.
type ShellTask struct {
	task.ProgressEmitter

	id    string
	def   Definition
	shell string
	env   map[string]string

	mu     sync.RWMutex
	values map[string]string
	output bytes.Buffer
}

var (
	_ task.Task          = (*ShellTask)(nil)
	_ task.Typed         = (*ShellTask)(nil)
	_ task.Parameterized = (*ShellTask)(nil)
)

// ShellOption configures a ShellTask.
type ShellOption func(*ShellTask)

// WithShell sets the shell used with "-c". Empty keeps the default.
func WithShell(shell string) ShellOption {
	return func(t *ShellTask) {
		if shell != "" {
			t.shell = shell
		}
	}
}

// WithEnv adds environment variables below the definition's own.
func WithEnv(env map[string]string) ShellOption {
	return func(t *ShellTask) {
		for k, v := range env {
			if _, ok := t.env[k]; !ok {
				t.env[k] = v
			}
		}
	}
}

// NewShellTask creates a task for def with parameters at their defaults.
func NewShellTask(def Definition, opts ...ShellOption) *ShellTask {
	t := &ShellTask{
		id:     task.NewID(),
		def:    def,
		shell:  DefaultShell,
		env:    make(map[string]string, len(def.Env)),
		values: make(map[string]string, len(def.Params)),
	}
	for k, v := range def.Env {
		t.env[k] = v
	}
	for _, p := range def.Params {
		t.values[p.Name] = p.Default
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// ID implements task.Task.
func (t *ShellTask) ID() string { return t.id }

// Name implements task.Task.
func (t *ShellTask) Name() string { return t.def.MenuText() }

// Type implements task.Typed.
func (t *ShellTask) Type() string { return TaskType }

// Definition returns the definition the task was created from.
func (t *ShellTask) Definition() Definition { return t.def }

// Params implements task.Parameterized.
func (t *ShellTask) Params() []task.Param {
	t.mu.RLock()
	defer t.mu.RUnlock()

	params := make([]task.Param, 0, len(t.def.Params))
	for _, p := range t.def.Params {
		params = append(params, task.Param{
			Name:        p.Name,
			Description: p.Description,
			Value:       t.values[p.Name],
		})
	}
	return params
}

// SetParam implements task.Parameterized.
func (t *ShellTask) SetParam(name, value string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.values[name]; !ok {
		return fmt.Errorf("%w: %s", task.ErrUnknownParam, name)
	}
	t.values[name] = value
	return nil
}

// Commands returns the commands with parameters substituted.
func (t *ShellTask) Commands() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	cmds := make([]string, len(t.def.Cmds))
	for i, c := range t.def.Cmds {
		cmds[i] = t.expand(c)
	}
	return cmds
}

// Output returns the combined output of the commands run so far.
func (t *ShellTask) Output() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.output.String()
}

// Run implements task.Task. The first failing command stops the sequence.
func (t *ShellTask) Run(ctx context.Context) error {
	cmds := t.Commands()
	env := t.environ()

	for i, c := range cmds {
		if err := ctx.Err(); err != nil {
			return err
		}
		t.report(float64(i*100/len(cmds)), c)

		cmd := exec.CommandContext(ctx, t.shell, "-c", c)
		cmd.Dir = t.def.Dir
		cmd.Env = env
		out, err := cmd.CombinedOutput()

		t.mu.Lock()
		t.output.Write(out)
		t.mu.Unlock()

		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return &CommandError{
				Task:    t.def.Name,
				Index:   i,
				Command: c,
				Output:  strings.TrimSpace(string(out)),
				Err:     err,
			}
		}
	}
	t.report(100, "done")
	return nil
}

func (t *ShellTask) report(percent float64, message string) {
	t.Emit(task.Progress{TaskID: t.id, Percent: percent, Message: message})
}

// expand substitutes ${NAME} with the shell-quoted parameter value, so a
// value is always a single word. Unknown names are left untouched for the
// shell. Caller holds t.mu.
func (t *ShellTask) expand(s string) string {
	return paramPattern.ReplaceAllStringFunc(s, func(m string) string {
		name := m[2 : len(m)-1]
		if v, ok := t.values[name]; ok {
			return shellquote.Join(v)
		}
		return m
	})
}

func (t *ShellTask) environ() []string {
	env := os.Environ()
	keys := make([]string, 0, len(t.env))
	for k := range t.env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		env = append(env, k+"="+t.env[k])
	}
	return env
}
