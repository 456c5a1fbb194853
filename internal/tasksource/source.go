package tasksource

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dshills/toolbox/internal/menu"
)

// MenuRoot is the menu group holding declared tasks without an explicit path.
const MenuRoot = "tasks"

// File is the structure of a tasks file.
type File struct {
	Shell string            `yaml:"shell"`
	Env   map[string]string `yaml:"env"`
	Tasks []Definition      `yaml:"tasks"`
}

// Definition declares one shell task.
type Definition struct {
	Name   string            `yaml:"name"`
	Title  string            `yaml:"title"`
	Menu   string            `yaml:"menu"`
	Dir    string            `yaml:"dir"`
	Env    map[string]string `yaml:"env"`
	Cmds   []string          `yaml:"cmds"`
	Params []ParamDef        `yaml:"params"`
}

// ParamDef declares a task parameter and its default value.
type ParamDef struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Default     string `yaml:"default"`
}

// MenuPath returns the normalized menu path of the definition.
func (d Definition) MenuPath() string {
	if p := menu.Normalize(d.Menu); p != "" {
		return p
	}
	return MenuRoot + menu.Separator + d.Name
}

// MenuText returns the menu label of the definition.
func (d Definition) MenuText() string {
	if d.Title != "" {
		return d.Title
	}
	return d.Name
}

// Validate checks the definition.
func (d Definition) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return ErrEmptyName
	}
	if len(d.Cmds) == 0 {
		return fmt.Errorf("%s: %w", d.Name, ErrNoCommands)
	}
	for _, p := range d.Params {
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("%s: parameter name is empty", d.Name)
		}
	}
	return nil
}

// Source is a validated set of task definitions.
type Source struct {
	path  string
	shell string
	env   map[string]string
	defs  []Definition
	index map[string]int
}

// Load reads a tasks file. A missing file yields an empty source. Like
// Parse, invalid definitions are reported alongside the valid ones.
func Load(path string) (*Source, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &Source{path: path, index: map[string]int{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read tasks %s: %w", path, err)
	}

	s, err := Parse(data)
	if s == nil {
		return nil, fmt.Errorf("tasks %s: %w", path, err)
	}
	s.path = path
	if err != nil {
		return s, fmt.Errorf("tasks %s: %w", path, err)
	}
	return s, nil
}

// Parse decodes and validates tasks file content. Invalid definitions are
// reported together; the valid ones are kept.
func Parse(data []byte) (*Source, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}

	s := &Source{
		shell: f.Shell,
		env:   f.Env,
		index: make(map[string]int, len(f.Tasks)),
	}

	var errs []error
	for _, def := range f.Tasks {
		if err := def.Validate(); err != nil {
			errs = append(errs, err)
			continue
		}
		if _, dup := s.index[def.Name]; dup {
			errs = append(errs, fmt.Errorf("%s: %w", def.Name, ErrDuplicateName))
			continue
		}
		s.index[def.Name] = len(s.defs)
		s.defs = append(s.defs, def)
	}
	return s, errors.Join(errs...)
}

// Path returns the file the source was loaded from.
func (s *Source) Path() string { return s.path }

// Len returns the number of definitions.
func (s *Source) Len() int { return len(s.defs) }

// Definitions returns the definitions in file order.
func (s *Source) Definitions() []Definition {
	out := make([]Definition, len(s.defs))
	copy(out, s.defs)
	return out
}

// Get returns the definition named name.
func (s *Source) Get(name string) (Definition, error) {
	i, ok := s.index[name]
	if !ok {
		return Definition{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return s.defs[i], nil
}

// ByMenuPath returns the definition reachable at the menu path.
func (s *Source) ByMenuPath(path string) (Definition, bool) {
	path = menu.Normalize(path)
	for _, d := range s.defs {
		if d.MenuPath() == path {
			return d, true
		}
	}
	return Definition{}, false
}

// NewTask creates a shell task for the named definition.
func (s *Source) NewTask(name string) (*ShellTask, error) {
	def, err := s.Get(name)
	if err != nil {
		return nil, err
	}
	return NewShellTask(def, WithShell(s.shell), WithEnv(s.env)), nil
}

// AddToMenu adds every definition to the tree.
func (s *Source) AddToMenu(tree *menu.Tree) error {
	var errs []error
	for _, d := range s.defs {
		if err := tree.Add(d.MenuPath(), d.MenuText()); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", d.Name, err))
		}
	}
	return errors.Join(errs...)
}
