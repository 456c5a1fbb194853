package lua

import (
	"strings"

	"github.com/hashicorp/go-hclog"
	lua "github.com/yuin/gopher-lua"
)

// blockedGlobals can load or run code from outside the extension script.
var blockedGlobals = []string{"dofile", "loadfile", "load", "loadstring", "module"}

// requireable lists the modules a script may require.
var requireable = map[string]bool{
	"string": true,
	"table":  true,
	"math":   true,
}

// Sandbox restricts what extension scripts can reach.
type Sandbox struct {
	L      *lua.LState
	logger hclog.Logger
}

// NewSandbox creates a sandbox for L. Script print output goes to logger.
func NewSandbox(L *lua.LState, logger hclog.Logger) *Sandbox {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Sandbox{L: L, logger: logger}
}

// Install removes file loading, routes print to the logger and restricts
// require to the safe standard modules.
func (s *Sandbox) Install() {
	for _, name := range blockedGlobals {
		s.L.SetGlobal(name, lua.LNil)
	}
	s.installPrint()
	s.installRequire()
}

// Blocked reports whether name is removed from the script environment.
func (s *Sandbox) Blocked(name string) bool {
	for _, b := range blockedGlobals {
		if b == name {
			return true
		}
	}
	return false
}

func (s *Sandbox) installPrint() {
	s.L.SetGlobal("print", s.L.NewFunction(func(L *lua.LState) int {
		n := L.GetTop()
		parts := make([]string, 0, n)
		for i := 1; i <= n; i++ {
			parts = append(parts, L.ToStringMeta(L.Get(i)).String())
		}
		s.logger.Info(strings.Join(parts, "\t"))
		return 0
	}))
}

func (s *Sandbox) installRequire() {
	if pkg, ok := s.L.GetGlobal("package").(*lua.LTable); ok {
		s.L.SetField(pkg, "path", lua.LString(""))
		s.L.SetField(pkg, "cpath", lua.LString(""))
	}

	original := s.L.GetGlobal("require")
	s.L.SetGlobal("require", s.L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(1)
		if !requireable[name] {
			L.RaiseError("module %q is not available", name)
			return 0
		}
		L.Push(original)
		L.Push(lua.LString(name))
		L.Call(1, 1)
		return 1
	}))
}
