package lua

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
	lua "github.com/yuin/gopher-lua"
)

// DefaultExecutionTimeout bounds calls that are not given their own context.
const DefaultExecutionTimeout = 5 * time.Second

// State wraps a sandboxed gopher-lua interpreter.
//
// gopher-lua's LState is not goroutine-safe. State serializes every call with
// a mutex. Task functions get their own State rather than sharing this one.
type State struct {
	mu sync.Mutex
	l  *lua.LState

	executionTimeout time.Duration
	logger           hclog.Logger
	sandbox          *Sandbox
	closed           bool
}

// StateOption configures a State.
type StateOption func(*State)

// WithExecutionTimeout sets the timeout applied by Call and DoFile.
// Zero disables it.
func WithExecutionTimeout(d time.Duration) StateOption {
	return func(s *State) {
		s.executionTimeout = d
	}
}

// WithStateLogger sets the logger that receives script print output.
func WithStateLogger(l hclog.Logger) StateOption {
	return func(s *State) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewState creates a sandboxed interpreter with the base, table, string and
// math libraries.
func NewState(opts ...StateOption) *State {
	s := &State{
		executionTimeout: DefaultExecutionTimeout,
		logger:           hclog.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.l = lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibraries(s.l)
	s.sandbox = NewSandbox(s.l, s.logger)
	s.sandbox.Install()
	return s
}

func openSafeLibraries(L *lua.LState) {
	for _, lib := range []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.LoadLibName, lua.OpenPackage},
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		L.Push(L.NewFunction(lib.fn))
		L.Push(lua.LString(lib.name))
		L.Call(1, 0)
	}
}

// DoFile executes a script file within the execution timeout.
func (s *State) DoFile(path string) error {
	ctx, cancel := s.timeoutContext(context.Background())
	defer cancel()

	return s.Do(ctx, func(L *lua.LState) error {
		return L.DoFile(path)
	})
}

// DoString executes a chunk within the execution timeout.
func (s *State) DoString(code string) error {
	ctx, cancel := s.timeoutContext(context.Background())
	defer cancel()

	return s.Do(ctx, func(L *lua.LState) error {
		return L.DoString(code)
	})
}

// HasFunction reports whether name is a global function.
func (s *State) HasFunction(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	return s.l.GetGlobal(name).Type() == lua.LTFunction
}

// Call calls the global function name within the execution timeout.
func (s *State) Call(name string, args ...lua.LValue) ([]lua.LValue, error) {
	ctx, cancel := s.timeoutContext(context.Background())
	defer cancel()
	return s.CallContext(ctx, name, args...)
}

// CallContext calls the global function name. The call is interrupted when
// ctx is done. Returns an empty slice if the function returns nothing.
func (s *State) CallContext(ctx context.Context, name string, args ...lua.LValue) ([]lua.LValue, error) {
	return s.CallWith(ctx, name, func(*lua.LState) []lua.LValue { return args })
}

// CallWith is like CallContext but builds the arguments with exclusive
// access to the interpreter, so they may include tables and functions.
func (s *State) CallWith(ctx context.Context, name string, build func(L *lua.LState) []lua.LValue) ([]lua.LValue, error) {
	var results []lua.LValue
	err := s.Do(ctx, func(L *lua.LState) error {
		fn := L.GetGlobal(name)
		if fn.Type() != lua.LTFunction {
			return fmt.Errorf("%w: %s", ErrNoFunction, name)
		}

		var args []lua.LValue
		if build != nil {
			args = build(L)
		}

		top := L.GetTop()
		L.Push(fn)
		for _, arg := range args {
			L.Push(arg)
		}
		if err := L.PCall(len(args), lua.MultRet, nil); err != nil {
			return err
		}

		n := L.GetTop() - top
		results = make([]lua.LValue, 0, n)
		for i := 1; i <= n; i++ {
			results = append(results, L.Get(top+i))
		}
		L.Pop(n)
		return nil
	})
	return results, err
}

// Do runs fn with exclusive access to the interpreter. ctx bounds the
// execution of Lua code started by fn.
func (s *State) Do(ctx context.Context, fn func(L *lua.LState) error) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStateClosed
	}
	if ctx != nil {
		s.l.SetContext(ctx)
		defer s.l.RemoveContext()
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
		if err != nil && ctx != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("%w: %v", ErrExecutionTimeout, err)
		}
	}()
	return fn(s.l)
}

// SetGlobal sets a global variable.
func (s *State) SetGlobal(name string, value lua.LValue) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.l.SetGlobal(name, value)
	}
}

// RegisterModule installs funcs as a global table.
func (s *State) RegisterModule(name string, funcs map[string]lua.LGFunction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.l.SetGlobal(name, s.l.SetFuncs(s.l.NewTable(), funcs))
	}
}

// Sandbox returns the sandbox installed in the interpreter.
func (s *State) Sandbox() *Sandbox {
	return s.sandbox
}

// Close releases the interpreter. Further calls return ErrStateClosed.
func (s *State) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.l.Close()
	s.closed = true
	return nil
}

// IsClosed reports whether Close has been called.
func (s *State) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *State) timeoutContext(parent context.Context) (context.Context, context.CancelFunc) {
	if s.executionTimeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, s.executionTimeout)
}
