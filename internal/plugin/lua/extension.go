package lua

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/toolbox/internal/plugin"
	"github.com/dshills/toolbox/internal/task"
)

// Script entry points.
const (
	fnSupportsFileOpen  = "supports_file_open"
	fnOpenFile          = "open_file"
	fnSupportsPopupMenu = "supports_popup_menu"
	fnPopupMenu         = "popup_menu"
	fnOnMenu            = "on_menu"
	fnPreferences       = "preferences"
	fnLoadPreferences   = "load_preferences"
	fnStorePreferences  = "store_preferences"
)

// Extension adapts a Lua script to the plugin capability interfaces. It
// implements all of them and narrows its set through DeclaredCapabilities.
type Extension struct {
	manifest *Manifest
	state    *State
	logger   hclog.Logger
	timeout  time.Duration

	mu   sync.RWMutex
	host plugin.Host
}

var (
	_ plugin.FileOpener         = (*Extension)(nil)
	_ plugin.PopupMenuProvider  = (*Extension)(nil)
	_ plugin.PreferenceProvider = (*Extension)(nil)
	_ plugin.CapabilityDeclarer = (*Extension)(nil)
	_ plugin.HostBinder         = (*Extension)(nil)
)

// Option configures extension loading.
type Option func(*options)

type options struct {
	logger  hclog.Logger
	timeout time.Duration
}

// WithLogger sets the parent logger of loaded extensions.
func WithLogger(l hclog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithTimeout sets the execution timeout of script callbacks.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

func buildOptions(opts []Option) options {
	o := options{logger: hclog.NewNullLogger(), timeout: DefaultExecutionTimeout}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Load starts an interpreter for m, installs the toolbox API and runs the
// entry script.
func Load(m *Manifest, opts ...Option) (*Extension, error) {
	o := buildOptions(opts)
	logger := o.logger.Named("lua").With("extension", m.ID)

	e := &Extension{
		manifest: m,
		logger:   logger,
		timeout:  o.timeout,
		state:    NewState(WithExecutionTimeout(o.timeout), WithStateLogger(logger)),
	}
	e.state.RegisterModule("toolbox", map[string]lua.LGFunction{
		"log":      e.apiLog,
		"add_view": e.apiAddView,
		"submit":   e.apiSubmit,
	})

	if err := e.state.DoFile(m.MainPath()); err != nil {
		e.state.Close()
		return nil, &ScriptError{Extension: m.ID, Function: m.Main, Err: err}
	}
	return e, nil
}

// Factory returns a plugin factory that loads m.
func Factory(m *Manifest, opts ...Option) plugin.Factory {
	return func() (plugin.Plugin, error) {
		return Load(m, opts...)
	}
}

// ID implements plugin.Plugin.
func (e *Extension) ID() string { return e.manifest.ID }

// Manifest returns the extension manifest.
func (e *Extension) Manifest() *Manifest { return e.manifest }

// DeclaredCapabilities implements plugin.CapabilityDeclarer.
func (e *Extension) DeclaredCapabilities() plugin.CapabilitySet {
	return e.manifest.CapabilitySet()
}

// BindHost implements plugin.HostBinder.
func (e *Extension) BindHost(h plugin.Host) {
	e.mu.Lock()
	e.host = h
	e.mu.Unlock()
}

// Close releases the interpreter.
func (e *Extension) Close() error {
	return e.state.Close()
}

// SupportsFileOpen implements plugin.FileOpener.
func (e *Extension) SupportsFileOpen(path string) bool {
	return e.predicate(fnSupportsFileOpen, path)
}

// OpenFile implements plugin.FileOpener. The script may return nil and an
// error message to signal failure.
func (e *Extension) OpenFile(path string) error {
	ret, err := e.call(fnOpenFile, lua.LString(path))
	if err != nil {
		return err
	}
	return failure(e.manifest.ID, fnOpenFile, ret)
}

// SupportsPopupMenu implements plugin.PopupMenuProvider.
func (e *Extension) SupportsPopupMenu(path string) bool {
	return e.predicate(fnSupportsPopupMenu, path)
}

// PopupMenu implements plugin.PopupMenuProvider. Each item's action calls
// on_menu(id, path).
func (e *Extension) PopupMenu(path string) []plugin.MenuAction {
	ret, err := e.call(fnPopupMenu, lua.LString(path))
	if err != nil {
		e.logger.Error("popup menu failed", "error", err)
		return nil
	}
	if len(ret) == 0 {
		return nil
	}

	var items []plugin.MenuAction
	for _, rec := range Records(ret[0]) {
		id := rec["id"]
		if id == "" {
			continue
		}
		title := rec["title"]
		if title == "" {
			title = id
		}
		items = append(items, plugin.MenuAction{
			ID:    id,
			Title: title,
			Run: func() error {
				ret, err := e.call(fnOnMenu, lua.LString(id), lua.LString(path))
				if err != nil {
					return err
				}
				return failure(e.manifest.ID, fnOnMenu, ret)
			},
		})
	}
	return items
}

// Preferences implements plugin.PreferenceProvider.
func (e *Extension) Preferences() []plugin.PreferenceContribution {
	ret, err := e.call(fnPreferences)
	if err != nil {
		if !errors.Is(err, ErrNoFunction) {
			e.logger.Error("preferences failed", "error", err)
		}
		return nil
	}
	if len(ret) == 0 {
		return nil
	}

	var out []plugin.PreferenceContribution
	for _, rec := range Records(ret[0]) {
		if rec["path"] == "" {
			continue
		}
		out = append(out, plugin.PreferenceContribution{
			Path:  rec["path"],
			Title: rec["title"],
			Panel: e.manifest.ID,
		})
	}
	return out
}

// LoadPreferences implements plugin.PreferenceProvider. The script receives
// the stored values as a table of strings.
func (e *Extension) LoadPreferences(store plugin.KeyValueStore) {
	values := make(map[string]string)
	for _, k := range store.Keys() {
		if v, ok := store.Get(k); ok {
			values[k] = v
		}
	}

	ctx, cancel := e.state.timeoutContext(context.Background())
	defer cancel()
	_, err := e.state.CallWith(ctx, fnLoadPreferences, func(L *lua.LState) []lua.LValue {
		return []lua.LValue{ToLuaValue(L, values)}
	})
	if err != nil && !errors.Is(err, ErrNoFunction) {
		e.logger.Error("load preferences failed", "error", err)
	}
}

// StorePreferences implements plugin.PreferenceProvider. The script returns
// a table of values to persist.
func (e *Extension) StorePreferences(store plugin.KeyValueStore) {
	ret, err := e.call(fnStorePreferences)
	if err != nil {
		if !errors.Is(err, ErrNoFunction) {
			e.logger.Error("store preferences failed", "error", err)
		}
		return
	}
	if len(ret) == 0 {
		return
	}
	values := StringMap(ret[0])
	for _, k := range SortedKeys(values) {
		store.Set(k, values[k])
	}
}

func (e *Extension) predicate(fn, path string) bool {
	ret, err := e.call(fn, lua.LString(path))
	if err != nil {
		if !errors.Is(err, ErrNoFunction) {
			e.logger.Error("predicate failed", "function", fn, "error", err)
		}
		return false
	}
	return len(ret) > 0 && lua.LVAsBool(ret[0])
}

func (e *Extension) call(fn string, args ...lua.LValue) ([]lua.LValue, error) {
	ret, err := e.state.Call(fn, args...)
	if err != nil {
		return nil, &ScriptError{Extension: e.manifest.ID, Function: fn, Err: err}
	}
	return ret, nil
}

func (e *Extension) boundHost() plugin.Host {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.host
}

// failure converts a (nil, message) script result into an error.
func failure(ext, fn string, ret []lua.LValue) error {
	if len(ret) < 2 || lua.LVAsBool(ret[0]) {
		return nil
	}
	msg := lua.LVAsString(ret[1])
	if msg == "" {
		return nil
	}
	return &ScriptError{Extension: ext, Function: fn, Err: errors.New(msg)}
}

// toolbox.log(level, message)
func (e *Extension) apiLog(L *lua.LState) int {
	level := L.CheckString(1)
	msg := L.CheckString(2)
	switch hclog.LevelFromString(level) {
	case hclog.Trace:
		e.logger.Trace(msg)
	case hclog.Debug:
		e.logger.Debug(msg)
	case hclog.Warn:
		e.logger.Warn(msg)
	case hclog.Error:
		e.logger.Error(msg)
	default:
		e.logger.Info(msg)
	}
	return 0
}

// toolbox.add_view(title, content)
func (e *Extension) apiAddView(L *lua.LState) int {
	title := L.CheckString(1)
	content := ToGoValue(L.Get(2))

	host := e.boundHost()
	if host == nil {
		L.RaiseError("%s", ErrNoHost.Error())
		return 0
	}
	host.AddView(plugin.View{Title: title, Tooltip: e.manifest.Name, Content: content})
	return 0
}

// toolbox.submit(name, fn) returns the submit outcome, or nil and an error
// message. fn is called on a worker with a report(percent, message) function.
func (e *Extension) apiSubmit(L *lua.LState) int {
	name := L.CheckString(1)
	fn := L.CheckString(2)

	host := e.boundHost()
	if host == nil {
		L.Push(lua.LNil)
		L.Push(lua.LString(ErrNoHost.Error()))
		return 2
	}

	t := task.New(name, e.taskBody(fn), task.WithType("lua."+e.manifest.ID))
	outcome, err := host.SubmitTask(t)
	if err != nil {
		L.Push(lua.LNil)
		L.Push(lua.LString(err.Error()))
		return 2
	}
	L.Push(lua.LString(outcome.String()))
	return 1
}

// taskState loads the script into a new interpreter for one task run. The
// control goroutine's state is never held by a worker.
func (e *Extension) taskState() (*State, error) {
	s := NewState(WithExecutionTimeout(e.timeout), WithStateLogger(e.logger))
	s.RegisterModule("toolbox", map[string]lua.LGFunction{
		"log":      e.apiLog,
		"add_view": apiUnavailable,
		"submit":   apiUnavailable,
	})
	if err := s.DoFile(e.manifest.MainPath()); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func apiUnavailable(L *lua.LState) int {
	L.RaiseError("%s", ErrTaskAPI.Error())
	return 0
}

func (e *Extension) taskBody(fn string) task.RunFunc {
	return func(ctx context.Context, report task.ReportFunc) error {
		state, err := e.taskState()
		if err != nil {
			return &ScriptError{Extension: e.manifest.ID, Function: fn, Err: err}
		}
		defer state.Close()

		ret, err := state.CallWith(ctx, fn, func(L *lua.LState) []lua.LValue {
			return []lua.LValue{L.NewFunction(func(L *lua.LState) int {
				report(float64(L.CheckNumber(1)), L.OptString(2, ""))
				return 0
			})}
		})
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("extension %s: task %s: %w", e.manifest.ID, fn, err)
		}
		return failure(e.manifest.ID, fn, ret)
	}
}
