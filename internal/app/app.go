package app

import (
	"context"
	"io"
	"sync"
	"sync/atomic"

	"github.com/hashicorp/go-hclog"

	"github.com/dshills/toolbox/internal/config"
	"github.com/dshills/toolbox/internal/dispatch"
	"github.com/dshills/toolbox/internal/loop"
	"github.com/dshills/toolbox/internal/menu"
	"github.com/dshills/toolbox/internal/plugin"
	"github.com/dshills/toolbox/internal/preference"
	"github.com/dshills/toolbox/internal/task"
	"github.com/dshills/toolbox/internal/tasksource"
	"github.com/dshills/toolbox/internal/watch"
	"github.com/dshills/toolbox/internal/workerpool"
)

// Version is the application version.
const Version = "0.1.0"

// Application is the central coordinator and the plugin.Host.
type Application struct {
	cfg    config.Config
	opts   options
	logger hclog.Logger

	loop       *loop.Loop
	registry   *plugin.Registry
	dispatcher *dispatch.Dispatcher
	prefs      *preference.Manager
	pool       *workerpool.Pool
	scheduler  *task.Scheduler
	tasks      *tasksource.Source
	menu       *menu.Tree
	views      *ViewManager
	prompt     *PromptConfigurator

	mu       sync.RWMutex
	ctx      context.Context
	cancel   context.CancelFunc
	watcher  *watch.Watcher
	selected string

	running      atomic.Bool
	shutdownOnce sync.Once
}

var _ plugin.Host = (*Application)(nil)

type options struct {
	logger         hclog.Logger
	factories      []plugin.Factory
	skipDefaults   bool
	in             io.Reader
	out            io.Writer
	configurations map[string]task.ConfiguratorFactory
}

// Option configures an Application.
type Option func(*options)

// WithLogger sets the root logger.
func WithLogger(l hclog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithPlugins registers factories after the built-in image viewer and before
// Lua extensions.
func WithPlugins(factories ...plugin.Factory) Option {
	return func(o *options) {
		o.factories = append(o.factories, factories...)
	}
}

// WithoutDefaultPlugins skips the built-in image viewer.
func WithoutDefaultPlugins() Option {
	return func(o *options) {
		o.skipDefaults = true
	}
}

// WithPrompt enables the line-oriented configuration step for parameterized
// task types, reading from in and writing to out. Informational output of
// menu actions also goes to out.
func WithPrompt(in io.Reader, out io.Writer) Option {
	return func(o *options) {
		o.in = in
		o.out = out
	}
}

// WithOutput sets where menu actions write without enabling prompts.
func WithOutput(out io.Writer) Option {
	return func(o *options) {
		o.out = out
	}
}

// WithConfiguration maps a task type to a configuration step, replacing the
// prompt for that type.
func WithConfiguration(taskType string, f task.ConfiguratorFactory) Option {
	return func(o *options) {
		if o.configurations == nil {
			o.configurations = make(map[string]task.ConfiguratorFactory)
		}
		o.configurations[taskType] = f
	}
}

// New builds the application. Plugin, extension and task file problems are
// logged and do not fail construction.
func New(cfg config.Config, opts ...Option) (*Application, error) {
	o := options{
		logger: hclog.NewNullLogger(),
		out:    io.Discard,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.out == nil {
		o.out = io.Discard
	}

	a := &Application{
		cfg:    cfg,
		opts:   o,
		logger: o.logger,
		views:  NewViewManager(),
		ctx:    context.Background(),
	}
	if err := newBootstrapper(a).bootstrap(); err != nil {
		return nil, err
	}
	return a, nil
}

// SubmitTask implements plugin.Host.
func (a *Application) SubmitTask(t task.Task) (task.SubmitOutcome, error) {
	return a.scheduler.Submit(a.context(), t)
}

// AddView implements plugin.Host.
func (a *Application) AddView(v plugin.View) {
	ov := a.views.Add(v)
	a.logger.Debug("view added", "id", ov.ID, "title", v.Title)
}

// Logger implements plugin.Host.
func (a *Application) Logger() hclog.Logger {
	return a.logger
}

// Post runs fn on the control goroutine.
func (a *Application) Post(fn func()) bool {
	return a.loop.Post(fn)
}

// Config returns the configuration the application was built with.
func (a *Application) Config() config.Config { return a.cfg }

// Registry returns the plugin registry.
func (a *Application) Registry() *plugin.Registry { return a.registry }

// Dispatcher returns the capability dispatcher.
func (a *Application) Dispatcher() *dispatch.Dispatcher { return a.dispatcher }

// Scheduler returns the task scheduler.
func (a *Application) Scheduler() *task.Scheduler { return a.scheduler }

// Table returns the task display sink.
func (a *Application) Table() *task.Table { return a.scheduler.Table() }

// Menu returns the command menu tree.
func (a *Application) Menu() *menu.Tree { return a.menu }

// Tasks returns the declared shell tasks.
func (a *Application) Tasks() *tasksource.Source { return a.tasks }

// Views returns the workspace views.
func (a *Application) Views() *ViewManager { return a.views }

// Preferences returns the preference manager.
func (a *Application) Preferences() *preference.Manager { return a.prefs }

// Select sets the file file/open acts on.
func (a *Application) Select(path string) {
	a.mu.Lock()
	a.selected = path
	a.mu.Unlock()
}

// Selected returns the selected file.
func (a *Application) Selected() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.selected
}

func (a *Application) context() context.Context {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.ctx
}
