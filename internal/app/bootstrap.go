package app

import (
	"github.com/dshills/toolbox/internal/dispatch"
	"github.com/dshills/toolbox/internal/plugins/imageviewer"
	"github.com/dshills/toolbox/internal/loop"
	"github.com/dshills/toolbox/internal/menu"
	"github.com/dshills/toolbox/internal/plugin"
	"github.com/dshills/toolbox/internal/plugin/lua"
	"github.com/dshills/toolbox/internal/preference"
	"github.com/dshills/toolbox/internal/task"
	"github.com/dshills/toolbox/internal/tasksource"
	"github.com/dshills/toolbox/internal/workerpool"
)

// Built-in menu paths.
const (
	MenuOpen        = "file/open"
	MenuPreferences = "file/preferences"
	MenuExit        = "file/exit"
	MenuAbout       = "help/about"
)

// bootstrapper initializes components in dependency order.
type bootstrapper struct {
	app       *Application
	initOrder []string
}

func newBootstrapper(app *Application) *bootstrapper {
	return &bootstrapper{
		app:       app,
		initOrder: make([]string, 0, 8),
	}
}

// bootstrap initializes all components. On failure, already initialized
// components are released.
func (b *bootstrapper) bootstrap() error {
	steps := []struct {
		name string
		fn   func() error
	}{
		{"loop", b.initLoop},
		{"plugins", b.initPlugins},
		{"dispatcher", b.initDispatcher},
		{"preferences", b.initPreferences},
		{"scheduler", b.initScheduler},
		{"tasks", b.initTasks},
		{"menu", b.initMenu},
	}
	for _, s := range steps {
		if err := s.fn(); err != nil {
			b.cleanup()
			return &InitError{Component: s.name, Err: err}
		}
		b.initOrder = append(b.initOrder, s.name)
	}
	return nil
}

func (b *bootstrapper) initLoop() error {
	b.app.loop = loop.New(loop.WithLogger(b.app.logger))
	return nil
}

// initPlugins registers the image viewer, caller factories and discovered Lua
// extensions, in that order, then freezes the registry.
func (b *bootstrapper) initPlugins() error {
	a := b.app
	a.registry = plugin.NewRegistry(plugin.WithLogger(a.logger))

	var factories []plugin.Factory
	if !a.opts.skipDefaults {
		factories = append(factories, imageviewer.New)
	}
	factories = append(factories, a.opts.factories...)

	dir := a.cfg.Resolve(a.cfg.ExtensionDir)
	extensions, err := lua.Discover(dir, lua.WithLogger(a.logger))
	if err != nil {
		a.logger.Warn("invalid extensions skipped", "dir", dir, "error", err)
	}
	factories = append(factories, extensions...)

	if err := a.registry.RegisterAll(factories...); err != nil {
		a.logger.Warn("some plugins were not registered", "error", err)
	}
	a.registry.Freeze()
	a.logger.Info("plugins registered", "count", a.registry.Len())
	return nil
}

func (b *bootstrapper) initDispatcher() error {
	a := b.app
	a.dispatcher = dispatch.New(a.registry, a, dispatch.WithLogger(a.logger))
	a.dispatcher.BindAll()
	return nil
}

func (b *bootstrapper) initPreferences() error {
	a := b.app
	a.prefs = preference.NewManager(a.cfg.DataDir, preference.WithLogger(a.logger))
	a.prefs.LoadAll(a.registry.ByCapability(plugin.CapPreference))
	return nil
}

func (b *bootstrapper) initScheduler() error {
	a := b.app
	a.pool = workerpool.New(
		workerpool.WithWorkers(a.cfg.Pool.Workers),
		workerpool.WithQueueSize(a.cfg.Pool.QueueSize),
		workerpool.WithLogger(a.logger),
	)

	configs := task.NewConfigurations()
	if a.opts.in != nil {
		a.prompt = NewPromptConfigurator(a.opts.in, a.opts.out)
		for _, typ := range []string{imageviewer.TaskType, tasksource.TaskType} {
			if err := configs.Register(typ, a.prompt.Factory()); err != nil {
				return err
			}
		}
	}
	for typ, f := range a.opts.configurations {
		if err := configs.Register(typ, f); err != nil {
			return err
		}
	}

	a.scheduler = task.NewScheduler(a.pool, a.loop,
		task.WithConfigurations(configs),
		task.WithLogger(a.logger),
	)
	a.scheduler.OnTeardown(a.persistPreferences)
	a.scheduler.OnTeardown(a.closePlugins)
	a.scheduler.OnTeardown(a.loop.Close)
	return nil
}

func (b *bootstrapper) initTasks() error {
	a := b.app
	path := a.cfg.Resolve(a.cfg.TasksFile)
	src, err := tasksource.Load(path)
	if err != nil {
		a.logger.Warn("task file problems", "path", path, "error", err)
	}
	if src == nil {
		src, _ = tasksource.Parse(nil)
	}
	a.tasks = src
	return nil
}

func (b *bootstrapper) initMenu() error {
	a := b.app
	a.menu = menu.NewTree()

	builtin := []struct{ path, text string }{
		{MenuOpen, "Open"},
		{MenuPreferences, "Preferences"},
		{MenuExit, "Exit"},
		{MenuAbout, "About"},
	}
	for _, item := range builtin {
		if err := a.menu.Add(item.path, item.text); err != nil {
			return err
		}
	}
	if err := a.tasks.AddToMenu(a.menu); err != nil {
		a.logger.Warn("task menu entries skipped", "error", err)
	}
	a.menu.OnAction(a.handleMenu)
	return nil
}

// cleanup releases what bootstrap created, newest first.
func (b *bootstrapper) cleanup() {
	for i := len(b.initOrder) - 1; i >= 0; i-- {
		switch b.initOrder[i] {
		case "plugins":
			b.app.closePlugins()
		case "loop":
			b.app.loop.Close()
		}
	}
}
