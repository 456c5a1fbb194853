package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dshills/toolbox/internal/plugin"
	"github.com/dshills/toolbox/internal/task"
	"github.com/dshills/toolbox/internal/watch"
)

// Start starts the worker pool and, if configured, the drop-folder watcher.
func (a *Application) Start(ctx context.Context) error {
	if !a.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	runCtx, cancel := context.WithCancel(ctx)
	a.mu.Lock()
	a.ctx, a.cancel = runCtx, cancel
	a.mu.Unlock()

	if err := a.scheduler.Start(); err != nil {
		cancel()
		a.running.Store(false)
		return &InitError{Component: "worker pool", Err: err}
	}

	if dir := a.cfg.Watch.Dir; dir != "" {
		if err := a.Watch(a.cfg.Resolve(dir)); err != nil {
			a.logger.Warn("drop folder disabled", "dir", dir, "error", err)
		}
	}
	a.logger.Info("started", "title", a.cfg.Title, "workers", a.cfg.Pool.Workers)
	return nil
}

// Run starts the application if needed and drives the control goroutine
// until teardown completes. Cancelling ctx shuts the application down.
func (a *Application) Run(ctx context.Context) error {
	if !a.running.Load() {
		if err := a.Start(ctx); err != nil {
			return err
		}
	}

	go func() {
		select {
		case <-ctx.Done():
			a.Shutdown()
		case <-a.scheduler.Done():
		}
	}()

	// The loop is closed by teardown, not by ctx, so teardown closures
	// posted after cancellation still run here.
	return a.loop.Run(context.Background())
}

// Shutdown stops the watcher and asks the pool to stop. Teardown persists
// preferences and closes the loop once the pool reports stopped. Further
// calls do nothing.
func (a *Application) Shutdown() {
	a.shutdownOnce.Do(func() {
		a.logger.Info("shutting down")

		a.mu.Lock()
		w := a.watcher
		a.watcher = nil
		cancel := a.cancel
		a.mu.Unlock()

		if w != nil {
			if err := w.Close(); err != nil {
				a.logger.Warn("close watcher", "error", err)
			}
		}
		if cancel != nil {
			defer cancel()
		}
		a.scheduler.Stop()
	})
}

// Done is closed after teardown completes.
func (a *Application) Done() <-chan struct{} {
	return a.scheduler.Done()
}

// ExitWhenIdle shuts down once every task in the table is terminal. It must
// be called on the control goroutine.
func (a *Application) ExitWhenIdle() {
	check := func() {
		for _, row := range a.Table().Rows() {
			if !row.State.IsTerminal() {
				return
			}
		}
		a.Shutdown()
	}
	a.Table().OnChange(func(task.Row) { check() })
	// Rows of tasks already queued are added by closures posted earlier.
	a.Post(check)
}

// Watch starts reporting files dropped into dir. New files are opened with
// the first matching plugin on the control goroutine.
func (a *Application) Watch(dir string) error {
	w, err := watch.New(dir, func(path string) {
		a.Post(func() { a.openDropped(path) })
	}, watch.WithLogger(a.logger))
	if err != nil {
		return err
	}

	a.mu.Lock()
	prev := a.watcher
	a.watcher = w
	a.mu.Unlock()
	if prev != nil {
		prev.Close()
	}
	return nil
}

// OpenFile opens path with the first plugin that supports it. A false result
// with a nil error means no plugin handles the file.
func (a *Application) OpenFile(path string) (bool, error) {
	handled, err := a.dispatcher.OpenFile(path)
	if !handled {
		a.logger.Info("no handler for file", "path", path)
	}
	return handled, err
}

// PopupMenu returns the combined popup items for path.
func (a *Application) PopupMenu(path string) []plugin.MenuAction {
	return a.dispatcher.PopupMenu(path)
}

// RunAction runs the popup item for path whose id is id, or
// "<plugin>/<id>" when several plugins use the same id.
func (a *Application) RunAction(path, id string) error {
	for _, item := range a.PopupMenu(path) {
		if item.ID == id || item.PluginID+"/"+item.ID == id {
			return item.Run()
		}
	}
	return fmt.Errorf("%w: %s", ErrActionNotFound, id)
}

// PreferenceContributions returns every plugin's preference contributions.
func (a *Application) PreferenceContributions() []plugin.PreferenceContribution {
	return a.dispatcher.Preferences()
}

// RunTask submits the declared task named name.
func (a *Application) RunTask(name string) (task.SubmitOutcome, error) {
	t, err := a.tasks.NewTask(name)
	if err != nil {
		return 0, err
	}
	return a.SubmitTask(t)
}

// Activate activates a menu path.
func (a *Application) Activate(path string) error {
	return a.menu.Activate(path)
}

func (a *Application) handleMenu(path string) {
	var err error
	switch path {
	case MenuOpen:
		err = a.openSelected()
	case MenuPreferences:
		a.printPreferences(a.opts.out)
	case MenuExit:
		a.Shutdown()
	case MenuAbout:
		fmt.Fprintf(a.opts.out, "%s %s\n", a.cfg.Title, Version)
	default:
		def, ok := a.tasks.ByMenuPath(path)
		if !ok {
			a.logger.Debug("unhandled menu path", "path", path)
			return
		}
		_, err = a.RunTask(def.Name)
	}
	if err != nil && !errors.Is(err, task.ErrConfigurationCancelled) {
		a.logger.Error("menu action failed", "path", path, "error", err)
	}
}

func (a *Application) openSelected() error {
	path := a.Selected()
	if path == "" {
		return ErrNoSelection
	}
	_, err := a.OpenFile(path)
	return err
}

func (a *Application) openDropped(path string) {
	handled, err := a.OpenFile(path)
	switch {
	case err != nil:
		a.logger.Error("open dropped file", "path", path, "error", err)
	case handled:
		a.logger.Info("opened dropped file", "path", path)
	}
}

func (a *Application) printPreferences(w io.Writer) {
	for _, c := range a.PreferenceContributions() {
		fmt.Fprintf(w, "%s\t%s\t%s\n", c.Path, c.Title, c.PluginID)
	}
}

func (a *Application) persistPreferences() {
	if err := a.prefs.StoreAll(a.registry.ByCapability(plugin.CapPreference)); err != nil {
		a.logger.Warn("some preferences were not saved", "error", err)
	}
}

func (a *Application) closePlugins() {
	for _, d := range a.registry.All() {
		c, ok := d.Plugin().(io.Closer)
		if !ok {
			continue
		}
		if err := c.Close(); err != nil {
			a.logger.Warn("close plugin", "plugin", d.ID(), "error", err)
		}
	}
}
