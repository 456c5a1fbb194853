// Package app wires the toolbox components into one explicitly constructed
// application context.
//
// New builds, in dependency order, the control loop, the plugin registry
// (the image viewer, caller-supplied factories and Lua extensions), the
// capability dispatcher, preference persistence, the worker pool and task
// scheduler, declared shell tasks and the command menu. The Application is
// the plugin.Host every extension is bound to.
//
// Lifecycle:
//
//	a, err := app.New(cfg, app.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	go a.Run(ctx)      // control goroutine
//	a.Post(func() { a.Activate("file/open") })
//	a.Shutdown()       // stops the pool; teardown persists preferences
//
// Everything that touches the task table, the menu or the views runs on the
// control goroutine, reached through Post. Shutdown is cooperative: the pool
// is asked to stop and teardown runs once, on the control goroutine, after
// the pool reports it stopped.
package app
