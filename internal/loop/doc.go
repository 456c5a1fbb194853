// Package loop provides the control goroutine of the toolbox.
//
// Every piece of state that is displayed to the user, such as the task
// table, is mutated only from closures posted to a Loop. Posting never
// blocks, so worker goroutines can hand results back without waiting for
// the control goroutine to catch up.
//
//	l := loop.New()
//	go func() { l.Post(func() { table.Update(id, 50, "half") }) }()
//	_ = l.Run(ctx)
package loop
