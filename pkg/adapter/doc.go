// Package adapter wraps the compiler for editors and watch mode.
//
// The Cache keeps built templates and parsed bibliography files keyed by
// path and file version. A lookup whose file changed on disk rebuilds the
// entry; Invalidate drops entries explicitly. The Watcher invalidates and
// recompiles on file system events, debounced:
//
//	a := adapter.New(compiler.New(opts))
//	err := a.Watch(ctx, "study.synp", &cfg.Adapter, func(res *compiler.Result, err error) {
//	    // render diagnostics
//	})
package adapter
