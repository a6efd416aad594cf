// Package async provides a small generic Future used to turn blocking calls
// into values that can be awaited later.
//
// A Future is created by Go (for operations returning a value and an error)
// or Run (for operations returning only an error). The operation runs on its
// own goroutine and the Future resolves strictly after it returns, so a nil
// error from Await always means the operation itself succeeded.
//
// # Usage
//
//	import "github.com/dmitrymomot/sessiontier/pkg/async"
//
//	fut := async.Run(ctx, func(ctx context.Context) error {
//	    return store.Save(ctx, sess)
//	})
//
//	// ... do other work ...
//
//	if _, err := fut.Await(); err != nil {
//	    return err
//	}
//
// AwaitContext bounds only the wait, never the operation; cancelling the operation is the job of the context passed to Go
// or Run.
package async
