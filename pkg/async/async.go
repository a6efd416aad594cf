package async

import "context"

// Future holds the eventual outcome of an operation started with Go or Run.
type Future[T any] struct {
	result T
	err    error
	done   chan struct{}
}

// Await blocks until the operation finishes and returns its outcome.
func (f *Future[T]) Await() (T, error) {
	<-f.done
	return f.result, f.err
}

// AwaitContext blocks until the operation finishes or ctx is done.
// Cancelling ctx only stops the wait; the operation keeps running.
func (f *Future[T]) AwaitContext(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.result, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// IsComplete reports whether the outcome is available without blocking.
func (f *Future[T]) IsComplete() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Go runs fn on its own goroutine. The future resolves only when fn returns,
// so its outcome is exactly what fn reported.
// A context cancelled before fn starts resolves the future with ctx.Err().
func Go[T any](ctx context.Context, fn func(context.Context) (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}

	go func() {
		defer close(f.done)

		if err := ctx.Err(); err != nil {
			f.err = err
			return
		}

		f.result, f.err = fn(ctx)
	}()

	return f
}

// Run is Go for operations that only report an error.
func Run(ctx context.Context, fn func(context.Context) error) *Future[struct{}] {
	return Go(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
}
