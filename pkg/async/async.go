package async

import (
	"context"
	"sync"
)

// Future is the eventual result of a function started with Async.
type Future[U any] struct {
	result U
	err    error
	done   chan struct{}
}

// Await blocks until the function returns.
func (f *Future[U]) Await() (U, error) {
	<-f.done
	return f.result, f.err
}

// Done is closed when the result is available.
func (f *Future[U]) Done() <-chan struct{} {
	return f.done
}

// Async runs fn(ctx, param) in its own goroutine. A context that is already
// cancelled completes the future with ctx.Err() without calling fn.
func Async[T any, U any](ctx context.Context, param T, fn func(context.Context, T) (U, error)) *Future[U] {
	f := &Future[U]{done: make(chan struct{})}

	go func() {
		defer close(f.done)
		if err := ctx.Err(); err != nil {
			f.err = err
			return
		}
		f.result, f.err = fn(ctx, param)
	}()

	return f
}

// WaitAll waits for every future and returns the results in order together
// with each future's error at the same index.
func WaitAll[U any](futures ...*Future[U]) ([]U, []error) {
	results := make([]U, len(futures))
	errs := make([]error, len(futures))

	var wg sync.WaitGroup
	for i, f := range futures {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = f.Await()
		}()
	}
	wg.Wait()
	return results, errs
}
