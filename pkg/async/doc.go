// Package async runs work off the calling goroutine.
//
// Async starts a function and returns a Future whose result is collected with
// Await; WaitAll gathers several futures concurrently.
//
// Poll runs a tick function immediately and then at a fixed interval until it
// reports completion. The returned Poller is a cancellation handle: Stop never
// blocks, so it can be called while holding a lock that the tick also takes.
//
//	p, err := async.Poll(ctx, func(ctx context.Context, attempt int) (bool, error) {
//		st, err := client.MoMoStatus(ctx, ref)
//		if err != nil {
//			return false, err // keep polling
//		}
//		return st.State().Terminal(), nil
//	}, async.WithInterval(3*time.Second), async.WithMaxAttempts(40))
//	if err != nil {
//		return err
//	}
//	defer p.Stop()
//
// Transient tick errors are counted against WithMaxErrors; zero (the default)
// keeps polling forever, as does a zero WithMaxAttempts.
package async
