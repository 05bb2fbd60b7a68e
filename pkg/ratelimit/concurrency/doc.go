// Package concurrency provides a counting permit limiter.
//
// The worker pool uses it as its admission gate: TryAcquire never blocks and
// reports whether a worker slot was free, Acquire waits for one.
//
//	limiter, err := concurrency.NewSafe(4)
//	if err != nil {
//		return err
//	}
//	if limiter.TryAcquire() {
//		go func() {
//			defer limiter.Release()
//			work()
//		}()
//	}
package concurrency
