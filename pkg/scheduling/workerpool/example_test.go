package workerpool_test

import (
	"context"
	"fmt"

	"github.com/vnykmshr/scriptflow/pkg/scheduling/workerpool"
)

func Example() {
	pool := workerpool.New(1)

	done := make(chan struct{})
	accepted := pool.TrySubmit(workerpool.TaskFunc(func(ctx context.Context) error {
		fmt.Println("rendering LCD Status")
		close(done)
		return nil
	}))
	<-done
	<-pool.Shutdown()

	fmt.Println("accepted:", accepted)
	// Output:
	// rendering LCD Status
	// accepted: true
}

func ExamplePool_TrySubmit() {
	pool := workerpool.New(1)
	defer func() { <-pool.Shutdown() }()

	release := make(chan struct{})
	started := make(chan struct{})
	pool.TrySubmit(workerpool.TaskFunc(func(ctx context.Context) error {
		close(started)
		<-release
		return nil
	}))
	<-started

	// The only worker is busy, so the second task is refused immediately.
	fmt.Println(pool.TrySubmit(workerpool.TaskFunc(func(ctx context.Context) error { return nil })))
	close(release)
	// Output: false
}
