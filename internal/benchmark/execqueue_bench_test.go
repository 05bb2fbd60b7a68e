package benchmark

import (
	"context"
	"strconv"
	"testing"

	"github.com/vnykmshr/scriptflow/pkg/config"
	"github.com/vnykmshr/scriptflow/pkg/execqueue"
	"github.com/vnykmshr/scriptflow/pkg/host"
	"github.com/vnykmshr/scriptflow/pkg/scheduling/workerpool"
	"github.com/vnykmshr/scriptflow/pkg/script"
)

// BenchmarkQueueThroughput measures submit plus dispatch for growing pools.
func BenchmarkQueueThroughput(b *testing.B) {
	for _, workers := range []int{1, 4, 8} {
		b.Run(workerLabel(workers), func(b *testing.B) {
			pool, err := workerpool.NewSafe(workerpool.Config{WorkerCount: workers})
			if err != nil {
				b.Fatalf("failed to create pool: %v", err)
			}
			defer func() { <-pool.Shutdown() }()

			q, err := execqueue.New(execqueue.Config[int]{
				Runner:              execqueue.RunnerFunc[int](func(context.Context, int) error { return nil }),
				Pool:                pool,
				RequeueOnSaturation: true,
			})
			if err != nil {
				b.Fatalf("failed to create queue: %v", err)
			}

			keys := make([]string, 256)
			for i := range keys {
				keys[i] = "script-" + strconv.Itoa(i)
			}

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_ = q.Submit(keys[i%len(keys)], i)
				for q.TryDispatchOne() {
				}
			}
			for q.Pending() > 0 {
				q.TryDispatchOne()
			}
		})
	}
}

// BenchmarkSweep measures discovery and dispatch over a world of entities,
// each carrying one script and one panel.
func BenchmarkSweep(b *testing.B) {
	for _, entities := range []int{10, 100, 1000} {
		b.Run(strconv.Itoa(entities)+"entities", func(b *testing.B) {
			world := host.NewMemoryWorld()
			for i := 0; i < entities; i++ {
				e := script.NewMemoryEntity(int64(i+1), "Base "+strconv.Itoa(i), script.Base)
				e.AddDevice("LCD", "")
				e.AddDevice("Script:LCD", "{{.Entity}} {{datetime}}")
				world.Add(e)
			}

			settings := config.Default()
			settings.Queue.RequeueOnSaturation = true
			eng, err := host.New(host.Config{Settings: settings, World: world})
			if err != nil {
				b.Fatalf("failed to create engine: %v", err)
			}
			defer func() { _ = eng.Close() }()

			ctx := context.Background()

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := eng.Sweep(ctx); err != nil {
					b.Fatal(err)
				}
			}
			b.StopTimer()
			for eng.Queue().Pending() > 0 {
				eng.Drain()
			}
		})
	}
}

func workerLabel(workers int) string {
	return strconv.Itoa(workers) + "workers"
}
