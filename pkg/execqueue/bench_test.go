package execqueue

import (
	"context"
	"strconv"
	"testing"
)

func BenchmarkSubmitDedup(b *testing.B) {
	q, err := New(Config[int]{
		Runner: RunnerFunc[int](func(context.Context, int) error { return nil }),
		Pool:   &manualPool{capacity: 0},
	})
	if err != nil {
		b.Fatal(err)
	}

	ids := make([]string, 256)
	for i := range ids {
		ids[i] = "entity/LCD " + strconv.Itoa(i)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = q.Submit(ids[i%len(ids)], i)
	}
}

func BenchmarkSubmitDispatchRun(b *testing.B) {
	pool := &manualPool{capacity: 64}
	q, err := New(Config[int]{
		Runner: RunnerFunc[int](func(context.Context, int) error { return nil }),
		Pool:   pool,
	})
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = q.Submit(strconv.Itoa(i%64), i)
		q.TryDispatchOne()
		if i%64 == 63 {
			pool.runAll()
		}
	}
	pool.runAll()
}
