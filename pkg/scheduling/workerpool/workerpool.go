package workerpool

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	gferrors "github.com/vnykmshr/scriptflow/pkg/common/errors"
	"github.com/vnykmshr/scriptflow/pkg/logx"
)

// TrySubmit implements Pool.
func (p *workerPool) TrySubmit(task Task) bool {
	if task == nil {
		return false
	}
	if !p.permits.TryAcquire() {
		p.totalRejected.Add(1)
		return false
	}
	if !p.enqueue(task) {
		p.permits.Release()
		p.totalRejected.Add(1)
		return false
	}
	return true
}

// Submit implements Pool.
func (p *workerPool) Submit(ctx context.Context, task Task) error {
	if task == nil {
		return gferrors.NewValidationError("workerpool", "task", nil, "cannot be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	p.mu.RLock()
	closed := p.isShutdown
	p.mu.RUnlock()
	if closed {
		return gferrors.NewOperationError("workerpool", "submit", gferrors.ErrClosed)
	}

	if err := p.permits.Acquire(ctx); err != nil {
		return gferrors.NewOperationError("workerpool", "submit", err)
	}
	if !p.enqueue(task) {
		p.permits.Release()
		return gferrors.NewOperationError("workerpool", "submit", gferrors.ErrClosed)
	}
	return nil
}

// enqueue sends a task the caller already holds a permit for. The channel has
// one slot per permit, so the send never blocks.
func (p *workerPool) enqueue(task Task) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.isShutdown {
		return false
	}
	p.taskQueue <- task
	p.totalSubmitted.Add(1)
	return true
}

// Shutdown implements Pool.
func (p *workerPool) Shutdown() <-chan struct{} {
	p.shutdownOnce.Do(func() {
		p.mu.Lock()
		p.isShutdown = true
		close(p.taskQueue)
		p.mu.Unlock()

		go func() {
			p.workerWg.Wait()
			p.cancel()
			close(p.done)
		}()
	})
	return p.done
}

// Size implements Pool.
func (p *workerPool) Size() int {
	return p.config.WorkerCount
}

// ActiveWorkers implements Pool.
func (p *workerPool) ActiveWorkers() int {
	return int(p.activeWorkers.Load())
}

func (p *workerPool) TotalSubmitted() int64 { return p.totalSubmitted.Load() }
func (p *workerPool) TotalCompleted() int64 { return p.totalCompleted.Load() }
func (p *workerPool) TotalRejected() int64  { return p.totalRejected.Load() }

// worker drains the task queue until it is closed.
func (p *workerPool) worker(id int) {
	defer p.workerWg.Done()
	for task := range p.taskQueue {
		p.execute(id, task)
	}
}

func (p *workerPool) execute(id int, task Task) {
	p.activeWorkers.Add(1)
	start := time.Now()
	var err error

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
			p.handlePanic(task, r)
		}

		p.activeWorkers.Add(-1)
		p.totalCompleted.Add(1)
		p.permits.Release()

		if p.config.OnTaskComplete != nil {
			p.config.OnTaskComplete(Result{
				Task:     task,
				Error:    err,
				Duration: time.Since(start),
				WorkerID: id,
			})
		}
	}()

	ctx := p.ctx
	if p.config.TaskTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.config.TaskTimeout)
		defer cancel()
	}

	err = task.Execute(ctx)
}

func (p *workerPool) handlePanic(task Task, r any) {
	if p.config.PanicHandler != nil {
		p.config.PanicHandler(task, r)
		return
	}
	p.config.Logger.Error("worker task panicked",
		logx.Any("panic", r),
		logx.String("stack", string(debug.Stack())))
}
