package workerpool

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	gferrors "github.com/vnykmshr/scriptflow/pkg/common/errors"
	"github.com/vnykmshr/scriptflow/pkg/logx"
	"github.com/vnykmshr/scriptflow/pkg/ratelimit/concurrency"
)

// Task represents a unit of work that can be executed by a worker.
type Task interface {
	// Execute runs the task. The context is canceled when the pool's
	// TaskTimeout elapses or when a forced shutdown begins.
	Execute(ctx context.Context) error
}

// TaskFunc is a function type that implements the Task interface.
type TaskFunc func(ctx context.Context) error

// Execute implements the Task interface for TaskFunc.
func (f TaskFunc) Execute(ctx context.Context) error {
	return f(ctx)
}

// Result describes one finished task.
type Result struct {
	Task     Task
	Error    error
	Duration time.Duration
	WorkerID int
}

// Pool is a bounded set of workers.
type Pool interface {
	// TrySubmit hands the task to an idle worker without blocking.
	// It returns false when every worker is busy or the pool is shut down.
	TrySubmit(task Task) bool

	// Submit waits until a worker is free or ctx is done.
	Submit(ctx context.Context, task Task) error

	// Shutdown stops admission and returns a channel closed once all
	// in-flight tasks have finished.
	Shutdown() <-chan struct{}

	// Size returns the number of workers in the pool.
	Size() int

	// ActiveWorkers returns the number of workers currently executing tasks.
	ActiveWorkers() int

	TotalSubmitted() int64
	TotalCompleted() int64
	TotalRejected() int64
}

// Config holds configuration options for creating a worker pool.
type Config struct {
	// WorkerCount is the number of workers in the pool. Must be greater than 0.
	WorkerCount int

	// TaskTimeout bounds a single task execution. Zero means no timeout.
	TaskTimeout time.Duration

	// PanicHandler is called when a task panics. If nil, the panic is logged.
	PanicHandler func(task Task, recovered any)

	// OnTaskComplete is called after a task completes (success or failure).
	OnTaskComplete func(result Result)

	// Logger receives panic reports when no PanicHandler is set.
	Logger logx.Logger
}

// workerPool implements the Pool interface.
type workerPool struct {
	config Config

	permits   concurrency.Limiter
	taskQueue chan Task

	ctx    context.Context
	cancel context.CancelFunc

	mu           sync.RWMutex
	isShutdown   bool
	shutdownOnce sync.Once
	done         chan struct{}
	workerWg     sync.WaitGroup

	activeWorkers  atomic.Int64
	totalSubmitted atomic.Int64
	totalCompleted atomic.Int64
	totalRejected  atomic.Int64
}

// New creates a pool with workerCount workers. It panics on invalid input;
// use NewSafe to get an error instead.
func New(workerCount int) Pool {
	return NewWithConfig(Config{WorkerCount: workerCount})
}

// NewWithConfig creates a pool from config. It panics on invalid configuration.
func NewWithConfig(config Config) Pool {
	p, err := NewSafe(config)
	if err != nil {
		panic(err)
	}
	return p
}

// NewSafe creates a pool from config, returning a validation error for bad input.
func NewSafe(config Config) (Pool, error) {
	if config.WorkerCount <= 0 {
		return nil, gferrors.NewValidationError("workerpool", "WorkerCount", config.WorkerCount,
			"must be positive").WithHint("size the pool to the number of scripts that may render at once")
	}
	if config.TaskTimeout < 0 {
		return nil, gferrors.NewValidationError("workerpool", "TaskTimeout", config.TaskTimeout,
			"must not be negative")
	}

	permits, err := concurrency.NewSafe(config.WorkerCount)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &workerPool{
		config:    config,
		permits:   permits,
		taskQueue: make(chan Task, config.WorkerCount),
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}

	for i := 0; i < config.WorkerCount; i++ {
		p.workerWg.Add(1)
		go p.worker(i)
	}

	return p, nil
}
