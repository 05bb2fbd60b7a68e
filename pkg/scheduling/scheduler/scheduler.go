package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	gferrors "github.com/vnykmshr/scriptflow/pkg/common/errors"
	"github.com/vnykmshr/scriptflow/pkg/logx"
	"github.com/vnykmshr/scriptflow/pkg/metrics"
	"github.com/vnykmshr/scriptflow/pkg/scheduling/workerpool"
)

var (
	// ErrTaskExists is returned when scheduling an ID that is already registered.
	ErrTaskExists = errors.New("task already scheduled")

	// ErrTooManyTasks is returned when Config.MaxTasks would be exceeded.
	ErrTooManyTasks = errors.New("maximum number of scheduled tasks reached")
)

const maxIDLength = 255

// Task describes a scheduled entry.
type Task struct {
	ID       string
	NextRun  time.Time
	Interval time.Duration // zero for cron tasks
	CronExpr string
	Created  time.Time
	Runs     int64
	Skipped  int64
}

// Scheduler fires registered tasks on their schedule.
type Scheduler interface {
	ScheduleRepeating(id string, task workerpool.Task, interval time.Duration) error
	ScheduleCron(id string, cronExpr string, task workerpool.Task) error

	Cancel(id string) bool
	CancelAll()
	List() []Task

	Start() error
	Stop() <-chan struct{}
}

// Config holds scheduler configuration.
type Config struct {
	// WorkerPool runs the fired tasks. When nil the scheduler owns a pool of
	// Workers workers and shuts it down on Stop.
	WorkerPool workerpool.Pool

	// Workers sizes the owned pool. Defaults to 1.
	Workers int

	// Location is used to evaluate cron expressions. Defaults to time.Local.
	Location *time.Location

	// TickInterval is how often ready tasks are checked. Defaults to 50ms.
	TickInterval time.Duration

	// MaxTasks caps the number of registered tasks. Defaults to 1000.
	MaxTasks int

	// Name labels scheduler metrics.
	Name string

	Metrics *metrics.Registry
	Logger  logx.Logger

	// Now overrides the wall clock.
	Now func() time.Time
}

type scheduledTask struct {
	id       string
	task     workerpool.Task
	nextRun  time.Time
	interval time.Duration
	cronExpr string
	schedule cron.Schedule
	created  time.Time

	running atomic.Bool
	runs    atomic.Int64
	skipped atomic.Int64
}

type scheduler struct {
	pool         workerpool.Pool
	ownPool      bool
	location     *time.Location
	tickInterval time.Duration
	maxTasks     int
	name         string
	cronParser   cron.Parser
	metrics      *metrics.Registry
	log          logx.Logger
	skipLog      *logx.Throttle
	now          func() time.Time

	mu      sync.RWMutex
	tasks   map[string]*scheduledTask
	running bool
	done    chan struct{}
	loopWg  sync.WaitGroup
}

// New creates a scheduler with default configuration.
func New() Scheduler {
	return NewWithConfig(Config{})
}

// NewWithConfig creates a scheduler with custom configuration.
func NewWithConfig(cfg Config) Scheduler {
	pool := cfg.WorkerPool
	ownPool := false
	if pool == nil {
		workers := cfg.Workers
		if workers <= 0 {
			workers = 1
		}
		pool = workerpool.New(workers)
		ownPool = true
	}

	location := cfg.Location
	if location == nil {
		location = time.Local
	}

	tickInterval := cfg.TickInterval
	if tickInterval <= 0 {
		tickInterval = 50 * time.Millisecond
	}

	maxTasks := cfg.MaxTasks
	if maxTasks <= 0 {
		maxTasks = 1000
	}

	name := cfg.Name
	if name == "" {
		name = "default"
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &scheduler{
		pool:         pool,
		ownPool:      ownPool,
		location:     location,
		tickInterval: tickInterval,
		maxTasks:     maxTasks,
		name:         name,
		cronParser: cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour |
			cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
		metrics: cfg.Metrics,
		log:     cfg.Logger.With(logx.String("comp", "scheduler"), logx.String("scheduler", name)),
		skipLog: logx.NewThrottle(10 * time.Second),
		now:     now,
		tasks:   make(map[string]*scheduledTask),
	}
}

func validateTask(id string, task workerpool.Task) error {
	if id == "" {
		return gferrors.NewValidationError("scheduler", "id", id, "cannot be empty")
	}
	if len(id) > maxIDLength {
		return gferrors.NewValidationError("scheduler", "id", len(id),
			fmt.Sprintf("too long (max %d characters)", maxIDLength))
	}
	if task == nil {
		return gferrors.NewValidationError("scheduler", "task", nil, "cannot be nil")
	}
	return nil
}

func (s *scheduler) ScheduleRepeating(id string, task workerpool.Task, interval time.Duration) error {
	if err := validateTask(id, task); err != nil {
		return err
	}
	if interval <= 0 {
		return gferrors.NewValidationError("scheduler", "interval", interval, "must be positive")
	}

	now := s.now()
	return s.add(&scheduledTask{
		id:       id,
		task:     task,
		nextRun:  now.Add(interval),
		interval: interval,
		created:  now,
	})
}

func (s *scheduler) ScheduleCron(id string, cronExpr string, task workerpool.Task) error {
	if err := validateTask(id, task); err != nil {
		return err
	}
	if cronExpr == "" {
		return gferrors.NewValidationError("scheduler", "cronExpr", cronExpr, "cannot be empty")
	}

	schedule, err := s.cronParser.Parse(cronExpr)
	if err != nil {
		return gferrors.NewValidationError("scheduler", "cronExpr", cronExpr, err.Error()).
			WithHint(`use 5 or 6 fields or a descriptor such as "@every 1s"`)
	}

	now := s.now()
	return s.add(&scheduledTask{
		id:       id,
		task:     task,
		nextRun:  schedule.Next(now.In(s.location)),
		cronExpr: cronExpr,
		schedule: schedule,
		created:  now,
	})
}

func (s *scheduler) add(t *scheduledTask) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[t.id]; exists {
		return gferrors.NewOperationError("scheduler", "schedule", ErrTaskExists).
			WithContext(fmt.Sprintf("id=%s", t.id))
	}
	if len(s.tasks) >= s.maxTasks {
		return gferrors.NewOperationError("scheduler", "schedule", ErrTooManyTasks).
			WithContext(fmt.Sprintf("max=%d", s.maxTasks))
	}

	s.tasks[t.id] = t
	return nil
}

func (s *scheduler) Cancel(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[id]; exists {
		delete(s.tasks, id)
		return true
	}
	return false
}

func (s *scheduler) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tasks = make(map[string]*scheduledTask)
}

func (s *scheduler) List() []Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tasks := make([]Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		tasks = append(tasks, Task{
			ID:       t.id,
			NextRun:  t.nextRun,
			Interval: t.interval,
			CronExpr: t.cronExpr,
			Created:  t.created,
			Runs:     t.runs.Load(),
			Skipped:  t.skipped.Load(),
		})
	}

	sort.Slice(tasks, func(i, j int) bool {
		if tasks[i].NextRun.Equal(tasks[j].NextRun) {
			return tasks[i].ID < tasks[j].ID
		}
		return tasks[i].NextRun.Before(tasks[j].NextRun)
	})

	return tasks
}

func (s *scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return gferrors.NewOperationError("scheduler", "start", errors.New("already running"))
	}

	s.running = true
	s.done = make(chan struct{})
	s.loopWg.Add(1)
	go s.run(s.done)
	return nil
}

func (s *scheduler) Stop() <-chan struct{} {
	s.mu.Lock()
	if s.running {
		s.running = false
		close(s.done)
	}
	s.mu.Unlock()

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		s.loopWg.Wait()
		if s.ownPool {
			<-s.pool.Shutdown()
		}
	}()

	return stopped
}

func (s *scheduler) run(done <-chan struct{}) {
	defer s.loopWg.Done()

	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			s.processReadyTasks(s.now())
		}
	}
}

// processReadyTasks fires every task due at now and advances its next run.
func (s *scheduler) processReadyTasks(now time.Time) {
	s.mu.Lock()
	if len(s.tasks) == 0 {
		s.mu.Unlock()
		return
	}

	ready := make([]*scheduledTask, 0, len(s.tasks))
	for _, t := range s.tasks {
		if now.Before(t.nextRun) {
			continue
		}
		ready = append(ready, t)
		if t.schedule != nil {
			t.nextRun = t.schedule.Next(now.In(s.location))
		} else {
			t.nextRun = now.Add(t.interval)
		}
	}
	s.mu.Unlock()

	for _, t := range ready {
		s.fire(t)
	}
}

func (s *scheduler) fire(t *scheduledTask) {
	if s.metrics != nil {
		s.metrics.SchedulerTicks.WithLabelValues(s.name).Inc()
	}

	if !t.running.CompareAndSwap(false, true) {
		s.skip(t, "previous run still executing")
		return
	}

	ok := s.pool.TrySubmit(workerpool.TaskFunc(func(ctx context.Context) error {
		defer t.running.Store(false)
		t.runs.Add(1)
		return t.task.Execute(ctx)
	}))
	if !ok {
		t.running.Store(false)
		s.skip(t, "worker pool busy")
	}
}

func (s *scheduler) skip(t *scheduledTask, reason string) {
	t.skipped.Add(1)
	if s.metrics != nil {
		s.metrics.SchedulerSkipped.WithLabelValues(s.name).Inc()
	}
	if ok, dropped := s.skipLog.Allow(); ok {
		s.log.Debug("scheduled firing skipped",
			logx.String("task", t.id),
			logx.String("reason", reason),
			logx.Int64("suppressed", dropped))
	}
}
