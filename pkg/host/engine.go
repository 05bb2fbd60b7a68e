package host

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/vnykmshr/scriptflow/pkg/cachestore"
	gferrors "github.com/vnykmshr/scriptflow/pkg/common/errors"
	"github.com/vnykmshr/scriptflow/pkg/config"
	"github.com/vnykmshr/scriptflow/pkg/execqueue"
	"github.com/vnykmshr/scriptflow/pkg/logx"
	"github.com/vnykmshr/scriptflow/pkg/metrics"
	"github.com/vnykmshr/scriptflow/pkg/render"
	"github.com/vnykmshr/scriptflow/pkg/scheduling/scheduler"
	"github.com/vnykmshr/scriptflow/pkg/scheduling/workerpool"
	"github.com/vnykmshr/scriptflow/pkg/script"
)

const (
	sweepTaskID = "sweep"
	drainTaskID = "drain"
)

// schedulerTick is the coarsest scheduler resolution the engine accepts.
const schedulerTick = 50 * time.Millisecond

// ErrAlreadyStarted is returned by Start on a running engine.
var ErrAlreadyStarted = errors.New("engine already started")

// Config wires an Engine. Only World is required.
type Config struct {
	// Settings defaults to config.Default().
	Settings *config.Config

	World World

	// Runner executes jobs. Defaults to a render.Renderer writing into the
	// job's target devices.
	Runner execqueue.Runner[*script.Job]

	// Cache backs the render cache helpers. Built from Settings.Cache when nil.
	Cache cachestore.Store

	// Pool runs jobs. Built from Settings.Pool when nil.
	Pool workerpool.Pool

	// LogService receives Settings.Logging on Reload.
	LogService *logx.Service

	Logger  logx.Logger
	Metrics *metrics.Registry
	Clock   execqueue.Clock
}

// SweepReport summarizes one sweep.
type SweepReport struct {
	ID           string
	Entities     int
	Scripts      int
	Placeholders int
	Dispatched   int
	Errors       int
	Duration     time.Duration
}

// Engine discovers scripts in a World and runs them through an execution queue.
type Engine struct {
	name     string
	world    World
	queue    *execqueue.Queue[*script.Job]
	renderer *render.Renderer
	pool     workerpool.Pool
	ownPool  bool
	cache    cachestore.Store
	ownCache bool
	logSvc   *logx.Service
	log      logx.Logger
	metrics  *metrics.Registry
	clock    execqueue.Clock
	hintLog  *logx.Throttle
	settings atomic.Pointer[config.Config]

	mu         sync.Mutex
	sched      scheduler.Scheduler
	plan       sweepPlan
	drainEvery time.Duration
	runCtx     context.Context
	closed     bool
}

// New builds an Engine and everything it owns.
func New(cfg Config) (*Engine, error) {
	if cfg.World == nil {
		return nil, gferrors.NewValidationError("host", "World", nil, "cannot be nil")
	}
	settings := cfg.Settings
	if settings == nil {
		settings = config.Default()
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if cfg.Clock == nil {
		cfg.Clock = execqueue.SystemClock
	}

	name := settings.Engine.Name
	e := &Engine{
		name:    name,
		world:   cfg.World,
		cache:   cfg.Cache,
		pool:    cfg.Pool,
		logSvc:  cfg.LogService,
		log:     cfg.Logger.With(logx.String("comp", "host"), logx.String("engine", name)),
		metrics: cfg.Metrics,
		clock:   cfg.Clock,
		hintLog: logx.NewThrottle(30 * time.Second),
	}
	e.settings.Store(settings)

	runner := cfg.Runner
	if runner == nil {
		if e.cache == nil {
			cache, err := newCache(settings.Cache, cfg.Clock.Now)
			if err != nil {
				return nil, err
			}
			e.cache, e.ownCache = cache, true
		}
		r, err := render.New(render.Config{
			Name:         name,
			Cache:        e.cache,
			MaxTemplates: settings.Render.MaxTemplates,
			Location:     settings.Location(),
			Now:          cfg.Clock.Now,
			Logger:       cfg.Logger,
			Metrics:      cfg.Metrics,
		})
		if err != nil {
			_ = e.closeCache()
			return nil, err
		}
		e.renderer, runner = r, r
	}

	if e.pool == nil {
		pool, err := workerpool.NewSafe(workerpool.Config{
			WorkerCount: settings.Pool.Workers,
			TaskTimeout: settings.Pool.TaskTimeout.D(),
			Logger:      cfg.Logger,
		})
		if err != nil {
			_ = e.closeCache()
			return nil, err
		}
		if cfg.Metrics != nil {
			pool = workerpool.InstrumentRegistry(pool, name, cfg.Metrics)
		}
		e.pool, e.ownPool = pool, true
	}

	q, err := execqueue.New(execqueue.Config[*script.Job]{
		Name:                  name,
		Runner:                runner,
		Pool:                  e.pool,
		Logger:                cfg.Logger,
		Metrics:               cfg.Metrics,
		Clock:                 cfg.Clock,
		MinIterationInterval:  settings.Queue.MinIterationInterval.D(),
		RequeueOnSaturation:   settings.Queue.RequeueOnSaturation,
		SaturationLogInterval: settings.Queue.SaturationLogInterval.D(),
	})
	if err != nil {
		_ = e.release()
		return nil, err
	}
	e.queue = q
	return e, nil
}

func newCache(cc config.CacheConfig, now func() time.Time) (cachestore.Store, error) {
	if cc.Backend != config.CacheRedis {
		return cachestore.NewMemory(cachestore.MemoryConfig{TTL: cc.TTL.D(), Now: now}), nil
	}
	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    []string{cc.Redis.Addr},
		Password: cc.Redis.Password,
		DB:       cc.Redis.DB,
	})
	store, err := cachestore.NewRedis(cachestore.RedisConfig{
		Redis:       client,
		Prefix:      cc.Redis.Prefix,
		TTL:         cc.TTL.D(),
		Timeout:     cc.Redis.Timeout.D(),
		CloseClient: true,
	})
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	return store, nil
}

// Sweep discovers every script in the world, submits the jobs and
// dispatches as many as the pool accepts.
func (e *Engine) Sweep(ctx context.Context) (SweepReport, error) {
	start := e.clock.Now()
	rep := SweepReport{ID: uuid.NewString()}
	log := e.log.With(logx.String("sweep", rep.ID))

	entities, err := e.world.Entities(ctx)
	if err != nil {
		return rep, gferrors.NewOperationError("host", "sweep", err).WithContext("listing entities")
	}

	found := make([][]*script.Job, len(entities))
	var failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.settings.Load().Engine.DiscoveryParallelism)
	for i, ent := range entities {
		if !ent.Type().Scriptable() {
			continue
		}
		rep.Entities++
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			jobs, err := script.Discover(ent)
			if err != nil {
				failed.Add(1)
				log.Debug("script discovery failed", logx.Int64("entity", ent.ID()), logx.Err(err))
			}
			found[i] = jobs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return rep, err
	}
	rep.Errors = int(failed.Load())

	for _, jobs := range found {
		for _, job := range jobs {
			if job.IsPlaceholder() {
				rep.Placeholders++
			} else {
				rep.Scripts++
				e.reportUnresolved(log, job)
			}
			if err := e.queue.Submit(job.ID, job); err != nil {
				rep.Errors++
				log.Debug("submit failed", logx.String("id", job.ID), logx.Err(err))
			}
		}
	}
	e.queue.SetExpectedPerCycle(int64(rep.Scripts))

	rep.Dispatched = e.Drain()
	rep.Duration = e.clock.Now().Sub(start)

	if e.metrics != nil {
		e.metrics.Sweeps.WithLabelValues(e.name).Inc()
		e.metrics.SweepScripts.WithLabelValues(e.name).Set(float64(rep.Scripts))
		e.metrics.SweepDuration.WithLabelValues(e.name).Observe(rep.Duration.Seconds())
	}
	log.Trace("sweep finished",
		logx.Int("entities", rep.Entities),
		logx.Int("scripts", rep.Scripts),
		logx.Int("dispatched", rep.Dispatched),
		logx.Duration("took", rep.Duration))
	return rep, nil
}

func (e *Engine) reportUnresolved(log logx.Logger, job *script.Job) {
	if len(job.Unresolved) == 0 {
		return
	}
	ok, suppressed := e.hintLog.Allow()
	if !ok {
		return
	}
	names := job.Entity.DeviceNames()
	for _, want := range job.Unresolved {
		fields := []logx.Field{
			logx.String("id", job.ID),
			logx.String("target", want),
			logx.Int64("suppressed", suppressed),
		}
		if s := script.Suggest(want, names); s != "" {
			fields = append(fields, logx.String("suggestion", s))
		}
		log.Warn("script target not found", fields...)
	}
}

// Drain dispatches queued jobs until the queue is empty or the pool is full
// and returns how many were handed to the pool.
func (e *Engine) Drain() int {
	n := 0
	for e.queue.TryDispatchOne() {
		n++
	}
	return n
}

// Start sweeps on the configured schedule until Stop, Close or ctx is done.
// Between sweeps queued jobs are offered to idle workers every
// Engine.DrainInterval.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return gferrors.ErrClosed
	}
	if e.sched != nil {
		return ErrAlreadyStarted
	}

	settings := e.settings.Load()
	drain := settings.Engine.DrainInterval.D()
	tick := schedulerTick
	if drain > 0 && drain < tick {
		tick = drain
	}
	// One worker each for the sweep and the drain task.
	s := scheduler.NewWithConfig(scheduler.Config{
		Workers:      2,
		Name:         e.name,
		Location:     settings.Location(),
		TickInterval: tick,
		Metrics:      e.metrics,
		Logger:       e.log,
	})
	plan := planOf(settings)
	if err := plan.register(s, e.sweepTask(ctx)); err != nil {
		<-s.Stop()
		return err
	}
	if err := e.registerDrain(ctx, s, drain); err != nil {
		<-s.Stop()
		return err
	}
	if err := s.Start(); err != nil {
		<-s.Stop()
		return err
	}

	e.sched, e.plan, e.drainEvery, e.runCtx = s, plan, drain, ctx
	e.log.Info("engine started",
		logx.String("schedule", plan.String()),
		logx.Duration("drain", drain))
	return nil
}

func (e *Engine) registerDrain(ctx context.Context, s scheduler.Scheduler, every time.Duration) error {
	if every <= 0 {
		return nil
	}
	return s.ScheduleRepeating(drainTaskID, workerpool.TaskFunc(func(context.Context) error {
		if ctx.Err() == nil {
			e.Drain()
		}
		return nil
	}), every)
}

func (e *Engine) sweepTask(ctx context.Context) workerpool.Task {
	return workerpool.TaskFunc(func(context.Context) error {
		if ctx.Err() != nil {
			return nil
		}
		if _, err := e.Sweep(ctx); err != nil && ctx.Err() == nil {
			e.log.Warn("sweep failed", logx.Err(err))
			return err
		}
		return nil
	})
}

// sweepPlan is either a cron expression or a fixed interval.
type sweepPlan struct {
	cron  string
	every time.Duration
}

func planOf(settings *config.Config) sweepPlan {
	if settings.Engine.SweepCron != "" {
		return sweepPlan{cron: settings.Engine.SweepCron}
	}
	return sweepPlan{every: settings.Engine.SweepInterval.D()}
}

func (p sweepPlan) String() string {
	if p.cron != "" {
		return p.cron
	}
	return "@every " + p.every.String()
}

func (p sweepPlan) register(s scheduler.Scheduler, task workerpool.Task) error {
	if p.cron != "" {
		return s.ScheduleCron(sweepTaskID, p.cron, task)
	}
	return s.ScheduleRepeating(sweepTaskID, task, p.every)
}

// Running reports whether the sweep schedule is active.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sched != nil
}

// Stop ends the sweep schedule and waits for a sweep in progress. Jobs
// already dispatched keep running.
func (e *Engine) Stop() {
	e.mu.Lock()
	s := e.sched
	e.sched, e.plan, e.drainEvery, e.runCtx = nil, sweepPlan{}, 0, nil
	e.mu.Unlock()

	if s != nil {
		<-s.Stop()
		e.log.Info("engine stopped")
	}
}

// Close stops the engine and releases the pool and cache it owns.
func (e *Engine) Close() error {
	e.Stop()

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.mu.Unlock()

	return e.release()
}

func (e *Engine) release() error {
	if e.ownPool {
		<-e.pool.Shutdown()
	}
	return e.closeCache()
}

func (e *Engine) closeCache() error {
	if e.ownCache && e.cache != nil {
		return e.cache.Close()
	}
	return nil
}

// Reload applies cfg to the running engine: log level, saturation mode,
// discovery parallelism, the drain interval and the sweep schedule. Pool,
// cache and render settings take effect on the next New.
func (e *Engine) Reload(cfg *config.Config) error {
	if cfg == nil {
		return gferrors.NewValidationError("host", "config", nil, "cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	prev := e.settings.Swap(cfg)

	e.queue.SetRequeueOnSaturation(cfg.Queue.RequeueOnSaturation)
	if e.logSvc != nil {
		e.logSvc.Apply(cfg.Logging)
	}
	if prev.Pool != cfg.Pool || prev.Cache != cfg.Cache || prev.Render != cfg.Render {
		e.log.Info("pool, cache and render changes apply after restart")
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sched == nil {
		return nil
	}
	if drain := cfg.Engine.DrainInterval.D(); drain != e.drainEvery {
		e.sched.Cancel(drainTaskID)
		if err := e.registerDrain(e.runCtx, e.sched, drain); err != nil {
			return err
		}
		e.drainEvery = drain
	}
	plan := planOf(cfg)
	if plan == e.plan {
		return nil
	}
	e.sched.Cancel(sweepTaskID)
	if err := plan.register(e.sched, e.sweepTask(e.runCtx)); err != nil {
		// Keep sweeping on the old schedule.
		_ = e.plan.register(e.sched, e.sweepTask(e.runCtx))
		return err
	}
	e.log.Info("sweep schedule changed", logx.String("from", e.plan.String()), logx.String("to", plan.String()))
	e.plan = plan
	return nil
}

// WatchConfig applies every document received on updates until ctx is done
// or updates is closed.
func (e *Engine) WatchConfig(ctx context.Context, updates <-chan *config.Config) {
	for {
		select {
		case <-ctx.Done():
			return
		case cfg, ok := <-updates:
			if !ok {
				return
			}
			if err := e.Reload(cfg); err != nil {
				e.log.Warn("config not applied", logx.Err(err))
			}
		}
	}
}

// Reset forgets pending jobs, run statistics and compiled templates. Call it
// when the world was reloaded.
func (e *Engine) Reset() {
	e.queue.Clear()
	if e.renderer != nil {
		e.renderer.ResetCache()
	}
	e.log.Info("engine reset")
}

// Settings returns the configuration in effect.
func (e *Engine) Settings() *config.Config { return e.settings.Load() }

// Queue exposes the execution queue for diagnostics.
func (e *Engine) Queue() *execqueue.Queue[*script.Job] { return e.queue }

// RunInfo returns the statistics of the script identified by id.
func (e *Engine) RunInfo(id string) (execqueue.RunInfo, bool) { return e.queue.RunInfo(id) }

// Iteration returns the completed sweep cycle counter.
func (e *Engine) Iteration() int64 { return e.queue.Iteration() }
