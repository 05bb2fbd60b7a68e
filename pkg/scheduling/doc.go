// Package scheduling provides the execution primitives under the script engine.
//
//   - workerpool: fixed set of workers with non-blocking TrySubmit admission
//   - scheduler: interval and cron based task scheduling
//
// Worker Pool:
//
// TrySubmit never queues. It hands the task to an idle worker or reports that
// every worker is busy:
//
//	pool := workerpool.New(4)
//	defer func() { <-pool.Shutdown() }()
//
//	if !pool.TrySubmit(task) {
//		// saturated
//	}
//
// Task Scheduler:
//
//	s := scheduler.NewWithConfig(scheduler.Config{WorkerPool: pool})
//	_ = s.ScheduleRepeating("sweep", task, time.Second)
//	_ = s.ScheduleCron("report", "*/30 * * * * *", reportTask)
//	_ = s.Start()
//	defer func() { <-s.Stop() }()
//
// Both components are safe for concurrent use and honour context cancellation.
package scheduling
