// Package scheduler fires recurring tasks onto a worker pool.
//
// Two kinds of schedules are supported: fixed intervals and cron expressions. The cron
// parser accepts an optional leading seconds field and the usual descriptors, so all of
// these are valid:
//
//	"*/5 * * * * *"   every five seconds
//	"0 */2 * * *"     every two hours
//	"@every 1s"       every second
//	"@hourly"         top of every hour
//
// # Usage
//
//	s := scheduler.NewWithConfig(scheduler.Config{WorkerPool: pool})
//	_ = s.ScheduleCron("sweep", "@every 1s", workerpool.TaskFunc(sweep))
//	_ = s.Start()
//	defer func() { <-s.Stop() }()
//
// # Overlap
//
// Each firing is handed to the pool with TrySubmit. When the previous run of the same
// task is still executing, or the pool has no idle worker, the firing is skipped and
// counted instead of queued. A slow sweep therefore never piles up behind itself.
package scheduler
