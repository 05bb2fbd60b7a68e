/*
Package execqueue schedules script executions keyed by a stable identity.

A producer calls Submit for every script it finds on each sweep. The queue keeps
only the latest payload per identity and appends an identity to its FIFO dispatch
queue the first time it becomes pending. A driver calls TryDispatchOne to move the
head of that queue onto a bounded worker pool:

	q, err := execqueue.New(execqueue.Config[*script.Job]{
		Runner: renderer,
		Pool:   workerpool.New(4),
	})
	...
	for _, job := range jobs {
		_ = q.Submit(job.ID, job)
	}
	for q.TryDispatchOne() {
	}

# Guarantees

An identity is never executed by two workers at once. A payload submitted while
its identity is running is kept and dispatched again once the running job ends.

When the pool is saturated TryDispatchOne returns false and the popped identity
is dropped; the next sweep submits it again. Config.RequeueOnSaturation keeps it
at the tail of the queue instead.

Runner errors and panics are contained in the job: they are logged at debug level,
counted, and still update the identity's RunInfo.

# Progress

Every finished job feeds a ProgressTracker. Once more jobs have completed than
ExpectedPerCycle, and at least MinIterationInterval has passed since the previous
advance, Iteration increments. Consumers use it as an approximate "one full sweep
done" signal.
*/
package execqueue
