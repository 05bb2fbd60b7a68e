/*
Package host runs scripts found in a World on a schedule.

An Engine sweeps the world once per interval. A sweep scans every entity that
can run scripts, builds a script.Job per script device, submits the jobs to
an execqueue.Queue and dispatches as many as the render pool accepts. Between
sweeps a drain task keeps offering queued jobs to idle workers.

	eng, err := host.New(host.Config{
		Settings: cfg,
		World:    world,
		Logger:   log,
		Metrics:  metrics.Default(),
	})
	if err != nil {
		return err
	}
	defer eng.Close()

	if err := eng.Start(ctx); err != nil {
		return err
	}

Reload applies a new configuration document to a running engine. Reset forgets
pending work and statistics, as after the world was reloaded.
*/
package host
