/*
Package scriptflow runs user scripts that drive text panels in a simulated
world. Scripts are discovered on a schedule, deduplicated by identity and
rendered on a bounded worker pool.

Execution (pkg/execqueue):
  - Queue: pending set keyed by identity, FIFO dispatch, drop or requeue on saturation
  - ProgressTracker: iteration counter advanced when a cycle of scripts completes
  - RunInfo: per identity run count, last start and total execution time

Scripts (pkg/script, pkg/display, pkg/render):
  - script: entities, devices, script discovery and target resolution
  - display: line windows and style propagation onto panels
  - render: text/template execution with helper functions and a compile cache

Hosting (pkg/host, pkg/config, pkg/cachestore):
  - host: Engine sweeping a World on an interval or cron schedule
  - config: YAML, TOML or JSON configuration with hot reload
  - cachestore: memory or Redis store behind the setcache and getcache helpers

Scheduling (pkg/scheduling):
  - workerpool: bounded pool with non-blocking admission
  - scheduler: interval and cron scheduling

Example usage:

	import (
		"github.com/vnykmshr/scriptflow/pkg/host"
		"github.com/vnykmshr/scriptflow/pkg/script"
	)

	base := script.NewMemoryEntity(1, "Outpost", script.Base)
	base.AddDevice("LCD", "")
	base.AddDevice("Script:LCD", "{{.Entity}} {{datetime \"15:04\"}}")

	engine, err := host.New(host.Config{World: host.NewMemoryWorld(base)})
	if err != nil {
		log.Fatal(err)
	}
	defer engine.Close()

	_ = engine.Start(ctx)

See examples/ for complete programs.
*/
package scriptflow
