/*
Package config loads the scriptflow configuration document and watches it for
changes.

The file format follows the extension: .yaml/.yml, .toml or .json. Unknown
keys are rejected. Durations are written as strings such as "250ms" or "1s".

	engine:
	  sweep_interval: 1s
	pool:
	  workers: 4
	queue:
	  requeue_on_saturation: false
	cache:
	  backend: redis
	  redis:
	    addr: localhost:6379
	logging:
	  level: debug

A Manager keeps the current document and republishes it to subscribers when
the file changes on disk. Reloads are debounced, validated and skipped when
the content did not change.
*/
package config
