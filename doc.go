/*
Package goshell provides process pipelines with lazily-evaluated streaming output.

Spawned commands expose their standard streams as lazy Stream values, with
lifecycle, cleanup, and failure propagation handled by the library.

Process execution (pkg/exec):
  - proc: process handles and groups with guaranteed cleanup
  - shell: reusable command definitions, input/output handlers, and piping

Streaming (pkg/streaming):
  - stream: lazy higher-order operations over any asynchronous sequence
  - lines: byte chunks to delimiter-bounded line records
  - redissink: ship a line stream to a Redis stream

Scheduling (pkg/scheduling):
  - cronrun: recurring command execution on cron schedules

Example usage:

	import (
		"github.com/vnykmshr/goshell/pkg/exec/shell"
	)

	run, _ := shell.Command("git", "log", "--oneline").Start(ctx, shell.NoInput())
	n, _ := run.Lines().Count(ctx) // process is reaped once output is drained
*/
package goshell
