// Package metrics provides Prometheus instrumentation for goshell components.
//
// Components accept an optional metric name at construction; named components
// record their activity in DefaultRegistry (or a custom Registry created with
// NewRegistry for isolation). Unnamed components record nothing.
//
// Available metrics:
//
//   - goshell_process_spawned_total: Processes spawned, by group
//   - goshell_process_exited_total: Processes exited, by group and outcome
//   - goshell_process_killed_total: Processes forcibly killed, by group
//   - goshell_process_running: Processes currently tracked, by group
//   - goshell_process_duration_seconds: Spawn-to-exit wall time, by group
//   - goshell_pipe_bytes_copied_total: Bytes pumped between piped processes
//   - goshell_pipe_failures_total: Pipe pumps that failed upstream
//   - goshell_lines_emitted_total: Line records emitted, by source
//   - goshell_stream_items_processed_total: Items processed by streams
//   - goshell_stream_errors_total: Stream processing errors
//   - goshell_cron_runs_total: Scheduled command runs, by job
//   - goshell_cron_failures_total: Scheduled runs that failed, by job
//   - goshell_cron_run_duration_seconds: Scheduled run wall time, by job
//
// Expose metrics over HTTP with the standard promhttp handler:
//
//	http.Handle("/metrics", promhttp.Handler())
//	log.Fatal(http.ListenAndServe(":8080", nil))
package metrics
