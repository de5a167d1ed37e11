// Package cronrun executes external commands on cron schedules.
//
// Jobs are declared in code or loaded from a YAML file:
//
//	jobs:
//	  - name: backup
//	    schedule: "0 0 3 * * *"
//	    command: sh
//	    args: ["-c", "tar czf /backups/data.tgz /data"]
//	    timeout: 10m
//
// Each run spawns the command through the shell package, collects its output
// lines, and reports the outcome through slog and optional Prometheus
// counters. A run that would overlap a still-active run of the same job is
// skipped. Stopping the runner waits for active runs and tears down its
// process group.
package cronrun
