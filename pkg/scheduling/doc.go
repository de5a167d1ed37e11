/*
Package scheduling provides time-triggered execution of external commands.

  - cronrun: runs commands declared in code or YAML on cron schedules, with
    per-run logging, optional timeouts, and overlap skipping

Basic usage:

	runner := cronrun.New(cronrun.DefaultConfig())
	defer runner.Stop()

	_ = runner.Add(cronrun.Job{
		Name:     "cleanup",
		Schedule: "0 0 * * * *", // hourly, on the hour
		Command:  "sh",
		Args:     []string{"-c", "find /tmp/cache -mmin +60 -delete"},
	})
	runner.Start()

Scheduling here is recurring invocation only; a run that fires while the
previous one is still active is skipped, never queued.
*/
package scheduling
