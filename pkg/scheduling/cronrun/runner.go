package cronrun

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	ctxutil "github.com/vnykmshr/goshell/pkg/common/context"
	"github.com/vnykmshr/goshell/pkg/exec/proc"
	"github.com/vnykmshr/goshell/pkg/exec/shell"
	"github.com/vnykmshr/goshell/pkg/metrics"
)

// Result reports one finished run of a job.
type Result struct {
	Job      Job
	RunID    string
	Err      error
	Duration time.Duration
	Output   []string
}

// Config configures a Runner.
type Config struct {
	// Logger receives per-run reports. Nil means slog.Default().
	Logger *slog.Logger

	// Group tracks the spawned processes. Nil means a group private to the
	// runner, closed with it.
	Group *proc.Group

	// Metrics, when non-nil, records run counts and durations.
	Metrics *metrics.Registry

	// OnResult, when set, is invoked after every run. Useful for tests and
	// for shipping results elsewhere.
	OnResult func(Result)
}

// DefaultConfig returns a default runner configuration.
func DefaultConfig() Config {
	return Config{Logger: slog.Default()}
}

// Runner executes declared jobs on their cron schedules. A run that would
// overlap a still-active run of the same job is skipped rather than stacked;
// recurring invocation is time-triggered execution, not spawn queuing.
type Runner struct {
	cfg      Config
	cron     *cron.Cron
	group    *proc.Group
	ownGroup bool

	mu      sync.Mutex
	entries map[string]cron.EntryID
}

// New creates a Runner. The cron grammar includes a seconds field and
// descriptors such as "@hourly".
func New(cfg Config) *Runner {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	r := &Runner{
		cfg:     cfg,
		group:   cfg.Group,
		entries: make(map[string]cron.EntryID),
	}
	if r.group == nil {
		r.group = proc.NewGroup()
		r.ownGroup = true
	}

	parser := cron.NewParser(
		cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	r.cron = cron.New(
		cron.WithParser(parser),
		cron.WithChain(cron.SkipIfStillRunning(&cronLogger{logger: cfg.Logger})),
	)
	return r
}

// Add registers a job. The schedule is validated here; a rejected job never
// reaches the cron table.
func (r *Runner) Add(job Job) error {
	if err := job.Validate(); err != nil {
		return err
	}
	id, err := r.cron.AddFunc(job.Schedule, func() { r.runJob(job) })
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.entries[job.Name] = id
	r.mu.Unlock()
	return nil
}

// Remove drops a job from the schedule. Unknown names are ignored.
func (r *Runner) Remove(name string) {
	r.mu.Lock()
	id, ok := r.entries[name]
	delete(r.entries, name)
	r.mu.Unlock()
	if ok {
		r.cron.Remove(id)
	}
}

// Len returns the number of scheduled jobs.
func (r *Runner) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Start begins executing schedules in the background.
func (r *Runner) Start() {
	r.cron.Start()
}

// Stop halts scheduling, waits for active runs to finish, and, when the
// runner owns its process group, kills anything still tracked.
func (r *Runner) Stop() {
	<-r.cron.Stop().Done()
	if r.ownGroup {
		_ = r.group.Close()
	}
}

func (r *Runner) runJob(job Job) {
	runID := uuid.NewString()
	log := r.cfg.Logger.With("job", job.Name, "run_id", runID)

	ctx := context.Background()
	cancel := context.CancelFunc(func() {})
	if job.Timeout > 0 {
		ctx, cancel = ctxutil.WithTimeoutOrCancel(ctx, job.Timeout)
	}
	defer cancel()

	start := time.Now()
	output, err := r.execute(ctx, job)
	elapsed := time.Since(start)

	if m := r.cfg.Metrics; m != nil {
		m.CronRuns.WithLabelValues(job.Name).Inc()
		m.CronRunDuration.WithLabelValues(job.Name).Observe(elapsed.Seconds())
		if err != nil {
			m.CronFailures.WithLabelValues(job.Name).Inc()
		}
	}

	if err != nil {
		if ctxutil.IsTimedOut(ctx) {
			log.Error("run timed out", "timeout", job.Timeout, "duration", elapsed)
		} else {
			log.Error("run failed", "error", err, "duration", elapsed)
		}
	} else {
		log.Info("run completed", "duration", elapsed, "output_lines", len(output))
	}

	if r.cfg.OnResult != nil {
		r.cfg.OnResult(Result{Job: job, RunID: runID, Err: err, Duration: elapsed, Output: output})
	}
}

func (r *Runner) execute(ctx context.Context, job Job) ([]string, error) {
	cmd := shell.Command(job.Command, job.Args...).
		WithDir(job.Dir).
		WithGroup(r.group)

	in := shell.NoInput()
	if job.Input != "" {
		cmd = cmd.WithInput(shell.InputText)
		in = shell.Text(job.Input)
	}

	run, err := cmd.Start(ctx, in)
	if err != nil {
		return nil, err
	}

	if job.Timeout > 0 {
		stop := watchdog(ctx, run)
		defer stop()
	}

	return run.Lines().ToSlice(ctx)
}

// watchdog kills the run if ctx expires before the output is drained. The
// returned stop function disarms it.
func watchdog(ctx context.Context, run *shell.Run) func() {
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			run.Kill()
		case <-done:
		}
	}()
	return func() { close(done) }
}

// cronLogger adapts slog to the cron logging interface, so skipped overlaps
// are reported alongside everything else.
type cronLogger struct {
	logger *slog.Logger
}

func (l *cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Info(msg, keysAndValues...)
}

func (l *cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, append([]interface{}{"error", err}, keysAndValues...)...)
}
