// Package metrics provides Prometheus instrumentation for goshell components.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds all metric instances for goshell components.
type Registry struct {
	// Process Metrics
	ProcessesSpawned *prometheus.CounterVec
	ProcessesExited  *prometheus.CounterVec
	ProcessesKilled  *prometheus.CounterVec
	ProcessesRunning *prometheus.GaugeVec
	ProcessDuration  *prometheus.HistogramVec

	// Pipeline Metrics
	PipeBytesCopied *prometheus.CounterVec
	PipeFailures    *prometheus.CounterVec

	// Line Splitting Metrics
	LinesEmitted *prometheus.CounterVec

	// Streaming Metrics
	StreamItems  *prometheus.CounterVec
	StreamErrors *prometheus.CounterVec

	// Cron Runner Metrics
	CronRuns        *prometheus.CounterVec
	CronFailures    *prometheus.CounterVec
	CronRunDuration *prometheus.HistogramVec
}

// DefaultRegistry is the default metrics registry used by goshell components.
var DefaultRegistry *Registry

func init() {
	DefaultRegistry = NewRegistry(prometheus.DefaultRegisterer)
}

// NewRegistry creates a new metrics registry with the given Prometheus registerer.
func NewRegistry(reg prometheus.Registerer) *Registry {
	factory := promauto.With(reg)

	return &Registry{
		// Process Metrics
		ProcessesSpawned: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "goshell",
				Subsystem: "process",
				Name:      "spawned_total",
				Help:      "Total number of processes spawned",
			},
			[]string{"group_name"},
		),

		ProcessesExited: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "goshell",
				Subsystem: "process",
				Name:      "exited_total",
				Help:      "Total number of processes that exited, by outcome",
			},
			[]string{"group_name", "outcome"},
		),

		ProcessesKilled: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "goshell",
				Subsystem: "process",
				Name:      "killed_total",
				Help:      "Total number of processes forcibly killed",
			},
			[]string{"group_name"},
		),

		ProcessesRunning: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "goshell",
				Subsystem: "process",
				Name:      "running",
				Help:      "Number of processes currently tracked as running",
			},
			[]string{"group_name"},
		),

		ProcessDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "goshell",
				Subsystem: "process",
				Name:      "duration_seconds",
				Help:      "Wall-clock time from spawn to exit",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"group_name"},
		),

		// Pipeline Metrics
		PipeBytesCopied: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "goshell",
				Subsystem: "pipe",
				Name:      "bytes_copied_total",
				Help:      "Total bytes pumped between piped processes",
			},
			[]string{"pipe_name"},
		),

		PipeFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "goshell",
				Subsystem: "pipe",
				Name:      "failures_total",
				Help:      "Total number of pipe pumps that failed upstream",
			},
			[]string{"pipe_name"},
		),

		// Line Splitting Metrics
		LinesEmitted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "goshell",
				Subsystem: "lines",
				Name:      "emitted_total",
				Help:      "Total number of line records emitted",
			},
			[]string{"source_name"},
		),

		// Streaming Metrics
		StreamItems: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "goshell",
				Subsystem: "stream",
				Name:      "items_processed_total",
				Help:      "Total number of items processed by streams",
			},
			[]string{"operation", "stream_name"},
		),

		StreamErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "goshell",
				Subsystem: "stream",
				Name:      "errors_total",
				Help:      "Total number of stream processing errors",
			},
			[]string{"operation", "stream_name"},
		),

		// Cron Runner Metrics
		CronRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "goshell",
				Subsystem: "cron",
				Name:      "runs_total",
				Help:      "Total number of scheduled command runs",
			},
			[]string{"job_name"},
		),

		CronFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "goshell",
				Subsystem: "cron",
				Name:      "failures_total",
				Help:      "Total number of scheduled runs that failed",
			},
			[]string{"job_name"},
		),

		CronRunDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "goshell",
				Subsystem: "cron",
				Name:      "run_duration_seconds",
				Help:      "Time spent executing scheduled runs",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"job_name"},
		),
	}
}
