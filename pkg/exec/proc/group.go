package proc

import (
	"sync"
	"time"

	gserrors "github.com/vnykmshr/goshell/pkg/common/errors"
	"github.com/vnykmshr/goshell/pkg/common/validation"
	"github.com/vnykmshr/goshell/pkg/metrics"
)

// Group tracks every live process spawned through it and guarantees that all
// of them are terminated and released when the group is closed. The group
// owns the canonical handle storage; each Process carries only a token back
// into it, so handle and group never hold references to each other both ways.
type Group struct {
	name    string
	metrics *metrics.Registry

	mu     sync.Mutex
	next   uint64
	procs  map[uint64]*Process
	closed bool
}

// NewGroup creates an empty process group.
func NewGroup() *Group {
	return &Group{procs: make(map[uint64]*Process)}
}

// NewGroupWithMetrics creates a process group that records its activity under
// the given name. A nil registry means metrics.DefaultRegistry.
func NewGroupWithMetrics(name string, m *metrics.Registry) *Group {
	if m == nil {
		m = metrics.DefaultRegistry
	}
	g := NewGroup()
	g.name = name
	g.metrics = m
	return g
}

// Start spawns cmd and tracks the resulting process until it exits or the
// group is closed.
func (g *Group) Start(cmd Command, opts Options) (*Process, error) {
	if err := validation.NotEmpty("proc", "path", cmd.Path); err != nil {
		return nil, err
	}

	p, err := buildCmd(cmd, opts)
	if err != nil {
		return nil, err
	}

	if err := p.cmd.Start(); err != nil {
		return nil, gserrors.Chain("spawn "+cmd.Path, err)
	}
	p.pid = p.cmd.Process.Pid
	p.started = time.Now()
	p.group = g

	if err := g.add(p); err != nil {
		// Lost the race with Close; this child must not outlive the group.
		p.group = nil
		p.Kill()
		return nil, err
	}

	if g.metrics != nil {
		g.metrics.ProcessesSpawned.WithLabelValues(g.name).Inc()
		g.metrics.ProcessesRunning.WithLabelValues(g.name).Inc()
	}
	return p, nil
}

func (g *Group) add(p *Process) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return gserrors.Chain("start on closed group", gserrors.ErrClosed)
	}
	g.next++
	p.token = g.next
	g.procs[p.token] = p
	return nil
}

// remove drops a handle from the tracked set. The map is the single point of
// mutation shared between the natural-completion path and forced shutdown, so
// a handle observed missing here has already been accounted for.
func (g *Group) remove(p *Process, outcome string) {
	g.mu.Lock()
	_, present := g.procs[p.token]
	delete(g.procs, p.token)
	g.mu.Unlock()

	if !present || g.metrics == nil {
		return
	}
	g.metrics.ProcessesRunning.WithLabelValues(g.name).Dec()
	g.metrics.ProcessesExited.WithLabelValues(g.name, outcome).Inc()
	g.metrics.ProcessDuration.WithLabelValues(g.name).Observe(time.Since(p.started).Seconds())
	if outcome == "killed" {
		g.metrics.ProcessesKilled.WithLabelValues(g.name).Inc()
	}
}

// Len returns the number of processes currently tracked.
func (g *Group) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.procs)
}

// Close kills and releases every tracked process. After Close returns no
// member of the group is still running. Safe to call more than once.
func (g *Group) Close() error {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return nil
	}
	g.closed = true
	members := make([]*Process, 0, len(g.procs))
	for _, p := range g.procs {
		members = append(members, p)
	}
	g.mu.Unlock()

	for _, p := range members {
		p.Kill()
	}
	return nil
}

var (
	defaultMu    sync.Mutex
	defaultGroup *Group
)

// Default returns the process-wide default group, constructing it on first
// use. One-shot invocations that do not care about grouping use it so that
// their children are still cleaned up at program exit via CloseDefault.
func Default() *Group {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultGroup == nil {
		defaultGroup = NewGroup()
	}
	return defaultGroup
}

// CloseDefault tears down the default group, killing anything it still
// tracks. A later Default call constructs a fresh group.
func CloseDefault() error {
	defaultMu.Lock()
	g := defaultGroup
	defaultGroup = nil
	defaultMu.Unlock()
	if g == nil {
		return nil
	}
	return g.Close()
}
