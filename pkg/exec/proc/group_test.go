package proc

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vnykmshr/goshell/internal/testutil"
	"github.com/vnykmshr/goshell/pkg/metrics"
)

func TestGroupMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	g := NewGroupWithMetrics("test", metrics.NewRegistry(reg))
	defer func() { _ = g.Close() }()

	p, err := g.Start(shell("exit 0"), Options{})
	testutil.AssertNoError(t, err)
	testutil.AssertNoError(t, p.Wait())

	families, err := reg.Gather()
	testutil.AssertNoError(t, err)

	found := map[string]bool{}
	for _, mf := range families {
		found[mf.GetName()] = true
	}
	testutil.AssertTrue(t, found["goshell_process_spawned_total"], "spawn counter missing")
	testutil.AssertTrue(t, found["goshell_process_exited_total"], "exit counter missing")
}
