package metrics_test

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vnykmshr/goshell/pkg/metrics"
)

// Example_customRegistry isolates goshell metrics in a private registry.
func Example_customRegistry() {
	registry := prometheus.NewRegistry()
	m := metrics.NewRegistry(registry)

	m.ProcessesSpawned.WithLabelValues("batch").Inc()
	m.ProcessesExited.WithLabelValues("batch", "success").Inc()

	families, err := registry.Gather()
	if err != nil {
		fmt.Println("gather failed:", err)
		return
	}
	fmt.Println("metric families:", len(families))
	// Output: metric families: 2
}
