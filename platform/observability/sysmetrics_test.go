package observability

import (
	"context"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestRegisterSystemMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	if err := registerSystemMetrics(mp.Meter("system.metrics")); err != nil {
		t.Fatalf("registerSystemMetrics() failed: %v", err)
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		// Sampling depends on host facilities (procfs etc.) that may be
		// unavailable in constrained environments.
		t.Skipf("system sampling unavailable: %v", err)
	}

	names := map[string]bool{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			names[m.Name] = true
		}
	}
	for _, want := range []string{"system.cpu.utilization", "system.memory.usage", "system.network.io"} {
		if !names[want] {
			t.Errorf("Expected metric %s to be collected, got %v", want, names)
		}
	}
}
