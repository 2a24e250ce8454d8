package observability

import (
	"context"
	"errors"
	"fmt"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/mem"
	gopsnet "github.com/shirou/gopsutil/v4/net"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// registerSystemMetrics wires CPU, memory, disk and network gauges into the
// metric pipeline. The observables are collected on the periodic reader's
// schedule and exported with the rest of the batch; a sampling failure for
// one resource does not stop the others from reporting.
func registerSystemMetrics(meter metric.Meter) error {
	cpuUtil, err := meter.Float64ObservableGauge("system.cpu.utilization",
		metric.WithDescription("Fraction of CPU time in use"),
		metric.WithUnit("1"))
	if err != nil {
		return fmt.Errorf("cpu gauge: %w", err)
	}
	memUsage, err := meter.Int64ObservableGauge("system.memory.usage",
		metric.WithDescription("Memory in use"),
		metric.WithUnit("By"))
	if err != nil {
		return fmt.Errorf("memory usage gauge: %w", err)
	}
	memUtil, err := meter.Float64ObservableGauge("system.memory.utilization",
		metric.WithDescription("Fraction of memory in use"),
		metric.WithUnit("1"))
	if err != nil {
		return fmt.Errorf("memory utilization gauge: %w", err)
	}
	diskUsage, err := meter.Int64ObservableGauge("system.disk.usage",
		metric.WithDescription("Disk space in use on the root filesystem"),
		metric.WithUnit("By"))
	if err != nil {
		return fmt.Errorf("disk gauge: %w", err)
	}
	netIO, err := meter.Int64ObservableCounter("system.network.io",
		metric.WithDescription("Bytes transferred over all interfaces"),
		metric.WithUnit("By"))
	if err != nil {
		return fmt.Errorf("network counter: %w", err)
	}

	_, err = meter.RegisterCallback(func(ctx context.Context, o metric.Observer) error {
		var errs []error

		if percents, err := cpu.PercentWithContext(ctx, 0, false); err != nil {
			errs = append(errs, err)
		} else if len(percents) > 0 {
			o.ObserveFloat64(cpuUtil, percents[0]/100)
		}

		if vm, err := mem.VirtualMemoryWithContext(ctx); err != nil {
			errs = append(errs, err)
		} else {
			o.ObserveInt64(memUsage, int64(vm.Used))
			o.ObserveFloat64(memUtil, vm.UsedPercent/100)
		}

		if du, err := disk.UsageWithContext(ctx, "/"); err != nil {
			errs = append(errs, err)
		} else {
			o.ObserveInt64(diskUsage, int64(du.Used))
		}

		if counters, err := gopsnet.IOCountersWithContext(ctx, false); err != nil {
			errs = append(errs, err)
		} else if len(counters) > 0 {
			o.ObserveInt64(netIO, int64(counters[0].BytesSent),
				metric.WithAttributes(attribute.String("direction", "transmit")))
			o.ObserveInt64(netIO, int64(counters[0].BytesRecv),
				metric.WithAttributes(attribute.String("direction", "receive")))
		}

		return errors.Join(errs...)
	}, cpuUtil, memUsage, memUtil, diskUsage, netIO)
	if err != nil {
		return fmt.Errorf("register callback: %w", err)
	}
	return nil
}
