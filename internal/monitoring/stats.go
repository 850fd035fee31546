package monitoring

import (
	"context"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

// HostStats is a snapshot of the machine the app runs on.
type HostStats struct {
	CPUPercent     float64       `json:"cpuPercent"`
	MemUsedPercent float64       `json:"memUsedPercent"`
	Uptime         time.Duration `json:"uptime"`
	Goroutines     int           `json:"goroutines"`
}

// StatsProvider collects host statistics.
type StatsProvider interface {
	Collect(ctx context.Context) (HostStats, error)
}

// HostCollector reads host statistics through gopsutil.
type HostCollector struct{}

// NewHostCollector creates a new HostCollector.
func NewHostCollector() *HostCollector {
	return &HostCollector{}
}

// Collect samples CPU, memory and uptime.
func (c *HostCollector) Collect(ctx context.Context) (HostStats, error) {
	stats := HostStats{Goroutines: runtime.NumGoroutine()}

	cpuPercents, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return stats, err
	}
	if len(cpuPercents) > 0 {
		stats.CPUPercent = cpuPercents[0]
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return stats, err
	}
	stats.MemUsedPercent = vm.UsedPercent

	uptime, err := host.UptimeWithContext(ctx)
	if err != nil {
		return stats, err
	}
	stats.Uptime = time.Duration(uptime) * time.Second

	return stats, nil
}
