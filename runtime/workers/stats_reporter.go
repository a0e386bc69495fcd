package workers

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"

	"room-relay/observability"
)

// SnapshotFunc provides the current gateway stats on demand.
type SnapshotFunc func() observability.StatsSnapshot

// StatsReporter periodically logs one status line combining gateway counters
// with the process's own memory and CPU usage.
type StatsReporter struct {
	log      *slog.Logger
	interval time.Duration
	snapshot SnapshotFunc
}

func NewStatsReporter(log *slog.Logger, interval time.Duration, snapshot SnapshotFunc) *StatsReporter {
	return &StatsReporter{log: log, interval: interval, snapshot: snapshot}
}

func (w *StatsReporter) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			stats := w.snapshot()

			ramMb := uint64(0)
			cpuPercent := 0.0
			if memInfo, err := proc.MemoryInfo(); err == nil {
				ramMb = memInfo.RSS >> 20
			}
			if cpu, err := proc.CPUPercent(); err == nil {
				cpuPercent = cpu
			}

			w.log.Info("Gateway status",
				"rooms", len(stats.Rooms),
				"connections", stats.ActiveConnections,
				"messages_in", stats.MessagesIn,
				"delivered", stats.Delivered,
				"relay_state", stats.RelayState,
				"ram_mb", ramMb,
				"cpu_percent", cpuPercent,
			)
		}
	}
}
