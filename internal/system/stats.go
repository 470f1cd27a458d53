package system

import (
	"context"
	"fmt"
	"os"

	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// HostStats is a point-in-time view of memory and CPU use.
type HostStats struct {
	TotalMem    uint64
	UsedMem     uint64
	UsedPercent float64
	ProcessRSS  uint64
	ProcessCPU  float64 // percent since process start
}

// ReadHostStats samples the host and this process.
func ReadHostStats(ctx context.Context) (HostStats, error) {
	var s HostStats

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return s, fmt.Errorf("virtual memory: %w", err)
	}
	s.TotalMem, s.UsedMem, s.UsedPercent = vm.Total, vm.Used, vm.UsedPercent

	proc, err := process.NewProcessWithContext(ctx, int32(os.Getpid()))
	if err != nil {
		return s, fmt.Errorf("process: %w", err)
	}
	if mi, err := proc.MemoryInfoWithContext(ctx); err == nil {
		s.ProcessRSS = mi.RSS
	}
	if cpu, err := proc.CPUPercentWithContext(ctx); err == nil {
		s.ProcessCPU = cpu
	}
	return s, nil
}

// MiB formats a byte count.
func MiB(b uint64) string {
	return fmt.Sprintf("%.1f MiB", float64(b)/(1<<20))
}
