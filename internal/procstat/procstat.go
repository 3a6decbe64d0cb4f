// Package procstat samples resource usage of a single process.
package procstat

import (
	"context"

	"github.com/shirou/gopsutil/v3/process"
)

// Sample holds a point-in-time resource snapshot of a process.
type Sample struct {
	PID           int32   `json:"pid"`
	Name          string  `json:"name"`
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
	RSS           uint64  `json:"rss"`
	VMS           uint64  `json:"vms"`
	CreateTime    int64   `json:"create_time"`
}

// Collect samples the process with the given PID. Fields that cannot be
// read (permissions, races with process exit) are left at their zero
// value; only a vanished process yields an error.
func Collect(ctx context.Context, pid int) (*Sample, error) {
	p, err := process.NewProcessWithContext(ctx, int32(pid))
	if err != nil {
		return nil, err
	}

	s := &Sample{PID: p.Pid}
	if name, err := p.NameWithContext(ctx); err == nil {
		s.Name = name
	}
	if cpu, err := p.CPUPercentWithContext(ctx); err == nil {
		s.CPUPercent = cpu
	}
	if memPercent, err := p.MemoryPercentWithContext(ctx); err == nil {
		s.MemoryPercent = float64(memPercent)
	}
	if memInfo, err := p.MemoryInfoWithContext(ctx); err == nil && memInfo != nil {
		s.RSS = memInfo.RSS
		s.VMS = memInfo.VMS
	}
	if createTime, err := p.CreateTimeWithContext(ctx); err == nil {
		s.CreateTime = createTime
	}

	return s, nil
}
