// Package diagnostics inspects the host to size the engine and back the
// doctor command.
package diagnostics

import (
	"context"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
)

// SystemInfo holds the host measurements the doctor command reports.
type SystemInfo struct {
	// CPU
	CPUModel   string  `json:"cpu_model"`
	CPUCores   int     `json:"cpu_cores"`
	CPUThreads int     `json:"cpu_threads"`
	CPUPercent float64 `json:"cpu_percent"`

	// Memory (in MB)
	MemTotalMB float64 `json:"mem_total_mb"`
	MemUsedMB  float64 `json:"mem_used_mb"`
	MemPercent float64 `json:"mem_percent"`

	// Load average (Unix)
	LoadAvg1 float64 `json:"load_avg_1"`

	// Runtime
	GoVersion  string `json:"go_version"`
	Goroutines int    `json:"goroutines"`
}

// Collect gathers current host statistics. Each probe is best-effort; a
// failing probe leaves its fields zero rather than failing the whole report.
func Collect(ctx context.Context) SystemInfo {
	info := SystemInfo{
		CPUThreads: runtime.NumCPU(),
		GoVersion:  runtime.Version(),
		Goroutines: runtime.NumGoroutine(),
	}

	if infos, err := cpu.InfoWithContext(ctx); err == nil && len(infos) > 0 {
		info.CPUModel = infos[0].ModelName
		for _, ci := range infos {
			info.CPUCores += int(ci.Cores)
		}
	}
	if counts, err := cpu.CountsWithContext(ctx, false); err == nil && info.CPUCores == 0 {
		info.CPUCores = counts
	}
	if percents, err := cpu.PercentWithContext(ctx, 200*time.Millisecond, false); err == nil && len(percents) > 0 {
		info.CPUPercent = percents[0]
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		info.MemTotalMB = float64(vm.Total) / 1024 / 1024
		info.MemUsedMB = float64(vm.Used) / 1024 / 1024
		info.MemPercent = vm.UsedPercent
	}

	if avg, err := load.AvgWithContext(ctx); err == nil {
		info.LoadAvg1 = avg.Load1
	}

	return info
}

// SuggestedParallelism recommends a layer width for this host: half the
// hardware threads, at least 2, capped at 8. Analyst work is mostly I/O
// bound, so saturating every thread buys nothing.
func SuggestedParallelism(info SystemInfo) int {
	threads := info.CPUThreads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	suggested := threads / 2
	if suggested < 2 {
		suggested = 2
	}
	if suggested > 8 {
		suggested = 8
	}
	return suggested
}
