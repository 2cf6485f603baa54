// Package system holds host facing helpers: frame buffers, encoder
// detection and resource statistics.
package system

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// Hardware encoders in order of preference. libx264 is the fallback.
var h264Encoders = []string{"h264_videotoolbox", "h264_nvenc"}

// SoftwareEncoder is used when no hardware encoder is available.
const SoftwareEncoder = "libx264"

// GetBestH264Encoder asks ffmpeg which encoders it was built with and picks
// the first hardware one, falling back to libx264.
func GetBestH264Encoder(ctx context.Context) string {
	out, err := exec.CommandContext(ctx, "ffmpeg", "-hide_banner", "-encoders").CombinedOutput()
	if err != nil {
		return SoftwareEncoder
	}
	return pickEncoder(string(out))
}

func pickEncoder(listing string) string {
	for _, enc := range h264Encoders {
		if strings.Contains(listing, enc) {
			return enc
		}
	}
	return SoftwareEncoder
}

// Stats is a snapshot of host and process resource usage.
type Stats struct {
	CPUPercent   float64
	MemPercent   float64
	MemAvailable uint64
	HeapAlloc    uint64
	Goroutines   int
}

// Sample reads the current resource usage. CPU usage is measured since the
// previous call.
func Sample() (Stats, error) {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	s := Stats{HeapAlloc: ms.HeapAlloc, Goroutines: runtime.NumGoroutine()}

	vm, err := mem.VirtualMemory()
	if err != nil {
		return s, fmt.Errorf("read memory stats: %w", err)
	}
	s.MemPercent = vm.UsedPercent
	s.MemAvailable = vm.Available

	pct, err := cpu.Percent(0, false)
	if err != nil {
		return s, fmt.Errorf("read cpu stats: %w", err)
	}
	if len(pct) > 0 {
		s.CPUPercent = pct[0]
	}
	return s, nil
}

func (s Stats) String() string {
	return fmt.Sprintf("CPU %.1f%% | RAM %.1f%% (%s free) | Heap %s | Goroutines %d",
		s.CPUPercent, s.MemPercent, humanBytes(s.MemAvailable), humanBytes(s.HeapAlloc), s.Goroutines)
}

func humanBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
