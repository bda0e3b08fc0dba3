package system

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"
)

// cpuSampleWindow is how long per-core load is measured for one snapshot
const cpuSampleWindow = 200 * time.Millisecond

// probeCPU returns model, core counts, clock speed and load.
// A failed load measurement degrades to zero load rather than failing the section.
func probeCPU(ctx context.Context) (CPUInfo, error) {
	cpuInfo, err := cpu.InfoWithContext(ctx)
	if err != nil {
		return CPUInfo{}, fmt.Errorf("failed to get CPU info: %w", err)
	}

	physical, err := cpu.CountsWithContext(ctx, false)
	if err != nil {
		physical = 0
	}
	logical, err := cpu.CountsWithContext(ctx, true)
	if err != nil {
		logical = 0
	}

	load := CPULoad{CoresLoad: []float64{}}
	if perCore, err := cpu.PercentWithContext(ctx, cpuSampleWindow, true); err == nil && len(perCore) > 0 {
		load.CoresLoad = perCore
		load.CurrentLoad = average(perCore)
	}

	var mhz float64
	if len(cpuInfo) > 0 {
		mhz = cpuInfo[0].Mhz
	}

	return CPUInfo{
		Model: cpuModel(cpuInfo),
		Cores: CPUCores{Physical: physical, Logical: logical},
		Speed: cpuSpeed(mhz),
		Load:  load,
	}, nil
}

// cpuModel prefers the brand string, then vendor and family
func cpuModel(infos []cpu.InfoStat) string {
	if len(infos) == 0 {
		return "Unknown CPU"
	}
	if name := strings.TrimSpace(infos[0].ModelName); name != "" {
		return name
	}
	model := strings.TrimSpace(infos[0].VendorID + " " + infos[0].Family)
	if model == "" {
		return "Unknown CPU"
	}
	return model
}

func cpuSpeed(mhz float64) string {
	if mhz <= 0 {
		return "0 GHz"
	}
	return Float2string(mhz/1000, 2) + " GHz"
}

func average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// probeOS returns the OS descriptor and uptime
func probeOS(ctx context.Context) (OSInfo, error) {
	hostInfo, err := host.InfoWithContext(ctx)
	if err != nil {
		return OSInfo{}, fmt.Errorf("failed to get host info: %w", err)
	}

	return OSInfo{
		Platform: hostInfo.OS,
		Distro:   hostInfo.Platform,
		Release:  hostInfo.PlatformVersion,
		Kernel:   hostInfo.KernelVersion,
		Arch:     hostInfo.KernelArch,
		Uptime:   hostInfo.Uptime,
	}, nil
}
