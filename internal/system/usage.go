package system

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/mem"
)

// probeMemory returns physical memory usage
func probeMemory(ctx context.Context) (MemoryInfo, error) {
	memStat, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return MemoryInfo{}, fmt.Errorf("failed to get memory info: %w", err)
	}

	var usedPercent float64
	if memStat.Total > 0 {
		usedPercent = float64(memStat.Used) / float64(memStat.Total) * 100
	}

	return MemoryInfo{
		Total:       memStat.Total,
		Used:        memStat.Used,
		Free:        memStat.Free,
		UsedPercent: usedPercent,
	}, nil
}

// probeDisks returns usage for every mounted filesystem, one entry per mountpoint
func probeDisks(ctx context.Context) ([]DiskInfo, error) {
	partitions, err := disk.PartitionsWithContext(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list partitions: %w", err)
	}

	seen := make(map[string]struct{}, len(partitions))
	disks := make([]DiskInfo, 0, len(partitions))
	for _, part := range partitions {
		if part.Mountpoint == "" {
			continue
		}
		if _, ok := seen[part.Mountpoint]; ok {
			continue
		}
		seen[part.Mountpoint] = struct{}{}

		usage, err := disk.UsageWithContext(ctx, part.Mountpoint)
		if err != nil || usage.Total == 0 {
			continue
		}
		disks = append(disks, DiskInfo{
			FS:         part.Device,
			Type:       part.Fstype,
			Size:       usage.Total,
			Used:       usage.Used,
			Available:  usage.Free,
			UsePercent: usage.UsedPercent,
		})
	}
	return disks, nil
}

func properUnitHelper(bytes uint64, pow uint8, unit string) string {
	quotient := bytes >> pow
	temp := bytes & ((1 << pow) - 1)
	temp = ((temp * 10) + ((1 << pow) >> 1)) >> pow
	if temp == 10 {
		temp = 0
		quotient += 1
	}
	return strconv.FormatUint(quotient, 10) +
		"." + strconv.FormatUint(temp, 10) + " " + unit
}

// ProperUnit converts bytes to human readable format
func ProperUnit(byteNum uint64) (formatted string) {
	if byteNum >= 1<<40 { // TiB
		return properUnitHelper(byteNum, 40, "TiB")
	} else if byteNum >= 1<<30 { // GiB
		return properUnitHelper(byteNum, 30, "GiB")
	} else if byteNum >= 1<<20 { // MiB
		return properUnitHelper(byteNum, 20, "MiB")
	} else if byteNum >= 1<<10 { // KiB
		return properUnitHelper(byteNum, 10, "KiB")
	}
	return strconv.FormatUint(byteNum, 10) + " B"
}

// Float2string converts float to string with specified precision
func Float2string(f float64, precision int) string {
	return strconv.FormatFloat(f, 'f', precision, 64)
}

// FormatUptime renders seconds as "1d 2h 3m 4s"
func FormatUptime(seconds uint64) string {
	d := time.Duration(seconds) * time.Second
	days := d / (24 * time.Hour)
	d -= days * 24 * time.Hour
	hours := d / time.Hour
	d -= hours * time.Hour
	minutes := d / time.Minute
	d -= minutes * time.Minute
	return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, d/time.Second)
}
