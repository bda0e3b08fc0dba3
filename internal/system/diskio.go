package system

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/disk"
	"go.uber.org/zap"
)

// DiskIOSource returns cumulative per-device I/O counters
type DiskIOSource func(ctx context.Context) (map[string]disk.IOCountersStat, error)

// DiskIOCounters reads counters for every block device
func DiskIOCounters(ctx context.Context) (map[string]disk.IOCountersStat, error) {
	return disk.IOCountersWithContext(ctx)
}

// virtual devices whose traffic is already counted on a physical disk
var virtualDevicePrefixes = []string{"loop", "ram", "zram", "dm-", "sr", "md"}

var partitionSuffix = regexp.MustCompile(`^p?\d+$`)

type diskIOSample struct {
	stats DiskIOStats
	at    time.Time
}

// diskIOSampler sums whole-disk counters and derives rates from the previous call
type diskIOSampler struct {
	source DiskIOSource
	now    func() time.Time

	mu   sync.Mutex
	prev *diskIOSample
}

func newDiskIOSampler(source DiskIOSource) *diskIOSampler {
	return &diskIOSampler{source: source, now: time.Now}
}

// DiskIO reports aggregate disk activity. Any failure yields all zeros.
func (g *Gateway) DiskIO(ctx context.Context) (*DiskIOStats, error) {
	stats, err := g.diskIO.sample(ctx)
	if err != nil {
		g.logger.Warn("failed to read disk I/O counters", zap.Error(err))
		return &DiskIOStats{}, nil
	}
	return &stats, nil
}

func (s *diskIOSampler) sample(ctx context.Context) (DiskIOStats, error) {
	if s.source == nil {
		return DiskIOStats{}, errProbeMissing
	}
	counters, err := s.source(ctx)
	if err != nil {
		return DiskIOStats{}, err
	}

	stats := sumDiskCounters(counters)
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.prev != nil {
		if elapsed := now.Sub(s.prev.at).Seconds(); elapsed > 0 {
			prev := s.prev.stats
			stats.TotalIO.ReadIOSec = rate(prev.TotalIO.ReadIO, stats.TotalIO.ReadIO, elapsed)
			stats.TotalIO.WriteIOSec = rate(prev.TotalIO.WriteIO, stats.TotalIO.WriteIO, elapsed)
			stats.TotalIO.TotalIOSec = rate(prev.TotalIO.TotalIO, stats.TotalIO.TotalIO, elapsed)
			stats.FileSystemStats.RxSec = rate(prev.FileSystemStats.Rx, stats.FileSystemStats.Rx, elapsed)
			stats.FileSystemStats.WxSec = rate(prev.FileSystemStats.Wx, stats.FileSystemStats.Wx, elapsed)
			stats.FileSystemStats.TxSec = rate(prev.FileSystemStats.Tx, stats.FileSystemStats.Tx, elapsed)
		}
	}
	s.prev = &diskIOSample{stats: stats, at: now}
	return stats, nil
}

// sumDiskCounters adds up whole physical disks, skipping partitions and virtual devices
func sumDiskCounters(counters map[string]disk.IOCountersStat) DiskIOStats {
	var stats DiskIOStats
	for _, name := range physicalDisks(counters) {
		c := counters[name]
		stats.TotalIO.ReadIO += c.ReadCount
		stats.TotalIO.WriteIO += c.WriteCount
		stats.FileSystemStats.Rx += c.ReadBytes
		stats.FileSystemStats.Wx += c.WriteBytes
	}
	stats.TotalIO.TotalIO = stats.TotalIO.ReadIO + stats.TotalIO.WriteIO
	stats.FileSystemStats.Tx = stats.FileSystemStats.Rx + stats.FileSystemStats.Wx
	return stats
}

// physicalDisks returns the sorted device names that are neither virtual nor a
// partition of another listed device
func physicalDisks(counters map[string]disk.IOCountersStat) []string {
	names := make([]string, 0, len(counters))
	for name := range counters {
		if isVirtualDevice(name) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	disks := names[:0:0]
	for _, name := range names {
		if !isPartition(name, counters) {
			disks = append(disks, name)
		}
	}
	return disks
}

func isVirtualDevice(name string) bool {
	for _, prefix := range virtualDevicePrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// isPartition reports whether name is another device's name followed by a
// partition number, as in sda1 or nvme0n1p2
func isPartition(name string, counters map[string]disk.IOCountersStat) bool {
	for parent := range counters {
		if parent == name || !strings.HasPrefix(name, parent) {
			continue
		}
		if partitionSuffix.MatchString(strings.TrimPrefix(name, parent)) {
			return true
		}
	}
	return false
}
