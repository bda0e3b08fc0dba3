package system

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	gnet "github.com/shirou/gopsutil/v4/net"
	"go.uber.org/zap"
)

// networkSampler remembers the previous counters so per-second rates can be derived
type networkSampler struct {
	counters func(ctx context.Context) ([]gnet.IOCountersStat, error)
	logger   *zap.Logger

	mu     sync.Mutex
	prev   map[string]gnet.IOCountersStat
	prevAt time.Time
	now    func() time.Time
}

func newNetworkSampler(logger *zap.Logger) *networkSampler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &networkSampler{
		counters: func(ctx context.Context) ([]gnet.IOCountersStat, error) {
			return gnet.IOCountersWithContext(ctx, true)
		},
		logger: logger,
		prev:   make(map[string]gnet.IOCountersStat),
		now:    time.Now,
	}
}

func (s *networkSampler) probe(ctx context.Context) (NetworkInfo, error) {
	ifaces, err := gnet.InterfacesWithContext(ctx)
	if err != nil {
		return NetworkInfo{}, fmt.Errorf("failed to list network interfaces: %w", err)
	}

	interfaces, operstate := externalInterfaces(ifaces)
	return NetworkInfo{
		Interfaces: interfaces,
		Stats:      s.collect(ctx, operstate),
	}, nil
}

// collect reads the traffic counters. When they cannot be read the previous
// sample is kept, so the next successful read still yields rates.
func (s *networkSampler) collect(ctx context.Context, operstate map[string]string) []NetworkStat {
	counters, err := s.counters(ctx)
	if err != nil {
		s.logger.Warn("network counters unavailable, keeping previous sample", zap.Error(err))
		return []NetworkStat{}
	}
	return s.stats(counters, operstate)
}

// externalInterfaces drops loopback interfaces and reports each remaining one's link state
func externalInterfaces(ifaces []gnet.InterfaceStat) ([]NetworkInterface, map[string]string) {
	interfaces := make([]NetworkInterface, 0, len(ifaces))
	operstate := make(map[string]string, len(ifaces))
	for _, iface := range ifaces {
		if hasFlag(iface.Flags, "loopback") {
			continue
		}
		entry := NetworkInterface{Name: iface.Name, MAC: iface.HardwareAddr}
		for _, addr := range iface.Addrs {
			ip, _, _ := strings.Cut(addr.Addr, "/")
			if strings.Contains(ip, ":") {
				if entry.IPv6 == "" {
					entry.IPv6 = ip
				}
			} else if entry.IPv4 == "" {
				entry.IPv4 = ip
			}
		}
		interfaces = append(interfaces, entry)

		state := "down"
		if hasFlag(iface.Flags, "up") {
			state = "up"
		}
		operstate[iface.Name] = state
	}
	return interfaces, operstate
}

// stats converts cumulative counters into NetworkStat rows, keeping only known interfaces
func (s *networkSampler) stats(counters []gnet.IOCountersStat, operstate map[string]string) []NetworkStat {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	elapsed := now.Sub(s.prevAt).Seconds()
	hasPrev := !s.prevAt.IsZero() && elapsed > 0

	stats := make([]NetworkStat, 0, len(counters))
	next := make(map[string]gnet.IOCountersStat, len(counters))
	for _, c := range counters {
		state, ok := operstate[c.Name]
		if !ok {
			continue
		}
		next[c.Name] = c
		stat := NetworkStat{
			Interface: c.Name,
			Operstate: state,
			RxBytes:   c.BytesRecv,
			RxDropped: c.Dropin,
			RxErrors:  c.Errin,
			TxBytes:   c.BytesSent,
			TxDropped: c.Dropout,
			TxErrors:  c.Errout,
		}
		if prev, ok := s.prev[c.Name]; ok && hasPrev {
			stat.RxSec = rate(prev.BytesRecv, c.BytesRecv, elapsed)
			stat.TxSec = rate(prev.BytesSent, c.BytesSent, elapsed)
		}
		stats = append(stats, stat)
	}

	s.prev = next
	s.prevAt = now
	return stats
}

// rate returns the per-second delta, treating a counter reset as zero
func rate(prev, curr uint64, seconds float64) float64 {
	if curr < prev || seconds <= 0 {
		return 0
	}
	return float64(curr-prev) / seconds
}

func hasFlag(flags []string, want string) bool {
	for _, f := range flags {
		if strings.EqualFold(f, want) {
			return true
		}
	}
	return false
}
