package system

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/shirou/gopsutil/v4/process"
)

// DefaultProcessLimit caps the per-process list in a snapshot
const DefaultProcessLimit = 50

// processSampler keeps process handles between snapshots so CPU usage is
// measured over the interval since the previous sample, not the process lifetime
type processSampler struct {
	limit int
	list  func(ctx context.Context) ([]*process.Process, error)

	mu    sync.Mutex
	procs map[int32]*process.Process
}

func newProcessSampler(limit int) *processSampler {
	if limit <= 0 {
		limit = DefaultProcessLimit
	}
	return &processSampler{
		limit: limit,
		list:  process.ProcessesWithContext,
		procs: make(map[int32]*process.Process),
	}
}

func (s *processSampler) probe(ctx context.Context) (ProcessSummary, error) {
	current, err := s.list(ctx)
	if err != nil {
		return ProcessSummary{}, fmt.Errorf("failed to list processes: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	handles := s.track(ctx, current)
	list := make([]Process, 0, len(handles))
	states := make([]string, 0, len(handles))
	for _, p := range handles {
		// processes may exit between listing and inspection; missing fields stay zero
		status, _ := p.StatusWithContext(ctx)
		if len(status) > 0 {
			states = append(states, status[0])
		} else {
			states = append(states, "")
		}

		name, _ := p.NameWithContext(ctx)
		// zero interval compares against the times cached on the handle; the first sample reads 0
		cpuPct, _ := p.PercentWithContext(ctx, 0)
		memPct, _ := p.MemoryPercentWithContext(ctx)
		nice, _ := p.NiceWithContext(ctx)
		cmdline, _ := p.CmdlineWithContext(ctx)
		if cmdline == "" {
			cmdline = name
		}
		list = append(list, Process{
			PID:      p.Pid,
			Name:     name,
			CPU:      cpuPct,
			Mem:      float64(memPct),
			Priority: nice,
			Command:  cmdline,
		})
	}

	summary := summarizeStates(states)
	summary.List = topByCPU(list, s.limit)
	return summary, nil
}

// track swaps freshly listed processes for the handles kept from the previous
// sample and forgets processes that exited. A reused PID gets a new handle.
// Callers hold s.mu.
func (s *processSampler) track(ctx context.Context, current []*process.Process) []*process.Process {
	next := make(map[int32]*process.Process, len(current))
	handles := make([]*process.Process, 0, len(current))
	for _, p := range current {
		if kept, ok := s.procs[p.Pid]; ok && sameProcess(ctx, kept, p) {
			p = kept
		}
		next[p.Pid] = p
		handles = append(handles, p)
	}
	s.procs = next
	return handles
}

func sameProcess(ctx context.Context, a, b *process.Process) bool {
	createdA, errA := a.CreateTimeWithContext(ctx)
	createdB, errB := b.CreateTimeWithContext(ctx)
	return errA == nil && errB == nil && createdA == createdB
}

// summarizeStates counts processes per scheduler state
func summarizeStates(states []string) ProcessSummary {
	summary := ProcessSummary{All: len(states), List: []Process{}}
	for _, state := range states {
		switch strings.ToLower(state) {
		case "running":
			summary.Running++
		case "sleep", "idle":
			summary.Sleeping++
		case "blocked", "wait", "lock", "disk-sleep":
			summary.Blocked++
		}
	}
	return summary
}

// topByCPU returns at most limit processes ordered by CPU usage, busiest first
func topByCPU(list []Process, limit int) []Process {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CPU > list[j].CPU
	})
	if len(list) > limit {
		list = list[:limit]
	}
	return list
}
