package system

import (
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/sourcegraph/conc"
	"go.uber.org/zap"
)

// Runner executes a platform command and returns its standard output
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// ExecRunner runs commands on the local host
func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// Probes are the snapshot sub-queries. A nil probe reports its section unavailable.
type Probes struct {
	CPU         func(context.Context) (CPUInfo, error)
	Memory      func(context.Context) (MemoryInfo, error)
	Disks       func(context.Context) ([]DiskInfo, error)
	OS          func(context.Context) (OSInfo, error)
	Temperature func(context.Context) (Temperature, error)
	Network     func(context.Context) (NetworkInfo, error)
	Processes   func(context.Context) (ProcessSummary, error)
	Graphics    func(context.Context) (GraphicsInfo, error)
	Battery     func(context.Context) (BatteryInfo, error)
	RaspberryPi func(context.Context) (RaspberryPiInfo, error)
}

// Options configures the gateway's host-facing probes
type Options struct {
	DeviceTreeModel string
	PowerSupplyDir  string
	DRMDir          string
	ProcessLimit    int
	ProbeTimeout    time.Duration
	Runner          Runner
}

// Gateway is the metrics provider behind the panel's JSON endpoints
type Gateway struct {
	probes       Probes
	runner       Runner
	diskIO       *diskIOSampler
	logger       *zap.Logger
	now          func() time.Time
	probeTimeout time.Duration
}

// NewGateway creates a gateway backed by gopsutil and platform commands
func NewGateway(opts Options, logger *zap.Logger) *Gateway {
	if opts.Runner == nil {
		opts.Runner = ExecRunner
	}
	g := NewGatewayWithProbes(DefaultProbes(opts, logger), opts.Runner, DiskIOCounters, logger)
	g.SetProbeTimeout(opts.ProbeTimeout)
	return g
}

// NewGatewayWithProbes creates a gateway from explicit collaborators
func NewGatewayWithProbes(probes Probes, runner Runner, diskIO DiskIOSource, logger *zap.Logger) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{
		probes: probes,
		runner: runner,
		diskIO: newDiskIOSampler(diskIO),
		logger: logger,
		now:    time.Now,
	}
}

// SetProbeTimeout bounds each sub-query and platform command. A sub-query that
// runs out of time reports its section unavailable; zero means no bound.
func (g *Gateway) SetProbeTimeout(d time.Duration) {
	g.probeTimeout = d
}

// Snapshot runs every sub-query concurrently and joins them. A failing
// sub-query contributes its placeholder; only a panic or a cancelled context
// fails the whole call.
func (g *Gateway) Snapshot(ctx context.Context) (*Snapshot, error) {
	var (
		cpuRes  Result[CPUInfo]
		memRes  Result[MemoryInfo]
		diskRes Result[[]DiskInfo]
		osRes   Result[OSInfo]
		tempRes Result[Temperature]
		netRes  Result[NetworkInfo]
		procRes Result[ProcessSummary]
		gfxRes  Result[GraphicsInfo]
		battRes Result[BatteryInfo]
		piRes   Result[RaspberryPiInfo]
		wg      conc.WaitGroup
	)
	p, log, timeout := g.probes, g.logger, g.probeTimeout

	wg.Go(func() { cpuRes = runProbe(ctx, timeout, log, SectionCPU, p.CPU, emptyCPU) })
	wg.Go(func() { memRes = runProbe(ctx, timeout, log, SectionMemory, p.Memory, emptyMemory) })
	wg.Go(func() { diskRes = runProbe(ctx, timeout, log, SectionDisks, p.Disks, emptyDisks) })
	wg.Go(func() { osRes = runProbe(ctx, timeout, log, SectionOS, p.OS, emptyOS) })
	wg.Go(func() { tempRes = runProbe(ctx, timeout, log, SectionTemperature, p.Temperature, EmptyTemperature) })
	wg.Go(func() { netRes = runProbe(ctx, timeout, log, SectionNetwork, p.Network, emptyNetwork) })
	wg.Go(func() { procRes = runProbe(ctx, timeout, log, SectionProcesses, p.Processes, emptyProcesses) })
	wg.Go(func() { gfxRes = runProbe(ctx, timeout, log, SectionGraphics, p.Graphics, emptyGraphics) })
	wg.Go(func() { battRes = runProbe(ctx, timeout, log, SectionBattery, p.Battery, emptyBattery) })
	wg.Go(func() { piRes = runProbe(ctx, timeout, log, SectionRaspberryPi, p.RaspberryPi, emptyRaspberryPi) })

	if recovered := wg.WaitAndRecover(); recovered != nil {
		return nil, fmt.Errorf("failed to collect snapshot: %w", recovered.AsError())
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("failed to collect snapshot: %w", err)
	}

	snapshot := &Snapshot{
		CPU:         cpuRes.Value,
		Memory:      memRes.Value,
		Disks:       diskRes.Value,
		OS:          osRes.Value,
		Temperature: tempRes.Value,
		Network:     netRes.Value,
		Processes:   procRes.Value,
		Graphics:    gfxRes.Value,
		Battery:     battRes.Value,
		RaspberryPi: piRes.Value,
		Unavailable: []string{},
		CapturedAt:  g.now(),
	}
	sections := []struct {
		name string
		ok   bool
	}{
		{SectionCPU, cpuRes.Ok()},
		{SectionMemory, memRes.Ok()},
		{SectionDisks, diskRes.Ok()},
		{SectionOS, osRes.Ok()},
		{SectionTemperature, tempRes.Ok()},
		{SectionNetwork, netRes.Ok()},
		{SectionProcesses, procRes.Ok()},
		{SectionGraphics, gfxRes.Ok()},
		{SectionBattery, battRes.Ok()},
		{SectionRaspberryPi, piRes.Ok()},
	}
	for _, s := range sections {
		if !s.ok {
			snapshot.Unavailable = append(snapshot.Unavailable, s.name)
		}
	}
	return snapshot, nil
}
