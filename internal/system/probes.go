package system

import "go.uber.org/zap"

// DefaultProbes wires every snapshot section to its host implementation
func DefaultProbes(opts Options, logger *zap.Logger) Probes {
	network := newNetworkSampler(logger)
	return Probes{
		CPU:         probeCPU,
		Memory:      probeMemory,
		Disks:       probeDisks,
		OS:          probeOS,
		Temperature: probeTemperature,
		Network:     network.probe,
		Processes:   newProcessSampler(opts.ProcessLimit).probe,
		Graphics:    graphicsProbe(opts.DRMDir),
		Battery:     batteryProbe(opts.PowerSupplyDir),
		RaspberryPi: raspberryPiProbe(opts.DeviceTreeModel, opts.Runner),
	}
}
