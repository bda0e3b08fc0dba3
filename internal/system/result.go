package system

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

var errProbeMissing = errors.New("probe not configured")

// Result holds the outcome of one sub-query. When Err is set, Value is the
// section's placeholder.
type Result[T any] struct {
	Value T
	Err   error
}

// Ok reports whether the probe succeeded
func (r Result[T]) Ok() bool {
	return r.Err == nil
}

// runProbe calls fn and substitutes placeholder() when it fails, is nil or
// outlives timeout. The deadline is the probe's own, so the caller's ctx stays live.
func runProbe[T any](ctx context.Context, timeout time.Duration, logger *zap.Logger, section string, fn func(context.Context) (T, error), placeholder func() T) Result[T] {
	if fn == nil {
		return Result[T]{Value: placeholder(), Err: errProbeMissing}
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	value, err := fn(ctx)
	if err != nil {
		logger.Warn("metric unavailable, using placeholder",
			zap.String("section", section),
			zap.Error(err))
		return Result[T]{Value: placeholder(), Err: err}
	}
	return Result[T]{Value: value}
}

func emptyCPU() CPUInfo {
	return CPUInfo{
		Model: "Unknown CPU",
		Speed: "0 GHz",
		Load:  CPULoad{CoresLoad: []float64{}},
	}
}

func emptyMemory() MemoryInfo { return MemoryInfo{} }

func emptyDisks() []DiskInfo { return []DiskInfo{} }

func emptyOS() OSInfo { return OSInfo{} }

// EmptyTemperature is the placeholder for a host without readable sensors
func EmptyTemperature() Temperature {
	return Temperature{Main: nil, Cores: []float64{}, Max: nil}
}

func emptyNetwork() NetworkInfo {
	return NetworkInfo{Interfaces: []NetworkInterface{}, Stats: []NetworkStat{}}
}

func emptyProcesses() ProcessSummary {
	return ProcessSummary{List: []Process{}}
}

func emptyGraphics() GraphicsInfo {
	return GraphicsInfo{Controllers: []GraphicsController{}, Displays: []GraphicsDisplay{}}
}

func emptyBattery() BatteryInfo {
	return BatteryInfo{HasBattery: false, TimeRemaining: -1}
}

func emptyRaspberryPi() RaspberryPiInfo {
	return RaspberryPiInfo{IsRaspberryPi: false, ThrottledHuman: []string{}}
}
