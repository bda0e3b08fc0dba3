// Package health maps raw host metrics to traffic-light statuses.
package health

import (
	"math"
	"strings"
)

// Status is the derived health of one metric
type Status string

const (
	Healthy  Status = "healthy"
	Warning  Status = "warning"
	Critical Status = "critical"
)

// Thresholds, in percent or degrees Celsius
const (
	CPUWarning          = 75.0
	CPUCritical         = 90.0
	MemoryWarning       = 75.0
	MemoryCritical      = 90.0
	DiskWarning         = 80.0
	DiskCritical        = 95.0
	TemperatureWarning  = 70.0
	TemperatureCritical = 80.0
)

func classify(value, warning, critical float64) Status {
	switch {
	case value >= critical:
		return Critical
	case value >= warning:
		return Warning
	default:
		return Healthy
	}
}

// ClassifyCPU grades the current CPU load percentage
func ClassifyCPU(load float64) Status {
	return classify(load, CPUWarning, CPUCritical)
}

// ClassifyMemory grades the used memory percentage
func ClassifyMemory(usedPercent float64) Status {
	return classify(usedPercent, MemoryWarning, MemoryCritical)
}

// ClassifyDisk grades the used space percentage of a filesystem
func ClassifyDisk(usedPercent float64) Status {
	return classify(usedPercent, DiskWarning, DiskCritical)
}

// ClassifyTemperature grades a temperature reading. A missing, zero or NaN
// reading counts as healthy.
func ClassifyTemperature(temp *float64) Status {
	if temp == nil || *temp == 0 || math.IsNaN(*temp) {
		return Healthy
	}
	return classify(*temp, TemperatureWarning, TemperatureCritical)
}

// LabelFor returns the display label of a status
func LabelFor(s Status) string {
	switch s {
	case Healthy:
		return "Healthy"
	case Warning:
		return "Warning"
	case Critical:
		return "Critical"
	default:
		return "Unknown"
	}
}

// ClassifyThrottle grades decoded Raspberry Pi throttling flags.
// Any under-voltage or throttling flag is critical; past events and
// frequency capping are warnings.
func ClassifyThrottle(flags []string) Status {
	status := Healthy
	for _, flag := range flags {
		if strings.Contains(flag, "Under-voltage") || strings.Contains(flag, "Throttling") {
			return Critical
		}
		if strings.Contains(flag, "has occurred") || strings.Contains(flag, "Frequency capped") {
			status = Warning
		}
	}
	return status
}

// ThrottleLabel returns the label shown next to the throttling status
func ThrottleLabel(s Status) string {
	switch s {
	case Critical:
		return "Issue Detected"
	case Warning:
		return "Warning"
	default:
		return "Normal"
	}
}

// ClassifyService grades one service by its run state
func ClassifyService(isRunning bool) Status {
	if isRunning {
		return Healthy
	}
	return Warning
}
