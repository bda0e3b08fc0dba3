package health

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hostpanel/internal/system"
)

func ptr(v float64) *float64 { return &v }

func TestClassifyBands(t *testing.T) {
	tests := []struct {
		name     string
		classify func(float64) Status
		value    float64
		want     Status
	}{
		{"cpu idle", ClassifyCPU, 10, Healthy},
		{"cpu just below warning", ClassifyCPU, 74.99, Healthy},
		{"cpu warning", ClassifyCPU, 75, Warning},
		{"cpu just below critical", ClassifyCPU, 89.9, Warning},
		{"cpu critical", ClassifyCPU, 90, Critical},
		{"memory healthy", ClassifyMemory, 50, Healthy},
		{"memory warning", ClassifyMemory, 75, Warning},
		{"memory critical", ClassifyMemory, 95, Critical},
		{"disk healthy", ClassifyDisk, 79.9, Healthy},
		{"disk warning", ClassifyDisk, 80, Warning},
		{"disk still warning", ClassifyDisk, 94.9, Warning},
		{"disk critical", ClassifyDisk, 95, Critical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.classify(tt.value))
		})
	}
}

func TestClassifyTemperature(t *testing.T) {
	assert.Equal(t, Healthy, ClassifyTemperature(nil))
	assert.Equal(t, Healthy, ClassifyTemperature(ptr(0)))
	assert.Equal(t, Healthy, ClassifyTemperature(ptr(math.NaN())))
	assert.Equal(t, Healthy, ClassifyTemperature(ptr(69.9)))
	assert.Equal(t, Warning, ClassifyTemperature(ptr(70)))
	assert.Equal(t, Critical, ClassifyTemperature(ptr(80)))
}

func TestLabelFor(t *testing.T) {
	assert.Equal(t, "Healthy", LabelFor(Healthy))
	assert.Equal(t, "Warning", LabelFor(Warning))
	assert.Equal(t, "Critical", LabelFor(Critical))
	assert.Equal(t, "Unknown", LabelFor(Status("bogus")))
}

func TestClassifyThrottle(t *testing.T) {
	assert.Equal(t, Healthy, ClassifyThrottle(nil))
	assert.Equal(t, Healthy, ClassifyThrottle([]string{"Soft temperature limit active"}))
	assert.Equal(t, Warning, ClassifyThrottle([]string{"Frequency capped"}))
	assert.Equal(t, Warning, ClassifyThrottle([]string{"Frequency capping has occurred"}))
	assert.Equal(t, Critical, ClassifyThrottle([]string{"Frequency capped", "Throttling active"}))
	assert.Equal(t, Critical, ClassifyThrottle([]string{"Under-voltage has occurred"}))

	assert.Equal(t, "Normal", ThrottleLabel(Healthy))
	assert.Equal(t, "Warning", ThrottleLabel(Warning))
	assert.Equal(t, "Issue Detected", ThrottleLabel(Critical))
}

func TestClassifyService(t *testing.T) {
	assert.Equal(t, Healthy, ClassifyService(true))
	assert.Equal(t, Warning, ClassifyService(false))
}

func TestAssessServices(t *testing.T) {
	assert.Empty(t, AssessServices(nil))

	graded := AssessServices(&system.ServiceList{Services: []system.ServiceRecord{
		{Name: "cron", Status: "running", IsRunning: true},
		{Name: "cups", Status: "exited"},
	}})
	require.Len(t, graded, 2)
	assert.Equal(t, ServiceIndicator{Name: "cron", Indicator: Indicator{Status: Healthy, Label: "Healthy"}}, graded[0])
	assert.Equal(t, Warning, graded[1].Status)
	assert.Equal(t, "Warning", graded[1].Label)
}

func TestAssessEndToEnd(t *testing.T) {
	snap := &system.Snapshot{
		CPU:         system.CPUInfo{Load: system.CPULoad{CurrentLoad: 95}},
		Memory:      system.MemoryInfo{UsedPercent: 50},
		Disks:       []system.DiskInfo{{UsePercent: 60}},
		Temperature: system.Temperature{Main: ptr(85)},
	}

	report := Assess(snap)
	assert.Equal(t, Critical, report.CPU.Status)
	assert.Equal(t, "Critical", report.CPU.Label)
	assert.Equal(t, Healthy, report.Memory.Status)
	require.NotNil(t, report.Disk)
	assert.Equal(t, Healthy, report.Disk.Status)
	assert.Equal(t, Critical, report.Temperature.Status)
	assert.Nil(t, report.Throttle)
}

func TestAssessRaspberryPi(t *testing.T) {
	snap := &system.Snapshot{
		RaspberryPi: system.RaspberryPiInfo{
			IsRaspberryPi:  true,
			ThrottledHuman: system.DecodeThrottled(0x80000),
		},
	}

	report := Assess(snap)
	assert.Nil(t, report.Disk)
	require.NotNil(t, report.Throttle)
	assert.Equal(t, Healthy, report.Throttle.Status)
	assert.Equal(t, "Normal", report.Throttle.Label)
}
