package system

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/shirou/gopsutil/v4/sensors"
)

// sensor keys that report the package or die temperature, in preference order
var mainSensorKeys = []string{"package", "tdie", "tctl", "cpu_thermal", "cpu-thermal", "soc_thermal", "k10temp"}

func probeTemperature(ctx context.Context) (Temperature, error) {
	stats, err := sensors.TemperaturesWithContext(ctx)
	// gopsutil returns partial readings together with a warnings error
	if err != nil && len(stats) == 0 {
		return Temperature{}, fmt.Errorf("failed to read temperature sensors: %w", err)
	}
	return pickTemperature(stats), nil
}

// pickTemperature folds raw sensor readings into main, per-core and max values
func pickTemperature(stats []sensors.TemperatureStat) Temperature {
	temp := EmptyTemperature()

	var (
		main     float64
		mainRank = len(mainSensorKeys)
		first    float64
		highest  float64
	)
	for _, stat := range stats {
		value := stat.Temperature
		if value <= 0 || math.IsNaN(value) {
			continue
		}
		if first == 0 {
			first = value
		}
		if value > highest {
			highest = value
		}

		key := strings.ToLower(stat.SensorKey)
		if strings.Contains(key, "core") && !strings.Contains(key, "coretemp_package") {
			temp.Cores = append(temp.Cores, value)
		}
		for rank, want := range mainSensorKeys {
			if rank < mainRank && strings.Contains(key, want) {
				main, mainRank = value, rank
				break
			}
		}
	}

	if main == 0 && len(temp.Cores) > 0 {
		main = average(temp.Cores)
	}
	if main == 0 {
		main = first
	}
	if main > 0 {
		temp.Main = &main
	}
	if highest > 0 {
		temp.Max = &highest
	}
	return temp
}
