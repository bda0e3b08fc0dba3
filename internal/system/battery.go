package system

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cast"
)

// batteryProbe reads the first battery under the kernel's power_supply class.
// A host without a battery is not an error.
func batteryProbe(dir string) func(context.Context) (BatteryInfo, error) {
	return func(ctx context.Context) (BatteryInfo, error) {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				return emptyBattery(), nil
			}
			return BatteryInfo{}, fmt.Errorf("failed to read %s: %w", dir, err)
		}

		for _, entry := range entries {
			if ctx.Err() != nil {
				return BatteryInfo{}, ctx.Err()
			}
			supply := filepath.Join(dir, entry.Name())
			if readSysfs(supply, "type") != "Battery" {
				continue
			}
			return readBattery(supply), nil
		}
		return emptyBattery(), nil
	}
}

func readBattery(supply string) BatteryInfo {
	info := BatteryInfo{HasBattery: true, TimeRemaining: -1}
	info.Percent = cast.ToFloat64(readSysfs(supply, "capacity"))
	status := readSysfs(supply, "status")
	info.IsCharging = status == "Charging"

	// energy is reported in µWh and power in µW; older drivers use charge (µAh) and current (µA)
	now := cast.ToFloat64(readSysfs(supply, "energy_now"))
	draw := cast.ToFloat64(readSysfs(supply, "power_now"))
	if now == 0 || draw == 0 {
		now = cast.ToFloat64(readSysfs(supply, "charge_now"))
		draw = cast.ToFloat64(readSysfs(supply, "current_now"))
	}
	if status == "Discharging" && now > 0 && draw > 0 {
		info.TimeRemaining = int(now / draw * 60)
	}
	return info
}

// readSysfs returns the trimmed contents of a sysfs attribute, or "" when it cannot be read
func readSysfs(dir, name string) string {
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
