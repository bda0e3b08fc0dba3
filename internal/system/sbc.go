package system

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

var (
	voltagePattern   = regexp.MustCompile(`volt=([0-9.]+)V`)
	throttledPattern = regexp.MustCompile(`throttled=(0x[0-9a-fA-F]+)`)
)

// throttle flags in decode order, from bit 31 down to bit 24
var throttleFlags = []struct {
	bit   uint
	label string
}{
	{31, "Under-voltage detected"},
	{30, "Frequency capped"},
	{29, "Throttling active"},
	{28, "Soft temperature limit active"},
	{27, "Under-voltage has occurred"},
	{26, "Frequency capping has occurred"},
	{25, "Throttling has occurred"},
	{24, "Soft temperature limit has occurred"},
}

// DecodeThrottled turns the firmware throttling mask into readable conditions.
// Only bits 31 through 24 are decoded; lower bits are ignored.
func DecodeThrottled(mask uint32) []string {
	flags := []string{}
	for _, f := range throttleFlags {
		if mask&(1<<f.bit) != 0 {
			flags = append(flags, f.label)
		}
	}
	return flags
}

// raspberryPiProbe detects the board from the device-tree model and, on a
// Raspberry Pi, queries the firmware for voltage and throttling state
func raspberryPiProbe(modelFile string, run Runner) func(context.Context) (RaspberryPiInfo, error) {
	return func(ctx context.Context) (RaspberryPiInfo, error) {
		info := emptyRaspberryPi()
		raw, err := os.ReadFile(modelFile)
		if err != nil {
			if os.IsNotExist(err) {
				return info, nil
			}
			return RaspberryPiInfo{}, fmt.Errorf("failed to read board model: %w", err)
		}

		model := strings.TrimSpace(string(bytes.Trim(raw, "\x00")))
		if !strings.Contains(model, "Raspberry Pi") {
			return info, nil
		}
		info.IsRaspberryPi = true
		info.Model = model
		if run == nil {
			return info, nil
		}

		if out, err := run(ctx, "vcgencmd", "measure_volts", "core"); err == nil {
			info.Voltage = parseVoltage(string(out))
		}
		if out, err := run(ctx, "vcgencmd", "get_throttled"); err == nil {
			if hex, mask, ok := parseThrottled(string(out)); ok {
				info.Throttled = &hex
				info.ThrottledHuman = DecodeThrottled(mask)
			}
		}
		if out, err := run(ctx, "gpio", "readall"); err == nil {
			info.GPIOStatus = parseGPIOReadall(string(out))
		}
		return info, nil
	}
}

// parseVoltage extracts the core voltage from "volt=1.2000V"
func parseVoltage(out string) *string {
	m := voltagePattern.FindStringSubmatch(out)
	if m == nil {
		return nil
	}
	volts, err := cast.ToFloat64E(m[1])
	if err != nil {
		return nil
	}
	formatted := Float2string(volts, 2) + "V"
	return &formatted
}

// parseThrottled extracts the mask from "throttled=0x50005"
func parseThrottled(out string) (string, uint32, bool) {
	m := throttledPattern.FindStringSubmatch(out)
	if m == nil {
		return "", 0, false
	}
	mask, err := strconv.ParseUint(m[1], 0, 32)
	if err != nil {
		return "", 0, false
	}
	return m[1], uint32(mask), true
}

// parseGPIOReadall reads the BCM pin rows of the WiringPi "gpio readall" table.
// Each row describes two physical pins:
// | BCM | wPi | Name | Mode | V | Physical | V | Mode | Name | wPi | BCM |
func parseGPIOReadall(out string) []GPIOPin {
	pins := []GPIOPin{}
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "|") {
			continue
		}
		cells := strings.Split(strings.Trim(line, "|"), "|")
		if len(cells) < 13 {
			continue
		}
		for i := range cells {
			cells[i] = strings.TrimSpace(cells[i])
		}
		// left half: BCM, wPi, Name, Mode, V; right half mirrored
		if pin, ok := gpioPin(cells[0], cells[3], cells[4]); ok {
			pins = append(pins, pin)
		}
		if pin, ok := gpioPin(cells[12], cells[9], cells[8]); ok {
			pins = append(pins, pin)
		}
	}
	return pins
}

func gpioPin(bcm, mode, value string) (GPIOPin, bool) {
	if _, err := strconv.Atoi(bcm); err != nil {
		return GPIOPin{}, false
	}
	return GPIOPin{Pin: "GPIO" + bcm, Mode: mode, Value: value}, true
}
