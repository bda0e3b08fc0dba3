package system

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/spf13/cast"
)

var (
	drmCardPattern      = regexp.MustCompile(`^card\d+$`)
	drmConnectorPattern = regexp.MustCompile(`^card\d+-(.+)$`)
	drmModePattern      = regexp.MustCompile(`^(\d+)x(\d+)`)
)

// PCI vendor ids of the common GPU makers
var gpuVendors = map[string]string{
	"0x10de": "NVIDIA",
	"0x1002": "AMD",
	"0x8086": "Intel",
	"0x14e4": "Broadcom",
}

// connector types that are panels wired into the machine
var builtinConnectors = []string{"eDP", "LVDS", "DSI"}

// graphicsProbe inspects the DRM subsystem for controllers and connected displays
func graphicsProbe(dir string) func(context.Context) (GraphicsInfo, error) {
	return func(ctx context.Context) (GraphicsInfo, error) {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				return emptyGraphics(), nil
			}
			return GraphicsInfo{}, fmt.Errorf("failed to read %s: %w", dir, err)
		}

		info := emptyGraphics()
		for _, entry := range entries {
			if ctx.Err() != nil {
				return GraphicsInfo{}, ctx.Err()
			}
			name := entry.Name()
			path := filepath.Join(dir, name)
			switch {
			case drmCardPattern.MatchString(name):
				info.Controllers = append(info.Controllers, readController(path))
			case drmConnectorPattern.MatchString(name):
				if display, ok := readDisplay(path, name); ok {
					info.Displays = append(info.Displays, display)
				}
			}
		}

		sort.SliceStable(info.Displays, func(i, j int) bool {
			return info.Displays[i].Builtin && !info.Displays[j].Builtin
		})
		if len(info.Displays) > 0 {
			info.Displays[0].Main = true
		}
		return info, nil
	}
}

func readController(card string) GraphicsController {
	device := filepath.Join(card, "device")
	vendorID := readSysfs(device, "vendor")
	vendor, ok := gpuVendors[strings.ToLower(vendorID)]
	if !ok {
		vendor = vendorID
	}

	driver := ""
	if target, err := os.Readlink(filepath.Join(device, "driver")); err == nil {
		driver = filepath.Base(target)
	}

	model := strings.TrimSpace(vendor + " " + readSysfs(device, "device"))
	if model == "" {
		model = filepath.Base(card)
	}

	return GraphicsController{
		Model:         model,
		Vendor:        vendor,
		VRAM:          cast.ToUint64(readSysfs(device, "mem_info_vram_total")),
		DriverVersion: driver,
	}
}

// readDisplay reports a connector only when something is plugged into it
func readDisplay(path, name string) (GraphicsDisplay, bool) {
	if readSysfs(path, "status") != "connected" {
		return GraphicsDisplay{}, false
	}
	connection := drmConnectorPattern.FindStringSubmatch(name)[1]
	display := GraphicsDisplay{
		Model:      name,
		Connection: connection,
	}
	for _, prefix := range builtinConnectors {
		if strings.HasPrefix(connection, prefix) {
			display.Builtin = true
			break
		}
	}

	modes := strings.SplitN(readSysfs(path, "modes"), "\n", 2)
	if m := drmModePattern.FindStringSubmatch(modes[0]); m != nil {
		display.CurrentResX = cast.ToInt(m[1])
		display.CurrentResY = cast.ToInt(m[2])
	}
	return display, true
}
