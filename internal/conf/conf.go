package conf

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cast"
)

const (
	DefaultRefreshInterval = 10 * time.Second
	DefaultRequestTimeout  = 5 * time.Second
	DefaultProbeTimeout    = 3 * time.Second

	// MinRefreshInterval is the shortest schedule a dashboard accepts
	MinRefreshInterval = time.Second
)

var (
	Path string       // Config path
	mu   sync.RWMutex // Protects access to Conf
	Conf = Default()
)

// Default returns the configuration used when the file omits a value
func Default() Config {
	return Config{
		Server: Server{Addr: ":8080"},
		Auth:   Auth{},
		Web: Web{
			RootPath: "web",
		},
		Dashboard: Dashboard{
			RefreshInterval: "10s",
			RequestTimeout:  "5s",
		},
		Log: Log{
			Level:      "info",
			MaxSize:    50,
			MaxBackups: 3,
			MaxAge:     7,
		},
		Probe: Probe{
			DeviceTreeModel: "/proc/device-tree/model",
			PowerSupplyDir:  "/sys/class/power_supply",
			DRMDir:          "/sys/class/drm",
			ProcessLimit:    50,
			Timeout:         "3s",
		},
	}
}

// LoadConfig Set Path and load config into memory
// Run this at start
func LoadConfig(path string) error {
	Path = path
	err := Update()
	if err != nil {
		if os.IsNotExist(err) {
			f, err := os.OpenFile(path, os.O_CREATE, 0644)
			if err == nil {
				f.Close()
				return nil
			}
		}
		return fmt.Errorf("failed to load config: %w", err)
	}
	return nil
}

// Update reads the config file and loads it into the global Conf variable
func Update() (err error) {
	mu.Lock()
	defer mu.Unlock()

	if _, err = os.Stat(Path); err != nil {
		return err
	}
	next := Default()
	if _, err = toml.DecodeFile(Path, &next); err != nil {
		return fmt.Errorf("failed to update global config %w", err)
	}
	Conf = next
	return nil
}

// Write saves the provided config to the TOML file at the global Path
func Write(conf Config) (err error) {
	mu.Lock()
	defer mu.Unlock()

	f, err := os.Create(Path)
	if err != nil {
		return fmt.Errorf("failed to create config file %w", err)
	}
	defer f.Close()
	err = toml.NewEncoder(f).Encode(conf)
	if err != nil {
		return fmt.Errorf("failed to write config file %w", err)
	}

	// Update global config after successful write
	Conf = conf
	return nil
}

// Read returns a copy of the current configuration
func Read() Config {
	mu.RLock()
	defer mu.RUnlock()

	conf := Conf
	conf.Auth.Users = make(map[string]string, len(Conf.Auth.Users))
	for k, v := range Conf.Auth.Users {
		conf.Auth.Users[k] = v
	}
	return conf
}

// GetUsers returns a copy of the users map in a thread-safe manner
func GetUsers() map[string]string {
	mu.RLock()
	defer mu.RUnlock()

	users := make(map[string]string)
	for k, v := range Conf.Auth.Users {
		users[k] = v
	}
	return users
}

// AuthEnabled reports whether any panel user is configured
func AuthEnabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return len(Conf.Auth.Users) > 0
}

// GetWeb returns the Web config in a thread-safe manner
func GetWeb() Web {
	mu.RLock()
	defer mu.RUnlock()
	return Conf.Web
}

// GetServer returns the Server config in a thread-safe manner
func GetServer() Server {
	mu.RLock()
	defer mu.RUnlock()
	return Conf.Server
}

// GetLog returns the Log config in a thread-safe manner
func GetLog() Log {
	mu.RLock()
	defer mu.RUnlock()
	return Conf.Log
}

// GetProbe returns the Probe config in a thread-safe manner
func GetProbe() Probe {
	mu.RLock()
	defer mu.RUnlock()
	return Conf.Probe
}

// GetDashboard returns the Dashboard config in a thread-safe manner
func GetDashboard() Dashboard {
	mu.RLock()
	defer mu.RUnlock()
	return Conf.Dashboard
}

// RefreshInterval parses Dashboard.RefreshInterval, falling back to 10s.
// Values below MinRefreshInterval, such as a unitless "10", fall back too.
func RefreshInterval() time.Duration {
	return parseDuration(GetDashboard().RefreshInterval, MinRefreshInterval, DefaultRefreshInterval)
}

// RequestTimeout parses Dashboard.RequestTimeout, falling back to 5s
func RequestTimeout() time.Duration {
	return parseDuration(GetDashboard().RequestTimeout, time.Nanosecond, DefaultRequestTimeout)
}

// ProbeTimeout parses Probe.Timeout, falling back to 3s
func ProbeTimeout() time.Duration {
	return parseDuration(GetProbe().Timeout, time.Nanosecond, DefaultProbeTimeout)
}

func parseDuration(raw string, floor, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	d, err := cast.ToDurationE(raw)
	if err != nil || d < floor {
		return fallback
	}
	return d
}
