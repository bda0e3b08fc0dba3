package conf

type Config struct {
	Server    Server
	Auth      Auth
	Web       Web
	Dashboard Dashboard
	Log       Log
	Probe     Probe
}

type Server struct {
	Addr string
}

type Auth struct {
	Users map[string]string
}

type Web struct {
	RootPath string
}

// Dashboard controls the per-viewer refresh loop.
// Source is empty for the local host, or the base URL of another panel.
type Dashboard struct {
	RefreshInterval string
	Source          string
	RequestTimeout  string
}

type Log struct {
	Level      string
	File       string
	MaxSize    int
	MaxBackups int
	MaxAge     int
	Compress   bool
}

// Probe tunes the metrics gateway.
type Probe struct {
	DeviceTreeModel string
	PowerSupplyDir  string
	DRMDir          string
	ProcessLimit    int
	Timeout         string
}
