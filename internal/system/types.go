package system

import "time"

// Snapshot is one point-in-time capture of host metrics.
// Every section is always present; a section that could not be probed holds
// its placeholder value and is named in Unavailable.
type Snapshot struct {
	CPU         CPUInfo         `json:"cpu"`
	Memory      MemoryInfo      `json:"memory"`
	Disks       []DiskInfo      `json:"disks"`
	OS          OSInfo          `json:"os"`
	Temperature Temperature     `json:"temperature"`
	Network     NetworkInfo     `json:"network"`
	Processes   ProcessSummary  `json:"processes"`
	Graphics    GraphicsInfo    `json:"graphics"`
	Battery     BatteryInfo     `json:"battery"`
	RaspberryPi RaspberryPiInfo `json:"raspberryPi"`
	Unavailable []string        `json:"unavailable"`
	CapturedAt  time.Time       `json:"capturedAt"`
}

// Available reports whether the named section was probed successfully
func (s *Snapshot) Available(section string) bool {
	for _, name := range s.Unavailable {
		if name == section {
			return false
		}
	}
	return true
}

// Section names used in Snapshot.Unavailable
const (
	SectionCPU         = "cpu"
	SectionMemory      = "memory"
	SectionDisks       = "disks"
	SectionOS          = "os"
	SectionTemperature = "temperature"
	SectionNetwork     = "network"
	SectionProcesses   = "processes"
	SectionGraphics    = "graphics"
	SectionBattery     = "battery"
	SectionRaspberryPi = "raspberryPi"
)

type CPUInfo struct {
	Model string   `json:"model"`
	Cores CPUCores `json:"cores"`
	Speed string   `json:"speed"`
	Load  CPULoad  `json:"load"`
}

type CPUCores struct {
	Physical int `json:"physical"`
	Logical  int `json:"logical"`
}

type CPULoad struct {
	CurrentLoad float64   `json:"currentLoad"`
	CoresLoad   []float64 `json:"coresLoad"`
}

type MemoryInfo struct {
	Total       uint64  `json:"total"`
	Used        uint64  `json:"used"`
	Free        uint64  `json:"free"`
	UsedPercent float64 `json:"usedPercent"`
}

type DiskInfo struct {
	FS         string  `json:"fs"`
	Type       string  `json:"type"`
	Size       uint64  `json:"size"`
	Used       uint64  `json:"used"`
	Available  uint64  `json:"available"`
	UsePercent float64 `json:"usePercent"`
}

type OSInfo struct {
	Platform string `json:"platform"`
	Distro   string `json:"distro"`
	Release  string `json:"release"`
	Kernel   string `json:"kernel"`
	Arch     string `json:"arch"`
	Uptime   uint64 `json:"uptime"`
}

// Temperature in degrees Celsius. Main and Max are nil when no sensor reports.
type Temperature struct {
	Main  *float64  `json:"main"`
	Cores []float64 `json:"cores"`
	Max   *float64  `json:"max"`
}

type NetworkInfo struct {
	Interfaces []NetworkInterface `json:"interfaces"`
	Stats      []NetworkStat      `json:"stats"`
}

type NetworkInterface struct {
	Name string `json:"name"`
	MAC  string `json:"mac"`
	IPv4 string `json:"ipv4"`
	IPv6 string `json:"ipv6"`
}

type NetworkStat struct {
	Interface string  `json:"interface"`
	Operstate string  `json:"operstate"`
	RxBytes   uint64  `json:"rx_bytes"`
	RxDropped uint64  `json:"rx_dropped"`
	RxErrors  uint64  `json:"rx_errors"`
	TxBytes   uint64  `json:"tx_bytes"`
	TxDropped uint64  `json:"tx_dropped"`
	TxErrors  uint64  `json:"tx_errors"`
	RxSec     float64 `json:"rx_sec"`
	TxSec     float64 `json:"tx_sec"`
}

type ProcessSummary struct {
	All      int       `json:"all"`
	Running  int       `json:"running"`
	Blocked  int       `json:"blocked"`
	Sleeping int       `json:"sleeping"`
	List     []Process `json:"list"`
}

type Process struct {
	PID      int32   `json:"pid"`
	Name     string  `json:"name"`
	CPU      float64 `json:"cpu"`
	Mem      float64 `json:"mem"`
	Priority int32   `json:"priority"`
	Command  string  `json:"command"`
}

type GraphicsInfo struct {
	Controllers []GraphicsController `json:"controllers"`
	Displays    []GraphicsDisplay    `json:"displays"`
}

type GraphicsController struct {
	Model         string `json:"model"`
	Vendor        string `json:"vendor"`
	VRAM          uint64 `json:"vram"`
	DriverVersion string `json:"driverVersion"`
}

type GraphicsDisplay struct {
	Model       string `json:"model"`
	Main        bool   `json:"main"`
	Builtin     bool   `json:"builtin"`
	Connection  string `json:"connection"`
	CurrentResX int    `json:"currentResX"`
	CurrentResY int    `json:"currentResY"`
}

type BatteryInfo struct {
	HasBattery    bool    `json:"hasBattery"`
	IsCharging    bool    `json:"isCharging"`
	Percent       float64 `json:"percent"`
	TimeRemaining int     `json:"timeRemaining"` // minutes, -1 when unknown
}

// RaspberryPiInfo is the single-board-computer block
type RaspberryPiInfo struct {
	IsRaspberryPi  bool      `json:"isRaspberryPi"`
	Model          string    `json:"model,omitempty"`
	Voltage        *string   `json:"voltage"`
	Throttled      *string   `json:"throttled"`
	ThrottledHuman []string  `json:"throttledHuman"`
	GPIOStatus     []GPIOPin `json:"gpioStatus,omitempty"`
}

type GPIOPin struct {
	Pin   string `json:"pin"`
	Mode  string `json:"mode"`
	Value string `json:"value"`
}

// ServiceRecord is one entry of the service manager listing
type ServiceRecord struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	Description string `json:"description,omitempty"`
	IsRunning   bool   `json:"isRunning"`
}

type ServiceList struct {
	Services     []ServiceRecord `json:"services"`
	Count        int             `json:"count"`
	RunningCount int             `json:"runningCount"`
}

type DiskIOStats struct {
	TotalIO         TotalIO         `json:"totalIO"`
	FileSystemStats FileSystemStats `json:"fileSystemStats"`
}

// TotalIO counts I/O requests
type TotalIO struct {
	ReadIO     uint64  `json:"readIO"`
	WriteIO    uint64  `json:"writeIO"`
	TotalIO    uint64  `json:"totalIO"`
	ReadIOSec  float64 `json:"readIO_sec"`
	WriteIOSec float64 `json:"writeIO_sec"`
	TotalIOSec float64 `json:"totalIO_sec"`
}

// FileSystemStats counts bytes read and written
type FileSystemStats struct {
	Rx    uint64  `json:"rx"`
	Wx    uint64  `json:"wx"`
	Tx    uint64  `json:"tx"`
	RxSec float64 `json:"rx_sec"`
	WxSec float64 `json:"wx_sec"`
	TxSec float64 `json:"tx_sec"`
}
