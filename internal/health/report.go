package health

import "hostpanel/internal/system"

// Indicator is one graded metric ready for display
type Indicator struct {
	Status Status `json:"status"`
	Label  string `json:"label"`
}

func indicator(s Status) Indicator {
	return Indicator{Status: s, Label: LabelFor(s)}
}

// Report grades the headline metrics of a snapshot.
// Disk is nil when the host reports no filesystems; Throttle is nil off a Raspberry Pi.
type Report struct {
	CPU         Indicator  `json:"cpu"`
	Memory      Indicator  `json:"memory"`
	Temperature Indicator  `json:"temperature"`
	Disk        *Indicator `json:"disk,omitempty"`
	Throttle    *Indicator `json:"throttle,omitempty"`
}

// Assess builds the health report for a snapshot
func Assess(snap *system.Snapshot) Report {
	if snap == nil {
		return Report{
			CPU:         indicator(Healthy),
			Memory:      indicator(Healthy),
			Temperature: indicator(Healthy),
		}
	}

	report := Report{
		CPU:         indicator(ClassifyCPU(snap.CPU.Load.CurrentLoad)),
		Memory:      indicator(ClassifyMemory(snap.Memory.UsedPercent)),
		Temperature: indicator(ClassifyTemperature(snap.Temperature.Main)),
	}
	if len(snap.Disks) > 0 {
		disk := indicator(ClassifyDisk(snap.Disks[0].UsePercent))
		report.Disk = &disk
	}
	if snap.RaspberryPi.IsRaspberryPi {
		s := ClassifyThrottle(snap.RaspberryPi.ThrottledHuman)
		report.Throttle = &Indicator{Status: s, Label: ThrottleLabel(s)}
	}
	return report
}

// ServiceIndicator is the graded run state of one service
type ServiceIndicator struct {
	Name string `json:"name"`
	Indicator
}

// AssessServices grades every service of a listing, in listing order
func AssessServices(list *system.ServiceList) []ServiceIndicator {
	if list == nil {
		return []ServiceIndicator{}
	}
	graded := make([]ServiceIndicator, 0, len(list.Services))
	for _, svc := range list.Services {
		graded = append(graded, ServiceIndicator{
			Name:      svc.Name,
			Indicator: indicator(ClassifyService(svc.IsRunning)),
		})
	}
	return graded
}
