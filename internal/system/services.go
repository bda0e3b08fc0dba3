package system

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"
)

var serviceStatusPattern = regexp.MustCompile(`\[ ([+\-?])\s*\]\s+(\S+)`)

// Services lists the host's services from systemd, falling back to the SysV
// "service" command. When neither works the list is empty.
func (g *Gateway) Services(ctx context.Context) (*ServiceList, error) {
	var records []ServiceRecord
	out, err := g.run(ctx, "systemctl", "list-units", "--type=service", "--all", "--plain", "--no-legend")
	if err == nil {
		records = parseSystemctl(string(out))
	} else {
		g.logger.Warn("systemctl unavailable, falling back to service command", zap.Error(err))
		out, err = g.run(ctx, "service", "--status-all")
		if err != nil {
			g.logger.Warn("failed to list services", zap.Error(err))
		} else {
			records = parseServiceStatusAll(string(out))
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return newServiceList(records), nil
}

func (g *Gateway) run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if g.runner == nil {
		return nil, errProbeMissing
	}
	if g.probeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.probeTimeout)
		defer cancel()
	}
	return g.runner(ctx, name, args...)
}

// parseSystemctl reads "UNIT LOAD ACTIVE SUB DESCRIPTION..." rows
func parseSystemctl(out string) []ServiceRecord {
	records := []ServiceRecord{}
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		status := "unknown"
		if len(fields) > 3 {
			status = fields[3]
		}
		var description string
		if len(fields) > 4 {
			description = strings.Join(fields[4:], " ")
		}
		records = append(records, ServiceRecord{
			Name:        strings.Replace(fields[0], ".service", "", 1),
			Status:      status,
			Description: description,
			IsRunning:   status == "running",
		})
	}
	return records
}

// parseServiceStatusAll reads " [ + ]  name" rows
func parseServiceStatusAll(out string) []ServiceRecord {
	records := []ServiceRecord{}
	for _, line := range strings.Split(out, "\n") {
		m := serviceStatusPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		status := "unknown"
		switch m[1] {
		case "+":
			status = "running"
		case "-":
			status = "stopped"
		}
		records = append(records, ServiceRecord{
			Name:      m[2],
			Status:    status,
			IsRunning: status == "running",
		})
	}
	return records
}

func newServiceList(records []ServiceRecord) *ServiceList {
	if records == nil {
		records = []ServiceRecord{}
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Name < records[j].Name
	})
	list := &ServiceList{Services: records, Count: len(records)}
	for _, r := range records {
		if r.IsRunning {
			list.RunningCount++
		}
	}
	return list
}
