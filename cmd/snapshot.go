package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/sourcegraph/conc"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"hostpanel/internal/conf"
	"hostpanel/internal/dashboard"
	"hostpanel/internal/health"
	"hostpanel/internal/system"
)

var (
	snapshotOutputFlag   string
	snapshotRemoteFlag   string
	snapshotServicesFlag bool
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Print one metrics snapshot with its health assessment",
	Long: `Collect a single snapshot and print it together with the health bands
the dashboard would show.

Examples:
  hostpanel snapshot
  hostpanel snapshot --output yaml --services
  hostpanel snapshot --remote http://pi.local:8080`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		return snapshotCommand(ctx, cmd.OutOrStdout(), snapshotOutputFlag, snapshotRemoteFlag, snapshotServicesFlag)
	},
}

func init() {
	snapshotCmd.Flags().StringVarP(&snapshotOutputFlag, "output", "o", "json", "output format: json, yaml or text")
	snapshotCmd.Flags().StringVar(&snapshotRemoteFlag, "remote", "", "base URL of another panel to query instead of this host")
	snapshotCmd.Flags().BoolVar(&snapshotServicesFlag, "services", false, "include services and disk I/O")
}

type snapshotReport struct {
	Snapshot *system.Snapshot    `json:"snapshot"`
	Health   health.Report       `json:"health"`
	Services *system.ServiceList `json:"services,omitempty"`
	DiskIO   *system.DiskIOStats `json:"diskIO,omitempty"`
}

func snapshotCommand(ctx context.Context, w io.Writer, format, remote string, withServices bool) error {
	if err := conf.LoadConfig(configPath); err != nil {
		return fmt.Errorf("failed to load config %s: %w", configPath, err)
	}

	// stdout carries the report, so the gateway stays quiet
	source := remote
	if source == "" {
		source = conf.GetDashboard().Source
	}
	// remote reads are bounded by the HTTP client, local ones per probe
	gateway := newGateway(source, zap.NewNop())

	report, err := collectReport(ctx, gateway, withServices)
	if err != nil {
		return err
	}
	return renderReport(w, report, format)
}

func collectReport(ctx context.Context, gateway dashboard.Gateway, withServices bool) (*snapshotReport, error) {
	snap, err := gateway.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch system information: %w", err)
	}
	report := &snapshotReport{Snapshot: snap, Health: health.Assess(snap)}
	if !withServices {
		return report, nil
	}

	var wg conc.WaitGroup
	var servicesErr, diskErr error
	wg.Go(func() { report.Services, servicesErr = gateway.Services(ctx) })
	wg.Go(func() { report.DiskIO, diskErr = gateway.DiskIO(ctx) })
	wg.Wait()
	if servicesErr != nil {
		return nil, fmt.Errorf("failed to fetch service information: %w", servicesErr)
	}
	if diskErr != nil {
		return nil, fmt.Errorf("failed to fetch disk I/O information: %w", diskErr)
	}
	return report, nil
}

// renderReport writes the report as indented JSON, as YAML with the same keys,
// or as a short text summary
func renderReport(w io.Writer, report *snapshotReport, format string) error {
	switch strings.ToLower(format) {
	case "text":
		return renderText(w, report)
	case "", "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case "yaml", "yml":
		raw, err := json.Marshal(report)
		if err != nil {
			return err
		}
		var doc any
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q (want json, yaml or text)", format)
	}
}

func renderText(w io.Writer, report *snapshotReport) error {
	snap, h := report.Snapshot, report.Health
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "Host\t%s %s (%s)\tup %s\n", snap.OS.Distro, snap.OS.Release, snap.OS.Arch, system.FormatUptime(snap.OS.Uptime))
	fmt.Fprintf(tw, "CPU\t%s%%\t%s\n", system.Float2string(snap.CPU.Load.CurrentLoad, 1), h.CPU.Label)
	fmt.Fprintf(tw, "Memory\t%s / %s\t%s\n", system.ProperUnit(snap.Memory.Used), system.ProperUnit(snap.Memory.Total), h.Memory.Label)
	switch {
	case !snap.Available(system.SectionTemperature):
		fmt.Fprintf(tw, "Temperature\tunavailable\t%s\n", h.Temperature.Label)
	case snap.Temperature.Main != nil:
		fmt.Fprintf(tw, "Temperature\t%s C\t%s\n", system.Float2string(*snap.Temperature.Main, 1), h.Temperature.Label)
	default:
		fmt.Fprintf(tw, "Temperature\tno sensor\t%s\n", h.Temperature.Label)
	}
	for i, d := range snap.Disks {
		label := ""
		if i == 0 && h.Disk != nil {
			label = h.Disk.Label
		}
		fmt.Fprintf(tw, "Disk %s\t%s / %s\t%s\n", d.FS, system.ProperUnit(d.Used), system.ProperUnit(d.Size), label)
	}
	if h.Throttle != nil {
		fmt.Fprintf(tw, "Throttling\t%s\t%s\n", strings.Join(snap.RaspberryPi.ThrottledHuman, ", "), h.Throttle.Label)
	}
	if report.Services != nil {
		fmt.Fprintf(tw, "Services\t%d running\t%d total\n", report.Services.RunningCount, report.Services.Count)
	}
	if report.DiskIO != nil {
		fs := report.DiskIO.FileSystemStats
		fmt.Fprintf(tw, "Disk I/O\t%s/s read\t%s/s written\n", system.ProperUnit(uint64(fs.RxSec)), system.ProperUnit(uint64(fs.WxSec)))
	}
	if len(snap.Unavailable) > 0 {
		fmt.Fprintf(tw, "Unavailable\t%s\t\n", strings.Join(snap.Unavailable, ", "))
	}
	return tw.Flush()
}
