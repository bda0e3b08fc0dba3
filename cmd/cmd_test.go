package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"hostpanel/internal/auth"
	"hostpanel/internal/conf"
	"hostpanel/internal/dashboard"
	"hostpanel/internal/health"
	"hostpanel/internal/system"
)

type stubGateway struct {
	servicesErr error
}

func (g *stubGateway) Snapshot(context.Context) (*system.Snapshot, error) {
	temp := 85.0
	return &system.Snapshot{
		CPU:         system.CPUInfo{Model: "Stub CPU", Load: system.CPULoad{CurrentLoad: 95, CoresLoad: []float64{}}},
		Temperature: system.Temperature{Main: &temp, Cores: []float64{}},
		Unavailable: []string{},
	}, nil
}

func (g *stubGateway) Services(context.Context) (*system.ServiceList, error) {
	if g.servicesErr != nil {
		return nil, g.servicesErr
	}
	return &system.ServiceList{Services: []system.ServiceRecord{}}, nil
}

func (g *stubGateway) DiskIO(context.Context) (*system.DiskIOStats, error) {
	return &system.DiskIOStats{}, nil
}

func TestCollectReport(t *testing.T) {
	report, err := collectReport(context.Background(), &stubGateway{}, false)
	require.NoError(t, err)
	assert.Equal(t, health.Critical, report.Health.CPU.Status)
	assert.Equal(t, health.Critical, report.Health.Temperature.Status)
	assert.Nil(t, report.Services)

	report, err = collectReport(context.Background(), &stubGateway{}, true)
	require.NoError(t, err)
	assert.NotNil(t, report.Services)
	assert.NotNil(t, report.DiskIO)

	_, err = collectReport(context.Background(), &stubGateway{servicesErr: errors.New("boom")}, true)
	assert.Error(t, err)
}

func TestRenderReportFormats(t *testing.T) {
	report, err := collectReport(context.Background(), &stubGateway{}, false)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, renderReport(&buf, report, "json"))
	var asJSON map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &asJSON))
	assert.Contains(t, asJSON, "snapshot")
	assert.Contains(t, asJSON, "health")
	assert.NotContains(t, asJSON, "services")

	buf.Reset()
	require.NoError(t, renderReport(&buf, report, "yaml"))
	var asYAML map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &asYAML))
	assert.Contains(t, asYAML, "snapshot")
	assert.Contains(t, buf.String(), "currentLoad: 95")

	buf.Reset()
	require.NoError(t, renderReport(&buf, report, "text"))
	assert.Contains(t, buf.String(), "95.0%")
	assert.Contains(t, buf.String(), "Critical")
	assert.Contains(t, buf.String(), "85.0 C")

	report.Snapshot.Temperature.Main = nil
	report.Snapshot.Unavailable = []string{system.SectionTemperature}
	buf.Reset()
	require.NoError(t, renderReport(&buf, report, "text"))
	assert.Contains(t, buf.String(), "unavailable")
	assert.Regexp(t, `Unavailable\s+temperature`, buf.String())

	assert.Error(t, renderReport(&buf, report, "xml"))
}

func TestNewGatewaySelectsSource(t *testing.T) {
	_, remote := newGateway("http://pi.local:8080", zap.NewNop()).(*dashboard.HTTPGateway)
	assert.True(t, remote)

	_, local := newGateway("local", zap.NewNop()).(*system.Gateway)
	assert.True(t, local)

	_, local = newGateway("", zap.NewNop()).(*system.Gateway)
	assert.True(t, local)
}

func TestUserAddCommand(t *testing.T) {
	prevPath, prevConf, prevFlag := conf.Path, conf.Read(), configPath
	t.Cleanup(func() {
		conf.Path, conf.Conf, configPath = prevPath, prevConf, prevFlag
	})
	configPath = filepath.Join(t.TempDir(), "config.toml")

	var out bytes.Buffer
	userAddCmd.SetOut(&out)
	userAddCmd.SetIn(strings.NewReader("s3cret\n"))
	require.NoError(t, userAddCmd.RunE(userAddCmd, []string{"admin"}))

	assert.Contains(t, out.String(), "user admin saved")
	assert.True(t, auth.VerifyPassword("admin", "s3cret"))
}

func TestReadPassword(t *testing.T) {
	got, err := readPassword(strings.NewReader("hunter2\r\nignored"))
	require.NoError(t, err)
	assert.Equal(t, "hunter2", got)

	got, err = readPassword(strings.NewReader("no-newline"))
	require.NoError(t, err)
	assert.Equal(t, "no-newline", got)
}
