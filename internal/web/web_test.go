package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"hostpanel/internal/auth"
	"hostpanel/internal/conf"
	"hostpanel/internal/dashboard"
	"hostpanel/internal/system"
)

type stubGateway struct {
	snapErr error
	block   chan struct{}
}

func (g *stubGateway) Snapshot(context.Context) (*system.Snapshot, error) {
	if g.block != nil {
		<-g.block
	}
	if g.snapErr != nil {
		return nil, g.snapErr
	}
	return &system.Snapshot{
		CPU:         system.CPUInfo{Model: "Stub CPU", Load: system.CPULoad{CurrentLoad: 33, CoresLoad: []float64{}}},
		Temperature: system.Temperature{Cores: []float64{}},
		Unavailable: []string{},
	}, nil
}

func (g *stubGateway) Services(context.Context) (*system.ServiceList, error) {
	return &system.ServiceList{Services: []system.ServiceRecord{}, Count: 0}, nil
}

func (g *stubGateway) DiskIO(context.Context) (*system.DiskIOStats, error) {
	return &system.DiskIOStats{}, nil
}

func useConfig(t *testing.T, mutate func(c *conf.Config)) {
	t.Helper()
	prevPath, prevConf := conf.Path, conf.Read()
	t.Cleanup(func() {
		conf.Path, conf.Conf = prevPath, prevConf
	})

	require.NoError(t, conf.LoadConfig(filepath.Join(t.TempDir(), "config.toml")))
	next := conf.Default()
	if mutate != nil {
		mutate(&next)
	}
	require.NoError(t, conf.Write(next))
}

func TestAPIEndpoints(t *testing.T) {
	mux := http.NewServeMux()
	NewAPI(&stubGateway{}, zap.NewNop()).StartAPI(mux)

	tests := []struct {
		path string
		key  string
	}{
		{"/api/system", "cpu"},
		{"/api/services", "runningCount"},
		{"/api/disk-io", "totalIO"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Contains(t, body, tt.key)
		})
	}
}

func TestAPIRejectsNonGet(t *testing.T) {
	mux := http.NewServeMux()
	NewAPI(&stubGateway{}, zap.NewNop()).StartAPI(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/system", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestAPISnapshotFailure(t *testing.T) {
	mux := http.NewServeMux()
	NewAPI(&stubGateway{snapErr: errors.New("probe exploded")}, zap.NewNop()).StartAPI(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/system", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Failed to fetch system information"}`, rec.Body.String())
}

type recorder struct {
	mu     sync.Mutex
	events []string
	last   map[string][]any
}

func newRecorder() *recorder {
	return &recorder{last: make(map[string][]any)}
}

func (r *recorder) emit(event string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	r.last[event] = args
}

func (r *recorder) has(event string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.last[event]
	return ok
}

func (r *recorder) lastArg(event string) any {
	r.mu.Lock()
	defer r.mu.Unlock()
	if args := r.last[event]; len(args) > 0 {
		return args[0]
	}
	return nil
}

func newTestService(gw dashboard.Gateway) *DashboardService {
	s := NewDashboardService(gw, zap.NewNop())
	s.interval = func() time.Duration { return time.Hour }
	return s
}

func TestDashboardConnectAndDisconnect(t *testing.T) {
	s := newTestService(&stubGateway{})
	rec := newRecorder()

	s.Connect("client-1", "admin", rec.emit)
	assert.Equal(t, 1, s.GetActiveSessionsCount())

	connected, ok := rec.lastArg("dashboard_connected").(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "1h0m0s", connected["refresh_rate"])
	assert.Equal(t, "admin", connected["username"])

	assert.Eventually(t, func() bool {
		view, ok := s.State("client-1")
		return ok && view.State == dashboard.StateReady
	}, 2*time.Second, 10*time.Millisecond)
	assert.True(t, rec.has("dashboard_state"))

	s.Disconnect("client-1")
	assert.Equal(t, 0, s.GetActiveSessionsCount())
	_, ok = s.State("client-1")
	assert.False(t, ok)
}

func TestDashboardManualRefresh(t *testing.T) {
	s := newTestService(&stubGateway{})
	rec := newRecorder()

	assert.ErrorIs(t, s.Refresh(context.Background(), "ghost"), ErrNoSession)

	s.Connect("client-1", "admin", rec.emit)
	defer s.Close()

	require.Eventually(t, func() bool {
		view, _ := s.State("client-1")
		return view.State == dashboard.StateReady
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, s.Refresh(context.Background(), "client-1"))
	view, _ := s.State("client-1")
	assert.Len(t, view.History, 2)
}

func TestDashboardRefreshInFlight(t *testing.T) {
	gw := &stubGateway{block: make(chan struct{})}
	s := newTestService(gw)
	rec := newRecorder()

	s.Connect("client-1", "admin", rec.emit)
	require.Eventually(t, func() bool {
		view, _ := s.State("client-1")
		return view.State == dashboard.StateLoading
	}, 2*time.Second, 10*time.Millisecond)

	err := s.Refresh(context.Background(), "client-1")
	assert.ErrorIs(t, err, dashboard.ErrRefreshInFlight)
	assert.Equal(t, "Refresh already in progress", refreshErrorMessage(err))

	close(gw.block)
	s.Close()
}

func TestDashboardSetRefreshRate(t *testing.T) {
	s := newTestService(&stubGateway{})
	rec := newRecorder()

	assert.Error(t, s.SetRefreshRate("ghost", "5s"))

	s.Connect("client-1", "admin", rec.emit)
	defer s.Close()

	assert.Error(t, s.SetRefreshRate("client-1", ""))
	assert.Error(t, s.SetRefreshRate("client-1", "fast"))
	assert.Error(t, s.SetRefreshRate("client-1", "10ms"))

	require.NoError(t, s.SetRefreshRate("client-1", "OFF"))
	assert.Equal(t, map[string]any{"rate": "OFF"}, rec.lastArg("refresh_rate_updated"))

	require.NoError(t, s.SetRefreshRate("client-1", "30s"))
	assert.Equal(t, map[string]any{"rate": "30s"}, rec.lastArg("refresh_rate_updated"))
	view, _ := s.State("client-1")
	assert.Equal(t, 30*time.Second, view.Interval)
}

func TestLoginFlow(t *testing.T) {
	useConfig(t, nil)
	require.NoError(t, auth.NewUser("admin", "secret"))

	mux := http.NewServeMux()
	StartLogin(mux, zap.NewNop())

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login", bytes.NewBufferString(`{"username":"admin","password":"nope"}`)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login", bytes.NewBufferString(`{"username":"admin","password":"secret"}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, auth.CookieName, cookies[0].Name)

	req := httptest.NewRequest(http.MethodGet, "/check-auth", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"username":"admin"`)

	req = httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/check-auth", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginRejectsBadRequests(t *testing.T) {
	useConfig(t, nil)
	mux := http.NewServeMux()
	StartLogin(mux, zap.NewNop())

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/login", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login", bytes.NewBufferString("not json")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIndexAndStaticFiles(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "index.html"), []byte("<h1>panel</h1>"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "assets"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "assets", "app.js"), []byte("console.log(1)"), 0o644))
	useConfig(t, func(c *conf.Config) { c.Web.RootPath = root })

	mux := http.NewServeMux()
	StartIndex(mux)
	StartAssets(mux)
	StartPages(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "panel")

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/assets/app.js", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "console.log(1)", rec.Body.String())

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
