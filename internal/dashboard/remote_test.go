package dashboard

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPGateway(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/system", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"cpu":{"model":"Remote CPU","load":{"currentLoad":91.5,"coresLoad":[]}},"temperature":{"main":null,"cores":[],"max":null},"unavailable":["temperature"]}`))
	})
	mux.HandleFunc("/api/services", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"services":[{"name":"ssh","status":"running","isRunning":true}],"count":1,"runningCount":1}`))
	})
	mux.HandleFunc("/api/disk-io", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Failed to fetch disk I/O information"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	gw := NewHTTPGateway(srv.URL+"/", time.Second)
	ctx := context.Background()

	snap, err := gw.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Remote CPU", snap.CPU.Model)
	assert.Equal(t, 91.5, snap.CPU.Load.CurrentLoad)
	assert.Nil(t, snap.Temperature.Main)
	assert.False(t, snap.Available("temperature"))

	services, err := gw.Services(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, services.RunningCount)

	_, err = gw.DiskIO(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Failed to fetch disk I/O information")
	assert.Contains(t, err.Error(), "500")
}

func TestControllerOverHTTPGateway(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewController(NewHTTPGateway(srv.URL, time.Second), Options{})
	require.Error(t, c.Refresh(context.Background()))

	view := c.State()
	assert.Equal(t, StateFailed, view.State)
	assert.Equal(t, FetchErrorMessage, view.Error)
	assert.Nil(t, view.Snapshot)
}
