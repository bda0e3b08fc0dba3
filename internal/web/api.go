package web

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"hostpanel/internal/dashboard"
	"hostpanel/internal/netx"
)

// API serves the gateway's read-only JSON endpoints
type API struct {
	gateway dashboard.Gateway
	logger  *zap.Logger
}

// NewAPI creates the JSON endpoints for a gateway
func NewAPI(gateway dashboard.Gateway, logger *zap.Logger) *API {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &API{gateway: gateway, logger: logger}
}

// StartAPI registers the endpoints with the given mux
func (a *API) StartAPI(mux *http.ServeMux) {
	mux.HandleFunc("/api/system", a.handleSystem)
	mux.HandleFunc("/api/services", a.handleServices)
	mux.HandleFunc("/api/disk-io", a.handleDiskIO)
}

func (a *API) handleSystem(w http.ResponseWriter, r *http.Request) {
	serve(w, r, a.logger, "Failed to fetch system information", func(ctx context.Context) (any, error) {
		return a.gateway.Snapshot(ctx)
	})
}

func (a *API) handleServices(w http.ResponseWriter, r *http.Request) {
	serve(w, r, a.logger, "Failed to fetch service information", func(ctx context.Context) (any, error) {
		return a.gateway.Services(ctx)
	})
}

func (a *API) handleDiskIO(w http.ResponseWriter, r *http.Request) {
	serve(w, r, a.logger, "Failed to fetch disk I/O information", func(ctx context.Context) (any, error) {
		return a.gateway.DiskIO(ctx)
	})
}

// serve runs one GET endpoint, hiding internal errors behind failMessage
func serve(w http.ResponseWriter, r *http.Request, logger *zap.Logger, failMessage string, fetch func(context.Context) (any, error)) {
	if r.Method != http.MethodGet {
		netx.WriteMethodNotAllowed(w)
		return
	}

	data, err := fetch(r.Context())
	if err != nil {
		logger.Error(failMessage, zap.String("path", r.URL.Path), zap.Error(err))
		netx.WriteInternalServerError(w, failMessage)
		return
	}
	if err := netx.WriteJSON(w, http.StatusOK, data); err != nil {
		logger.Warn("failed to write response", zap.String("path", r.URL.Path), zap.Error(err))
	}
}
