package web

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cast"
	"github.com/zishang520/socket.io/servers/socket/v3"
	"go.uber.org/zap"

	"hostpanel/internal/auth"
	"hostpanel/internal/conf"
	"hostpanel/internal/dashboard"
	"hostpanel/internal/netx"
)

// DashboardNamespace is the Socket.IO namespace of the live dashboard
const DashboardNamespace = "/dashboard"

var ErrNoSession = errors.New("no active dashboard session")

// Emitter sends one event to a connected viewer
type Emitter func(event string, args ...any)

// DashboardSession is one mounted dashboard view
type DashboardSession struct {
	ID         string
	Username   string
	controller *dashboard.Controller
	emit       Emitter
}

// DashboardService gives every connected viewer its own refreshing controller
type DashboardService struct {
	gateway  dashboard.Gateway
	logger   *zap.Logger
	interval func() time.Duration

	mu       sync.RWMutex
	sessions map[string]*DashboardSession
}

// NewDashboardService creates the service; intervals are read from the config on every connect
func NewDashboardService(gateway dashboard.Gateway, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		gateway:  gateway,
		logger:   logger,
		interval: conf.RefreshInterval,
		sessions: make(map[string]*DashboardSession),
	}
}

// SetupDashboardService wires the dashboard events on the server's dashboard namespace
func (s *DashboardService) SetupDashboardService(server *netx.Socket) error {
	dashNamespace := server.GetNamespace(DashboardNamespace)
	if dashNamespace == nil {
		return fmt.Errorf("namespace %s not registered", DashboardNamespace)
	}

	dashNamespace.AddEvent("connect_dashboard", s.handleDashboardConnect)
	dashNamespace.AddEvent("set_refresh_rate", s.handleSetRefreshRate)
	dashNamespace.AddEvent("refresh_data", s.handleRefreshData)
	dashNamespace.AddEvent("disconnect", s.handleDashboardDisconnect)
	dashNamespace.RegisterEvents()

	dashNamespace.AddMiddleware(auth.RequireAuthSocketIO)
	return nil
}

func socketEmitter(client *socket.Socket) Emitter {
	return func(event string, args ...any) {
		client.Emit(event, args...)
	}
}

func (s *DashboardService) handleDashboardConnect(client *socket.Socket, data ...any) {
	s.Connect(string(client.Id()), getUsernameFromSocket(client), socketEmitter(client))
}

func (s *DashboardService) handleSetRefreshRate(client *socket.Socket, data ...any) {
	emit := socketEmitter(client)
	payload, ok := netx.FirstArg(data)
	if !ok {
		emit("dashboard_error", "No refresh rate data provided")
		return
	}
	rateData, ok := payload.(map[string]any)
	if !ok {
		emit("dashboard_error", "Invalid refresh rate data format")
		return
	}
	rate, _ := rateData["rate"].(string)
	if err := s.SetRefreshRate(string(client.Id()), rate); err != nil {
		emit("dashboard_error", err.Error())
	}
}

func (s *DashboardService) handleRefreshData(client *socket.Socket, data ...any) {
	id := string(client.Id())
	emit := socketEmitter(client)
	// a refresh can take seconds; keep the socket's event loop free
	go func() {
		if err := s.Refresh(context.Background(), id); err != nil {
			emit("dashboard_error", refreshErrorMessage(err))
		}
	}()
}

func (s *DashboardService) handleDashboardDisconnect(client *socket.Socket, data ...any) {
	s.Disconnect(string(client.Id()))
}

// getUsernameFromSocket returns the logged-in user, or a placeholder when auth is off
func getUsernameFromSocket(client *socket.Socket) string {
	if username, valid := auth.ValidateSession(auth.SocketToken(client)); valid {
		return username
	}
	return "Administrator"
}

// Connect mounts a dashboard for the viewer and starts its refresh schedule.
// A viewer that connects twice gets a fresh controller.
func (s *DashboardService) Connect(id, username string, emit Emitter) {
	s.Disconnect(id)

	interval := s.interval()
	controller := dashboard.NewController(s.gateway, dashboard.Options{
		Interval: interval,
		Logger:   s.logger.With(zap.String("session", id)),
	})
	controller.OnChange(func(v dashboard.View) {
		emit("dashboard_state", v)
	})

	session := &DashboardSession{ID: id, Username: username, controller: controller, emit: emit}
	s.mu.Lock()
	s.sessions[id] = session
	s.mu.Unlock()

	s.logger.Info("dashboard client connected",
		zap.String("session", id),
		zap.String("username", username),
		zap.Duration("refresh_rate", interval))

	emit("dashboard_connected", map[string]any{
		"refresh_rate": interval.String(),
		"status":       "connected",
		"username":     username,
	})
	if err := controller.Start(context.Background()); err != nil {
		s.logger.Error("failed to start dashboard", zap.String("session", id), zap.Error(err))
		emit("dashboard_error", "Failed to start dashboard")
	}
}

// Refresh runs a manual refresh for the viewer
func (s *DashboardService) Refresh(ctx context.Context, id string) error {
	session, ok := s.session(id)
	if !ok {
		return ErrNoSession
	}
	return session.controller.ManualRefresh(ctx)
}

func refreshErrorMessage(err error) string {
	switch {
	case errors.Is(err, ErrNoSession):
		return "No active dashboard session"
	case errors.Is(err, dashboard.ErrRefreshInFlight):
		return "Refresh already in progress"
	default:
		return dashboard.FetchErrorMessage
	}
}

// SetRefreshRate changes the viewer's schedule. "OFF" pauses it; otherwise
// rate is a duration such as "5s" or "1m".
func (s *DashboardService) SetRefreshRate(id, rate string) error {
	if rate == "" {
		return errors.New("Refresh rate is required")
	}
	session, ok := s.session(id)
	if !ok {
		return errors.New("No active dashboard session")
	}

	if strings.EqualFold(rate, "OFF") {
		session.controller.Stop()
		session.emit("refresh_rate_updated", map[string]any{"rate": "OFF"})
		return nil
	}

	d, err := cast.ToDurationE(rate)
	if err != nil || d < conf.MinRefreshInterval {
		return errors.New("Invalid refresh rate format")
	}
	if err := session.controller.SetInterval(d); err != nil {
		return errors.New("Invalid refresh rate format")
	}
	// resume a paused schedule
	if err := session.controller.Start(context.Background()); err != nil && !errors.Is(err, dashboard.ErrAlreadyStarted) {
		return fmt.Errorf("failed to restart dashboard: %w", err)
	}
	session.emit("refresh_rate_updated", map[string]any{"rate": rate})
	return nil
}

// Disconnect unmounts the viewer's dashboard and stops its schedule
func (s *DashboardService) Disconnect(id string) {
	s.mu.Lock()
	session, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if !ok {
		return
	}

	session.controller.Stop()
	s.logger.Info("dashboard client disconnected", zap.String("session", id))
}

// Close stops every mounted dashboard
func (s *DashboardService) Close() {
	s.mu.RLock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	for _, id := range ids {
		s.Disconnect(id)
	}
}

// GetActiveSessionsCount returns the number of mounted dashboards
func (s *DashboardService) GetActiveSessionsCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// State returns the current view of a viewer's dashboard
func (s *DashboardService) State(id string) (dashboard.View, bool) {
	session, ok := s.session(id)
	if !ok {
		return dashboard.View{}, false
	}
	return session.controller.State(), true
}

func (s *DashboardService) session(id string) (*DashboardSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	return session, ok
}
