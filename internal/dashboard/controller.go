// Package dashboard keeps the refreshing view state of one dashboard viewer.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sourcegraph/conc"
	"go.uber.org/zap"

	"hostpanel/internal/health"
	"hostpanel/internal/system"
)

// Gateway supplies the metrics a controller displays
type Gateway interface {
	Snapshot(ctx context.Context) (*system.Snapshot, error)
	Services(ctx context.Context) (*system.ServiceList, error)
	DiskIO(ctx context.Context) (*system.DiskIOStats, error)
}

// State is the controller's lifecycle phase
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateFailed  State = "failed"
)

// DefaultInterval is the refresh period when none is configured
const DefaultInterval = 10 * time.Second

// FetchErrorMessage is shown to the viewer when the snapshot cannot be fetched
const FetchErrorMessage = "Failed to fetch system information"

var (
	// ErrRefreshInFlight is returned when a refresh is requested while another runs
	ErrRefreshInFlight = errors.New("refresh already in progress")
	ErrAlreadyStarted  = errors.New("dashboard already started")
)

// View is a copy of the controller's state, safe to hand to other goroutines
type View struct {
	State           State                     `json:"state"`
	Snapshot        *system.Snapshot          `json:"snapshot"`
	History         []HistoryPoint            `json:"history"`
	Health          *health.Report            `json:"health"`
	Services        *system.ServiceList       `json:"services"`
	ServiceHealth   []health.ServiceIndicator `json:"serviceHealth"`
	DiskIO          *system.DiskIOStats       `json:"diskIO"`
	Loading         bool                      `json:"loading"`
	ServicesLoading bool                      `json:"servicesLoading"`
	DiskIOLoading   bool                      `json:"diskIOLoading"`
	Error           string                    `json:"error,omitempty"`
	LastRefresh     *time.Time                `json:"lastRefresh"`
	Interval        time.Duration             `json:"interval"`
}

// Options tune a controller. Zero values select the defaults.
type Options struct {
	Interval time.Duration
	Now      func() time.Time
	Logger   *zap.Logger
}

// Controller refreshes a gateway on a schedule and publishes the resulting view
type Controller struct {
	gateway Gateway
	now     func() time.Time
	logger  *zap.Logger

	notifyMu  sync.Mutex
	mu        sync.RWMutex
	view      View
	history   *History
	listeners []func(View)

	inFlight atomic.Bool

	schedMu  sync.Mutex
	cron     *cron.Cron
	entry    cron.EntryID
	runCtx   context.Context
	cancel   context.CancelFunc
	initial  conc.WaitGroup
	interval time.Duration
}

// NewController creates an idle controller
func NewController(gateway Gateway, opts Options) *Controller {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Controller{
		gateway:  gateway,
		now:      opts.Now,
		logger:   opts.Logger,
		view:     View{State: StateIdle, Interval: opts.Interval},
		history:  NewHistory(HistorySize),
		interval: opts.Interval,
	}
}

// OnChange registers a listener called with a fresh view after every state change
func (c *Controller) OnChange(fn func(View)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// State returns a copy of the current view
func (c *Controller) State() View {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() View {
	v := c.view
	v.History = c.history.Points()
	if c.view.LastRefresh != nil {
		at := *c.view.LastRefresh
		v.LastRefresh = &at
	}
	return v
}

// update mutates the view and notifies listeners in mutation order.
// Listeners must not call back into Refresh.
func (c *Controller) update(fn func(v *View)) {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()

	c.mu.Lock()
	fn(&c.view)
	view := c.snapshotLocked()
	listeners := append([]func(View){}, c.listeners...)
	c.mu.Unlock()

	for _, l := range listeners {
		l(view)
	}
}

// Refresh fetches the snapshot, service list and disk I/O concurrently.
// Services and disk I/O settle on their own; only a snapshot failure moves
// the controller to the failed state, keeping the last good snapshot.
func (c *Controller) Refresh(ctx context.Context) error {
	if !c.inFlight.CompareAndSwap(false, true) {
		return ErrRefreshInFlight
	}
	defer c.inFlight.Store(false)

	c.update(func(v *View) {
		v.State = StateLoading
		v.Loading = true
		v.ServicesLoading = true
		v.DiskIOLoading = true
	})

	var (
		wg      conc.WaitGroup
		snapErr error
	)
	wg.Go(func() { snapErr = c.refreshSnapshot(ctx) })
	wg.Go(func() { c.refreshServices(ctx) })
	wg.Go(func() { c.refreshDiskIO(ctx) })
	if recovered := wg.WaitAndRecover(); recovered != nil {
		err := recovered.AsError()
		c.logger.Error("dashboard refresh panicked", zap.Error(err))
		c.fail()
		return fmt.Errorf("failed to refresh dashboard: %w", err)
	}
	return snapErr
}

// ManualRefresh is a viewer-initiated refresh, allowed in any state
func (c *Controller) ManualRefresh(ctx context.Context) error {
	return c.Refresh(ctx)
}

func (c *Controller) refreshSnapshot(ctx context.Context) error {
	snap, err := c.gateway.Snapshot(ctx)
	if err == nil && snap == nil {
		err = errors.New("empty snapshot")
	}
	if err != nil {
		c.logger.Error("failed to fetch system snapshot", zap.Error(err))
		c.fail()
		return fmt.Errorf("failed to fetch system snapshot: %w", err)
	}

	now := c.now()
	report := health.Assess(snap)
	c.update(func(v *View) {
		c.history.Push(HistoryPoint{
			Time: now.Format(HistoryLabelLayout),
			Load: snap.CPU.Load.CurrentLoad,
			At:   now,
		})
		v.State = StateReady
		v.Snapshot = snap
		v.Health = &report
		v.Loading = false
		v.Error = ""
		v.LastRefresh = &now
	})
	return nil
}

func (c *Controller) fail() {
	c.update(func(v *View) {
		v.State = StateFailed
		v.Loading = false
		v.Error = FetchErrorMessage
	})
}

func (c *Controller) refreshServices(ctx context.Context) {
	services, err := c.gateway.Services(ctx)
	if err != nil {
		c.logger.Warn("failed to fetch services", zap.Error(err))
	}
	c.update(func(v *View) {
		if err == nil && services != nil {
			v.Services = services
			v.ServiceHealth = health.AssessServices(services)
		}
		v.ServicesLoading = false
	})
}

func (c *Controller) refreshDiskIO(ctx context.Context) {
	stats, err := c.gateway.DiskIO(ctx)
	if err != nil {
		c.logger.Warn("failed to fetch disk I/O", zap.Error(err))
	}
	c.update(func(v *View) {
		if err == nil && stats != nil {
			v.DiskIO = stats
		}
		v.DiskIOLoading = false
	})
}

// Start refreshes once and then on every interval until Stop or ctx is done
func (c *Controller) Start(ctx context.Context) error {
	c.schedMu.Lock()
	defer c.schedMu.Unlock()
	if c.cron != nil {
		return ErrAlreadyStarted
	}

	c.runCtx, c.cancel = context.WithCancel(ctx)
	cronLogger := cron.PrintfLogger(zap.NewStdLog(c.logger))
	c.cron = cron.New(cron.WithChain(
		cron.Recover(cronLogger),
		cron.SkipIfStillRunning(cronLogger),
	))
	if err := c.scheduleLocked(); err != nil {
		c.cancel()
		c.cron = nil
		return err
	}
	c.cron.Start()

	runCtx := c.runCtx
	c.initial.Go(func() { c.tick(runCtx) })
	return nil
}

func (c *Controller) scheduleLocked() error {
	runCtx := c.runCtx
	id, err := c.cron.AddFunc(fmt.Sprintf("@every %s", c.interval), func() { c.tick(runCtx) })
	if err != nil {
		return fmt.Errorf("failed to schedule dashboard refresh: %w", err)
	}
	c.entry = id
	return nil
}

func (c *Controller) tick(ctx context.Context) {
	err := c.Refresh(ctx)
	switch {
	case errors.Is(err, ErrRefreshInFlight):
		c.logger.Debug("skipping refresh, previous one still running")
	case err != nil:
		c.logger.Debug("scheduled refresh failed", zap.Error(err))
	}
}

// SetInterval changes the refresh period, rescheduling a running controller
func (c *Controller) SetInterval(d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("invalid refresh interval %s", d)
	}
	c.schedMu.Lock()
	defer c.schedMu.Unlock()

	c.interval = d
	if c.cron != nil {
		c.cron.Remove(c.entry)
		if err := c.scheduleLocked(); err != nil {
			return err
		}
	}
	c.update(func(v *View) { v.Interval = d })
	return nil
}

// Stop cancels the schedule and waits for running refreshes to return
func (c *Controller) Stop() {
	c.schedMu.Lock()
	defer c.schedMu.Unlock()
	if c.cron == nil {
		return
	}

	c.cancel()
	<-c.cron.Stop().Done()
	if recovered := c.initial.WaitAndRecover(); recovered != nil {
		c.logger.Error("initial dashboard refresh panicked", zap.Error(recovered.AsError()))
	}
	c.cron = nil
}
