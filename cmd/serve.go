package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sourcegraph/conc"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"hostpanel/internal/conf"
	"hostpanel/internal/dashboard"
	"hostpanel/internal/logging"
	"hostpanel/internal/netx"
	"hostpanel/internal/system"
	"hostpanel/internal/web"
)

const shutdownTimeout = 5 * time.Second

var serveAddrFlag string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web panel",
	Long: `Start the HTTP server with the dashboard, the JSON API and the login pages.

The config file is created if missing and reloaded when it changes on disk.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddrFlag, "addr", "", "listen address, overrides server.addr")
}

// newGateway picks the metrics source: this host, or another panel's API
func newGateway(source string, logger *zap.Logger) dashboard.Gateway {
	source = strings.TrimSpace(source)
	if source != "" && !strings.EqualFold(source, "local") {
		logger.Info("using remote metrics source", zap.String("source", source))
		return dashboard.NewHTTPGateway(source, conf.RequestTimeout())
	}

	probe := conf.GetProbe()
	return system.NewGateway(system.Options{
		DeviceTreeModel: probe.DeviceTreeModel,
		PowerSupplyDir:  probe.PowerSupplyDir,
		DRMDir:          probe.DRMDir,
		ProcessLimit:    probe.ProcessLimit,
		ProbeTimeout:    conf.ProbeTimeout(),
		Runner:          system.ExecRunner,
	}, logger.Named("system"))
}

func serve(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := conf.LoadConfig(configPath); err != nil {
		return fmt.Errorf("failed to load config %s: %w", configPath, err)
	}

	logger := logging.New(conf.GetLog())
	defer logger.Sync()

	gateway := newGateway(conf.GetDashboard().Source, logger)

	server := netx.SetupGlobalServer(web.DashboardNamespace)
	dashboards := web.NewDashboardService(gateway, logger.Named("dashboard"))
	if err := dashboards.SetupDashboardService(server); err != nil {
		return err
	}
	defer dashboards.Close()

	mux := http.NewServeMux()
	mux.Handle(netx.SocketPath, netx.GetHandler())
	web.NewAPI(gateway, logger.Named("api")).StartAPI(mux)
	web.StartPages(mux)
	web.StartAssets(mux)
	web.StartIndex(mux)
	web.StartLogin(mux, logger.Named("auth"))

	addr := conf.GetServer().Addr
	if serveAddrFlag != "" {
		addr = serveAddrFlag
	}
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg conc.WaitGroup
	defer wg.Wait()
	wg.Go(func() {
		if err := conf.Watch(ctx, logger.Named("conf")); err != nil {
			logger.Warn("config watcher stopped", zap.Error(err))
		}
	})

	errCh := make(chan error, 1)
	go func() {
		logger.Info("panel listening", zap.String("addr", addr))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		stop()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}
