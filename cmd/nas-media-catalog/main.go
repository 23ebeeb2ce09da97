package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"nas-media-catalog/internal/database"
	"nas-media-catalog/internal/handlers"
	"nas-media-catalog/internal/indexer"
	"nas-media-catalog/internal/logging"
	"nas-media-catalog/internal/memory"
	"nas-media-catalog/internal/metrics"
	"nas-media-catalog/internal/middleware"
	"nas-media-catalog/internal/startup"
	"nas-media-catalog/internal/upnp"
)

const (
	shutdownTimeout        = 30 * time.Second
	sessionCleanupInterval = time.Hour
	vacuumInterval         = 24 * time.Hour
	metricsInterval        = time.Minute
)

func main() {
	if err := run(); err != nil {
		startup.LogFatal("%v", err)
	}
}

func run() error {
	startTime := time.Now()
	memLimit := memory.ConfigureFromEnv()

	config, err := startup.LoadConfig()
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	if memLimit.Configured() {
		logging.Info("  Memory limit: %s (from %s)", memory.FormatBytes(memLimit.GoMemLimit), memLimit.Source)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbStart := time.Now()
	db, err := database.New(ctx, config.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error("Failed to close database: %v", err)
		}
	}()
	startup.LogDatabaseInit(time.Since(dbStart))
	database.SetSessionDuration(config.SessionDuration)
	startup.LogAuthInit(config.AuthEnabled, db.HasUsers(ctx))

	metrics.InitializeMetrics()
	metrics.SetAppInfo(startup.Version, startup.Commit, startup.GoVersion)

	startup.LogUPnPInit(config.DiscoveryTimeout, config.ServerName)
	mgr := upnp.NewManager(upnp.DiscoveryConfig{Timeout: config.DiscoveryTimeout}, upnp.Discover)
	client := upnp.NewClient(upnp.ClientOptions{RateLimit: rate.Limit(config.BrowseRate)})
	connectUPnP(ctx, mgr, config)

	startup.LogArtworkInit(config.ArtworkEnabled, config.ArtworkDir)

	startup.LogIndexerInit(config.ScanInterval, config.MaxScanDepth, config.ScanOnStartup)
	idx := indexer.New(db, client, mgr, indexer.Config{
		MaxDepth:    config.MaxScanDepth,
		Interval:    config.ScanInterval,
		ScanOnStart: config.ScanOnStartup && mgr.Connected(),
		SMB:         config.SMB,
	})
	if err := idx.Start(); err != nil {
		return fmt.Errorf("failed to start indexer: %w", err)
	}
	startup.LogIndexerStarted()

	h := handlers.New(db, idx, mgr, client, config)
	router := h.Router(handlers.RouterOptions{
		AuthEnabled: config.AuthEnabled,
		StaticDir:   staticDir(config),
	})
	startup.LogHTTPRoutes(router, config.LogStaticFiles, config.LogHealthChecks)

	srv := newServer(config.Addr(), buildHandler(h, router, config))

	var (
		metricsSrv *http.Server
		collector  *metrics.Collector
	)
	if config.MetricsEnabled {
		metricsSrv = newMetricsServer(config.MetricsAddr(), h.MetricsHandler())
		collector = metrics.NewCollector(db, metricsInterval)
		collector.Start()
	}

	g, gctx := errgroup.WithContext(ctx)

	var workers sync.WaitGroup
	startBackgroundWorkers(gctx, &workers, db)

	g.Go(func() error { return serve(srv) })
	if metricsSrv != nil {
		g.Go(func() error { return serve(metricsSrv) })
	}
	g.Go(func() error {
		<-gctx.Done()
		reason := "server error"
		if ctx.Err() != nil {
			reason = "signal"
		}
		shutdown(reason, srv, metricsSrv, collector, idx, &workers)
		return nil
	})

	startup.LogServerStarted(startup.ServerConfig{
		Host:            config.Host,
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		MediaServer:     currentServerName(mgr),
		ExportDir:       exportDir(config),
		StartupDuration: time.Since(startTime),
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// connectUPnP makes the initial connection. A missing server is not fatal;
// it can be connected later through the reconnect endpoint.
func connectUPnP(ctx context.Context, mgr *upnp.Manager, config *startup.Config) {
	ctx, cancel := context.WithTimeout(ctx, 2*config.DiscoveryTimeout)
	defer cancel()

	server, err := mgr.Connect(ctx, config.ServerName)
	if err != nil {
		startup.LogUPnPUnavailable(err)
		return
	}
	startup.LogUPnPConnected(server.Name, server.Location, len(mgr.Servers()))
}

func staticDir(config *startup.Config) string {
	if !config.StaticEnabled {
		return ""
	}
	return config.StaticDir
}

func exportDir(config *startup.Config) string {
	if !config.ExportEnabled {
		return ""
	}
	return config.ExportDir
}

func currentServerName(mgr *upnp.Manager) string {
	if server, ok := mgr.Current(); ok {
		return server.Name
	}
	return ""
}

// buildHandler wraps the router with auth, access logging, request metrics
// and compression, innermost first.
func buildHandler(h *handlers.Handlers, router http.Handler, config *startup.Config) http.Handler {
	handler := router
	if config.AuthEnabled {
		handler = h.AuthMiddleware(handler)
	}

	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogStaticFiles = config.LogStaticFiles
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	handler = middleware.Logger(loggingConfig)(handler)

	handler = middleware.Metrics(middleware.DefaultMetricsConfig())(handler)
	return middleware.Compression(middleware.DefaultCompressionConfig())(handler)
}

// newServer has no write timeout so long media streams are not cut off;
// the stream proxy enforces its own per-write deadline.
func newServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      0,
		IdleTimeout:       60 * time.Second,
	}
}

func newMetricsServer(addr string, metricsHandler http.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metricsHandler)
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       30 * time.Second,
	}
}

func serve(srv *http.Server) error {
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// maintenanceStore is the database surface the background workers use.
type maintenanceStore interface {
	CleanExpiredSessions(ctx context.Context) (int64, error)
	Vacuum(ctx context.Context) error
}

// startBackgroundWorkers removes expired sessions hourly and vacuums the
// database daily until ctx is done.
func startBackgroundWorkers(ctx context.Context, wg *sync.WaitGroup, store maintenanceStore) {
	wg.Add(2)
	go func() {
		defer wg.Done()
		every(ctx, sessionCleanupInterval, func() {
			n, err := store.CleanExpiredSessions(ctx)
			switch {
			case err != nil:
				logging.Warn("Session cleanup failed: %v", err)
			case n > 0:
				logging.Debug("Removed %d expired sessions", n)
			}
		})
	}()
	go func() {
		defer wg.Done()
		every(ctx, vacuumInterval, func() {
			if err := store.Vacuum(ctx); err != nil {
				logging.Warn("Database vacuum failed: %v", err)
			}
		})
	}()
}

func every(ctx context.Context, interval time.Duration, fn func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			fn()
		case <-ctx.Done():
			return
		}
	}
}

func shutdown(reason string, srv, metricsSrv *http.Server, collector *metrics.Collector, idx *indexer.Indexer, workers *sync.WaitGroup) {
	startup.LogShutdownInitiated(reason)

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	startup.LogShutdownStep("Stopping indexer")
	idx.Stop()
	startup.LogShutdownStepComplete("Indexer stopped")

	if collector != nil {
		startup.LogShutdownStep("Stopping metrics collector")
		collector.Stop()
		startup.LogShutdownStepComplete("Metrics collector stopped")
	}
	if metricsSrv != nil {
		startup.LogShutdownStep("Shutting down metrics server")
		if err := metricsSrv.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		} else {
			startup.LogShutdownStepComplete("Metrics server stopped")
		}
	}

	startup.LogShutdownStep("Stopping background workers")
	workers.Wait()
	startup.LogShutdownStepComplete("Background workers stopped")

	startup.LogShutdownComplete()
}
