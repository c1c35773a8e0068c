package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gallery-player/internal/engine"
	"gallery-player/internal/handlers"
	"gallery-player/internal/index"
	"gallery-player/internal/logging"
	"gallery-player/internal/memory"
	"gallery-player/internal/metrics"
	"gallery-player/internal/middleware"
	"gallery-player/internal/playlist"
	"gallery-player/internal/session"
	"gallery-player/internal/source"
	"gallery-player/internal/startup"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	startTime := time.Now()

	// Load configuration
	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	metrics.InitializeMetrics()
	metrics.SetAppInfo(startup.Version, startup.Commit)

	// Open the session store
	sessions, err := session.Open(config.SessionPath)
	if err != nil {
		logging.Warn("Session store unavailable, resume disabled: %v", err)
		sessions = nil
	} else {
		defer sessions.Close()
	}

	// Build the source
	src, cleanup, err := buildSource(config)
	if err != nil {
		startup.LogFatal("Failed to initialize source: %v", err)
	}
	defer cleanup()

	// Memory monitor (optional)
	var mem *memory.Monitor
	if config.MemoryLimitBytes > 0 {
		memCfg := memory.DefaultConfig()
		memCfg.MemoryLimitBytes = config.MemoryLimitBytes
		mem = memory.NewMonitor(memCfg)
		mem.Start()
		defer mem.Stop()
	}

	// Wire the engine
	eng := engine.New(engine.Config{
		SlideInterval:   config.SlideInterval,
		Debounce:        config.DebounceWindow,
		PreloadRadius:   config.PreloadRadius,
		ReserveRadius:   config.ReserveRadius,
		FetchTimeout:    config.FetchTimeout,
		RetrieveTimeout: config.RetrieveTimeout,
	}, src, sessions, mem)

	// Watch the local tree for changes, if any
	if local, ok := src.(*source.Local); ok {
		watcher, err := source.NewWatcher(local.Root(), eng.Refresh)
		if err != nil {
			logging.Warn("Filesystem watcher unavailable: %v", err)
		} else {
			// Start blocks until Stop, so the watch loop gets its own
			// goroutine.
			go watcher.Start()
			defer watcher.Stop()
		}
	}

	initial := playlist.Criteria{
		SourceID:    src.ID(),
		Paths:       config.Paths,
		Sort:        config.Sort,
		Direction:   config.Direction,
		Orientation: config.Orientation,
	}

	startCtx, startCancel := context.WithTimeout(context.Background(), config.FetchTimeout)
	eng.Start(startCtx, initial)
	startCancel()

	// Initialize handlers and router
	h := handlers.New(eng, src.ID(), config)
	router := setupRouter(h)

	startup.LogHTTPRoutes(router, config.LogHealthChecks)

	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	loggingConfig.LogImageFetches = config.LogImageFetches
	loggedHandler := middleware.Logger(loggingConfig)(router)

	metricsHandler := middleware.Metrics(middleware.DefaultMetricsConfig())(loggedHandler)

	compressionConfig := middleware.DefaultCompressionConfig()
	handler := middleware.Compression(compressionConfig)(metricsHandler)

	srv := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Metrics on a separate listener so scrapes never contend with image
	// serving
	var metricsSrv *http.Server
	if config.MetricsEnabled {
		mr := mux.NewRouter()
		mr.Handle("/metrics", promhttp.Handler())
		metricsSrv = &http.Server{
			Addr:        ":" + config.MetricsPort,
			Handler:     mr,
			ReadTimeout: 15 * time.Second,
		}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != http.ErrServerClosed {
				logging.Error("Metrics server error: %v", err)
			}
		}()
	}

	go handleShutdown(srv, metricsSrv, eng)

	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		startup.LogFatal("Server error: %v", err)
	}
}

// buildSource selects the source from configuration: remote server,
// local tree with its metadata index, or the built-in demo.
func buildSource(config *startup.Config) (source.Source, func(), error) {
	switch {
	case config.ServerURL != "":
		remote := source.NewRemote(config.ServerURL, config.FetchTimeout)
		return remote, func() {}, nil

	case config.MediaDir != "":
		idx, err := index.Open(config.IndexPath)
		if err != nil {
			return nil, nil, err
		}
		local, err := source.NewLocal(config.MediaDir, idx)
		if err != nil {
			idx.Close()
			return nil, nil, err
		}
		cleanup := func() {
			if err := idx.Close(); err != nil {
				logging.Warn("Failed to close metadata index: %v", err)
			}
		}
		return local, cleanup, nil

	default:
		return source.NewDemo(config.DemoCount), func() {}, nil
	}
}

func setupRouter(h *handlers.Handlers) *mux.Router {
	r := mux.NewRouter()

	// Health check and version routes
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	// Player API
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/state", h.GetState).Methods("GET")
	api.HandleFunc("/current", h.GetCurrent).Methods("GET")
	api.HandleFunc("/advance", h.Advance).Methods("POST")
	api.HandleFunc("/retreat", h.Retreat).Methods("POST")
	api.HandleFunc("/pause", h.TogglePause).Methods("POST")
	api.HandleFunc("/overlay", h.ToggleOverlay).Methods("POST")
	api.HandleFunc("/interval", h.SetInterval).Methods("POST")
	api.HandleFunc("/criteria", h.SetCriteria).Methods("POST")
	api.HandleFunc("/refresh", h.Refresh).Methods("POST")

	return r
}

func handleShutdown(srv, metricsSrv *http.Server, eng *engine.Engine) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	startup.LogShutdownStep("Stopping playlist engine")
	eng.Stop()
	startup.LogShutdownStepComplete("Playlist engine stopped")

	if metricsSrv != nil {
		startup.LogShutdownStep("Shutting down metrics server")
		if err := metricsSrv.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		} else {
			startup.LogShutdownStepComplete("Metrics server stopped")
		}
	}

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	startup.LogShutdownComplete()
}
