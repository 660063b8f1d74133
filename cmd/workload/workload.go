package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	"workload/internal/api"
	"workload/internal/bindings"
	"workload/internal/config"
	"workload/internal/logger"
	"workload/internal/models"
	"workload/internal/observability"
	"workload/internal/version"
)

var (
	configFile    = flag.String("config", "", "Path to configuration file")
	exampleConfig = flag.String("write-example-config", "", "Write an example configuration file to this path and exit")
)

func main() {
	flag.Parse()

	if *exampleConfig != "" {
		if err := config.SaveExample(*exampleConfig); err != nil {
			slog.Error("Failed to write example configuration", "error", err)
			os.Exit(1)
		}
		return
	}

	// Load configuration
	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	ver := version.GetInfo()

	// Initialize structured logging
	log, closer, err := logger.Setup(cfg.Logging, ver)
	if err != nil {
		slog.Error("Failed to initialize logger", "error", err)
		os.Exit(1)
	}
	if closer != nil {
		defer closer.Close()
	}

	if err := run(cfg, ver, log); err != nil {
		log.Error("Workload failed", "error", err)
		if closer != nil {
			closer.Close()
		}
		os.Exit(1)
	}
}

// run starts the workload and blocks until SIGINT or SIGTERM. It returns an
// error only for startup failures.
func run(cfg *models.Config, ver version.Info, log *slog.Logger) error {
	// Initialize observability (OpenTelemetry)
	otelProvider, err := observability.Setup(cfg, ver)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := otelProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Failed to shutdown observability", "error", err)
		}
	}()

	// The projector reads the binding root on every call; nothing is cached.
	var projector bindings.Projector = bindings.NewDirProjector(cfg.Bindings.Root, log)
	if cfg.Metrics.Enabled || cfg.Observability.Tracing.Enabled {
		instrumented, err := observability.NewInstrumentedProjector(projector, cfg.Bindings.Root)
		if err != nil {
			return err
		}
		projector = instrumented
	}

	handlers := api.NewHandlers(projector,
		api.WithLogger(log),
		api.WithVersion(ver),
		api.WithAppName(cfg.App.Name),
		api.WithStressMessage(cfg.Routes.StressMessage),
	)

	routeOpts := []api.RouteOption{}
	if cfg.Observability.Tracing.Enabled {
		routeOpts = append(routeOpts, api.WithOTelMiddleware(cfg.Observability.ServiceName, cfg.Routes.HealthAliases...))
	}
	router := api.SetupRoutes(handlers, cfg, routeOpts...)

	// Bind before serving so that an unavailable port is a startup failure.
	listener, err := net.Listen("tcp", cfg.Server.Addr())
	if err != nil {
		return err
	}

	// Start metrics server if enabled
	var metricsServer *observability.MetricsServer
	if cfg.Metrics.Enabled {
		metricsServer = observability.NewMetricsServer(cfg.Metrics.Port, cfg.Metrics.Path, otelProvider, log)
		go func() {
			if err := metricsServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("Metrics server failed", "error", err)
			}
		}()
	}

	server := &http.Server{
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	attrs := []any{"addr", listener.Addr().String(), "binding_root", cfg.Bindings.Root}
	if cfg.App.Name != "" {
		attrs = append(attrs, "app_name", cfg.App.Name)
	}
	log.Info("Listening", attrs...)

	serveErr := make(chan error, 1)
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Info("Shutting down server", "signal", sig.String())
	case err := <-serveErr:
		log.Error("Server failed", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if metricsServer != nil {
		if err := metricsServer.Shutdown(ctx); err != nil {
			log.Error("Metrics server forced to shutdown", "error", err)
		}
	}

	if err := server.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	log.Info("Server shutdown complete")
	return nil
}
