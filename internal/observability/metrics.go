package observability

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"workload/internal/logger"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsServer serves Prometheus metrics on a separate port so that scrapes
// never show up on the diagnostic routes.
type MetricsServer struct {
	server *http.Server
	log    *slog.Logger
}

// NewMetricsServer creates a metrics HTTP server serving the Prometheus handler
// at the given path on the given port. With no exporter the server answers 404.
func NewMetricsServer(port int, path string, provider *Provider, log *slog.Logger) *MetricsServer {
	mux := http.NewServeMux()

	if provider != nil && provider.promExporter != nil {
		mux.Handle(path, promhttp.Handler())
	}

	if log == nil {
		log = logger.Discard()
	}

	return &MetricsServer{
		server: &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		},
		log: log,
	}
}

// Start begins serving metrics in a blocking call.
// Returns http.ErrServerClosed on graceful shutdown.
func (ms *MetricsServer) Start() error {
	ms.log.Info("Starting metrics server", "addr", ms.server.Addr)
	return ms.server.ListenAndServe()
}

// Shutdown gracefully stops the metrics server.
func (ms *MetricsServer) Shutdown(ctx context.Context) error {
	return ms.server.Shutdown(ctx)
}
