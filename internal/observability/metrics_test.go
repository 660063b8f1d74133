package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
	"workload/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsServer_ServesPrometheus(t *testing.T) {
	cfg := models.NewDefaultConfig()
	cfg.Metrics.Enabled = true
	metrics := cfg.Metrics
	provider, err := Setup(cfg, testVersion)
	require.NoError(t, err)
	defer provider.Shutdown(context.Background())

	ms := NewMetricsServer(metrics.Port, metrics.Path, provider, nil)
	require.NotNil(t, ms)
	assert.Equal(t, ":9090", ms.server.Addr)

	rec := httptest.NewRecorder()
	ms.server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNewMetricsServer_NilProvider(t *testing.T) {
	ms := NewMetricsServer(9090, "/metrics", nil, nil)
	require.NotNil(t, ms)

	rec := httptest.NewRecorder()
	ms.server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsServer_StartAndShutdown(t *testing.T) {
	ms := NewMetricsServer(0, "/metrics", nil, nil)

	errCh := make(chan error, 1)
	go func() {
		errCh <- ms.Start()
	}()

	// Give the server time to start
	time.Sleep(100 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, ms.Shutdown(ctx))

	assert.Equal(t, http.ErrServerClosed, <-errCh)
}
