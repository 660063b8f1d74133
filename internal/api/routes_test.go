package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"workload/internal/bindings"
	"workload/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// newTestRouter wires the real filesystem projector over root.
func newTestRouter(t *testing.T, root string, mutate ...func(*models.Config)) http.Handler {
	t.Helper()
	cfg := models.NewDefaultConfig()
	cfg.Bindings.Root = root
	for _, m := range mutate {
		m(cfg)
	}
	handlers := NewHandlers(bindings.NewDirProjector(cfg.Bindings.Root, nil),
		WithStressMessage(cfg.Routes.StressMessage))
	return SetupRoutes(handlers, cfg)
}

func writeBindingFile(t *testing.T, root, binding, file string, data []byte) {
	t.Helper()
	dir := filepath.Join(root, binding)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, file), data, 0o644))
}

func serve(router http.Handler, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestRoutes_EmptyRoot(t *testing.T) {
	router := newTestRouter(t, t.TempDir())

	rec := serve(router, http.MethodGet, "/bindings")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestRoutes_SingleBinding(t *testing.T) {
	root := t.TempDir()
	writeBindingFile(t, root, "db", "username", []byte("admin"))
	router := newTestRouter(t, root)

	rec := serve(router, http.MethodGet, "/bindings")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"name":"db","binding_info":{"username":"admin"}}]`, rec.Body.String())
}

func TestRoutes_MissingRoot(t *testing.T) {
	router := newTestRouter(t, filepath.Join(t.TempDir(), "absent"))

	for _, path := range []string{"/healthz", "/regression", "/smoke"} {
		rec := serve(router, http.MethodGet, path)
		assert.Equal(t, http.StatusInternalServerError, rec.Code, path)
		assert.Empty(t, rec.Body.String(), path)
	}

	rec := serve(router, http.MethodGet, "/bindings")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotEmpty(t, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "absent")
}

func TestRoutes_HealthAliasesSucceed(t *testing.T) {
	router := newTestRouter(t, t.TempDir())

	for _, path := range []string{"/healthz", "/regression", "/smoke"} {
		rec := serve(router, http.MethodGet, path)
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Empty(t, rec.Body.String(), path)
	}
}

func TestRoutes_NonUTF8FileExcluded(t *testing.T) {
	root := t.TempDir()
	writeBindingFile(t, root, "db", "username", []byte("admin"))
	writeBindingFile(t, root, "db", "keystore", []byte{0xc3, 0x28, 0xff})
	router := newTestRouter(t, root)

	rec := serve(router, http.MethodGet, "/bindings")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"name":"db","binding_info":{"username":"admin"}}]`, rec.Body.String())
}

func TestRoutes_RootIgnoresFilesystem(t *testing.T) {
	for _, root := range []string{t.TempDir(), filepath.Join(t.TempDir(), "absent")} {
		rec := serve(newTestRouter(t, root), http.MethodGet, "/")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Hello, World!\n", rec.Body.String())
	}
}

func TestRoutes_BindingsIdempotent(t *testing.T) {
	root := t.TempDir()
	writeBindingFile(t, root, "db", "username", []byte("admin"))
	writeBindingFile(t, root, "db", "password", []byte("hunter2"))
	writeBindingFile(t, root, "mq", "url", []byte("amqp://mq"))
	router := newTestRouter(t, root)

	decode := func() map[string]map[string]string {
		rec := serve(router, http.MethodGet, "/bindings")
		require.Equal(t, http.StatusOK, rec.Code)
		var list []models.Binding
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
		out := make(map[string]map[string]string)
		for _, b := range list {
			out[b.Name] = b.Info
		}
		return out
	}

	first := decode()
	assert.Equal(t, first, decode())
	assert.Len(t, first, 2)
}

func TestRoutes_Stress(t *testing.T) {
	router := newTestRouter(t, t.TempDir())

	rec := serve(router, http.MethodGet, "/stress")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Stress test failed\n", rec.Body.String())
}

func TestRoutes_StressDisabled(t *testing.T) {
	router := newTestRouter(t, t.TempDir(), func(c *models.Config) {
		c.Routes.StressEnabled = false
	})

	rec := serve(router, http.MethodGet, "/stress")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRoutes_CustomAliases(t *testing.T) {
	router := newTestRouter(t, t.TempDir(), func(c *models.Config) {
		c.Routes.HealthAliases = []string{"/canary"}
	})

	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/canary").Code)
	assert.Equal(t, http.StatusNotFound, serve(router, http.MethodGet, "/regression").Code)
}

func TestRoutes_MethodNotAllowed(t *testing.T) {
	router := newTestRouter(t, t.TempDir())

	rec := serve(router, http.MethodPost, "/bindings")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, models.ErrorCodeMethodNotAllowed, resp.Code)
}

func TestRoutes_NotFound(t *testing.T) {
	rec := serve(newTestRouter(t, t.TempDir()), http.MethodGet, "/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, models.ErrorCodeNotFound, resp.Code)
}

func TestRoutes_VersionAndOpenAPI(t *testing.T) {
	router := newTestRouter(t, t.TempDir())

	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/version").Code)
	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/openapi.yaml").Code)
}

func TestRoutes_WithOTelMiddleware(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	cfg := models.NewDefaultConfig()
	cfg.Routes.HealthAliases = []string{"/regression", "/smoke", "/canary"}
	handlers := NewHandlers(bindings.NewDirProjector(t.TempDir(), nil))
	router := SetupRoutes(handlers, cfg,
		WithOTelMiddleware("bindings-workload-test", cfg.Routes.HealthAliases...))

	for _, path := range []string{"/healthz", "/regression", "/smoke", "/canary", "/openapi.yaml"} {
		assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, path).Code, path)
	}
	assert.Empty(t, recorder.Ended(), "liveness probes must not be traced")

	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/bindings").Code)
	assert.Len(t, recorder.Ended(), 1)
}

func TestUntracedFilter(t *testing.T) {
	filter := untracedFilter([]string{"/regression"})

	tests := []struct {
		path   string
		traced bool
	}{
		{"/healthz", false},
		{"/regression", false},
		{"/metrics", false},
		{"/bindings", true},
		{"/smoke", true},
		{"/", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.traced, filter(httptest.NewRequest(http.MethodGet, tt.path, nil)))
		})
	}
}
