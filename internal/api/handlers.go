package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"workload/internal/bindings"
	"workload/internal/logger"
	"workload/internal/models"
	"workload/internal/version"
)

const helloBody = "Hello, World!\n"

// Handlers contains the HTTP handlers for the workload's diagnostic routes.
// Handlers hold no per-request state; every call re-reads the binding tree.
type Handlers struct {
	projector     bindings.Projector
	log           *slog.Logger
	version       version.Info
	appName       string
	stressMessage string
}

// HandlerOption configures optional Handlers dependencies.
type HandlerOption func(*Handlers)

// WithLogger sets the logger used by handlers and request middleware.
func WithLogger(log *slog.Logger) HandlerOption {
	return func(h *Handlers) {
		if log != nil {
			h.log = log
		}
	}
}

// WithVersion sets the build metadata reported by /version.
func WithVersion(ver version.Info) HandlerOption {
	return func(h *Handlers) {
		h.version = ver
	}
}

// WithAppName sets the cosmetic application name reported by /version.
func WithAppName(name string) HandlerOption {
	return func(h *Handlers) {
		h.appName = name
	}
}

// WithStressMessage overrides the body returned by the stress route.
func WithStressMessage(msg string) HandlerOption {
	return func(h *Handlers) {
		h.stressMessage = msg
	}
}

// NewHandlers creates a new handlers instance backed by the given projector.
func NewHandlers(projector bindings.Projector, opts ...HandlerOption) *Handlers {
	h := &Handlers{
		projector:     projector,
		log:           logger.Discard(),
		version:       version.GetInfo(),
		stressMessage: models.NewDefaultConfig().Routes.StressMessage,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Root answers with a fixed greeting regardless of filesystem state.
// GET /
func (h *Handlers) Root(w http.ResponseWriter, r *http.Request) {
	h.writeTextResponse(w, http.StatusOK, helloBody)
}

// Health reports whether the binding tree can currently be projected.
// The body is empty either way.
// GET /healthz and every configured alias
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	if _, err := h.projector.Collect(r.Context()); err != nil {
		h.log.WarnContext(r.Context(), "Health check failed", "path", r.URL.Path, "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// Stress always fails without touching the filesystem. Deployment stations
// use it to check that a failing workload is caught.
// GET /stress
func (h *Handlers) Stress(w http.ResponseWriter, r *http.Request) {
	h.writeTextResponse(w, http.StatusInternalServerError, h.stressMessage)
}

// Bindings returns the projected binding collection as JSON, or the
// projection error as plain text with a 500.
// GET /bindings
func (h *Handlers) Bindings(w http.ResponseWriter, r *http.Request) {
	h.log.DebugContext(r.Context(), "Retrieving service bindings")

	result, err := h.projector.Collect(r.Context())
	if err != nil {
		h.log.WarnContext(r.Context(), "Unable to retrieve projected service bindings", "error", err)
		h.writeTextResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSONResponse(w, http.StatusOK, result)
}

// Version reports build metadata.
// GET /version
func (h *Handlers) Version(w http.ResponseWriter, r *http.Request) {
	resp := models.VersionResponse{
		Version:    h.version.Version,
		GitCommit:  h.version.GitCommit,
		BuildDate:  h.version.BuildDate,
		InstanceID: h.version.InstanceID,
		Hostname:   h.version.Hostname,
		AppName:    h.appName,
	}
	if v, err := h.version.SemVer(); err == nil {
		resp.SemVer = v.String()
		resp.Prerelease = v.Prerelease() != ""
	}

	h.writeJSONResponse(w, http.StatusOK, resp)
}

// writeJSONResponse writes a JSON response
func (h *Handlers) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers are already written, so only log.
		h.log.Error("Error encoding JSON response", "error", err)
	}
}

func (h *Handlers) writeTextResponse(w http.ResponseWriter, statusCode int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(statusCode)
	if _, err := w.Write([]byte(body)); err != nil {
		h.log.Error("Error writing response", "error", err)
	}
}
