package api

import (
	"net/http"
	"workload/internal/models"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
)

// RouteOption configures optional route behavior.
type RouteOption func(*mux.Router)

// WithOTelMiddleware adds OpenTelemetry HTTP instrumentation middleware.
// Liveness probes are not traced: /healthz and every health alias passed in.
func WithOTelMiddleware(serviceName string, healthAliases ...string) RouteOption {
	filter := untracedFilter(healthAliases)
	return func(r *mux.Router) {
		r.Use(otelmux.Middleware(serviceName, otelmux.WithFilter(filter)))
	}
}

// untracedFilter reports true for requests that should be traced.
func untracedFilter(healthAliases []string) otelmux.Filter {
	skip := map[string]bool{
		"/healthz":      true,
		"/metrics":      true,
		"/openapi.yaml": true,
	}
	for _, alias := range healthAliases {
		skip[alias] = true
	}
	return func(r *http.Request) bool {
		return !skip[r.URL.Path]
	}
}

// SetupRoutes configures the HTTP routes for the workload.
func SetupRoutes(handlers *Handlers, config *models.Config, opts ...RouteOption) *mux.Router {
	router := mux.NewRouter()

	for _, opt := range opts {
		opt(router)
	}

	router.HandleFunc("/", handlers.Root).Methods("GET")
	router.HandleFunc("/healthz", handlers.Health).Methods("GET")
	for _, alias := range config.Routes.HealthAliases {
		router.HandleFunc(alias, handlers.Health).Methods("GET")
	}
	if config.Routes.StressEnabled {
		router.HandleFunc("/stress", handlers.Stress).Methods("GET")
	}
	router.HandleFunc("/bindings", handlers.Bindings).Methods("GET")

	router.HandleFunc("/version", handlers.Version).Methods("GET")
	router.HandleFunc("/openapi.yaml", handlers.ServeOpenAPISpec).Methods("GET")

	router.Use(requestIDMiddleware)
	router.Use(loggingMiddleware(handlers.log))
	router.Use(recoveryMiddleware(handlers.log))

	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeErrorResponse(w, r, http.StatusMethodNotAllowed, models.ErrorCodeMethodNotAllowed, "Method not allowed")
	})
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeErrorResponse(w, r, http.StatusNotFound, models.ErrorCodeNotFound, "Not found")
	})

	return router
}
