// Package models - Service configuration and wire types.
// This file defines the configuration structures for every workload component.
//
// Configuration Philosophy:
// - Hierarchical configuration with logical grouping (server, bindings, routes, etc.)
// - Defaults that match the platform contract (port 8080, /bindings root)
// - Validation catches misconfigurations before the listener is opened
package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DefaultBindingRoot is where the platform mounts service bindings when
// SERVICE_BINDING_ROOT is not set.
const DefaultBindingRoot = "/bindings"

// Tracing exporter constants
const (
	TraceExporterStdout = "stdout"
	TraceExporterOTLP   = "otlp"
)

// Config is the root configuration structure containing all workload settings.
//
// Configuration Structure:
// - Server: HTTP listener settings
// - Bindings: where the service binding tree is mounted
// - Routes: diagnostic route naming
// - App: cosmetic application identity
// - Logging: structured logging output
// - Metrics: Prometheus endpoint
// - Observability: tracing
type Config struct {
	Server        ServerConfig        `yaml:"server" json:"server"`
	Bindings      BindingsConfig      `yaml:"bindings" json:"bindings"`
	Routes        RoutesConfig        `yaml:"routes" json:"routes"`
	App           AppConfig           `yaml:"app" json:"app"`
	Logging       LoggingConfig       `yaml:"logging" json:"logging"`
	Metrics       MetricsConfig       `yaml:"metrics" json:"metrics"`
	Observability ObservabilityConfig `yaml:"observability" json:"observability"`
}

type ServerConfig struct {
	Port         int           `yaml:"port" json:"port"`
	Host         string        `yaml:"host" json:"host"`
	ReadTimeout  time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" json:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" json:"idle_timeout"`
}

// Addr returns the host:port listen address.
func (sc ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", sc.Host, sc.Port)
}

type BindingsConfig struct {
	Root string `yaml:"root" json:"root"`
}

// RoutesConfig names the diagnostic routes. Every alias behaves like /healthz.
type RoutesConfig struct {
	HealthAliases []string `yaml:"health_aliases" json:"health_aliases"`
	StressEnabled bool     `yaml:"stress_enabled" json:"stress_enabled"`
	StressMessage string   `yaml:"stress_message" json:"stress_message"`
}

type AppConfig struct {
	Name string `yaml:"name" json:"name"`
}

type LoggingConfig struct {
	Level    string `yaml:"level" json:"level"`
	Format   string `yaml:"format" json:"format"`
	Output   string `yaml:"output" json:"output"`
	FilePath string `yaml:"file_path" json:"file_path"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Path    string `yaml:"path" json:"path"`
	Port    int    `yaml:"port" json:"port"`
}

type ObservabilityConfig struct {
	ServiceName string        `yaml:"service_name" json:"service_name"`
	Tracing     TracingConfig `yaml:"tracing" json:"tracing"`
}

type TracingConfig struct {
	Enabled      bool    `yaml:"enabled" json:"enabled"`
	Exporter     string  `yaml:"exporter" json:"exporter"`
	OTLPEndpoint string  `yaml:"otlp_endpoint" json:"otlp_endpoint"`
	SampleRate   float64 `yaml:"sample_rate" json:"sample_rate"`
}

// NewDefaultConfig creates a configuration with the defaults the platform expects.
//
// Default Values:
// - 0.0.0.0:8080: the port the station tester probes
// - /bindings: the platform's mount point
// - regression and smoke aliases plus the failing stress route
// - debug logging to stdout
// - metrics and tracing off
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         8080,
			Host:         "0.0.0.0",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Bindings: BindingsConfig{
			Root: DefaultBindingRoot,
		},
		Routes: RoutesConfig{
			HealthAliases: []string{"/regression", "/smoke"},
			StressEnabled: true,
			StressMessage: "Stress test failed\n",
		},
		Logging: LoggingConfig{
			Level:  "debug",
			Format: "text",
			Output: "stdout",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Path:    "/metrics",
			Port:    9090,
		},
		Observability: ObservabilityConfig{
			ServiceName: "bindings-workload",
			Tracing: TracingConfig{
				Enabled:    false,
				Exporter:   TraceExporterStdout,
				SampleRate: 1.0,
			},
		},
	}
}

func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("invalid server config: %w", err)
	}

	if err := c.Bindings.Validate(); err != nil {
		return fmt.Errorf("invalid bindings config: %w", err)
	}

	if err := c.Routes.Validate(); err != nil {
		return fmt.Errorf("invalid routes config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("invalid logging config: %w", err)
	}

	if err := c.Metrics.Validate(); err != nil {
		return fmt.Errorf("invalid metrics config: %w", err)
	}

	if err := c.Observability.Validate(); err != nil {
		return fmt.Errorf("invalid observability config: %w", err)
	}

	return nil
}

func (sc *ServerConfig) Validate() error {
	if sc.Port <= 0 || sc.Port > 65535 {
		return errors.New("port must be between 1 and 65535")
	}

	if sc.Host == "" {
		return errors.New("host cannot be empty")
	}

	if sc.ReadTimeout < 0 {
		return errors.New("read timeout cannot be negative")
	}

	if sc.WriteTimeout < 0 {
		return errors.New("write timeout cannot be negative")
	}

	if sc.IdleTimeout < 0 {
		return errors.New("idle timeout cannot be negative")
	}

	return nil
}

func (bc *BindingsConfig) Validate() error {
	if bc.Root == "" {
		return errors.New("binding root cannot be empty")
	}
	return nil
}

// reservedRoutes cannot be used as health aliases.
var reservedRoutes = []string{"/", "/healthz", "/bindings", "/stress", "/version", "/openapi.yaml"}

func (rc *RoutesConfig) Validate() error {
	seen := make(map[string]bool, len(rc.HealthAliases))
	for _, alias := range rc.HealthAliases {
		if !strings.HasPrefix(alias, "/") {
			return fmt.Errorf("health alias must start with '/': %q", alias)
		}
		for _, reserved := range reservedRoutes {
			if alias == reserved {
				return fmt.Errorf("health alias conflicts with built-in route: %s", alias)
			}
		}
		if seen[alias] {
			return fmt.Errorf("duplicate health alias: %s", alias)
		}
		seen[alias] = true
	}
	return nil
}

func (lc *LoggingConfig) Validate() error {
	validLevels := []string{"debug", "info", "warn", "error"}
	found := false
	for _, vl := range validLevels {
		if lc.Level == vl {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("invalid log level: %s", lc.Level)
	}

	validFormats := []string{"json", "text"}
	found = false
	for _, vf := range validFormats {
		if lc.Format == vf {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("invalid log format: %s", lc.Format)
	}

	validOutputs := []string{"stdout", "stderr", "file"}
	found = false
	for _, vo := range validOutputs {
		if lc.Output == vo {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("invalid log output: %s", lc.Output)
	}

	if lc.Output == "file" && lc.FilePath == "" {
		return errors.New("file path is required when output is file")
	}

	return nil
}

func (mc *MetricsConfig) Validate() error {
	if !mc.Enabled {
		return nil
	}

	if mc.Path == "" {
		return errors.New("metrics path cannot be empty")
	}

	if mc.Port <= 0 || mc.Port > 65535 {
		return errors.New("metrics port must be between 1 and 65535")
	}

	return nil
}

func (oc *ObservabilityConfig) Validate() error {
	if !oc.Tracing.Enabled {
		return nil
	}

	switch oc.Tracing.Exporter {
	case TraceExporterStdout:
	case TraceExporterOTLP:
		if oc.Tracing.OTLPEndpoint == "" {
			return errors.New("OTLP endpoint is required when tracing exporter is otlp")
		}
	default:
		return fmt.Errorf("invalid tracing exporter: %s", oc.Tracing.Exporter)
	}

	if oc.Tracing.SampleRate < 0 || oc.Tracing.SampleRate > 1 {
		return errors.New("tracing sample rate must be between 0 and 1")
	}

	return nil
}
