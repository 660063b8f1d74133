package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"workload/internal/models"

	"gopkg.in/yaml.v3"
)

// Load loads configuration from file and environment variables
func Load(configPath string) (*models.Config, error) {
	// Start with default configuration
	config := models.NewDefaultConfig()

	// Load from file if provided and exists
	if configPath != "" {
		if err := loadFromFile(config, configPath); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// Override with environment variables
	loadFromEnvironment(config)

	// Validate the final configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// loadFromFile loads configuration from a YAML file
func loadFromFile(config *models.Config, filePath string) error {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return fmt.Errorf("config file not found: %s", filePath)
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse YAML config: %w", err)
	}
	return nil
}

// loadFromEnvironment applies environment overrides. Unset and empty
// variables leave the current value in place.
func loadFromEnvironment(config *models.Config) {
	// Platform contract
	if root := os.Getenv("SERVICE_BINDING_ROOT"); root != "" {
		config.Bindings.Root = root
	}

	if name := os.Getenv("APP_NAME"); name != "" {
		config.App.Name = name
	}

	// Server configuration
	if port := os.Getenv("WORKLOAD_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if host := os.Getenv("WORKLOAD_HOST"); host != "" {
		config.Server.Host = host
	}

	if timeout := os.Getenv("WORKLOAD_READ_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.Server.ReadTimeout = d
		}
	}

	if timeout := os.Getenv("WORKLOAD_WRITE_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.Server.WriteTimeout = d
		}
	}

	if timeout := os.Getenv("WORKLOAD_IDLE_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.Server.IdleTimeout = d
		}
	}

	// Route configuration
	if aliases := os.Getenv("WORKLOAD_HEALTH_ALIASES"); aliases != "" {
		config.Routes.HealthAliases = splitList(aliases)
	}

	if stress := os.Getenv("WORKLOAD_STRESS_ENABLED"); stress != "" {
		config.Routes.StressEnabled = strings.ToLower(stress) == "true"
	}

	// Logging configuration
	level := os.Getenv("WORKLOAD_LOG_LEVEL")
	if level == "" {
		level = os.Getenv("LOG_LEVEL")
	}
	if level != "" {
		config.Logging.Level = strings.ToLower(level)
	}

	if format := os.Getenv("WORKLOAD_LOG_FORMAT"); format != "" {
		config.Logging.Format = strings.ToLower(format)
	}

	if output := os.Getenv("WORKLOAD_LOG_OUTPUT"); output != "" {
		config.Logging.Output = strings.ToLower(output)
	}

	if filePath := os.Getenv("WORKLOAD_LOG_FILE_PATH"); filePath != "" {
		config.Logging.FilePath = filePath
	}

	// Metrics configuration
	if metrics := os.Getenv("WORKLOAD_METRICS_ENABLED"); metrics != "" {
		config.Metrics.Enabled = strings.ToLower(metrics) == "true"
	}

	if path := os.Getenv("WORKLOAD_METRICS_PATH"); path != "" {
		config.Metrics.Path = path
	}

	if port := os.Getenv("WORKLOAD_METRICS_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Metrics.Port = p
		}
	}

	// Tracing configuration
	if tracing := os.Getenv("WORKLOAD_TRACING_ENABLED"); tracing != "" {
		config.Observability.Tracing.Enabled = strings.ToLower(tracing) == "true"
	}

	if exporter := os.Getenv("WORKLOAD_TRACING_EXPORTER"); exporter != "" {
		config.Observability.Tracing.Exporter = strings.ToLower(exporter)
	}

	if endpoint := os.Getenv("WORKLOAD_OTLP_ENDPOINT"); endpoint != "" {
		config.Observability.Tracing.OTLPEndpoint = endpoint
	}
}

// splitList splits a comma separated value, dropping blanks.
func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// SaveExample saves an example configuration file
func SaveExample(filePath string) error {
	// Create directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	config := models.NewDefaultConfig()
	config.App.Name = "billing"
	config.Metrics.Enabled = true
	config.Observability.Tracing.Exporter = models.TraceExporterOTLP
	config.Observability.Tracing.OTLPEndpoint = "otel-collector:4317"

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
