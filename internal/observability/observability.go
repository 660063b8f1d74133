// Package observability exports traces and metrics for the bindings workload.
//
// Spans go to stdout or an OTLP collector; metrics are read by the Prometheus
// exporter and served from MetricsServer. Every signal carries a resource
// describing which workload instance produced it and which binding root it
// projects.
package observability

import (
	"context"
	"errors"
	"fmt"
	"os"
	"workload/internal/models"
	"workload/internal/version"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Resource attribute keys specific to the workload.
const (
	AttrBindingRoot = attribute.Key("workload.binding_root")
	AttrAppName     = attribute.Key("workload.app_name")
	AttrStation     = attribute.Key("workload.station")
)

// Provider owns the tracer and meter providers installed by Setup. Either may
// be nil when its signal is disabled.
type Provider struct {
	resource       *resource.Resource
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	promExporter   *prometheus.Exporter
}

// PrometheusExporter returns the exporter backing /metrics, or nil.
func (p *Provider) PrometheusExporter() *prometheus.Exporter {
	return p.promExporter
}

// TracingEnabled reports whether spans are being exported.
func (p *Provider) TracingEnabled() bool {
	return p != nil && p.tracerProvider != nil
}

// Resource returns the resource attached to every exported signal.
func (p *Provider) Resource() *resource.Resource {
	return p.resource
}

// Shutdown flushes pending spans and stops both providers.
func (p *Provider) Shutdown(ctx context.Context) error {
	var errs []error
	if p.tracerProvider != nil {
		if err := p.tracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown: %w", err))
		}
	}
	if p.meterProvider != nil {
		if err := p.meterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("observability shutdown: %w", errors.Join(errs...))
	}
	return nil
}

// Setup installs the global tracer and meter providers the configuration asks
// for. The returned Provider must be shut down before exit.
func Setup(cfg *models.Config, ver version.Info) (*Provider, error) {
	res, err := newResource(cfg, ver)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	p := &Provider{resource: res}

	if cfg.Observability.Tracing.Enabled {
		tp, err := newTracerProvider(res, cfg.Observability.Tracing)
		if err != nil {
			return nil, fmt.Errorf("failed to setup tracing: %w", err)
		}
		p.tracerProvider = tp
		otel.SetTracerProvider(tp)
	}

	if cfg.Metrics.Enabled {
		exporter, err := prometheus.New()
		if err != nil {
			return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
		}
		p.promExporter = exporter
		p.meterProvider = sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(res),
			sdkmetric.WithReader(exporter),
		)
		otel.SetMeterProvider(p.meterProvider)
	}

	return p, nil
}

func newResource(cfg *models.Config, ver version.Info) (*resource.Resource, error) {
	attrs := []attribute.KeyValue{
		semconv.ServiceName(cfg.Observability.ServiceName),
		semconv.ServiceVersion(ver.Version),
		semconv.ServiceInstanceID(ver.InstanceID),
		semconv.HostName(ver.Hostname),
		AttrBindingRoot.String(cfg.Bindings.Root),
		AttrStation.String(deploymentStation()),
	}
	if cfg.App.Name != "" {
		attrs = append(attrs, AttrAppName.String(cfg.App.Name))
	}
	if ver.GitCommit != "" {
		attrs = append(attrs, attribute.String("vcs.revision", ver.GitCommit))
	}
	return resource.New(context.Background(), resource.WithAttributes(attrs...))
}

func newTracerProvider(res *resource.Resource, cfg models.TracingConfig) (*sdktrace.TracerProvider, error) {
	var (
		exporter sdktrace.SpanExporter
		err      error
	)
	switch cfg.Exporter {
	case models.TraceExporterStdout:
		exporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
	case models.TraceExporterOTLP:
		exporter, err = otlptracegrpc.New(context.Background(),
			otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint),
			otlptracegrpc.WithInsecure(),
		)
	default:
		return nil, fmt.Errorf("unsupported trace exporter: %s", cfg.Exporter)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s exporter: %w", cfg.Exporter, err)
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(sampler(cfg.SampleRate)),
	), nil
}

func sampler(rate float64) sdktrace.Sampler {
	switch {
	case rate >= 1:
		return sdktrace.AlwaysSample()
	case rate <= 0:
		return sdktrace.NeverSample()
	default:
		return sdktrace.TraceIDRatioBased(rate)
	}
}

// deploymentStation names the station (test, stage, prod) the workload is
// deployed to. DEPLOYMENT_STATION wins over ENVIRONMENT; unset means
// "development".
func deploymentStation() string {
	if s := os.Getenv("DEPLOYMENT_STATION"); s != "" {
		return s
	}
	if s := os.Getenv("ENVIRONMENT"); s != "" {
		return s
	}
	return "development"
}
