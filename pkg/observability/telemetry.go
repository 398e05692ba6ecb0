package observability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"

	"github.com/Alijeyrad/simorq_sessions/config"
)

const shutdownTimeout = 5 * time.Second

type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string

	TracingEnabled bool
	OTLPEndpoint   string // host:port of an OTLP/HTTP collector; empty keeps spans in-process
	OTLPInsecure   bool
	SamplingRate   float64

	MetricsEnabled bool
}

func FromCentralConfig(c config.ObservabilityConfig, environment string) Config {
	return Config{
		ServiceName:    c.ServiceName,
		ServiceVersion: c.ServiceVersion,
		Environment:    environment,
		TracingEnabled: c.Tracing.Enabled,
		OTLPEndpoint:   c.Tracing.OTLPEndpoint,
		OTLPInsecure:   c.Tracing.OTLPInsecure,
		SamplingRate:   c.Tracing.SamplingRate,
		MetricsEnabled: c.Metrics.Enabled,
	}
}

// Provider owns the SDK providers installed as OpenTelemetry globals. Either
// field is nil when its signal is disabled.
type Provider struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
}

// Setup builds the providers for cfg and installs them globally along with a
// W3C trace-context propagator. Metrics are exported through the default
// prometheus registry, which /metrics serves.
func Setup(ctx context.Context, cfg Config) (*Provider, error) {
	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes("",
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
		semconv.DeploymentEnvironmentName(cfg.Environment),
	))
	if err != nil {
		return nil, fmt.Errorf("observability: resource: %w", err)
	}

	p := &Provider{}
	if cfg.TracingEnabled {
		if p.TracerProvider, err = newTracerProvider(ctx, res, cfg); err != nil {
			return nil, err
		}
		otel.SetTracerProvider(p.TracerProvider)
	}
	if cfg.MetricsEnabled {
		exporter, err := prometheus.New()
		if err != nil {
			return nil, fmt.Errorf("observability: prometheus exporter: %w", err)
		}
		p.MeterProvider = sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(res),
			sdkmetric.WithReader(exporter),
		)
		otel.SetMeterProvider(p.MeterProvider)
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return p, nil
}

func newTracerProvider(ctx context.Context, res *resource.Resource, cfg Config) (*sdktrace.TracerProvider, error) {
	rate := cfg.SamplingRate
	if rate <= 0 || rate > 1 {
		rate = 1
	}
	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(rate))),
	}

	if cfg.OTLPEndpoint != "" {
		exporterOpts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.OTLPEndpoint)}
		if cfg.OTLPInsecure {
			exporterOpts = append(exporterOpts, otlptracehttp.WithInsecure())
		}
		exporter, err := otlptracehttp.New(ctx, exporterOpts...)
		if err != nil {
			return nil, fmt.Errorf("observability: otlp exporter: %w", err)
		}
		opts = append(opts, sdktrace.WithBatcher(exporter))
	}
	return sdktrace.NewTracerProvider(opts...), nil
}

// Shutdown flushes pending spans and metrics. It is safe on a nil Provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	var errs []error
	if p.TracerProvider != nil {
		errs = append(errs, p.TracerProvider.Shutdown(ctx))
	}
	if p.MeterProvider != nil {
		errs = append(errs, p.MeterProvider.Shutdown(ctx))
	}
	return errors.Join(errs...)
}
