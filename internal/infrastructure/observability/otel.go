// Package observability wires OpenTelemetry tracing, metrics and logging
// for the reminder daemon.
package observability

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const (
	// DefaultServiceName is used when OTEL_SERVICE_NAME is not set.
	DefaultServiceName = "reminderd"

	exportTimeout = 10 * time.Second
)

// Config holds observability configuration.
type Config struct {
	Enabled     bool       // Export traces, metrics and logs over OTLP
	ServiceName string     // Instrumentation scope for the slog bridge
	LogLevel    slog.Level // Minimum level for the local JSON logger
	Output      io.Writer  // Local log destination (defaults to stdout)
}

// Providers groups the SDK providers so they can be flushed together.
type Providers struct {
	Tracer *sdktrace.TracerProvider
	Meter  *sdkmetric.MeterProvider
	Logger *log.LoggerProvider
}

// Shutdown flushes and stops every provider, joining their errors.
func (p *Providers) Shutdown(ctx context.Context) error {
	var errs []error
	if p.Tracer != nil {
		errs = append(errs, p.Tracer.Shutdown(ctx))
	}
	if p.Meter != nil {
		errs = append(errs, p.Meter.Shutdown(ctx))
	}
	if p.Logger != nil {
		errs = append(errs, p.Logger.Shutdown(ctx))
	}
	return errors.Join(errs...)
}

// Setup initializes all three signals and returns the logger to install
// as slog's default. On failure, any provider already started is shut down.
func Setup(ctx context.Context, cfg Config) (*Providers, *slog.Logger, error) {
	p := &Providers{}

	tp, err := InitTracerProvider(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	p.Tracer = tp

	mp, err := InitMeterProvider(ctx, cfg)
	if err != nil {
		_ = p.Shutdown(ctx)
		return nil, nil, err
	}
	p.Meter = mp

	lp, logger, err := InitLogger(ctx, cfg)
	if err != nil {
		_ = p.Shutdown(ctx)
		return nil, nil, err
	}
	p.Logger = lp

	return p, logger, nil
}

// newResource merges the SDK defaults with attributes taken from
// OTEL_RESOURCE_ATTRIBUTES and OTEL_SERVICE_NAME.
//
//	export OTEL_RESOURCE_ATTRIBUTES="service.name=reminderd,service.version=1.0.0,deployment.environment=home"
func newResource(ctx context.Context) (*resource.Resource, error) {
	serviceResource, err := resource.New(ctx,
		resource.WithFromEnv(),
		resource.WithSchemaURL(semconv.SchemaURL),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create service resource: %w", err)
	}

	res, err := resource.Merge(resource.Default(), serviceResource)
	if err != nil {
		// A partial resource is still usable.
		if errors.Is(err, resource.ErrPartialResource) || errors.Is(err, resource.ErrSchemaURLConflict) {
			return res, nil
		}
		return nil, fmt.Errorf("failed to merge resources: %w", err)
	}
	return res, nil
}

// InitTracerProvider installs the global tracer provider. When disabled the
// provider has no exporter, so spans are recorded nowhere.
//
// The exporter reads the standard variables:
//   - OTEL_EXPORTER_OTLP_ENDPOINT: collector address (e.g. http://localhost:4317)
//   - OTEL_EXPORTER_OTLP_HEADERS: auth headers
func InitTracerProvider(ctx context.Context, cfg Config) (*sdktrace.TracerProvider, error) {
	if !cfg.Enabled {
		tp := sdktrace.NewTracerProvider()
		otel.SetTracerProvider(tp)
		return tp, nil
	}

	res, err := newResource(ctx)
	if err != nil {
		return nil, err
	}

	// Background context so a cancelled startup context cannot wedge shutdown.
	exporter, err := otlptracegrpc.New(context.Background(),
		otlptracegrpc.WithTimeout(exportTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.AlwaysSample())),
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(5*time.Second)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return tp, nil
}

// InitMeterProvider installs the global meter provider.
func InitMeterProvider(ctx context.Context, cfg Config) (*sdkmetric.MeterProvider, error) {
	if !cfg.Enabled {
		mp := sdkmetric.NewMeterProvider()
		otel.SetMeterProvider(mp)
		return mp, nil
	}

	res, err := newResource(ctx)
	if err != nil {
		return nil, err
	}

	exporter, err := otlpmetricgrpc.New(context.Background(),
		otlpmetricgrpc.WithTimeout(exportTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create metric exporter: %w", err)
	}

	// Reminder traffic is sparse; a minute between collections is plenty.
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter,
			sdkmetric.WithInterval(time.Minute),
		)),
	)
	otel.SetMeterProvider(mp)
	return mp, nil
}

// InitLogger returns the logger provider and a slog.Logger. When disabled
// the logger writes JSON locally; when enabled records go through the
// otelslog bridge.
func InitLogger(ctx context.Context, cfg Config) (*log.LoggerProvider, *slog.Logger, error) {
	if !cfg.Enabled {
		out := cfg.Output
		if out == nil {
			out = os.Stdout
		}
		handler := slog.NewJSONHandler(out, &slog.HandlerOptions{Level: cfg.LogLevel})
		return log.NewLoggerProvider(), slog.New(handler), nil
	}

	res, err := newResource(ctx)
	if err != nil {
		return nil, nil, err
	}

	exporter, err := otlploggrpc.New(context.Background(),
		otlploggrpc.WithTimeout(exportTimeout),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create log exporter: %w", err)
	}

	lp := log.NewLoggerProvider(
		log.WithProcessor(log.NewBatchProcessor(exporter, log.WithExportTimeout(5*time.Second))),
		log.WithResource(res),
	)

	name := cfg.ServiceName
	if name == "" {
		name = DefaultServiceName
	}
	return lp, otelslog.NewLogger(name, otelslog.WithLoggerProvider(lp)), nil
}
