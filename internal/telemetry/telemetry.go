// Package telemetry wires OpenTelemetry tracing and metrics for the HTTP server.
// Spans and metrics are exported to rotating files; an OTEL collector can
// still pick them up through the SDK.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"

	"github.com/iliyamo/simple-chat-api/internal/config"
)

const instrumentationName = "github.com/iliyamo/simple-chat-api"

// Telemetry bundles the tracer and the instruments recorded by the server.
type Telemetry struct {
	Tracer   trace.Tracer
	Requests metric.Int64Counter // http.requests
	Replies  metric.Int64Counter // chat.replies, attribute "rule"

	shutdown func(context.Context) error
}

// Noop returns a Telemetry that records nothing.
func Noop() *Telemetry {
	meter := noop.NewMeterProvider().Meter(instrumentationName)
	t, _ := newTelemetry(tracenoop.NewTracerProvider().Tracer(instrumentationName), meter)
	t.shutdown = func(context.Context) error { return nil }
	return t
}

// New initializes tracer and meter providers exporting to cfg.Dir.  When
// telemetry is disabled it returns Noop().
func New(ctx context.Context, cfg config.TelemetryConfig) (*Telemetry, error) {
	if !cfg.Enabled {
		return Noop(), nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(config.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}

	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create telemetry directory: %w", err)
	}

	traceFile := rotatingFile(filepath.Join(cfg.Dir, "chat_traces.log"))
	traceExporter, err := stdouttrace.New(stdouttrace.WithWriter(traceFile))
	if err != nil {
		return nil, fmt.Errorf("create trace exporter: %w", err)
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	metricsFile := rotatingFile(filepath.Join(cfg.Dir, "chat_metrics.log"))
	metricExporter, err := stdoutmetric.New(stdoutmetric.WithWriter(metricsFile))
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, fmt.Errorf("create metric exporter: %w", err)
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter,
			sdkmetric.WithInterval(cfg.MetricInterval))),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	t, err := newTelemetry(tp.Tracer(instrumentationName), mp.Meter(instrumentationName))
	if err != nil {
		_ = tp.Shutdown(ctx)
		_ = mp.Shutdown(ctx)
		return nil, err
	}
	t.shutdown = func(ctx context.Context) error {
		err := errors.Join(tp.Shutdown(ctx), mp.Shutdown(ctx))
		return errors.Join(err, traceFile.Close(), metricsFile.Close())
	}
	return t, nil
}

// Shutdown flushes pending spans and metrics.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	return t.shutdown(ctx)
}

// RecordReply counts one chat reply for the given rule.
func (t *Telemetry) RecordReply(ctx context.Context, rule string) {
	t.Replies.Add(ctx, 1, metric.WithAttributes(attribute.String("rule", rule)))
}

func newTelemetry(tracer trace.Tracer, meter metric.Meter) (*Telemetry, error) {
	requests, err := meter.Int64Counter("http.requests",
		metric.WithDescription("Number of HTTP requests served"))
	if err != nil {
		return nil, fmt.Errorf("create http.requests counter: %w", err)
	}
	replies, err := meter.Int64Counter("chat.replies",
		metric.WithDescription("Number of chat replies by matched rule"))
	if err != nil {
		return nil, fmt.Errorf("create chat.replies counter: %w", err)
	}
	return &Telemetry{Tracer: tracer, Requests: requests, Replies: replies}, nil
}

func rotatingFile(name string) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   name,
		MaxSize:    10, // MB
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	}
}
