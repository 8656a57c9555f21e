// Package observability wires structured logging and request tracing
// for the service front-ends. The codec packages themselves only take a
// *zap.Logger; everything heavier stays out here.
package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap with payload-scoped helpers.
type Logger struct {
	*zap.Logger
}

// NewLogger builds a production or development logger depending on env.
func NewLogger(env string) (*Logger, error) {
	var config zap.Config
	if env == "production" {
		config = zap.NewProductionConfig()
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return &Logger{logger}, nil
}

// WithRequestID scopes the logger to one HTTP request.
func (l *Logger) WithRequestID(requestID string) *Logger {
	return &Logger{l.With(zap.String("request_id", requestID))}
}

// WithCountry scopes the logger to one national profile.
func (l *Logger) WithCountry(country string) *Logger {
	return &Logger{l.With(zap.String("country", country))}
}

// Tracer provides distributed tracing for the service front-end.
type Tracer struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
}

// NewTracer initializes OpenTelemetry tracing against an OTLP endpoint.
func NewTracer(serviceName, otlpEndpoint string) (*Tracer, error) {
	ctx := context.Background()

	exporter, err := otlptrace.New(
		ctx,
		otlptracegrpc.NewClient(
			otlptracegrpc.WithEndpoint(otlpEndpoint),
			otlptracegrpc.WithInsecure(),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion("1.0.0"),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return &Tracer{provider: provider, tracer: provider.Tracer(serviceName)}, nil
}

// StartSpan starts a new span.
func (t *Tracer) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// Shutdown flushes and stops the tracer.
func (t *Tracer) Shutdown(ctx context.Context) error {
	return t.provider.Shutdown(ctx)
}

// PayloadAttributes are the common span attributes for codec operations.
type PayloadAttributes struct {
	Country        string
	Initiation     string
	Classification string
	TemplateCount  int
	PayloadBytes   int
}

// ToAttributes converts to OpenTelemetry attributes.
func (a *PayloadAttributes) ToAttributes() []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("qr.country", a.Country),
		attribute.String("qr.initiation", a.Initiation),
		attribute.String("qr.classification", a.Classification),
		attribute.Int("qr.template_count", a.TemplateCount),
		attribute.Int("qr.payload_bytes", a.PayloadBytes),
	}
}
