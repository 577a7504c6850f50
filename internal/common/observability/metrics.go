package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// Observability owns the OpenTelemetry meter and tracer providers.
type Observability struct {
	meterProvider  *metric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	tracer         trace.Tracer

	dispatchCounter  otelmetric.Int64Counter
	dispatchDuration otelmetric.Float64Histogram
}

// New wires the otel Prometheus exporter into the default Prometheus
// registry and installs the providers globally.
func New(serviceName string) (*Observability, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	tp := sdktrace.NewTracerProvider()
	otel.SetTracerProvider(tp)

	o := &Observability{
		meterProvider:  provider,
		tracerProvider: tp,
		tracer:         tp.Tracer(serviceName),
	}
	if err := o.initInstruments(provider.Meter(serviceName)); err != nil {
		return nil, err
	}
	return o, nil
}

// NewNoop returns an instance that records nothing.
func NewNoop() *Observability {
	o := &Observability{tracer: tracenoop.NewTracerProvider().Tracer("noop")}
	_ = o.initInstruments(noop.NewMeterProvider().Meter("noop"))
	return o
}

func (o *Observability) initInstruments(meter otelmetric.Meter) error {
	var err error
	o.dispatchCounter, err = meter.Int64Counter(
		"dispatch.processed",
		otelmetric.WithDescription("Number of dispatched intents"),
	)
	if err != nil {
		return fmt.Errorf("create dispatch counter: %w", err)
	}

	o.dispatchDuration, err = meter.Float64Histogram(
		"dispatch.duration",
		otelmetric.WithDescription("Intent dispatch duration"),
		otelmetric.WithUnit("ms"),
	)
	if err != nil {
		return fmt.Errorf("create dispatch histogram: %w", err)
	}
	return nil
}

// Tracer returns the tracer used for dispatch spans.
func (o *Observability) Tracer() trace.Tracer {
	return o.tracer
}

func (o *Observability) RecordDispatch(ctx context.Context, intent, outcome string, duration time.Duration) {
	attrs := otelmetric.WithAttributes(
		attribute.String("intent", intent),
		attribute.String("outcome", outcome),
	)
	if o.dispatchCounter != nil {
		o.dispatchCounter.Add(ctx, 1, attrs)
	}
	if o.dispatchDuration != nil {
		o.dispatchDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
	}
}

func (o *Observability) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if o.tracerProvider != nil {
		_ = o.tracerProvider.Shutdown(ctx)
	}
	if o.meterProvider != nil {
		_ = o.meterProvider.Shutdown(ctx)
	}
}
