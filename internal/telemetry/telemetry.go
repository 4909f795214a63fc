// Package telemetry wires OpenTelemetry metrics for the bounty lifecycle.
//
// Telemetry is off unless OTEL_ENABLED=true. When off, Init installs a no-op
// meter provider and every instrument records nothing. OTEL_STDOUT=true
// exports metrics to stdout every 15 seconds.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
)

const scope = "github.com/devbounty/backend"

type Options struct {
	Enabled     bool
	Stdout      bool
	ServiceName string
}

// Init installs the global meter provider and returns its shutdown func.
func Init(ctx context.Context, opts Options) (func(context.Context) error, error) {
	if !opts.Enabled {
		otel.SetMeterProvider(metricnoop.NewMeterProvider())
		return func(context.Context) error { return nil }, nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(attribute.String("service.name", opts.ServiceName)),
		resource.WithHost(),
		resource.WithProcess(),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: resource: %w", err)
	}

	mopts := []sdkmetric.Option{sdkmetric.WithResource(res)}
	if opts.Stdout {
		exp, err := stdoutmetric.New()
		if err != nil {
			return nil, fmt.Errorf("telemetry: stdout exporter: %w", err)
		}
		mopts = append(mopts, sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(15*time.Second)),
		))
	}

	mp := sdkmetric.NewMeterProvider(mopts...)
	otel.SetMeterProvider(mp)
	return mp.Shutdown, nil
}

// Metrics holds the lifecycle instruments. The zero value is not usable; call NewMetrics.
type Metrics struct {
	transitions          metric.Int64Counter
	duration             metric.Float64Histogram
	compensationFailures metric.Int64Counter
	paymentFailures      metric.Int64Counter
	paymentsCreated      metric.Int64Counter
}

// NewMetrics builds instruments from the current global meter provider.
func NewMetrics() *Metrics {
	return NewMetricsFrom(otel.GetMeterProvider())
}

func NewMetricsFrom(mp metric.MeterProvider) *Metrics {
	m := mp.Meter(scope)
	transitions, _ := m.Int64Counter("devbounty.lifecycle.operations",
		metric.WithDescription("Lifecycle operations by name and result"),
	)
	duration, _ := m.Float64Histogram("devbounty.lifecycle.duration",
		metric.WithDescription("Lifecycle operation duration"),
		metric.WithUnit("ms"),
	)
	compensationFailures, _ := m.Int64Counter("devbounty.compensation.failures",
		metric.WithDescription("Compensating actions that failed and need manual reconciliation"),
	)
	paymentFailures, _ := m.Int64Counter("devbounty.payment.failures",
		metric.WithDescription("Payment record creations that failed"),
	)
	paymentsCreated, _ := m.Int64Counter("devbounty.payment.created",
		metric.WithDescription("Payment records created"),
	)
	return &Metrics{
		transitions:          transitions,
		duration:             duration,
		compensationFailures: compensationFailures,
		paymentFailures:      paymentFailures,
		paymentsCreated:      paymentsCreated,
	}
}

// Operation records one lifecycle call. result is "ok" or an error kind.
func (m *Metrics) Operation(ctx context.Context, op, result string, started time.Time) {
	attrs := metric.WithAttributes(attribute.String("operation", op), attribute.String("result", result))
	m.transitions.Add(ctx, 1, attrs)
	m.duration.Record(ctx, float64(time.Since(started).Milliseconds()), attrs)
}

func (m *Metrics) CompensationFailed(ctx context.Context, op, step string) {
	m.compensationFailures.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", op), attribute.String("step", step),
	))
}

func (m *Metrics) PaymentFailed(ctx context.Context, source string) {
	m.paymentFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("source", source)))
}

func (m *Metrics) PaymentCreated(ctx context.Context, source string) {
	m.paymentsCreated.Add(ctx, 1, metric.WithAttributes(attribute.String("source", source)))
}
