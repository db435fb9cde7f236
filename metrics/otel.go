package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

const defaultServiceName = "tennisclub-league"

// TelemetryConfig controls how metrics are exported.
type TelemetryConfig struct {
	Enabled      bool
	ServiceName  string
	OtlpEndpoint string
	OtlpInsecure bool
}

// Setup builds a meter provider with a Prometheus reader and, when an endpoint is set, an OTLP reader.
// With metrics disabled it returns an in-memory Recorder and a nil handler.
func Setup(ctx context.Context, cfg TelemetryConfig) (*Recorder, http.Handler, func(context.Context) error, error) {
	if !cfg.Enabled {
		return NewRecorder(), nil, func(context.Context) error { return nil }, nil
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = defaultServiceName
	}

	reg := prometheus.NewRegistry()
	promExp, err := promexporter.New(promexporter.WithRegisterer(reg))
	if err != nil {
		return nil, nil, nil, err
	}
	opts := []sdkmetric.Option{sdkmetric.WithReader(promExp)}

	if cfg.OtlpEndpoint != "" {
		otlpOpts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.OtlpEndpoint)}
		if cfg.OtlpInsecure {
			otlpOpts = append(otlpOpts, otlpmetrichttp.WithInsecure())
		}
		otlpExp, err := otlpmetrichttp.New(ctx, otlpOpts...)
		if err != nil {
			return nil, nil, nil, err
		}
		opts = append(opts, sdkmetric.WithReader(sdkmetric.NewPeriodicReader(otlpExp, sdkmetric.WithInterval(15*time.Second))))
	}

	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceName(cfg.ServiceName)))
	if err != nil {
		return nil, nil, nil, err
	}
	opts = append(opts, sdkmetric.WithResource(res))

	provider := sdkmetric.NewMeterProvider(opts...)
	inst, err := newInstruments(provider, cfg.ServiceName)
	if err != nil {
		return nil, nil, nil, err
	}

	return newRecorder(inst), promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), provider.Shutdown, nil
}

type instruments struct {
	requests         metric.Int64Counter
	requestLatencyMs metric.Float64Histogram
	transitions      metric.Int64Counter
	phaseCloses      metric.Int64Counter
	reassignments    metric.Int64Counter
}

func newInstruments(provider metric.MeterProvider, name string) (*instruments, error) {
	meter := provider.Meter(name)

	requests, err := meter.Int64Counter("http_requests_total")
	if err != nil {
		return nil, err
	}
	latency, err := meter.Float64Histogram("http_request_duration_ms")
	if err != nil {
		return nil, err
	}
	transitions, err := meter.Int64Counter("league_match_transitions_total")
	if err != nil {
		return nil, err
	}
	closes, err := meter.Int64Counter("league_phase_closes_total")
	if err != nil {
		return nil, err
	}
	reassignments, err := meter.Int64Counter("league_group_reassignments_total")
	if err != nil {
		return nil, err
	}

	return &instruments{
		requests:         requests,
		requestLatencyMs: latency,
		transitions:      transitions,
		phaseCloses:      closes,
		reassignments:    reassignments,
	}, nil
}

func (i *instruments) recordHTTPRequest(method, route string, status int, duration time.Duration) {
	if i == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(AttrMethod, method),
		attribute.String(AttrRoute, route),
		attribute.Int(AttrStatus, status),
	)
	ctx := context.Background()
	i.requests.Add(ctx, 1, attrs)
	i.requestLatencyMs.Record(ctx, float64(duration.Milliseconds()), attrs)
}

func (i *instruments) recordTransition(status string) {
	if i == nil {
		return
	}
	i.transitions.Add(context.Background(), 1, metric.WithAttributes(attribute.String(AttrState, status)))
}

func (i *instruments) recordPhaseClosed(phaseCode string, reassignments int) {
	if i == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String(AttrPhase, phaseCode))
	i.phaseCloses.Add(context.Background(), 1, attrs)
	i.reassignments.Add(context.Background(), int64(reassignments), attrs)
}
