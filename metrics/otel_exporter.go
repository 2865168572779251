package metrics

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Collector reports the observable state of the relay backlog.
type Collector interface {
	// GetQueueDepths returns the number of pending messages per stream
	GetQueueDepths(ctx context.Context) (map[string]int64, error)
}

// OTelExporter provides OpenTelemetry metrics export in Prometheus format
type OTelExporter struct {
	meterProvider *sdkmetric.MeterProvider
	collector     Collector

	meter           metric.Meter
	pipeline        *Pipeline
	queueDepthGauge metric.Int64ObservableGauge
}

// NewOTelExporter creates the meter provider, the pipeline instruments
// and the backlog gauges backed by the given collector
func NewOTelExporter(collector Collector) (*OTelExporter, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("creating prometheus exporter: %w", err)
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
	)
	otel.SetMeterProvider(meterProvider)

	meter := meterProvider.Meter(
		"ferryhook-relay",
		metric.WithInstrumentationVersion("1.0.0"),
	)

	oe := &OTelExporter{
		meterProvider: meterProvider,
		collector:     collector,
		meter:         meter,
	}

	oe.pipeline, err = NewPipeline(meter)
	if err != nil {
		return nil, fmt.Errorf("registering pipeline instruments: %w", err)
	}

	if err := oe.registerInstruments(); err != nil {
		return nil, fmt.Errorf("registering instruments: %w", err)
	}

	return oe, nil
}

// Pipeline returns the synchronous pipeline instruments
func (oe *OTelExporter) Pipeline() *Pipeline {
	return oe.pipeline
}

// registerInstruments creates the observable backlog gauges
func (oe *OTelExporter) registerInstruments() error {
	var err error

	oe.queueDepthGauge, err = oe.meter.Int64ObservableGauge(
		"relay.queue.depth",
		metric.WithDescription("Number of pending messages per stream"),
		metric.WithUnit("{messages}"),
		metric.WithInt64Callback(oe.observeQueueDepths),
	)
	if err != nil {
		return fmt.Errorf("creating queue depth gauge: %w", err)
	}

	return nil
}

// observeQueueDepths is a callback that reports stream backlogs
func (oe *OTelExporter) observeQueueDepths(ctx context.Context, observer metric.Int64Observer) error {
	if oe.collector == nil {
		return nil
	}

	depths, err := oe.collector.GetQueueDepths(ctx)
	if err != nil {
		return err
	}

	for stream, depth := range depths {
		observer.Observe(depth, metric.WithAttributes(
			attribute.String("stream", stream),
		))
	}

	return nil
}

// ServeHTTP serves Prometheus-formatted metrics on the given HTTP handler
func (oe *OTelExporter) ServeHTTP() http.Handler {
	return promhttp.Handler()
}

// Shutdown gracefully shuts down the meter provider
func (oe *OTelExporter) Shutdown(ctx context.Context) error {
	if oe.meterProvider != nil {
		return oe.meterProvider.Shutdown(ctx)
	}
	return nil
}
