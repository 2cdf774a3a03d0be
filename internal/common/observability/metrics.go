package observability

import (
	"context"
	"time"

	"document-workflow/internal/common/logger"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

// Observability holds the OpenTelemetry instruments for Zeebe job handling.
// Instruments are exported through the default Prometheus registry, so they
// show up on /metrics next to the client_golang collectors.
type Observability struct {
	meterProvider     *metric.MeterProvider
	jobsHandled       otelmetric.Int64Counter
	jobDuration       otelmetric.Float64Histogram
	retriesLeft       otelmetric.Int64Histogram
	messagesPublished otelmetric.Int64Counter
}

// New never fails: without an exporter every Record call is a no-op.
func New(serviceName string, log logger.Logger) *Observability {
	o := &Observability{}

	exporter, err := prometheus.New()
	if err != nil {
		log.Warn("otel prometheus exporter unavailable, job metrics disabled", map[string]interface{}{
			"error": err.Error(),
		})
		return o
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)
	meter := provider.Meter(serviceName)

	o.meterProvider = provider
	o.jobsHandled, _ = meter.Int64Counter(
		"zeebe.jobs.handled",
		otelmetric.WithDescription("Zeebe jobs handed to a document workflow worker"),
	)
	o.jobDuration, _ = meter.Float64Histogram(
		"zeebe.jobs.duration",
		otelmetric.WithDescription("Time from activation to completion command"),
		otelmetric.WithUnit("ms"),
	)
	o.retriesLeft, _ = meter.Int64Histogram(
		"zeebe.jobs.retries_left",
		otelmetric.WithDescription("Retries Zeebe still had for a job when it was activated"),
	)
	o.messagesPublished, _ = meter.Int64Counter(
		"zeebe.messages.published",
		otelmetric.WithDescription("Document lifecycle messages published to the broker"),
	)
	return o
}

// RecordJob is safe on a nil or exporter-less Observability.
func (o *Observability) RecordJob(ctx context.Context, taskType string, retries int32, duration time.Duration) {
	if o == nil || o.jobsHandled == nil {
		return
	}
	attrs := otelmetric.WithAttributes(attribute.String("task_type", taskType))
	o.jobsHandled.Add(ctx, 1, attrs)
	o.jobDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
	o.retriesLeft.Record(ctx, int64(retries), attrs)
}

func (o *Observability) RecordMessagePublished(ctx context.Context, messageName string, ok bool) {
	if o == nil || o.messagesPublished == nil {
		return
	}
	status := "ok"
	if !ok {
		status = "error"
	}
	o.messagesPublished.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("message", messageName),
		attribute.String("status", status),
	))
}

func (o *Observability) Shutdown() {
	if o != nil && o.meterProvider != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = o.meterProvider.Shutdown(ctx)
	}
}
