package throttle

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/KOMKZ/go-yogan-quota/throttle"

// metrics OpenTelemetry instruments of the throttle
type metrics struct {
	allowed  metric.Int64Counter
	rejected metric.Int64Counter
	errors   metric.Int64Counter
}

func newMetrics(meter metric.Meter) (*metrics, error) {
	if meter == nil {
		meter = otel.Meter(meterName)
	}

	m := &metrics{}
	var err error

	m.allowed, err = meter.Int64Counter(
		"quota.api_credits.allowed",
		metric.WithDescription("Billable API calls allowed"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	m.rejected, err = meter.Int64Counter(
		"quota.api_credits.rejected",
		metric.WithDescription("Billable API calls rejected because the monthly quota is used up"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	m.errors, err = meter.Int64Counter(
		"quota.api_credits.errors",
		metric.WithDescription("Counter store failures"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (m *metrics) record(ctx context.Context, d Decision) {
	attrs := metric.WithAttributes(attribute.Bool("unlimited", d.Limit == nil))
	if d.Allowed {
		m.allowed.Add(ctx, 1, attrs)
		return
	}
	m.rejected.Add(ctx, 1, attrs)
}

func (m *metrics) recordError(ctx context.Context) {
	m.errors.Add(ctx, 1)
}
