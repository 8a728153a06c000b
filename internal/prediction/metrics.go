package prediction

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/breatheroute/aqipredict/internal/prediction"

// Metrics holds the instruments recorded by the engine.
type Metrics struct {
	predictions metric.Int64Counter
	failures    metric.Int64Counter
	aqi         metric.Float64Histogram
}

// NewMetrics creates the engine instruments on the global meter provider.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)

	predictions, err := meter.Int64Counter(
		"aqi.prediction.total",
		metric.WithDescription("Number of successful AQI predictions by severity tier"),
		metric.WithUnit("{prediction}"),
	)
	if err != nil {
		return nil, err
	}

	failures, err := meter.Int64Counter(
		"aqi.prediction.failures",
		metric.WithDescription("Number of AQI predictions that failed"),
		metric.WithUnit("{prediction}"),
	)
	if err != nil {
		return nil, err
	}

	aqi, err := meter.Float64Histogram(
		"aqi.prediction.value",
		metric.WithDescription("Distribution of predicted AQI values"),
		metric.WithUnit("{aqi}"),
		metric.WithExplicitBucketBoundaries(0, 50, 100, 200, 300, 400, 500),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		predictions: predictions,
		failures:    failures,
		aqi:         aqi,
	}, nil
}

// RecordPrediction records a successful prediction.
func (m *Metrics) RecordPrediction(ctx context.Context, res Result) {
	attrs := metric.WithAttributes(
		attribute.String("aqi.tier", string(res.Tier)),
		attribute.String("aqi.dominant", string(res.Dominant)),
	)
	m.predictions.Add(ctx, 1, attrs)
	m.aqi.Record(ctx, res.AQI, attrs)
}

// RecordFailure records a failed prediction.
func (m *Metrics) RecordFailure(ctx context.Context, err error) {
	reason := "model"
	if errors.Is(err, ErrShape) {
		reason = "shape"
	}
	m.failures.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}
