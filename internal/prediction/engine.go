// Package prediction runs a validated submission through the AQI model and
// classifies the result.
package prediction

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/breatheroute/aqipredict/internal/airquality"
	"github.com/breatheroute/aqipredict/internal/model"
)

const tracerName = "github.com/breatheroute/aqipredict/internal/prediction"

// ErrShape is returned when the submission cannot be bound to the seven
// pollutant slots, or the model rejects its shape.
var ErrShape = errors.New("submission shape does not match pollutant set")

// Result is the outcome handed to the presentation layer unmodified.
type Result struct {
	AQI      float64
	Dominant airquality.Pollutant
	Tier     airquality.Tier
}

// PredictionText formats the AQI estimate for display.
func (r Result) PredictionText() string {
	return strconv.FormatFloat(r.AQI, 'f', -1, 64)
}

// Engine is the prediction and classification engine. It holds the model by
// reference and never mutates it.
type Engine struct {
	model   model.Predictor
	tracer  trace.Tracer
	metrics *Metrics
}

// NewEngine creates an engine over a loaded model. metrics may be nil.
func NewEngine(m model.Predictor, metrics *Metrics) *Engine {
	return &Engine{
		model:   m,
		tracer:  otel.Tracer(tracerName),
		metrics: metrics,
	}
}

// Predict evaluates one submission vector.
//
// The model runs before the vector is bound to pollutant slots, so a model
// that accepts the row still yields ErrShape when the row is not exactly
// seven values long.
func (e *Engine) Predict(ctx context.Context, vec []float64) (Result, error) {
	ctx, span := e.tracer.Start(ctx, "prediction.Predict",
		trace.WithAttributes(attribute.Int("prediction.input_len", len(vec))),
	)
	defer span.End()

	row := make([]float64, len(vec))
	copy(row, vec)

	out, err := e.model.Predict(ctx, [][]float64{row})
	if err != nil {
		if errors.Is(err, model.ErrShape) {
			err = fmt.Errorf("%w: %w", ErrShape, err)
		}
		e.fail(ctx, span, err)
		return Result{}, fmt.Errorf("model predict: %w", err)
	}
	if len(out) != 1 {
		err := fmt.Errorf("%w: model returned %d outputs for one row", ErrShape, len(out))
		e.fail(ctx, span, err)
		return Result{}, err
	}
	aqi := out[0]

	subs, ok := airquality.NewSubIndices(vec)
	if !ok {
		err := fmt.Errorf("%w: got %d values, want %d", ErrShape, len(vec), airquality.PollutantCount)
		e.fail(ctx, span, err)
		return Result{}, err
	}

	res := Result{
		AQI:      aqi,
		Dominant: subs.Dominant(),
		Tier:     airquality.Classify(aqi),
	}

	span.SetAttributes(
		attribute.Float64("prediction.aqi", res.AQI),
		attribute.String("prediction.dominant", string(res.Dominant)),
		attribute.String("prediction.tier", string(res.Tier)),
	)
	if e.metrics != nil {
		e.metrics.RecordPrediction(ctx, res)
	}
	return res, nil
}

func (e *Engine) fail(ctx context.Context, span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	if e.metrics != nil {
		e.metrics.RecordFailure(ctx, err)
	}
}
