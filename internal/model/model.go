// Package model holds the pre-trained AQI regression model. A model is loaded
// once at startup and is read-only afterwards, so a single instance is safe to
// share between concurrent requests.
package model

import (
	"context"
	"errors"
	"fmt"
	"math"
)

// Model errors.
var (
	// ErrShape is returned when an input row does not have one value per feature.
	ErrShape = errors.New("model input shape mismatch")

	// ErrInvalidArtifact is returned when a model artifact cannot be used.
	ErrInvalidArtifact = errors.New("invalid model artifact")
)

// Predictor is the only contract the rest of the service relies on: a batch
// of rows in, one scalar per row out.
type Predictor interface {
	Predict(ctx context.Context, rows [][]float64) ([]float64, error)
}

// Linear is a linear regression over a fixed, ordered feature set.
type Linear struct {
	Name         string    `json:"name" yaml:"name"`
	Version      string    `json:"version" yaml:"version"`
	Features     []string  `json:"features" yaml:"features"`
	Coefficients []float64 `json:"coefficients" yaml:"coefficients"`
	Intercept    float64   `json:"intercept" yaml:"intercept"`
}

// Validate checks that the artifact is internally consistent.
func (m *Linear) Validate() error {
	if len(m.Coefficients) == 0 {
		return fmt.Errorf("%w: no coefficients", ErrInvalidArtifact)
	}
	if len(m.Features) != 0 && len(m.Features) != len(m.Coefficients) {
		return fmt.Errorf("%w: %d features but %d coefficients",
			ErrInvalidArtifact, len(m.Features), len(m.Coefficients))
	}
	for i, c := range m.Coefficients {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return fmt.Errorf("%w: coefficient %d is not finite", ErrInvalidArtifact, i)
		}
	}
	if math.IsNaN(m.Intercept) || math.IsInf(m.Intercept, 0) {
		return fmt.Errorf("%w: intercept is not finite", ErrInvalidArtifact)
	}
	return nil
}

// NumFeatures returns the row width the model expects.
func (m *Linear) NumFeatures() int {
	return len(m.Coefficients)
}

// Predict returns intercept + coefficients·row for every row.
func (m *Linear) Predict(_ context.Context, rows [][]float64) ([]float64, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no rows", ErrShape)
	}

	out := make([]float64, len(rows))
	for i, row := range rows {
		if len(row) != len(m.Coefficients) {
			return nil, fmt.Errorf("%w: row %d has %d features, model expects %d",
				ErrShape, i, len(row), len(m.Coefficients))
		}

		y := m.Intercept
		for j, x := range row {
			y += m.Coefficients[j] * x
		}
		out[i] = y
	}
	return out, nil
}

var _ Predictor = (*Linear)(nil)
