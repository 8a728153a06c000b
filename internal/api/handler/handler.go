// Package handler provides HTTP handlers for the AQI prediction service.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/breatheroute/aqipredict/internal/form"
	"github.com/breatheroute/aqipredict/internal/prediction"
)

// Predictor evaluates a validated submission vector.
// *prediction.Engine satisfies it.
type Predictor interface {
	Predict(ctx context.Context, vec []float64) (prediction.Result, error)
}

// FlagReader reads the runtime flags that change how submissions are handled.
// *featureflags.Service satisfies it.
type FlagReader interface {
	IsNamedFieldBinding(ctx context.Context) bool
	IsStrictFieldCount(ctx context.Context) bool
	IsJSONPredictionsDisabled(ctx context.Context) bool
}

var errTrailingData = errors.New("unexpected data after JSON body")

// formOptions builds validation options from the current flags. A nil reader
// gives the default positional, non-strict behaviour.
func formOptions(ctx context.Context, flags FlagReader) form.Options {
	opts := form.Options{Binding: form.BindingPositional}
	if flags == nil {
		return opts
	}
	if flags.IsNamedFieldBinding(ctx) {
		opts.Binding = form.BindingNamed
	}
	opts.StrictFieldCount = flags.IsStrictFieldCount(ctx)
	return opts
}

// decodeJSON decodes a size-limited JSON body, rejecting unknown fields and
// trailing data.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, form.MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if dec.More() {
		return errTrailingData
	}
	return nil
}
