package form

import (
	"errors"
	"strconv"
	"strings"

	"github.com/breatheroute/aqipredict/internal/airquality"
)

// User-facing rejection messages.
const (
	MsgPrimaryRequired = "Either PM2.5 or PM10 is required."
	MsgTooFewValues    = "At least 3 valid pollutant values are required to predict AQI."
	MsgExactValues     = "Exactly 7 valid pollutant values are required to predict AQI."
)

// MinValues is the minimum number of parseable values a submission needs.
const MinValues = 3

// Binding selects how submitted fields map onto pollutant slots.
type Binding string

const (
	// BindingPositional takes values in submission order; the first field is
	// PM2.5, the second PM10, and so on, whatever the fields are called.
	BindingPositional Binding = "positional"

	// BindingNamed matches field names to pollutants and emits values in the
	// fixed pollutant order regardless of submission order.
	BindingNamed Binding = "named"
)

// Options controls validation.
type Options struct {
	Binding Binding

	// StrictFieldCount rejects submissions that do not yield exactly one value
	// per pollutant instead of passing them on to the model.
	StrictFieldCount bool
}

// ValidationError is a user-correctable rejection.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsValidationError reports whether err is a ValidationError and returns it.
func IsValidationError(err error) (*ValidationError, bool) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}

// Vector is the ordered numeric input handed to the prediction engine.
type Vector []float64

// IsPermissiveFloat reports whether s is a non-negative decimal: non-empty and
// only ASCII digits once at most one '.' is removed. Signs, exponents, and
// repeated dots are rejected.
func IsPermissiveFloat(s string) bool {
	stripped := strings.Replace(s, ".", "", 1)
	if stripped == "" {
		return false
	}
	for i := 0; i < len(stripped); i++ {
		if stripped[i] < '0' || stripped[i] > '9' {
			return false
		}
	}
	return true
}

// parseValue converts a permissive float. Digit strings too long for float64
// overflow to +Inf rather than failing.
func parseValue(s string) (float64, bool) {
	if !IsPermissiveFloat(s) {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		var numErr *strconv.NumError
		if !errors.As(err, &numErr) || !errors.Is(numErr.Err, strconv.ErrRange) {
			return 0, false
		}
	}
	return v, true
}

// Validate turns submitted fields into a Vector or a *ValidationError.
func Validate(fields Fields, opts Options) (Vector, error) {
	var (
		vec Vector
		err error
	)

	switch opts.Binding {
	case BindingNamed:
		vec, err = validateNamed(fields)
	default:
		vec, err = validatePositional(fields)
	}
	if err != nil {
		return nil, err
	}

	if len(vec) < MinValues {
		return nil, &ValidationError{Message: MsgTooFewValues}
	}
	if opts.StrictFieldCount && len(vec) != airquality.PollutantCount {
		return nil, &ValidationError{Message: MsgExactValues}
	}
	return vec, nil
}

func validatePositional(fields Fields) (Vector, error) {
	if fields.At(0) == "" && fields.At(1) == "" {
		return nil, &ValidationError{Message: MsgPrimaryRequired}
	}

	vec := make(Vector, 0, len(fields))
	for _, field := range fields {
		if v, ok := parseValue(field.Value); ok {
			vec = append(vec, v)
		}
	}
	return vec, nil
}

func validateNamed(fields Fields) (Vector, error) {
	var (
		raw   [airquality.PollutantCount]string
		bound [airquality.PollutantCount]bool
	)
	for _, field := range fields {
		slot := SlotForName(field.Name)
		if slot < 0 || bound[slot] {
			continue
		}
		raw[slot] = field.Value
		bound[slot] = true
	}

	pm25 := airquality.PollutantPM25.Index()
	pm10 := airquality.PollutantPM10.Index()
	if raw[pm25] == "" && raw[pm10] == "" {
		return nil, &ValidationError{Message: MsgPrimaryRequired}
	}

	vec := make(Vector, 0, airquality.PollutantCount)
	for slot := range raw {
		if !bound[slot] {
			continue
		}
		if v, ok := parseValue(raw[slot]); ok {
			vec = append(vec, v)
		}
	}
	return vec, nil
}

// SlotForName maps a field name to its pollutant slot. Pollutant names and
// their spellings ("pm2.5", "pm25", "no2") resolve directly; the form page's
// "input1".."input7" resolve by number. Unknown names return -1.
func SlotForName(name string) int {
	if p, err := airquality.ParsePollutant(name); err == nil {
		return p.Index()
	}

	if rest, ok := strings.CutPrefix(strings.ToLower(name), "input"); ok {
		n, err := strconv.Atoi(rest)
		if err == nil && n >= 1 && n <= airquality.PollutantCount {
			return n - 1
		}
	}
	return -1
}
