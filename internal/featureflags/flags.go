// Package featureflags provides runtime switches for prediction behavior.
package featureflags

import "time"

// Well-known feature flag keys.
const (
	// FlagNamedFieldBinding binds submitted values to pollutant slots by field
	// name instead of by submission order.
	FlagNamedFieldBinding = "named_field_binding"

	// FlagStrictFieldCount rejects submissions that do not carry exactly
	// seven valid values, instead of letting them reach the model.
	FlagStrictFieldCount = "strict_field_count"

	// FlagDisableJSONPredictions turns off POST /v1/predictions.
	FlagDisableJSONPredictions = "disable_json_predictions"
)

// KnownKeys lists every flag the service understands, in display order.
func KnownKeys() []string {
	return []string{
		FlagNamedFieldBinding,
		FlagStrictFieldCount,
		FlagDisableJSONPredictions,
	}
}

// IsKnown reports whether key is a flag the service understands.
func IsKnown(key string) bool {
	for _, k := range KnownKeys() {
		if k == key {
			return true
		}
	}
	return false
}

// Flag represents a feature flag with its current value.
type Flag struct {
	Key       string      `json:"key"`
	Value     interface{} `json:"value"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// FlagList represents a list of feature flags.
type FlagList struct {
	Items []Flag `json:"items"`
}

// FlagUpdate represents a single flag update request.
type FlagUpdate struct {
	Key   string      `json:"key" validate:"required"`
	Value interface{} `json:"value"`
}

// FlagUpdateRequest represents a request to update feature flags.
type FlagUpdateRequest struct {
	Updates []FlagUpdate `json:"updates" validate:"required,min=1,dive"`
	Reason  string       `json:"reason" validate:"max=500"`
}

// BoolValue returns the flag value as a boolean.
// Returns the default value if the flag is nil or not a boolean.
func (f *Flag) BoolValue(defaultValue bool) bool {
	if f == nil {
		return defaultValue
	}
	switch v := f.Value.(type) {
	case bool:
		return v
	case float64:
		// JSON unmarshals numbers as float64
		return v != 0
	default:
		return defaultValue
	}
}

// DefaultFlags returns the flag values used when the store has none.
func DefaultFlags() map[string]*Flag {
	var zero time.Time
	return map[string]*Flag{
		FlagNamedFieldBinding: {
			Key:       FlagNamedFieldBinding,
			Value:     false,
			UpdatedAt: zero,
		},
		FlagStrictFieldCount: {
			Key:       FlagStrictFieldCount,
			Value:     false,
			UpdatedAt: zero,
		},
		FlagDisableJSONPredictions: {
			Key:       FlagDisableJSONPredictions,
			Value:     false,
			UpdatedAt: zero,
		},
	}
}
