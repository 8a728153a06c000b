package airquality

import (
	"encoding/json"
	"math"
)

// Tier is the display classification of a predicted AQI. Its value is the CSS
// class the form page uses to colour the result.
type Tier string

const (
	TierParrotGreen Tier = "parrot-green"
	TierLightGreen  Tier = "light-green"
	TierYellow      Tier = "yellow"
	TierOrange      Tier = "orange"
	TierRed         Tier = "red"
	TierDarkRed     Tier = "dark-red"
)

// Band is one contiguous AQI range mapped to a tier.
type Band struct {
	Tier Tier    `json:"tier"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
}

// MarshalJSON encodes the open upper bound of the last band as null.
func (b Band) MarshalJSON() ([]byte, error) {
	out := struct {
		Tier Tier     `json:"tier"`
		Min  float64  `json:"min"`
		Max  *float64 `json:"max"`
	}{Tier: b.Tier, Min: b.Min}
	if !math.IsInf(b.Max, 1) {
		upper := b.Max
		out.Max = &upper
	}
	return json.Marshal(out)
}

// Bands returns the severity bands in ascending order. Band bounds are the
// published integer ranges; a value between two bands (e.g. 50.5) belongs to
// the upper one, so the bands cover [0, 400] without gaps.
func Bands() []Band {
	return []Band{
		{Tier: TierParrotGreen, Min: 0, Max: 50},
		{Tier: TierLightGreen, Min: 51, Max: 100},
		{Tier: TierYellow, Min: 101, Max: 200},
		{Tier: TierOrange, Min: 201, Max: 300},
		{Tier: TierRed, Min: 301, Max: 400},
		{Tier: TierDarkRed, Min: 401, Max: math.Inf(1)},
	}
}

// Classify maps a predicted AQI to its severity tier. Negative, NaN, and
// values above 400 are dark-red. A strict reading of the closed integer bands
// would also send gap values such as 50.5 or 300.5 to dark-red; here they take
// the upper neighbouring tier instead.
func Classify(aqi float64) Tier {
	if math.IsNaN(aqi) || aqi < 0 {
		return TierDarkRed
	}

	for _, b := range Bands() {
		if aqi <= b.Max {
			return b.Tier
		}
	}
	return TierDarkRed
}
