// Package airquality provides the pollutant enumeration and the AQI severity
// classification used when rendering predictions.
package airquality

import (
	"errors"
	"strings"
)

// ErrUnknownPollutant is returned when a name does not match any tracked pollutant.
var ErrUnknownPollutant = errors.New("unknown pollutant")

// Pollutant represents an air quality pollutant type.
type Pollutant string

const (
	PollutantPM25 Pollutant = "PM2.5"
	PollutantPM10 Pollutant = "PM10"
	PollutantNO2  Pollutant = "NO2"
	PollutantNH3  Pollutant = "NH3"
	PollutantSO2  Pollutant = "SO2"
	PollutantCO   Pollutant = "CO"
	PollutantO3   Pollutant = "O3"
)

// PollutantCount is the number of tracked pollutants.
const PollutantCount = 7

// Pollutants returns the tracked pollutants in their fixed positional order.
// Position i of a submission vector is the concentration of Pollutants()[i].
func Pollutants() []Pollutant {
	return []Pollutant{
		PollutantPM25,
		PollutantPM10,
		PollutantNO2,
		PollutantNH3,
		PollutantSO2,
		PollutantCO,
		PollutantO3,
	}
}

// Index returns the positional slot of the pollutant, or -1 if it is not tracked.
func (p Pollutant) Index() int {
	for i, known := range Pollutants() {
		if known == p {
			return i
		}
	}
	return -1
}

// ParsePollutant resolves a loosely written pollutant name ("pm2.5", "PM25",
// "pm2_5", "no2", ...) to a tracked pollutant.
func ParsePollutant(name string) (Pollutant, error) {
	key := strings.ToUpper(strings.TrimSpace(name))
	key = strings.NewReplacer(".", "", "_", "", "-", "", " ", "").Replace(key)

	switch key {
	case "PM25":
		return PollutantPM25, nil
	case "PM10":
		return PollutantPM10, nil
	case "NO2":
		return PollutantNO2, nil
	case "NH3":
		return PollutantNH3, nil
	case "SO2":
		return PollutantSO2, nil
	case "CO":
		return PollutantCO, nil
	case "O3":
		return PollutantO3, nil
	default:
		return "", ErrUnknownPollutant
	}
}

// SubIndex pairs a pollutant with its submitted concentration.
type SubIndex struct {
	Pollutant Pollutant
	Value     float64
}

// SubIndices is the ordered pollutant-to-value mapping built from a submission.
// Order follows Pollutants().
type SubIndices []SubIndex

// NewSubIndices binds values positionally to the fixed pollutant order.
// Exactly PollutantCount values are required.
func NewSubIndices(values []float64) (SubIndices, bool) {
	if len(values) != PollutantCount {
		return nil, false
	}

	out := make(SubIndices, 0, PollutantCount)
	for i, p := range Pollutants() {
		out = append(out, SubIndex{Pollutant: p, Value: values[i]})
	}
	return out, true
}

// Value returns the concentration recorded for the pollutant.
func (s SubIndices) Value(p Pollutant) (float64, bool) {
	for _, si := range s {
		if si.Pollutant == p {
			return si.Value, true
		}
	}
	return 0, false
}

// Dominant returns the pollutant with the strictly greatest value. Ties keep
// the first pollutant in order. Returns "" for an empty set.
func (s SubIndices) Dominant() Pollutant {
	if len(s) == 0 {
		return ""
	}

	best := s[0]
	for _, si := range s[1:] {
		if si.Value > best.Value {
			best = si
		}
	}
	return best.Pollutant
}
