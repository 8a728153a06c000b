package models

import (
	"github.com/breatheroute/aqipredict/internal/airquality"
	"github.com/breatheroute/aqipredict/internal/model"
)

// Enums represents the enum values used by the API.
type Enums struct {
	Pollutants []airquality.Pollutant `json:"pollutants"`
	Tiers      []airquality.Band      `json:"tiers"`
}

// ModelInfo describes the loaded model artifact.
type ModelInfo struct {
	Name     string   `json:"name"`
	Version  string   `json:"version"`
	Features []string `json:"features"`
}

// NewModelInfo describes m. Artifacts without feature names report the
// pollutant order the vector is bound to.
func NewModelInfo(m *model.Linear) *ModelInfo {
	info := &ModelInfo{Name: m.Name, Version: m.Version}
	if len(m.Features) > 0 {
		info.Features = append([]string(nil), m.Features...)
		return info
	}
	for _, p := range airquality.Pollutants() {
		info.Features = append(info.Features, string(p))
	}
	return info
}
