package models

// PredictionField is one submitted value. Value is the raw string exactly as a
// form would send it.
type PredictionField struct {
	Name  string `json:"name" validate:"max=64"`
	Value string `json:"value" validate:"max=64"`
}

// PredictionRequest is the body of POST /v1/predictions. Fields are ordered.
type PredictionRequest struct {
	Fields []PredictionField `json:"fields" validate:"required,max=32,dive"`
}

// PredictionResponse is a successful prediction. Prediction is null when the
// estimate is not finite; PredictionText always carries it.
type PredictionResponse struct {
	Prediction        *float64 `json:"prediction"`
	PredictionText    string   `json:"predictionText"`
	DominantPollutant string   `json:"dominantPollutant"`
	SeverityTier      string   `json:"severityTier"`
}
