package handler

import (
	"net/http"

	"github.com/breatheroute/aqipredict/internal/airquality"
	"github.com/breatheroute/aqipredict/internal/api/models"
	"github.com/breatheroute/aqipredict/internal/api/response"
)

// MetadataHandler handles metadata endpoints.
type MetadataHandler struct {
	model *models.ModelInfo
}

// NewMetadataHandler creates a new MetadataHandler.
func NewMetadataHandler(model *models.ModelInfo) *MetadataHandler {
	return &MetadataHandler{model: model}
}

// GetEnums handles GET /v1/metadata/enums - pollutants in vector order and
// the severity bands.
func (h *MetadataHandler) GetEnums(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, models.Enums{
		Pollutants: airquality.Pollutants(),
		Tiers:      airquality.Bands(),
	})
}

// GetModel handles GET /v1/metadata/model - the loaded model artifact.
func (h *MetadataHandler) GetModel(w http.ResponseWriter, r *http.Request) {
	if h.model == nil {
		response.NotFound(w, r, "no model loaded")
		return
	}
	response.JSON(w, r, http.StatusOK, h.model)
}
