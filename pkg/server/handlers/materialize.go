package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/soundprediction/aggrego"
	"github.com/soundprediction/aggrego/pkg/server/dto"
)

// MaterializeHandler triggers materialization passes and record ingestion.
type MaterializeHandler struct {
	engine aggrego.Engine
}

// NewMaterializeHandler creates a new materialize handler.
func NewMaterializeHandler(engine aggrego.Engine) *MaterializeHandler {
	return &MaterializeHandler{engine: engine}
}

// Materialize handles POST /api/v1/materialize. Partial failures are
// reported inside the run report with a 200; only an unresolvable data
// source is an HTTP error.
func (h *MaterializeHandler) Materialize(c *gin.Context) {
	var req dto.MaterializeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid request",
			Message: err.Error(),
			Code:    http.StatusBadRequest,
		})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation failed",
			Message: err.Error(),
			Code:    http.StatusBadRequest,
		})
		return
	}

	report, err := h.engine.MaterializeAggregations(c.Request.Context(), req.DataSourceID, req.AggregationTypes...)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, dto.ErrorResponse{
			Error:   "materialization failed",
			Message: err.Error(),
			Code:    http.StatusUnprocessableEntity,
		})
		return
	}

	c.JSON(http.StatusOK, dto.MaterializeResponse{Report: report})
}

// IngestRecords handles POST /api/v1/ingest/records.
func (h *MaterializeHandler) IngestRecords(c *gin.Context) {
	var req dto.IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid request",
			Message: err.Error(),
			Code:    http.StatusBadRequest,
		})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation failed",
			Message: err.Error(),
			Code:    http.StatusBadRequest,
		})
		return
	}

	n, err := h.engine.IngestRecords(c.Request.Context(), req.DataSourceID, req.Records)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "ingestion failed",
			Message: err.Error(),
			Code:    http.StatusInternalServerError,
		})
		return
	}

	c.JSON(http.StatusOK, dto.IngestResponse{Ingested: n})
}
