package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/soundprediction/aggrego"
	"github.com/soundprediction/aggrego/pkg/server/dto"
)

// QueryHandler answers free-text questions.
type QueryHandler struct {
	engine aggrego.Engine
}

// NewQueryHandler creates a new query handler.
func NewQueryHandler(engine aggrego.Engine) *QueryHandler {
	return &QueryHandler{engine: engine}
}

// Query handles POST /api/v1/query.
func (h *QueryHandler) Query(c *gin.Context) {
	var req dto.QueryRequest
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

	answer, err := h.engine.AnswerQuery(c.Request.Context(), req.DataSourceID, req.Query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "query failed",
			Message: err.Error(),
			Code:    http.StatusInternalServerError,
		})
		return
	}

	c.JSON(http.StatusOK, dto.QueryResponse{Answer: answer})
}

// Classify handles POST /api/v1/classify. It exposes the intent
// classification step for debugging trigger catalogs.
func (h *QueryHandler) Classify(c *gin.Context) {
	var req dto.QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid request",
			Message: err.Error(),
			Code:    http.StatusBadRequest,
		})
		return
	}

	intent := h.engine.ClassifyQuery(req.Query)
	c.JSON(http.StatusOK, gin.H{"intent": intent})
}
