package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/hafidzyami/CivilConstructionApp-sub000/models"

	"github.com/gin-gonic/gin"
)

// ComplianceService is the compliance surface the handler needs.
// *service.ComplianceService implements it.
type ComplianceService interface {
	CheckCompliance(ctx context.Context, projectID string) (*models.ComplianceResult, error)
	EvaluateMetrics(ctx context.Context, metrics *models.ProjectMetrics) (*models.ComplianceResult, error)
	GetComplianceResult(ctx context.Context, projectID string) (*models.ComplianceResult, error)
}

// ComplianceHandler handles HTTP requests for project compliance checks
type ComplianceHandler struct {
	complianceService ComplianceService
}

// NewComplianceHandler creates a new compliance handler
func NewComplianceHandler(complianceService ComplianceService) *ComplianceHandler {
	return &ComplianceHandler{complianceService: complianceService}
}

// CheckCompliance handles POST /api/compliance/:projectId/check.
// With a JSON body the submitted metrics are evaluated (and stored);
// without one the project's stored metrics are used.
func (h *ComplianceHandler) CheckCompliance(c *gin.Context) {
	projectID := c.Param("projectId")

	var (
		result *models.ComplianceResult
		err    error
	)
	// chunked bodies report ContentLength -1, so an empty body shows up as io.EOF
	var metrics models.ProjectMetrics
	bindErr := io.EOF
	if c.Request.Body != nil && c.Request.Body != http.NoBody {
		bindErr = c.ShouldBindJSON(&metrics)
	}
	switch {
	case errors.Is(bindErr, io.EOF):
		result, err = h.complianceService.CheckCompliance(c.Request.Context(), projectID)
	case bindErr != nil:
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", bindErr.Error())
		return
	default:
		metrics.ProjectID = projectID
		result, err = h.complianceService.EvaluateMetrics(c.Request.Context(), &metrics)
	}
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusOK, result)
}

// GetComplianceResult handles GET /api/compliance/:projectId
func (h *ComplianceHandler) GetComplianceResult(c *gin.Context) {
	result, err := h.complianceService.GetComplianceResult(c.Request.Context(), c.Param("projectId"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusOK, result)
}
