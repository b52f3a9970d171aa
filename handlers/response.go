package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/hafidzyami/CivilConstructionApp-sub000/service"

	"github.com/gin-gonic/gin"
)

func respondOK(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// respondServiceError maps service sentinels onto status codes
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidSessionID):
		respondError(c, http.StatusBadRequest, "INVALID_SESSION_ID", err.Error())
	case errors.Is(err, service.ErrMissingMetrics):
		respondError(c, http.StatusBadRequest, "MISSING_METRICS", err.Error())
	case errors.Is(err, service.ErrInvalidInput):
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
	case errors.Is(err, service.ErrProjectNotFound):
		respondError(c, http.StatusNotFound, "PROJECT_NOT_FOUND", err.Error())
	case errors.Is(err, service.ErrComplianceResultNotFound):
		respondError(c, http.StatusNotFound, "RESULT_NOT_FOUND", err.Error())
	case errors.Is(err, service.ErrArticleNotFound):
		respondError(c, http.StatusNotFound, "ARTICLE_NOT_FOUND", err.Error())
	case errors.Is(err, service.ErrAllStrategiesFailed), errors.Is(err, service.ErrLLMUnavailable),
		errors.Is(err, service.ErrKnowledgeUnavailable):
		respondError(c, http.StatusBadGateway, "UPSTREAM_UNAVAILABLE", err.Error())
	default:
		log.Printf("Warning: unhandled error on %s %s: %v", c.Request.Method, c.FullPath(), err)
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
	}
}
