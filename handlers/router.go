package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the health check and every API route on r
func RegisterRoutes(r *gin.Engine, chat *ChatHandler, compliance *ComplianceHandler) {
	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})

	// API routes
	api := r.Group("/api")
	{
		// Chat endpoints
		api.POST("/chat", chat.Chat)
		api.GET("/chat/sessions/:sessionId/history", chat.GetHistory)
		api.DELETE("/chat/sessions/:sessionId/history", chat.ClearHistory)
		api.GET("/chat/sessions/:sessionId/mode", chat.GetSearchMode)
		api.PUT("/chat/sessions/:sessionId/mode", chat.SetSearchMode)

		// Regulation endpoints
		api.GET("/regulations/articles/:number", chat.GetArticle)

		// Compliance endpoints
		api.POST("/compliance/:projectId/check", compliance.CheckCompliance)
		api.GET("/compliance/:projectId", compliance.GetComplianceResult)
	}
}
