package handlers

import (
	"context"
	"net/http"

	"github.com/hafidzyami/CivilConstructionApp-sub000/models"
	"github.com/hafidzyami/CivilConstructionApp-sub000/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ChatService is the chatbot surface the handler needs.
// *service.ChatbotService implements it.
type ChatService interface {
	ProcessQuery(ctx context.Context, req service.ProcessQueryRequest) (*models.ChatResponse, error)
	GetHistory(sessionID string) ([]models.ConversationMessage, error)
	ClearHistory(sessionID string) error
	SetSearchMode(sessionID string, mode models.SearchMode) error
	GetSearchMode(sessionID string) (models.SearchMode, error)
	LookupArticle(ctx context.Context, ref string) (*models.ArticleRecord, error)
}

// ChatHandler handles HTTP requests for the regulation chatbot
type ChatHandler struct {
	chatService ChatService
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chatService ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// ChatRequest represents the request body for a chat message
type ChatRequest struct {
	Message   string `json:"message" binding:"required"`
	SessionID string `json:"sessionId"`
	Mode      string `json:"mode"`
}

// ChatResponseData wraps the answer with the session it belongs to
type ChatResponseData struct {
	SessionID string `json:"sessionId"`
	*models.ChatResponse
}

// Chat handles POST /api/chat. A missing sessionId starts a new session.
func (h *ChatHandler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	serviceReq := service.ProcessQueryRequest{
		Query:     req.Message,
		SessionID: req.SessionID,
	}
	if req.Mode != "" {
		mode := models.SearchMode(req.Mode)
		serviceReq.Mode = &mode
	}

	resp, err := h.chatService.ProcessQuery(c.Request.Context(), serviceReq)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusOK, ChatResponseData{SessionID: req.SessionID, ChatResponse: resp})
}

// GetHistory handles GET /api/chat/sessions/:sessionId/history
func (h *ChatHandler) GetHistory(c *gin.Context) {
	sessionID := c.Param("sessionId")
	messages, err := h.chatService.GetHistory(sessionID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{
		"sessionId": sessionID,
		"messages":  messages,
	})
}

// ClearHistory handles DELETE /api/chat/sessions/:sessionId/history
func (h *ChatHandler) ClearHistory(c *gin.Context) {
	sessionID := c.Param("sessionId")
	if err := h.chatService.ClearHistory(sessionID); err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{
		"sessionId": sessionID,
		"cleared":   true,
	})
}

// SearchModeRequest represents the request body for changing the search mode
type SearchModeRequest struct {
	Mode string `json:"mode" binding:"required"`
}

// GetSearchMode handles GET /api/chat/sessions/:sessionId/mode
func (h *ChatHandler) GetSearchMode(c *gin.Context) {
	sessionID := c.Param("sessionId")
	mode, err := h.chatService.GetSearchMode(sessionID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{
		"sessionId": sessionID,
		"mode":      mode,
	})
}

// SetSearchMode handles PUT /api/chat/sessions/:sessionId/mode
func (h *ChatHandler) SetSearchMode(c *gin.Context) {
	var req SearchModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	sessionID := c.Param("sessionId")
	if err := h.chatService.SetSearchMode(sessionID, models.SearchMode(req.Mode)); err != nil {
		respondServiceError(c, err)
		return
	}

	// Echo the canonical name, not the alias that was sent
	mode, err := h.chatService.GetSearchMode(sessionID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{
		"sessionId": sessionID,
		"mode":      mode,
	})
}

// GetArticle handles GET /api/regulations/articles/:number
func (h *ChatHandler) GetArticle(c *gin.Context) {
	article, err := h.chatService.LookupArticle(c.Request.Context(), c.Param("number"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusOK, article)
}
