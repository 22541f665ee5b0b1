package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"guru-chat/internal/service"
)

// SessionHandler expone el CRUD de sesiones y el historial de mensajes.
type SessionHandler struct {
	logger   *zap.Logger
	sessions *service.SessionService
}

func NewSessionHandler(logger *zap.Logger, sessions *service.SessionService) *SessionHandler {
	return &SessionHandler{logger: logger, sessions: sessions}
}

// CreateSession maneja POST /api/sessions.
func (h *SessionHandler) CreateSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid create session request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	session, err := h.sessions.Create(c.Request.Context(), req.UserID, req.CharacterIDs)
	if err != nil {
		writeServiceError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, toSessionResponse(session))
}

// ListSessions maneja GET /api/sessions.
func (h *SessionHandler) ListSessions(c *gin.Context) {
	sessions, err := h.sessions.List(c.Request.Context(), userIDFrom(c))
	if err != nil {
		writeServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, toSessionsResponse(sessions))
}

// UpdateTitle maneja PATCH /api/sessions/:id/title.
func (h *SessionHandler) UpdateTitle(c *gin.Context) {
	var req updateTitleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid update title request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	session, err := h.sessions.Rename(c.Request.Context(), c.Param("id"), userIDFrom(c), req.Title)
	if err != nil {
		writeServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, toSessionResponse(session))
}

// DeleteSession maneja DELETE /api/sessions/:id.
func (h *SessionHandler) DeleteSession(c *gin.Context) {
	sessionID := c.Param("id")
	if err := h.sessions.Delete(c.Request.Context(), sessionID, userIDFrom(c)); err != nil {
		writeServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, DeleteSessionResponse{Status: "deleted", SessionID: sessionID})
}

// ListMessages maneja GET /api/sessions/chat/:id/messages.
func (h *SessionHandler) ListMessages(c *gin.Context) {
	msgs, err := h.sessions.Messages(c.Request.Context(), c.Param("id"), userIDFrom(c))
	if err != nil {
		writeServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, toMessagesResponse(msgs))
}
