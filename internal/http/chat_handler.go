package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"guru-chat/internal/service"
)

// ChatHandler transmite las respuestas de los personajes como server-sent events.
type ChatHandler struct {
	logger *zap.Logger
	chat   *service.ChatService
}

func NewChatHandler(logger *zap.Logger, chat *service.ChatService) *ChatHandler {
	return &ChatHandler{logger: logger, chat: chat}
}

// Chat maneja POST /api/sessions/chat/:id/chat.
// Los rechazos se responden como JSON antes de abrir el stream.
func (h *ChatHandler) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid chat request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	ctx := c.Request.Context()
	turn, err := h.chat.Begin(ctx, c.Param("id"), userIDFrom(c), req.Content, req.Style)
	if err != nil {
		writeServiceError(c, h.logger, err)
		return
	}

	w := c.Writer
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	w.Flush()

	err = h.chat.Stream(ctx, turn, func(chunk service.Chunk) error {
		return writeEvent(w, chunk)
	})
	if err != nil {
		h.logger.Info("chat stream ended early",
			zap.String("session_id", turn.Session.ID),
			zap.Error(err),
		)
	}
}

// writeEvent escribe un frame "data: <json>\n\n" y lo envia de inmediato.
func writeEvent(w gin.ResponseWriter, chunk service.Chunk) error {
	data, err := json.Marshal(chunk)
	if err != nil {
		return fmt.Errorf("marshal chunk: %w", err)
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		return err
	}
	w.Flush()
	return nil
}
