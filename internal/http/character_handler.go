package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"guru-chat/internal/service"
)

// CharacterHandler lista los personajes disponibles.
type CharacterHandler struct {
	logger   *zap.Logger
	sessions *service.SessionService
}

func NewCharacterHandler(logger *zap.Logger, sessions *service.SessionService) *CharacterHandler {
	return &CharacterHandler{logger: logger, sessions: sessions}
}

// ListCharacters maneja GET /api/characters.
func (h *CharacterHandler) ListCharacters(c *gin.Context) {
	chars, err := h.sessions.Characters(c.Request.Context())
	if err != nil {
		writeServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, CharactersResponse{Characters: toCharacterSummaries(chars)})
}
