package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"guru-chat/internal/service"
)

// writeServiceError traduce los errores de servicio a status HTTP con cuerpo {"error": ...}.
func writeServiceError(c *gin.Context, logger *zap.Logger, err error) {
	status, msg := http.StatusInternalServerError, "internal error"
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		status, msg = http.StatusBadRequest, "invalid request"
	case errors.Is(err, service.ErrUnknownCharacters):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrNoCharacters):
		status, msg = http.StatusBadRequest, "No characters in session"
	case errors.Is(err, service.ErrSessionNotFound):
		status, msg = http.StatusNotFound, "Session not found"
	case errors.Is(err, service.ErrSessionForbidden):
		status, msg = http.StatusForbidden, "Not authorized to access this session"
	case errors.Is(err, service.ErrSessionBusy):
		status, msg = http.StatusConflict, "A reply is already streaming for this session"
	case errors.Is(err, service.ErrRateLimited):
		status, msg = http.StatusTooManyRequests, "Too many chat requests"
	}

	if status >= http.StatusInternalServerError {
		logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	} else {
		logger.Warn("request rejected", zap.String("path", c.FullPath()), zap.Int("status", status), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": msg})
}
