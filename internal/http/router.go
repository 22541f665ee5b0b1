package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// NewRouter configura el router de Gin con middlewares y rutas.
func NewRouter(
	logger *zap.Logger,
	corsOrigins []string,
	sessionH *SessionHandler,
	chatH *ChatHandler,
	characterH *CharacterHandler,
) *gin.Engine {
	r := gin.New()

	r.Use(zapLoggerMiddleware(logger), gin.Recovery(), corsMiddleware(corsOrigins), metricsMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.GET("/characters", characterH.ListCharacters)

	sessions := api.Group("/sessions")
	sessions.POST("", sessionH.CreateSession)

	owned := sessions.Group("", requireUserID())
	owned.GET("", sessionH.ListSessions)
	owned.PATCH("/:id/title", sessionH.UpdateTitle)
	owned.DELETE("/:id", sessionH.DeleteSession)
	owned.GET("/chat/:id/messages", sessionH.ListMessages)
	owned.POST("/chat/:id/chat", chatH.Chat)

	return r
}
