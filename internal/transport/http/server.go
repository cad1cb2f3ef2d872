package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/priyankbansal/ollamachat/internal/ai"
	"github.com/priyankbansal/ollamachat/internal/config"
	"github.com/priyankbansal/ollamachat/internal/core"
)

// NewServer builds the HTTP server: REST status endpoints plus the
// websocket relay endpoint.
func NewServer(hub *core.Hub, aiClient *ai.Client, cfg config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(logger))

	api := NewAPIHandlers(hub, aiClient, cfg.DefaultRooms, logger)
	router.GET("/health", api.Health)
	router.GET("/ollama-status", api.OllamaStatus)
	router.GET("/rooms", api.Rooms)
	router.GET("/ws", gin.WrapH(NewWSHandler(hub, logger)))

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}
