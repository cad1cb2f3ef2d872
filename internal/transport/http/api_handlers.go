package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/priyankbansal/ollamachat/internal/ai"
	"github.com/priyankbansal/ollamachat/internal/core"
)

// APIHandlers provides HTTP handlers for the status REST endpoints.
type APIHandlers struct {
	hub          *core.Hub
	ai           *ai.Client
	defaultRooms []string
	log          *zerolog.Logger
}

// NewAPIHandlers creates a new API handlers instance.
func NewAPIHandlers(hub *core.Hub, aiClient *ai.Client, defaultRooms []string, logger *zerolog.Logger) *APIHandlers {
	return &APIHandlers{
		hub:          hub,
		ai:           aiClient,
		defaultRooms: defaultRooms,
		log:          logger,
	}
}

// HealthResponse is the liveness check body.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// OllamaStatusResponse reports reachability of the inference backend.
type OllamaStatusResponse struct {
	Status string          `json:"status"`
	Models json.RawMessage `json:"models,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Health handles the relay liveness check.
// GET /health
func (h *APIHandlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// OllamaStatus probes the inference backend.
// GET /ollama-status
func (h *APIHandlers) OllamaStatus(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	models, err := h.ai.Status(ctx)
	if err != nil {
		h.log.Debug().Err(err).Msg("inference backend status probe failed")
		c.JSON(http.StatusOK, OllamaStatusResponse{Status: "disconnected", Error: "backend unreachable"})
		return
	}
	c.JSON(http.StatusOK, OllamaStatusResponse{Status: "connected", Models: models})
}

// Rooms returns a snapshot of rooms and their members. Configured default
// rooms are always listed, even before anyone has joined them.
// GET /rooms
func (h *APIHandlers) Rooms(c *gin.Context) {
	snap := h.hub.Rooms(c.Request.Context())
	for _, name := range h.defaultRooms {
		if _, ok := snap[name]; !ok {
			snap[name] = core.RoomInfo{UserCount: 0, Users: []string{}}
		}
	}
	c.JSON(http.StatusOK, snap)
}
