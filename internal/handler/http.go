package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storyboard-server/internal/model"
	"storyboard-server/internal/service"
	"storyboard-server/internal/session"
)

// APIError is the uniform error body. Messages are user-facing and kept
// in the application's original German where one exists.
type APIError struct {
	Error string `json:"error"`
}

const (
	msgEmptyIdea    = "Bitte gib eine Idee ein!"
	msgIdeaTooLong  = "Deine Idee ist zu lang!"
	msgEmptyPrompt  = "Prompt fehlt!"
	msgNoImage      = "Bild konnte nicht generiert werden"
	msgStoryFailed  = "Story-Generierung fehlgeschlagen"
	msgErrorPrefix  = "Fehler: "
	msgNotFound     = "Storyboard nicht gefunden"
	msgSceneMissing = "Szene nicht gefunden"
)

// StoryboardHandler wires all HTTP endpoints.
type StoryboardHandler struct {
	stories  service.StoryService
	images   service.ImageService
	regen    service.RegenerationService
	sessions *session.Manager
	hub      *Hub
	logger   *zap.Logger
}

func NewStoryboardHandler(
	stories service.StoryService,
	images service.ImageService,
	regen service.RegenerationService,
	sessions *session.Manager,
	hub *Hub,
	logger *zap.Logger,
) *StoryboardHandler {
	return &StoryboardHandler{
		stories:  stories,
		images:   images,
		regen:    regen,
		sessions: sessions,
		hub:      hub,
		logger:   logger.Named("StoryboardHandler"),
	}
}

// RegisterRoutes attaches every route to the router.
func (h *StoryboardHandler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api")
	{
		api.POST("/generate-story", h.generateStory)
		api.POST("/generate-image", h.generateImage)
		api.POST("/regenerate-scene", h.regenerateScene)

		boards := api.Group("/storyboards")
		{
			boards.POST("", h.createStoryboard)
			boards.GET("/:id", h.getStoryboard)
			boards.DELETE("/:id", h.deleteStoryboard)
			boards.PATCH("/:id/scenes/:sceneID", h.updateScene)
			boards.DELETE("/:id/scenes/:sceneID", h.deleteScene)
			boards.POST("/:id/scenes/:sceneID/regenerate", h.regenerateStoryboardScene)
			boards.POST("/:id/scenes/move", h.moveScene)
			boards.POST("/:id/playback", h.playback)
			boards.GET("/:id/preview", h.preview)
			boards.POST("/:id/export", h.exportVideo)
		}
	}

	router.GET("/ws/storyboards/:id", h.serveWS)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

// handleServiceError maps service errors onto status codes and bodies.
func (h *StoryboardHandler) handleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, model.ErrEmptyIdea):
		c.AbortWithStatusJSON(http.StatusBadRequest, APIError{Error: msgEmptyIdea})
	case errors.Is(err, model.ErrIdeaTooLong):
		c.AbortWithStatusJSON(http.StatusBadRequest, APIError{Error: msgIdeaTooLong})
	case errors.Is(err, model.ErrEmptyPrompt):
		c.AbortWithStatusJSON(http.StatusBadRequest, APIError{Error: msgEmptyPrompt})
	case errors.Is(err, model.ErrInvalidIndex):
		c.AbortWithStatusJSON(http.StatusBadRequest, APIError{Error: msgErrorPrefix + err.Error()})
	case errors.Is(err, model.ErrSessionNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, APIError{Error: msgNotFound})
	case errors.Is(err, model.ErrSceneNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, APIError{Error: msgSceneMissing})
	case errors.Is(err, model.ErrWrongPhase), errors.Is(err, model.ErrLastScene):
		c.AbortWithStatusJSON(http.StatusConflict, APIError{Error: msgErrorPrefix + err.Error()})
	case errors.Is(err, model.ErrStorySchema):
		c.AbortWithStatusJSON(http.StatusInternalServerError, APIError{Error: msgStoryFailed})
	case errors.Is(err, model.ErrNoImage):
		c.AbortWithStatusJSON(http.StatusInternalServerError, APIError{Error: msgNoImage})
	default:
		h.logger.Error("Unhandled service error", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusInternalServerError, APIError{Error: msgErrorPrefix + err.Error()})
	}
}
