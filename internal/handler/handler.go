// Package handler exposes the story service over HTTP and websocket.
package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/rtg123uk/storyai/internal/domain"
	"github.com/rtg123uk/storyai/internal/image"
	"github.com/rtg123uk/storyai/internal/session"
	"github.com/rtg123uk/storyai/internal/speech"
	"github.com/rtg123uk/storyai/internal/story"
)

// StoryService is what the handlers need from service.StoryService.
type StoryService interface {
	Generate(ctx context.Context, sess *session.Session, params domain.StoryParameters, progress story.ProgressFunc) (*domain.Story, error)
	Initialize(ctx context.Context, sess *session.Session, params domain.StoryParameters) (*domain.Story, error)
	Continue(ctx context.Context, sess *session.Session, storyID string, choiceIndex int) (*domain.Story, error)
	List(ctx context.Context, sess *session.Session) ([]domain.StorySummary, error)
	Get(ctx context.Context, sess *session.Session, storyID string) (*domain.Story, error)
	Portrait(ctx context.Context, sess *session.Session, c image.Character) (string, error)
	Voices(ctx context.Context) []speech.Voice
}

// TokenVerifier turns a bearer token into a user.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (session.User, error)
}

type StoryHandler struct {
	service  StoryService
	verifier TokenVerifier
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewStoryHandler creates the handler. allowedOrigins limits websocket
// upgrades; "*" or an empty list accepts any origin.
func NewStoryHandler(svc StoryService, verifier TokenVerifier, allowedOrigins []string, logger *zap.Logger) *StoryHandler {
	return &StoryHandler{
		service:  svc,
		verifier: verifier,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		logger: logger.Named("StoryHandler"),
	}
}

func (h *StoryHandler) RegisterRoutes(router gin.IRouter) {
	api := router.Group("/api/v1")

	// the websocket endpoint authenticates from the query string
	api.GET("/ws/generate", h.generateWS)

	protected := api.Group("")
	protected.Use(h.AuthMiddleware())
	{
		protected.POST("/stories", h.generateStory)
		protected.POST("/stories/init", h.initializeStory)
		protected.POST("/stories/:id/choices", h.continueStory)
		protected.GET("/stories", h.listStories)
		protected.GET("/stories/:id", h.getStory)
		protected.GET("/voices", h.listVoices)
		protected.POST("/characters/portrait", h.createPortrait)
	}
}

type choiceRequest struct {
	ChoiceIndex *int `json:"choiceIndex" binding:"required"`
}

type portraitResponse struct {
	ImageURL string `json:"imageUrl"`
}

func (h *StoryHandler) generateStory(c *gin.Context) {
	var params domain.StoryParameters
	if err := c.ShouldBindJSON(&params); err != nil {
		handleServiceError(c, badRequest(err))
		return
	}
	st, err := h.service.Generate(c.Request.Context(), sessionFrom(c), params, nil)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, st)
}

func (h *StoryHandler) initializeStory(c *gin.Context) {
	var params domain.StoryParameters
	if err := c.ShouldBindJSON(&params); err != nil {
		handleServiceError(c, badRequest(err))
		return
	}
	st, err := h.service.Initialize(c.Request.Context(), sessionFrom(c), params)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, st)
}

func (h *StoryHandler) continueStory(c *gin.Context) {
	var req choiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleServiceError(c, badRequest(err))
		return
	}
	st, err := h.service.Continue(c.Request.Context(), sessionFrom(c), c.Param("id"), *req.ChoiceIndex)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *StoryHandler) listStories(c *gin.Context) {
	list, err := h.service.List(c.Request.Context(), sessionFrom(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.Header("X-Total-Count", strconv.Itoa(len(list)))
	c.JSON(http.StatusOK, list)
}

func (h *StoryHandler) getStory(c *gin.Context) {
	st, err := h.service.Get(c.Request.Context(), sessionFrom(c), c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *StoryHandler) listVoices(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.Voices(c.Request.Context()))
}

func (h *StoryHandler) createPortrait(c *gin.Context) {
	var character image.Character
	if err := c.ShouldBindJSON(&character); err != nil {
		handleServiceError(c, badRequest(err))
		return
	}
	url, err := h.service.Portrait(c.Request.Context(), sessionFrom(c), character)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, portraitResponse{ImageURL: url})
}
