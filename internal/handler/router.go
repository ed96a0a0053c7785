package handler

import (
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewRouter builds the gin engine with logging, recovery, CORS, the health
// check and the story routes.
func NewRouter(h *StoryHandler, allowedOrigins []string, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.RedirectTrailingSlash = true
	router.Use(RequestLogger(logger.Named("HTTP")))
	router.Use(gin.Recovery())
	router.Use(cors.New(corsConfig(allowedOrigins)))

	health := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
	router.GET("/health", health)
	router.HEAD("/health", health)

	h.RegisterRoutes(router)
	return router
}

func corsConfig(allowedOrigins []string) cors.Config {
	cfg := cors.DefaultConfig()
	if len(allowedOrigins) == 0 || slices.Contains(allowedOrigins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = allowedOrigins
		cfg.AllowCredentials = true
	}
	cfg.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	cfg.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", requestIDHeader}
	cfg.ExposeHeaders = []string{requestIDHeader, "X-Total-Count"}
	cfg.MaxAge = 12 * time.Hour
	return cfg
}
