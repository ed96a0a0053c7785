package handler

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rtg123uk/storyai/internal/domain"
	"github.com/rtg123uk/storyai/internal/session"
)

const (
	requestIDHeader = "X-Request-ID"
	redacted        = "REDACTED"
	sessionKey      = "session"
)

// RequestLogger logs every request except health checks and metrics
// scrapes, and makes sure each response carries a request id.
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if path == "/health" || path == "/metrics" {
			c.Next()
			return
		}

		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(requestIDHeader, requestID)

		c.Next()

		if query := redactedQuery(c.Request.URL.Query()); query != "" {
			path = path + "?" + query
		}
		fields := []zap.Field{
			zap.Int("status", c.Writer.Status()),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("ip", c.ClientIP()),
			zap.Duration("latency", time.Since(start)),
			zap.String("user_agent", c.Request.UserAgent()),
			zap.String("request_id", requestID),
		}

		if len(c.Errors) > 0 {
			for _, ginErr := range c.Errors.ByType(gin.ErrorTypeAny) {
				log.Error("Request error", append(fields, zap.Error(ginErr.Err))...)
			}
			return
		}
		status := c.Writer.Status()
		switch {
		case status >= http.StatusInternalServerError:
			log.Error("Server error", fields...)
		case status >= http.StatusBadRequest:
			log.Warn("Client error", fields...)
		default:
			log.Info("Request completed", fields...)
		}
	}
}

// AuthMiddleware verifies the bearer token and attaches a signed-in
// session to the request context.
func (h *StoryHandler) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			h.logger.Warn("Missing or malformed Authorization header")
			authAttempts.WithLabelValues("http", "failure").Inc()
			handleServiceError(c, domain.ErrUnauthorized)
			return
		}

		sess, err := h.authenticate(c, parts[1])
		if err != nil {
			authAttempts.WithLabelValues("http", "failure").Inc()
			handleServiceError(c, err)
			return
		}
		authAttempts.WithLabelValues("http", "success").Inc()
		c.Set(sessionKey, sess)
		c.Request = c.Request.WithContext(session.NewContext(c.Request.Context(), sess))
		c.Next()
	}
}

func (h *StoryHandler) authenticate(c *gin.Context, token string) (*session.Session, error) {
	user, err := h.verifier.Verify(c.Request.Context(), token)
	if err != nil {
		h.logger.Warn("Token verification failed", zap.Error(err))
		return nil, err
	}
	sess := session.New()
	sess.SignIn(user)
	return sess, nil
}

// sessionFrom returns the request's session. Without AuthMiddleware it is
// an anonymous session and the service rejects the call.
func sessionFrom(c *gin.Context) *session.Session {
	if v, ok := c.Get(sessionKey); ok {
		if sess, ok := v.(*session.Session); ok {
			return sess
		}
	}
	return session.FromContext(c.Request.Context())
}

// redactedQuery encodes q with credential parameters masked.
func redactedQuery(q url.Values) string {
	for _, key := range []string{"token", "access_token"} {
		if _, ok := q[key]; ok {
			q.Set(key, redacted)
		}
	}
	return q.Encode()
}
