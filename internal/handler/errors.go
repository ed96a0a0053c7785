package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rtg123uk/storyai/internal/domain"
	"github.com/rtg123uk/storyai/internal/image"
)

// Error codes returned in ErrorResponse.Code.
const (
	ErrCodeBadRequest    = "bad_request"
	ErrCodeUnauthorized  = "unauthorized"
	ErrCodeNotFound      = "not_found"
	ErrCodeStoryComplete = "story_complete"
	ErrCodeRateLimited   = "rate_limited"
	ErrCodeUpstream      = "upstream_error"
	ErrCodeInternal      = "internal_error"
)

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func badRequest(err error) error {
	return fmt.Errorf("%w: %v", domain.ErrInvalidParameters, err)
}

// statusFor maps domain errors to an HTTP status and error code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests, ErrCodeRateLimited
	case errors.Is(err, domain.ErrUpstream), errors.Is(err, domain.ErrMalformedResponse):
		return http.StatusBadGateway, ErrCodeUpstream
	case errors.Is(err, domain.ErrInvalidParameters), errors.Is(err, domain.ErrInvalidChoice), errors.Is(err, image.ErrEmptyDescription):
		return http.StatusBadRequest, ErrCodeBadRequest
	case errors.Is(err, domain.ErrStoryComplete):
		return http.StatusConflict, ErrCodeStoryComplete
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, ErrCodeUnauthorized
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, ErrCodeNotFound
	default:
		return http.StatusInternalServerError, ErrCodeInternal
	}
}

func handleServiceError(c *gin.Context, err error) {
	status, code := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		zap.L().Error("Unhandled internal error", zap.String("path", c.FullPath()), zap.Error(err))
		msg = "An unexpected internal error occurred"
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, ErrorResponse{Code: code, Message: msg})
}
