package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"expenses/internal/core"
	"expenses/internal/log"
	"expenses/internal/store"
)

// statusFor maps domain and store errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrNegativeAmount),
		errors.Is(err, core.ErrInvalidDate),
		errors.Is(err, core.ErrEmptyCategoryName):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, store.ErrTransport):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func errorType(status int) string {
	switch {
	case status == http.StatusNotFound:
		return log.ErrorTypeNotFound
	case status < 500:
		return log.ErrorTypeValidation
	case status == http.StatusServiceUnavailable:
		return log.ErrorTypeDatabase
	default:
		return log.ErrorTypeInternal
	}
}

// fail writes a JSON error. Server-side failures are logged; client errors
// only surface in the request log line.
func (s *Server) fail(c *gin.Context, err error, op string) {
	status := statusFor(err)
	_ = c.Error(err)
	if status >= 500 {
		ctx := c.Request.Context()
		s.events.LogError(ctx, "Request failed", err, op,
			log.NewFields().WithErrorType(errorType(status)))
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}
