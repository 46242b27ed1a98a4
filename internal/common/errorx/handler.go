package errorx

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cappelaere/wai-bee/internal/common/cnst"
)

// ErrorHandler provides unified error handling for the HTTP surface
type ErrorHandler struct {
	logger *zap.Logger
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *zap.Logger) *ErrorHandler {
	return &ErrorHandler{
		logger: logger,
	}
}

// HandleError converts any error to an APIError and writes the HTTP response.
// Unexpected errors are logged with full context but surfaced as a generic
// internal error carrying only an opaque trace id.
func (h *ErrorHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	traceID := uuid.New().String()

	apiErr := h.ConvertToAPIError(err).WithTraceID(traceID)
	apiErr.Timestamp = time.Now().UTC().Format(time.RFC3339)

	h.logError(c, apiErr, err)

	c.JSON(apiErr.HTTPStatus, gin.H{
		"error": apiErr,
	})
}

// ConvertToAPIError converts any error to an APIError
func (h *ErrorHandler) ConvertToAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	switch {
	case errors.Is(err, cnst.ErrSessionNotFound):
		return ErrUnauthorized
	case errors.Is(err, cnst.ErrUserNotFound),
		errors.Is(err, cnst.ErrScholarshipNotFound),
		errors.Is(err, cnst.ErrApplicationNotFound),
		errors.Is(err, cnst.ErrNoReviews):
		return ErrResourceNotFound
	}

	return ErrInternalServer
}

func (h *ErrorHandler) logError(c *gin.Context, apiErr *APIError, original error) {
	fields := []zap.Field{
		zap.String("trace_id", apiErr.TraceID),
		zap.String("code", apiErr.Code),
		zap.String("category", string(apiErr.Category)),
		zap.Error(original),
	}
	if c != nil {
		fields = append(fields,
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("client_ip", c.ClientIP()),
		)
	}

	switch apiErr.Severity {
	case SeverityCritical:
		h.logger.Error("request failed", fields...)
	case SeverityWarning:
		h.logger.Warn("request failed", fields...)
	default:
		h.logger.Info("request failed", fields...)
	}
}
