package errorx

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/cappelaere/wai-bee/internal/common/cnst"
)

func TestAPIError_Error(t *testing.T) {
	assert.Equal(t, "[E2001] authentication: unauthorized", ErrUnauthorized.Error())
}

func TestAPIError_WithDetailDoesNotMutateOriginal(t *testing.T) {
	withDetail := ErrInvalidLimit.WithDetail("limit", 500)
	assert.Nil(t, ErrInvalidLimit.Details)
	assert.Equal(t, 500, withDetail.Details["limit"])
	assert.Equal(t, ErrInvalidLimit.Code, withDetail.Code)
}

func TestAPIError_WithTraceID(t *testing.T) {
	traced := ErrForbidden.WithTraceID("abc")
	assert.Empty(t, ErrForbidden.TraceID)
	assert.Equal(t, "abc", traced.TraceID)
}

func TestConvertToAPIError(t *testing.T) {
	h := NewErrorHandler(zap.NewNop())

	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"api error passthrough", ErrScholarshipForbidden, http.StatusForbidden},
		{"session not found", cnst.ErrSessionNotFound, http.StatusUnauthorized},
		{"user not found", cnst.ErrUserNotFound, http.StatusNotFound},
		{"scholarship not found", cnst.ErrScholarshipNotFound, http.StatusNotFound},
		{"no reviews", cnst.ErrNoReviews, http.StatusNotFound},
		{"unexpected error is generic", errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apiErr := h.ConvertToAPIError(tt.err)
			assert.Equal(t, tt.status, apiErr.HTTPStatus)
		})
	}
}

func TestConvertToAPIError_NeverLeaksInternals(t *testing.T) {
	h := NewErrorHandler(zap.NewNop())
	apiErr := h.ConvertToAPIError(errors.New("open /var/data/bpw/WAI-001: permission denied"))

	assert.NotContains(t, apiErr.Message, "/var/data")
	assert.Equal(t, CategoryInternal, apiErr.Category)
}
