package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIError_Error(t *testing.T) {
	tests := []struct {
		name     string
		apiError *APIError
		want     string
	}{
		{
			name:     "simple message",
			apiError: New(http.StatusBadRequest, "INVALID_REQUEST", "Invalid request format"),
			want:     "Invalid request format",
		},
		{
			name:     "not found helper",
			apiError: NotFoundError("symbol ABC"),
			want:     "symbol ABC not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.apiError.Error())
		})
	}
}

func TestErrValidation(t *testing.T) {
	err := ErrValidation("view_type", "must be one of specific_date date_range month search_symbol")

	assert.Equal(t, http.StatusBadRequest, err.StatusCode)
	details, ok := err.Details.([]ValidationError)
	require.True(t, ok)
	require.Len(t, details, 1)
	assert.Equal(t, "view_type", details[0].Field)
}

func TestAppError(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := NewNetworkError("fetch snapshot feed", cause).WithContext("url", "http://example.invalid/data.csv")

	assert.Equal(t, "[NETWORK] fetch snapshot feed: connection refused", err.Error())
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "http://example.invalid/data.csv", err.Context["url"])

	wrapped := fmt.Errorf("reload: %w", err)
	assert.True(t, IsType(wrapped, ErrTypeNetwork))
	assert.False(t, IsType(wrapped, ErrTypeParsing))
	assert.False(t, IsType(cause, ErrTypeNetwork))
}

func TestAppError_NoCause(t *testing.T) {
	assert.Equal(t, "[NOT_FOUND] symbol XYZ not found", NewNotFoundError("symbol XYZ").Error())
	assert.Equal(t, "[VALIDATION] bad input", NewAppValidationError("bad input").Error())
	assert.Equal(t, ErrTypeUnavailable, NewUnavailableError("no snapshot", nil).Type)
	assert.Equal(t, ErrTypeConfig, NewConfigError("bad", nil).Type)
	assert.Equal(t, ErrTypeStorage, NewStorageError("bad", nil).Type)
}
