package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_WrappedChain(t *testing.T) {
	base := NewInsufficientAvailable("m1", 50, 0, 30, 0)
	wrapped := fmt.Errorf("block line 1: %w", base)

	appErr, ok := AsAppError(wrapped)
	require.True(t, ok)
	assert.Equal(t, CodeInsufficientAvailable, appErr.Code)
	assert.Equal(t, int64(30), appErr.Details["available_packets"])
	assert.Equal(t, http.StatusUnprocessableEntity, GetHTTPStatus(wrapped))
	assert.True(t, Is(wrapped, CodeInsufficientAvailable))
	assert.False(t, Is(wrapped, CodeInsufficientBlocked))
}

func TestAppError_CauseIsHiddenFromMessage(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewInternal(cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "Internal server error", err.Message)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestGetHTTPStatus_PlainError(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, GetHTTPStatus(errors.New("boom")))
	assert.False(t, IsNotFound(errors.New("boom")))
	assert.True(t, IsNotFound(NewNotFound("srn", "x")))
}

func TestWithDetail_InitialisesMap(t *testing.T) {
	err := NewValidation("note is required").WithDetail("field", "note")
	assert.Equal(t, "note", err.Details["field"])
}
