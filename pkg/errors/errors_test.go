package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCloneStillMatchesSentinel(t *testing.T) {
	err := Clone(ErrValidation, "marks out of range")
	assert.True(t, errors.Is(err, ErrValidation))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, "marks out of range", err.Message)
}

func TestFromErrorWrapsUnknown(t *testing.T) {
	appErr := FromError(fmt.Errorf("disk full"))
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
	assert.EqualError(t, appErr, "internal server error: disk full")
}

func TestFromErrorKeepsTyped(t *testing.T) {
	wrapped := fmt.Errorf("save: %w", ErrSaveFailed)
	assert.Same(t, ErrSaveFailed, FromError(wrapped))
	assert.Nil(t, FromError(nil))
}
