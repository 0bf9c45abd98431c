package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_Error(t *testing.T) {
	err := NewDomainError(ErrCodeValidation, "query is empty")
	assert.Equal(t, "[VALIDATION_ERROR] query is empty", err.Error())

	wrapped := NewDomainErrorWithCause(ErrCodeServiceUnavailable, "embedding service unreachable", errors.New("connection refused"))
	assert.Contains(t, wrapped.Error(), "SERVICE_UNAVAILABLE")
	assert.Contains(t, wrapped.Error(), "connection refused")
}

func TestErrorCode_UnwrapsWrappedErrors(t *testing.T) {
	base := NewDomainError(ErrCodeModelError, "malformed vector")
	wrapped := fmt.Errorf("embedding chunk 3: %w", base)

	assert.Equal(t, ErrCodeModelError, ErrorCode(wrapped))
	assert.True(t, IsModelError(wrapped))
	assert.False(t, IsValidation(wrapped))
}

func TestErrorCode_PlainError(t *testing.T) {
	assert.Equal(t, "", ErrorCode(errors.New("boom")))
	assert.False(t, IsServiceUnavailable(errors.New("boom")))
}
