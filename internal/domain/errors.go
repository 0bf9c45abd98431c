package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeValidation          = "VALIDATION_ERROR"
	ErrCodeServiceUnavailable  = "SERVICE_UNAVAILABLE"
	ErrCodeModelError          = "MODEL_ERROR"
	ErrCodePartialIndexFailure = "PARTIAL_INDEX_FAILURE"
	ErrCodeInternalError       = "INTERNAL_ERROR"
)

// Validation errors
var (
	ErrEmptyQuery         = NewDomainError(ErrCodeValidation, "query is empty")
	ErrNonPositiveTopK    = NewDomainError(ErrCodeValidation, "top_k must be positive")
	ErrCorpusNotFound     = NewDomainError(ErrCodeValidation, "corpus directory does not exist")
	ErrCorpusEmpty        = NewDomainError(ErrCodeValidation, "corpus contains no text files")
	ErrInvalidChunkParams = NewDomainError(ErrCodeValidation, "chunk overlap must be smaller than chunk length")
)

// Model errors
var (
	ErrEmptyEmbedding     = NewDomainError(ErrCodeModelError, "embedding service returned an empty vector")
	ErrMalformedEmbedding = NewDomainError(ErrCodeModelError, "embedding service returned a malformed vector")
	ErrDimensionMismatch  = NewDomainError(ErrCodeModelError, "embedding dimension does not match collection schema")
)

// ErrorCode returns the DomainError code of err, or empty when err carries none.
func ErrorCode(err error) string {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return ""
}

// IsValidation reports whether err carries the VALIDATION_ERROR code.
func IsValidation(err error) bool {
	return ErrorCode(err) == ErrCodeValidation
}

// IsServiceUnavailable reports whether err carries the SERVICE_UNAVAILABLE code.
func IsServiceUnavailable(err error) bool {
	return ErrorCode(err) == ErrCodeServiceUnavailable
}

// IsModelError reports whether err carries the MODEL_ERROR code.
func IsModelError(err error) bool {
	return ErrorCode(err) == ErrCodeModelError
}
