package domain

import (
	"errors"
	"fmt"
	"time"
)

// Fatal parse failures. These are the only two conditions that abort an
// entire request; everything else degrades through quality flags.
var (
	// ErrMissingFormatHeader indicates the document lacks the required VCF
	// format marker before the first data row.
	ErrMissingFormatHeader = errors.New("missing required VCF format header")

	// ErrNoVariants indicates the document carried a valid format header but
	// zero parseable variant rows. Deliberately distinct from
	// ErrMissingFormatHeader so callers can report the two conditions apart.
	ErrNoVariants = errors.New("no parseable variant rows in document")
)

// Error codes surfaced on API error payloads.
const (
	ErrCodeInvalidFormat  = "INVALID_FORMAT"
	ErrCodeEmptyDocument  = "EMPTY_DOCUMENT"
	ErrCodeInvalidInput   = "INVALID_INPUT"
	ErrCodeInternalServer = "INTERNAL_SERVER_ERROR"
)

// APIError is the structured error payload returned by the HTTP layer.
type APIError struct {
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewAPIError creates a new APIError with a UTC timestamp.
func NewAPIError(code, message, details, requestID string) *APIError {
	return &APIError{
		Code:      code,
		Message:   message,
		Details:   details,
		Timestamp: time.Now().UTC(),
		RequestID: requestID,
	}
}
