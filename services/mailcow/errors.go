package mailcow

import (
	"fmt"

	"github.com/pkg/errors"
)

// APIError kinds, mirroring how the control plane fails in practice
const (
	KindConnection = "connection"
	KindAuth       = "auth"
	KindValidation = "validation"
	KindNotFound   = "not_found"
)

// APIError is the distinguished error for mailcow faults. It carries the HTTP
// status and raw body so callers can decide on retry or surfacing; the client
// itself never retries.
type APIError struct {
	Kind       string
	Message    string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("mailcow API error (%s, status %d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("mailcow API error (%s): %s", e.Kind, e.Message)
}

func newAPIError(kind, message string, statusCode int, body string) *APIError {
	return &APIError{Kind: kind, Message: message, StatusCode: statusCode, Body: body}
}

// IsNotFound reports whether err is a mailcow not-found fault
func IsNotFound(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind == KindNotFound
	}
	return false
}

// IsConnectionError reports whether err is a network or timeout fault
func IsConnectionError(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind == KindConnection
	}
	return false
}
