package shared

import (
	"fmt"
	"sort"
	"strings"

	"github.com/meridian-bms/meridian/internal/platform/httpx"
)

// ErrNotFound indicates resource not found.
var ErrNotFound = httpx.ErrNotFound

// ValidationError reports local pre-flight validation failures. It is
// returned before any network call is made; no partial mutation occurs.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError builds a ValidationError with a single field message.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return strings.Join(parts, "; ")
}

// Unwrap classifies the error for httpx.RespondError.
func (e *ValidationError) Unwrap() error {
	return httpx.ErrValidation
}

// Add records an additional field message and returns the error for chaining.
func (e *ValidationError) Add(field, message string) *ValidationError {
	if e.Fields == nil {
		e.Fields = map[string]string{}
	}
	e.Fields[field] = message
	return e
}
