package domain

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrInvalidCredentials    = errors.New("email or password is incorrect")
	ErrUserNotFound          = errors.New("user not found")
	ErrUserExists            = errors.New("email already taken")
	ErrRoleNotFound          = errors.New("role does not exist")
	ErrTokenNotFound         = errors.New("token not found")
	ErrUnprocessableIdentity = errors.New("identity could not be resolved")
	ErrForbidden             = errors.New("access forbidden")
)

// Validation error codes distinguish a malformed request from a well-formed
// request whose values were rejected.
const (
	CodeRequestMalformed = "request_malformed"
	CodeValidationFailed = "validation_failed"
)

// ValidationError collects per-field violations. Field keys use the JSON
// names of the request body.
type ValidationError struct {
	Code   string
	Fields map[string]string
}

// NewValidationError returns an empty ValidationError with the given code.
func NewValidationError(code string) *ValidationError {
	return &ValidationError{Code: code, Fields: make(map[string]string)}
}

// Add records msg for field unless the field already has a message.
func (e *ValidationError) Add(field, msg string) {
	if _, ok := e.Fields[field]; ok {
		return
	}
	e.Fields[field] = msg
}

// HasErrors reports whether any field was rejected.
func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}

// Error lists violations sorted by field name.
func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, e.Fields[k])
	}
	return strings.Join(msgs, "; ")
}
