// Package apperr holds the error kinds every service reports and the
// transport layer maps to responses.
package apperr

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrValidation    = errors.New("validation failed")
	ErrPermission    = errors.New("permission denied")
	ErrNotFound      = errors.New("not found")
	ErrStateConflict = errors.New("state conflict")
)

// ValidationError carries per-field messages for bad input.
type ValidationError struct {
	Message string
	Fields  map[string][]string
}

func NewValidation(message string) *ValidationError {
	return &ValidationError{Message: message, Fields: make(map[string][]string)}
}

// FieldError is a shortcut for a single-field validation failure.
func FieldError(field, message string) *ValidationError {
	v := NewValidation("invalid input")
	v.Add(field, message)
	return v
}

func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], message)
}

func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}

// OrNil returns e when it has field errors and nil otherwise.
func (e *ValidationError) OrNil() error {
	if e == nil || !e.HasErrors() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+strings.Join(e.Fields[name], "; "))
	}
	return e.Message + " (" + strings.Join(parts, ", ") + ")"
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

type PermissionError struct {
	Operation string
	Reason    string
}

func (e *PermissionError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("permission denied for %s", e.Operation)
	}
	return fmt.Sprintf("permission denied for %s: %s", e.Operation, e.Reason)
}

func (e *PermissionError) Is(target error) bool {
	return target == ErrPermission
}

type NotFoundError struct {
	Resource string
	ID       uint
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Resource, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// StateConflictError reports an operation that is a no-op for the current
// record state, e.g. validating an already validated request.
type StateConflictError struct {
	Message string
	Current string
}

func (e *StateConflictError) Error() string {
	return e.Message
}

func (e *StateConflictError) Is(target error) bool {
	return target == ErrStateConflict
}

func NotFound(resource string, id uint) error {
	return &NotFoundError{Resource: resource, ID: id}
}

func StateConflict(message, current string) error {
	return &StateConflictError{Message: message, Current: current}
}
