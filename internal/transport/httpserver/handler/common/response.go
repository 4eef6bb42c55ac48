package common

import (
	"encoding/json"
	"errors"
	"net/http"

	"victim-aid-go/internal/domain/apperr"
	"victim-aid-go/internal/transport/httpserver/middleware"
	"victim-aid-go/pkg/logger"
)

// envelope is the body of every error, no-op and action response.
type envelope struct {
	Success bool                `json:"success"`
	Code    string              `json:"code,omitempty"`
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors,omitempty"`
	Status  string              `json:"status,omitempty"`
}

type Page[T any] struct {
	Items  []T   `json:"items"`
	Total  int64 `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}

func NewPage[T any](items []T, total int64, limit, offset int) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{Items: items, Total: total, Limit: limit, Offset: offset}
}

// DenialCounter is told about every request the access policy refused.
type DenialCounter interface {
	AccessDenied(operation, role string)
}

func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func WriteError(w http.ResponseWriter, status int, code, message string) {
	WriteJSON(w, status, envelope{Code: code, Message: message})
}

// WriteAction answers a state-changing action such as submit or toggle.
func WriteAction(w http.ResponseWriter, message, status string) {
	WriteJSON(w, http.StatusOK, envelope{Success: true, Message: message, Status: status})
}

func WriteInvalidJSON(w http.ResponseWriter) {
	WriteError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
}

// WriteBadParam reports a malformed path or query parameter as a field error.
func WriteBadParam(w http.ResponseWriter, field, message string) {
	WriteJSON(w, http.StatusBadRequest, envelope{
		Code:    "validation_error",
		Message: "invalid request",
		Errors:  map[string][]string{field: {message}},
	})
}

func Unauthorized(w http.ResponseWriter) {
	WriteError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
}

// WriteDomainError maps a service error onto the response. Expected failures
// are logged as business errors, everything else as internal errors.
func WriteDomainError(w http.ResponseWriter, r *http.Request, log logger.Logger, denials DenialCounter, scope string, err error, args ...any) {
	log = logger.FromContext(r.Context(), log)

	var (
		validation *apperr.ValidationError
		permission *apperr.PermissionError
		notFound   *apperr.NotFoundError
		conflict   *apperr.StateConflictError
	)
	switch {
	case errors.As(err, &validation):
		log.BusinessError(scope+": invalid input", err, args...)
		WriteJSON(w, http.StatusBadRequest, envelope{
			Code:    "validation_error",
			Message: validation.Message,
			Errors:  validation.Fields,
		})
	case errors.As(err, &permission):
		log.BusinessError(scope+": access denied", err, args...)
		if denials != nil {
			role := "anonymous"
			if actor, ok := middleware.ActorFromContext(r.Context()); ok {
				role = actor.Role.String()
			}
			denials.AccessDenied(permission.Operation, role)
		}
		WriteError(w, http.StatusForbidden, "access_denied", "you do not have permission to perform this action")
	case errors.As(err, &notFound):
		log.BusinessError(scope+": not found", err, args...)
		WriteError(w, http.StatusNotFound, "not_found", notFound.Error())
	case errors.As(err, &conflict):
		log.BusinessError(scope+": state conflict", err, args...)
		WriteJSON(w, http.StatusOK, envelope{Code: "state_conflict", Message: conflict.Message, Status: conflict.Current})
	default:
		log.InternalError(scope+": failed", err, args...)
		WriteError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}

func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
