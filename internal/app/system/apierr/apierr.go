// Package apierr writes JSON responses and errors in one shape:
//
//	{"error": {"code": "...", "message": "..."}}
//
// Every handler error goes through WriteError or one of its helpers.
package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dalemusser/workhub/internal/app/system/inputval"
	"go.uber.org/zap"
)

// Error codes.
const (
	CodeValidationError = "VALIDATION_ERROR"
	CodeNotFound        = "NOT_FOUND"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeForbidden       = "FORBIDDEN"
	CodeConflict        = "CONFLICT"
	CodeTooManyRequests = "TOO_MANY_REQUESTS"
	CodeTooLarge        = "PAYLOAD_TOO_LARGE"
	CodeInternalError   = "INTERNAL_ERROR"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes an error body.
func WriteError(w http.ResponseWriter, status int, code, message string) {
	WriteJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: message}})
}

// Validation writes 400 for a rejected field.
func Validation(w http.ResponseWriter, err error) {
	var ve *inputval.ValidationError
	if errors.As(err, &ve) {
		WriteJSON(w, http.StatusBadRequest, errorBody{Error: errorDetail{
			Code:    CodeValidationError,
			Message: ve.Message,
			Field:   ve.Field,
		}})
		return
	}
	WriteError(w, http.StatusBadRequest, CodeValidationError, err.Error())
}

// TooLarge writes 413.
func TooLarge(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusRequestEntityTooLarge, CodeTooLarge, message)
}

// NotFound writes 404.
func NotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, CodeNotFound, message)
}

// Unauthorized writes 401.
func Unauthorized(w http.ResponseWriter) {
	WriteError(w, http.StatusUnauthorized, CodeUnauthorized, "sign in required")
}

// Forbidden writes 403.
func Forbidden(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, CodeForbidden, message)
}

// Conflict writes 409.
func Conflict(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusConflict, CodeConflict, message)
}

// TooManyRequests writes 429.
func TooManyRequests(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusTooManyRequests, CodeTooManyRequests, message)
}

// Internal logs err and writes a generic 500.
func Internal(w http.ResponseWriter, log *zap.Logger, msg string, err error, fields ...zap.Field) {
	log.Error(msg, append(fields, zap.Error(err))...)
	WriteError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
