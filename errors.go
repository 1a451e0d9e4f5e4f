package bookauth

import (
	"encoding/json"
	"errors"
	"net/http"
)

// Sentinel errors returned by stores and the hasher.
var (
	ErrAccountNotFound = errors.New("account not found")
	ErrDuplicateEmail  = errors.New("email already registered")
	ErrInvalidPassword = errors.New("invalid password")
)

// Error codes used in JSON error responses.
const (
	ErrCodeMissingField    = "missing_field"
	ErrCodeInvalidEmail    = "invalid_email"
	ErrCodeWeakPassword    = "weak_password"
	ErrCodeInvalidPassword = "invalid_password"
	ErrCodeEmailExists     = "email_exists"
	ErrCodeInvalidCreds    = "invalid_credentials"
	ErrCodeRateLimited     = "rate_limited"
	ErrCodeServerError     = "server_error"
)

// AuthError is a client-facing authentication error. Field names the input
// field the error relates to, when there is one.
type AuthError struct {
	Code    string `json:"code"`
	Message string `json:"error"`
	Field   string `json:"field,omitempty"`
}

func NewAuthError(code, message, field string) *AuthError {
	return &AuthError{Code: code, Message: message, Field: field}
}

func (e *AuthError) Error() string {
	return e.Message
}

// StatusCode maps the error code to an HTTP status. Unknown codes map to 500
// so nothing unexpected leaks with a 2xx/4xx.
func (e *AuthError) StatusCode() int {
	switch e.Code {
	case ErrCodeMissingField, ErrCodeInvalidEmail, ErrCodeWeakPassword, ErrCodeInvalidPassword:
		return http.StatusBadRequest
	case ErrCodeEmailExists:
		return http.StatusConflict
	case ErrCodeInvalidCreds:
		return http.StatusUnauthorized
	case ErrCodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// WriteAuthError writes the error as a JSON response with its mapped status.
func WriteAuthError(w http.ResponseWriter, e *AuthError) {
	writeJSON(w, e.StatusCode(), e)
}

// writeServerError returns an opaque 500. Callers log the underlying cause
// before calling this; internals never reach the response body.
func writeServerError(w http.ResponseWriter) {
	writeJSON(w, http.StatusInternalServerError, &AuthError{
		Code:    ErrCodeServerError,
		Message: "Something went wrong",
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
