package apierror

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Error is the JSON body returned for HTTP-level failures. Message must be
// safe to show to callers; Detail is for logs only and never serialized.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"error"`
	Detail  string `json:"-"`
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("[%d] %s: %s", e.Code, e.Message, e.Detail)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

func New(code int, message string) *Error {
	return &Error{Code: code, Message: message}
}

func WithDetail(code int, message, detail string) *Error {
	return &Error{Code: code, Message: message, Detail: detail}
}

func BadRequest(message string) *Error {
	return New(http.StatusBadRequest, message)
}

func Unauthorized(message string) *Error {
	return New(http.StatusUnauthorized, message)
}

func MethodNotAllowed() *Error {
	return New(http.StatusMethodNotAllowed, "Method not allowed")
}

func TooManyRequests() *Error {
	return New(http.StatusTooManyRequests, "Too many requests")
}

func Internal(message string) *Error {
	return New(http.StatusInternalServerError, message)
}

// Write renders err as JSON. Errors that are not *Error become a bare 500 so
// their text never reaches the client.
func Write(w http.ResponseWriter, err error) {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		apiErr = Internal("Internal server error")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apiErr.Code)
	_ = json.NewEncoder(w).Encode(apiErr)
}
