// Package response provides shared JSON response helpers for HTTP handlers.
package response

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// ErrorBody is the body of every non-2xx response.
type ErrorBody struct {
	Detail string `json:"detail"         example:"Only .jpg, .jpeg, .png files allowed"`
	Kind   string `json:"kind,omitempty" example:"decode"`
}

// JSON writes a JSON-encoded payload with the given HTTP status code.
func JSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Warn("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

// OK writes a 200 response with data as the whole body.
func OK(w http.ResponseWriter, data interface{}) {
	JSON(w, http.StatusOK, data)
}

// Error writes an error response with the given status and message.
func Error(w http.ResponseWriter, status int, detail string) {
	JSON(w, status, ErrorBody{Detail: detail})
}

// ErrorKind writes an error response that names the failure class.
func ErrorKind(w http.ResponseWriter, status int, detail, kind string) {
	JSON(w, status, ErrorBody{Detail: detail, Kind: kind})
}

// BadRequest writes a 400 response.
func BadRequest(w http.ResponseWriter, detail string) {
	Error(w, http.StatusBadRequest, detail)
}

// TooLarge writes a 413 response.
func TooLarge(w http.ResponseWriter, detail string) {
	Error(w, http.StatusRequestEntityTooLarge, detail)
}

// InternalError writes a 500 response.
func InternalError(w http.ResponseWriter, detail string) {
	if detail == "" {
		detail = "internal server error"
	}
	Error(w, http.StatusInternalServerError, detail)
}
