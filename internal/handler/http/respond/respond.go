// Package respond provides utilities for sending HTTP responses in JSON format.
// It includes error handling with sanitization to prevent leaking sensitive information.
package respond

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"market-glance/internal/domain/entity"
)

// JSON writes a JSON response with the given status code and data.
func JSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if v != nil {
		if err := json.NewEncoder(w).Encode(v); err != nil {
			// headers are already sent
			slog.Default().Error("failed to encode JSON response",
				slog.Int("status_code", code),
				slog.Any("error", err))
		}
	}
}

// Error writes a JSON error response with the given status code and error message.
func Error(w http.ResponseWriter, code int, err error) {
	JSON(w, code, map[string]string{"error": err.Error()})
}

// SafeError writes err to the client only when it is a *entity.Failure, whose
// message is user-facing by construction. Anything else is logged in
// sanitized form and answered with a generic message.
func SafeError(w http.ResponseWriter, code int, err error) {
	if err == nil {
		return
	}
	if f, ok := entity.AsFailure(err); ok && code < http.StatusInternalServerError {
		JSON(w, code, ErrorBody{Error: f.Message, Kind: f.Kind})
		return
	}

	// 内部エラーはログに出力し、汎用メッセージを返す
	slog.Default().Error("internal server error",
		slog.String("status", http.StatusText(code)),
		slog.Int("code", code),
		slog.String("error", SanitizeError(err)))
	JSON(w, code, ErrorBody{Error: "internal server error"})
}

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	State string           `json:"state,omitempty"`
	Error string           `json:"error"`
	Kind  entity.ErrorKind `json:"kind,omitempty"`
}

// StatusFor maps an error kind to the HTTP status used by the JSON API.
func StatusFor(kind entity.ErrorKind) int {
	switch kind {
	case entity.KindInvalidSymbol, entity.KindInvalidRequest:
		return http.StatusBadRequest
	case entity.KindNotFound, entity.KindNoResults:
		return http.StatusNotFound
	case entity.KindRateLimited:
		return http.StatusTooManyRequests
	case entity.KindTransport:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Failure writes a classified failure. Transport failures carry their cause in
// the message, so it is sanitized before it reaches the client.
func Failure(w http.ResponseWriter, err error) {
	var f *entity.Failure
	if !errors.As(err, &f) {
		SafeError(w, http.StatusInternalServerError, err)
		return
	}
	msg := f.Message
	if f.Kind == entity.KindTransport {
		msg = SanitizeString(msg)
		slog.Default().Warn("provider transport failure",
			slog.String("error", SanitizeError(f.Err)))
	}
	JSON(w, StatusFor(f.Kind), ErrorBody{State: "failure", Error: msg, Kind: f.Kind})
}
