package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/mind-engage/mindengage-adaptivequiz/internal/cat"
	"github.com/mind-engage/mindengage-adaptivequiz/internal/grading"
	"github.com/mind-engage/mindengage-adaptivequiz/internal/quiz"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps service and engine errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, quiz.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, quiz.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, cat.ErrConfiguration):
		return http.StatusUnprocessableEntity
	case errors.Is(err, cat.ErrInvalidItem),
		errors.Is(err, quiz.ErrBadResponse),
		errors.Is(err, grading.ErrNotAutoGradable):
		return http.StatusBadRequest
	case errors.Is(err, cat.ErrSessionClosed),
		errors.Is(err, cat.ErrInvalidState),
		errors.Is(err, cat.ErrPoolExhausted),
		errors.Is(err, quiz.ErrAttemptLimit):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError sends {"error": ...}; configuration errors also carry the
// per-field messages.
func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	body := map[string]any{"error": err.Error()}
	if status == http.StatusInternalServerError {
		body["error"] = "internal error"
	}
	var ce *cat.ConfigError
	if errors.As(err, &ce) {
		body["fields"] = ce.Fields
	}
	writeJSON(w, status, body)
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil && v >= 0 {
		return v
	}
	return def
}
