package http

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gabrielarrudexx/YBYOCA/internal/core"
)

// respondJSON writes v as a JSON response.
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func respondError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	if status >= 500 {
		slog.ErrorContext(r.Context(), "Request failed", "status", status, "error", msg, "url", r.URL.Path)
	}
	respondJSON(w, status, map[string]string{"error": msg})
}

// respondServiceError maps domain errors onto HTTP status codes.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		respondError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, core.ErrAlreadyCompleted):
		respondError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, core.ErrInvalidInput),
		errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrEmptyName),
		errors.Is(err, core.ErrEmptyCategory):
		respondError(w, r, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, core.ErrInvariantViolation):
		// Drift means the store needs operator attention, not a retry.
		respondError(w, r, http.StatusInternalServerError, err.Error())
	default:
		respondError(w, r, http.StatusInternalServerError, "internal error")
		slog.ErrorContext(r.Context(), "Unhandled service error", "error", err, "url", r.URL.Path)
	}
}

// parseBody decodes a JSON request body into dst, rejecting unknown fields.
func parseBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// pathID extracts the {id} path segment as an int64.
func pathID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}
