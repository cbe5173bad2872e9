package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sort"

	"github.com/cwbudde/mlvis/internal/conv"
	"github.com/cwbudde/mlvis/internal/descent"
)

// errBadJSON marks request bodies that failed to decode.
var errBadJSON = errors.New("server: invalid JSON")

// decodeJSON decodes an optional request body. An empty body leaves v as is.
func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return errors.Join(errBadJSON, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// statusFor maps engine and request errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, descent.ErrNotRunnable):
		return http.StatusConflict
	case errors.Is(err, errBadJSON),
		errors.Is(err, ErrUnknownKind),
		errors.Is(err, ErrWrongKind),
		errors.Is(err, conv.ErrInvalidDimensions),
		errors.Is(err, descent.ErrUnknownObjective),
		errors.Is(err, descent.ErrInvalidArgument):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeError answers with {"error": "..."} and the mapped status.
func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error("Request failed", "error", err)
	} else {
		slog.Debug("Request rejected", "status", status, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func sortSessions(sessions []*Session) {
	sort.Slice(sessions, func(i, j int) bool {
		if sessions[i].CreatedAt.Equal(sessions[j].CreatedAt) {
			return sessions[i].ID < sessions[j].ID
		}
		return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
	})
}
