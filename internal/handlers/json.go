package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"review-hub/internal/apperrors"
)

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		// If marshaling fails, send a generic error
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"Internal server error"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

// respondWithServiceError maps a service error to its HTTP status. Plain
// errors stay opaque to the client.
func respondWithServiceError(w http.ResponseWriter, err error) {
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		respondWithJSON(w, appErr.HTTPStatus(), map[string]string{
			"error": appErr.Message,
			"kind":  string(appErr.Kind),
		})
		return
	}

	slog.Error("Unexpected service error", "error", err)
	respondWithError(w, http.StatusInternalServerError, "Internal server error")
}

// pathID reads a numeric path parameter from the route pattern.
func pathID(r *http.Request, name string) (uint, error) {
	id, err := strconv.ParseUint(r.PathValue(name), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
