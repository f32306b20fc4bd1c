package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/erazemk/inventar/internal/store"
)

// Error messages returned to clients.
const (
	msgNotFound         = "Not found"
	msgNameRequired     = "inventory_name is required"
	msgNoFile           = "No file uploaded"
	msgMethodNotAllowed = "Method not allowed"
	msgInvalidBody      = "invalid request body"
	msgInvalidForm      = "file too large or invalid multipart form"
	msgIDRequired       = "id is required"
	msgInternal         = "internal error"
)

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("error encoding response", "error", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// writeStoreError maps a registry error to its status code.
func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, store.ErrNoPhoto):
		jsonError(w, http.StatusNotFound, msgNotFound)
	case errors.Is(err, store.ErrValidation):
		jsonError(w, http.StatusBadRequest, err.Error())
	default:
		slog.Error("registry operation failed", "error", err)
		jsonError(w, http.StatusInternalServerError, msgInternal)
	}
}

// methodNotAllowed answers every request that matches no route.
func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	jsonError(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
}
