package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/templui/goalsetter/internal/apperror"
)

// maxBodyBytes caps request bodies. Goals with long descriptions and a few
// dozen milestones stay well below it.
const maxBodyBytes = 1 << 20

type errorBody struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// writeError maps err onto the API error envelope. Typed errors carry a
// message meant for the client; anything else is logged and hidden.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	appErr, ok := apperror.As(err)
	if !ok {
		slog.ErrorContext(r.Context(), "request failed", "error", err, "method", r.Method, "path", r.URL.Path)
		writeJSON(w, http.StatusInternalServerError, map[string]errorBody{
			"error": {Type: "internal", Message: "internal server error"},
		})
		return
	}

	writeJSON(w, appErr.HTTPStatus(), map[string]errorBody{
		"error": {Type: string(appErr.Kind), Message: appErr.Message, Field: appErr.Field},
	})
}

// readBody returns the raw request body, bounded by maxBodyBytes.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, apperror.Validation("", "request body too large")
		}
		return nil, apperror.Validation("", "failed to read request body")
	}
	return data, nil
}

// decodeBody decodes a JSON object into v.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	data, err := readBody(w, r)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return apperror.Validation("", "request body must be a valid JSON object")
	}
	return nil
}
