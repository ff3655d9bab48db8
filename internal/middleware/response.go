package middleware

import (
	"encoding/json"
	"net/http"
)

// writeError writes the API's error envelope. Middleware cannot reach the
// handler package, so it keeps its own copy of the shape.
func writeError(w http.ResponseWriter, status int, errType, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{
			"type":    errType,
			"message": message,
		},
	})
}
