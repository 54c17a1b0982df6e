// Package middleware provides HTTP middleware for bearer-token authentication,
// audit capture, rate limiting, and request tracing.
package middleware

import (
	"encoding/json"
	"net/http"
)

// writeError writes the JSON error body shared with the API handlers.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"code":    status,
		"message": message,
	})
}
