// Handler helper functions: context access, JSON encoding and error writing.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/matiasleandrokruk/simonsays/internal/api/ctxkeys"
)

// maxBodyBytes bounds request bodies; message bodies may carry a base64 image.
const maxBodyBytes = 8 << 20

var errMissingUser = errors.New("user_id not found in context")

// listResponse wraps collections as {"data": [...]}.
type listResponse[T any] struct {
	Data []T `json:"data"`
}

// getUserID retrieves the authenticated user injected by middleware.Auth.
func getUserID(r *http.Request) (string, error) {
	userID := ctxkeys.String(r.Context(), ctxkeys.UserID)
	if userID == "" {
		return "", errMissingUser
	}
	return userID, nil
}

// requireUser writes 401 and returns false when no user is in context.
func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, err := getUserID(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "missing user context")
		return "", false
	}
	return userID, true
}

// decodeBody decodes a bounded JSON body into dst, writing 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// writeJSON writes v with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": message}); err != nil {
		http.Error(w, `{"error":"failed to encode error response"}`, http.StatusInternalServerError)
	}
}
