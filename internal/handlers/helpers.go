package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/nevalis/whispr-backend/internal/models"
	"github.com/nevalis/whispr-backend/internal/services"
)

// extractBearerToken pulls the token out of an "Authorization: Bearer x" header.
func extractBearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// sessionToken reads the session token from the Authorization header, falling
// back to the token query parameter for browser WebSocket clients.
func sessionToken(r *http.Request) string {
	if tok := extractBearerToken(r.Header.Get("Authorization")); tok != "" {
		return tok
	}
	return r.URL.Query().Get("token")
}

// requireUser resolves the request's session to a profile document or writes a
// 401 and reports false.
func requireUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	user, ok := services.CurrentUser(r.Context(), sessionToken(r))
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]interface{}{
			"success": false,
			"message": "authentication required",
		})
		return nil, false
	}
	return user, true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write json response: %v", err)
	}
}

// writeServiceError maps the service failure taxonomy onto HTTP statuses.
// Store trouble deliberately collapses into one generic message so transient
// backend issues all read the same way to the user.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrValidation):
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false, "message": err.Error(),
		})
	case errors.Is(err, services.ErrInvalidCredential):
		writeJSON(w, http.StatusUnauthorized, map[string]interface{}{
			"success": false, "message": "Invalid email or password",
		})
	case errors.Is(err, services.ErrEmailInUse):
		writeJSON(w, http.StatusConflict, map[string]interface{}{
			"success": false, "message": "An account with this email already exists",
		})
	case errors.Is(err, services.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]interface{}{
			"success": false, "message": "Not found",
		})
	case errors.Is(err, services.ErrStoreUnavailable), errors.Is(err, services.ErrPermissionDenied):
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"success": false, "message": "Unable to load right now. Check your connection or permissions and try again.",
		})
	default:
		log.Printf("internal error: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"success": false, "message": "Internal server error",
		})
	}
}
