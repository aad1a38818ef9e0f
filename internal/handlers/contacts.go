package handlers

import (
	"net/http"

	"github.com/nevalis/whispr-backend/internal/models"
	"github.com/nevalis/whispr-backend/internal/services"
)

// Contact is a directory entry: the profile document decorated with live
// presence (the stored status field can lag when a connection dies without a
// sign-out; the Redis TTL does not).
type Contact struct {
	models.User
	Live models.PresenceStatus `json:"live_status"`
}

// GetContacts returns the user directory ordered by display name, excluding
// the caller.
func GetContacts(w http.ResponseWriter, r *http.Request) {
	me, ok := requireUser(w, r)
	if !ok {
		return
	}

	users, err := services.ListUsers(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	contacts := make([]Contact, 0, len(users))
	for _, u := range users {
		if u.UID == me.UID {
			continue
		}
		contacts = append(contacts, Contact{
			User: u,
			Live: services.LivePresence(r.Context(), u.UID),
		})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"contacts": contacts,
	})
}
