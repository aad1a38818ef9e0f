package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/nevalis/whispr-backend/internal/services"
	"github.com/nevalis/whispr-backend/internal/timefmt"
)

// GetThreads returns the caller's conversations, most recently active first.
func GetThreads(w http.ResponseWriter, r *http.Request) {
	me, ok := requireUser(w, r)
	if !ok {
		return
	}

	threads, err := services.ListThreadSummaries(r.Context(), me.UID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"threads": threads,
	})
}

// GetThreadMessages returns the full conversation with a peer, both flat and
// bucketed into day groups for rendering. An empty conversation (no thread
// yet) is a 200 with empty slices, not an error.
// Query params:
//
//	peer_uid (required)
func GetThreadMessages(w http.ResponseWriter, r *http.Request) {
	me, ok := requireUser(w, r)
	if !ok {
		return
	}

	peerUID := r.URL.Query().Get("peer_uid")
	if peerUID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"message": "peer_uid is required",
		})
		return
	}

	msgs, err := services.LoadThreadMessages(r.Context(), me.UID, peerUID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	groups := timefmt.GroupByDay(msgs, time.Now())

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"messages": msgs,
		"groups":   groups,
	})
}

type markReadRequest struct {
	PeerUID string `json:"peer_uid"`
}

// MarkThreadRead sweeps the conversation with a peer and adds the caller to
// every unread message's read-by set. Read receipts are best-effort: partial
// failures are logged server-side and the endpoint still answers 204.
func MarkThreadRead(w http.ResponseWriter, r *http.Request) {
	me, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req markReadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PeerUID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"message": "peer_uid is required",
		})
		return
	}

	if err := services.MarkThreadRead(r.Context(), me.UID, req.PeerUID); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
