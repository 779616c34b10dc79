package handlers

import (
	"net/http"

	"farmtrace/db"
	"farmtrace/middleware"
)

type AlertsHandler struct {
	store *db.FileStore
}

func NewAlertsHandler(store *db.FileStore) *AlertsHandler {
	return &AlertsHandler{store: store}
}

// List returns the caller's alerts, most recent first.
func (h *AlertsHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, "User not found in context", http.StatusUnauthorized)
		return
	}

	alerts := h.store.ListAlertsByUser(user.UserID)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"alerts": alerts,
		"count":  len(alerts),
	})
}
