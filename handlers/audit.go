package handlers

import (
	"log"
	"net/http"
	"sync"
	"time"
)

// AuditEvent is one security-relevant action kept in the in-memory trail.
type AuditEvent struct {
	Timestamp time.Time `json:"timestamp"`
	UserID    string    `json:"user_id"`
	Action    string    `json:"action"`
	Details   string    `json:"details"`
}

var (
	auditMu     sync.Mutex
	auditEvents []AuditEvent
)

// logAuditEvent records logins, exports and price changes. The trail is
// process-local; the log line is the durable copy.
func logAuditEvent(userID, action, details string) {
	auditMu.Lock()
	auditEvents = append(auditEvents, AuditEvent{
		Timestamp: time.Now(),
		UserID:    userID,
		Action:    action,
		Details:   details,
	})
	auditMu.Unlock()

	log.Printf("AUDIT: [%s] user=%s %s", action, userID, details)
}

// recentAuditEvents returns up to limit entries, newest first.
func recentAuditEvents(limit int) []AuditEvent {
	auditMu.Lock()
	defer auditMu.Unlock()

	var out []AuditEvent
	for i := len(auditEvents) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, auditEvents[i])
	}
	return out
}

// AuditTrail serves the recent audit entries for this process.
func AuditTrail(w http.ResponseWriter, r *http.Request) {
	events := recentAuditEvents(100)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"events": events,
		"count":  len(events),
	})
}
