// alerts.go
// Anomaly notifications raised by pricing and lifecycle checks.

package db

import (
	"context"
	"time"

	"farmtrace/models"
)

// CreateAlert appends a new alert for the given user. Alert creation is
// best-effort from the caller's point of view: a failure here must never
// abort the action that triggered it.
func (s *FileStore) CreateAlert(ctx context.Context, userID string, batchID int64, alertType models.AlertType, message string) (*models.Alert, error) {
	var created *models.Alert
	err := s.withWrite(ctx, func(snap *Snapshot) error {
		snap.NextAlertID++
		a := &models.Alert{
			ID:        snap.NextAlertID,
			UserID:    userID,
			BatchID:   batchID,
			Type:      alertType,
			Message:   message,
			CreatedAt: time.Now(),
		}
		snap.Alerts = append(snap.Alerts, a)
		c := *a
		created = &c
		return nil
	})
	if err != nil {
		if created != nil {
			return created, err
		}
		return nil, err
	}
	return created, nil
}

// ListAlertsByUser returns the user's alerts, most recent first.
func (s *FileStore) ListAlertsByUser(userID string) []*models.Alert {
	var out []*models.Alert
	s.withRead(func(snap *Snapshot) error {
		for i := len(snap.Alerts) - 1; i >= 0; i-- {
			if snap.Alerts[i].UserID == userID {
				c := *snap.Alerts[i]
				out = append(out, &c)
			}
		}
		return nil
	})
	return out
}
