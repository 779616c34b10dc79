// store.go
// FileStore is the durable state of the whole system: a single JSON
// snapshot file owned by one process. This is the Go counterpart of the
// namespaced browser local-storage keyspace the frontend uses. There is
// deliberately no remote authority behind it.

package db

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"farmtrace/models"
)

// Snapshot is the full persisted state. Revision is a logical clock
// bumped on every committed write so divergent copies can be detected.
type Snapshot struct {
	Version        int                     `json:"version"`
	Revision       int64                   `json:"revision"`
	Users          map[string]*models.User `json:"users"`
	PasswordHashes map[string]string       `json:"password_hashes"`
	Batches        []*models.Batch         `json:"batches"` // newest first
	Alerts         []*models.Alert         `json:"alerts"`
	NextBatchID    int64                   `json:"next_batch_id"`
	NextAlertID    int64                   `json:"next_alert_id"`
	CreatedAt      time.Time               `json:"created_at"`
	UpdatedAt      time.Time               `json:"updated_at"`
}

// FileStore wraps the snapshot file behind a mutex. All mutations are
// applied in memory first; a failed flush surfaces as ErrPersistence but
// the in-memory state keeps the mutation (optimistic local update).
type FileStore struct {
	mu      sync.RWMutex
	file    *os.File
	snap    *Snapshot
	path    string
	latency time.Duration
}

// Open opens (or creates) the snapshot file at path. An empty file is
// seeded with the reference demo batches. latency mimics a remote write
// on batch creation; pass 0 to disable.
func Open(path string, latency time.Duration) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, err
	}
	s := &FileStore{file: f, path: path, latency: latency}
	if err := s.load(); err != nil {
		_ = f.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying snapshot file.
func (s *FileStore) Close() error { return s.file.Close() }

// Revision returns the current logical clock value.
func (s *FileStore) Revision() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Revision
}

func (s *FileStore) load() error {
	info, err := s.file.Stat()
	if err != nil {
		return err
	}
	if info.Size() == 0 {
		s.snap = seedSnapshot()
		return s.flushLocked()
	}
	dec := json.NewDecoder(s.file)
	var snap Snapshot
	if err := dec.Decode(&snap); err != nil {
		return fmt.Errorf("failed to decode snapshot %s: %w", s.path, err)
	}
	s.snap = &snap
	return nil
}

func (s *FileStore) flushLocked() error {
	if _, err := s.file.Seek(0, io.SeekStart); err != nil {
		return err
	}
	enc := json.NewEncoder(s.file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s.snap); err != nil {
		return err
	}
	// truncate in case new content is shorter
	pos, _ := s.file.Seek(0, io.SeekCurrent)
	if err := s.file.Truncate(pos); err != nil {
		return err
	}
	return s.file.Sync()
}

func (s *FileStore) withWrite(ctx context.Context, fn func(*Snapshot) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	if err := fn(s.snap); err != nil {
		return err
	}
	s.snap.Revision++
	s.snap.UpdatedAt = time.Now()
	if err := s.flushLocked(); err != nil {
		return fmt.Errorf("%w: %v", models.ErrPersistence, err)
	}
	return nil
}

func (s *FileStore) withRead(fn func(*Snapshot) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.snap)
}

// simulateLatency waits for the configured artificial delay before a
// batch write commits. Cancelling the context aborts the pending write.
func (s *FileStore) simulateLatency(ctx context.Context) error {
	if s.latency <= 0 {
		return nil
	}
	select {
	case <-time.After(s.latency):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// seedSnapshot builds the first-run state: the four reference batches
// every fresh install starts with.
func seedSnapshot() *Snapshot {
	now := time.Now()
	mk := func(ts string) time.Time {
		t, _ := time.Parse(time.RFC3339, ts)
		return t
	}
	batches := []*models.Batch{
		{
			ID: 4, BatchCode: "BT004", FarmerID: "user-farmer-demo",
			CropName: "Onion", Quantity: 150, Unit: "kg",
			HarvestDate: "2025-11-22", Status: models.StatusAtWarehouse,
			ImageURL:  "https://images.unsplash.com/photo-1618512496248-a07fe83aa8cb?auto=format&fit=crop&w=800&q=80",
			CreatedAt: mk("2025-11-22T14:20:00Z"), UpdatedAt: mk("2025-11-22T14:20:00Z"),
			AIAnalysis: &models.AIAnalysis{IsFruitOrVegetable: true, Freshness: "Fresh", Confidence: 92, Quality: "good"},
		},
		{
			ID: 3, BatchCode: "BT003", FarmerID: "user-farmer-demo",
			CropName: "Mango", Quantity: 85, Unit: "kg",
			HarvestDate: "2025-11-15", Status: models.StatusDeliveredToRetailer,
			ImageURL:  "https://images.unsplash.com/photo-1553279768-865429fa0078?auto=format&fit=crop&w=800&q=80",
			CreatedAt: mk("2025-11-15T08:45:00Z"), UpdatedAt: mk("2025-11-15T08:45:00Z"),
			AIAnalysis: &models.AIAnalysis{IsFruitOrVegetable: true, Freshness: "Average", Confidence: 75, Quality: "average"},
		},
		{
			ID: 2, BatchCode: "BT002", FarmerID: "user-farmer-demo",
			CropName: "Potato", Quantity: 200, Unit: "kg",
			HarvestDate: "2025-11-18", Status: models.StatusInTransit,
			ImageURL:  "https://images.unsplash.com/photo-1518977676601-b53f82aba655?auto=format&fit=crop&w=800&q=80",
			CreatedAt: mk("2025-11-18T10:00:00Z"), UpdatedAt: mk("2025-11-18T10:00:00Z"),
			AIAnalysis: &models.AIAnalysis{IsFruitOrVegetable: true, Freshness: "Fresh", Confidence: 88, Quality: "good"},
		},
		{
			ID: 1, BatchCode: "BT001", FarmerID: "user-farmer-demo",
			CropName: "Tomato", Quantity: 120, Unit: "kg",
			HarvestDate: "2025-11-20", Status: models.StatusCreated,
			ImageURL:  "https://images.unsplash.com/photo-1592924357228-91a4daadcfea?auto=format&fit=crop&w=800&q=80",
			CreatedAt: mk("2025-11-20T09:30:00Z"), UpdatedAt: mk("2025-11-20T09:30:00Z"),
			AIAnalysis: &models.AIAnalysis{IsFruitOrVegetable: true, Freshness: "Very Fresh", Confidence: 95, Quality: "excellent", Damage: "None detected"},
		},
	}
	return &Snapshot{
		Version:        1,
		Users:          map[string]*models.User{},
		PasswordHashes: map[string]string{},
		Batches:        batches,
		Alerts:         []*models.Alert{},
		NextBatchID:    4,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}
