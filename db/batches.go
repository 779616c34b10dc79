// batches.go
// Batch lifecycle operations. All writes go through the snapshot store;
// validation failures abort before any state mutation.

package db

import (
	"context"
	"fmt"
	"time"

	"farmtrace/models"
)

// CreateBatchInput carries the farmer-supplied fields for a new batch.
type CreateBatchInput struct {
	CropName    string
	Quantity    float64
	Unit        string
	HarvestDate string // YYYY-MM-DD
	ImageURL    string
	AIAnalysis  *models.AIAnalysis
}

// CreateBatch validates the input, waits out the simulated write latency
// and appends a new batch to the front of the collection. The batch id
// comes from a persisted monotonic counter, never from the clock.
func (s *FileStore) CreateBatch(ctx context.Context, farmerID string, in CreateBatchInput) (*models.Batch, error) {
	if in.Quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", models.ErrValidation)
	}
	if in.ImageURL == "" {
		return nil, fmt.Errorf("%w: at least one image is required", models.ErrValidation)
	}
	harvest, err := time.Parse("2006-01-02", in.HarvestDate)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid harvest date %q", models.ErrValidation, in.HarvestDate)
	}
	if harvest.After(time.Now()) {
		return nil, fmt.Errorf("%w: harvest date cannot be in the future", models.ErrValidation)
	}
	unit := in.Unit
	if unit == "" {
		unit = "kg"
	}

	if err := s.simulateLatency(ctx); err != nil {
		return nil, err
	}

	var created *models.Batch
	err = s.withWrite(ctx, func(snap *Snapshot) error {
		snap.NextBatchID++
		now := time.Now()
		b := &models.Batch{
			ID:          snap.NextBatchID,
			BatchCode:   fmt.Sprintf("BT%03d", snap.NextBatchID),
			FarmerID:    farmerID,
			CropName:    in.CropName,
			Quantity:    in.Quantity,
			Unit:        unit,
			HarvestDate: in.HarvestDate,
			ImageURL:    in.ImageURL,
			Status:      models.StatusCreated,
			AIAnalysis:  in.AIAnalysis,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		snap.Batches = append([]*models.Batch{b}, snap.Batches...)
		created = cloneBatch(b)
		return nil
	})
	if err != nil {
		// A persistence failure still committed the batch in memory.
		if created != nil {
			return created, err
		}
		return nil, err
	}
	return created, nil
}

// GetBatch returns a copy of the batch with the given id.
func (s *FileStore) GetBatch(id int64) (*models.Batch, error) {
	var out *models.Batch
	s.withRead(func(snap *Snapshot) error {
		if b := findBatch(snap, id); b != nil {
			out = cloneBatch(b)
		}
		return nil
	})
	if out == nil {
		return nil, fmt.Errorf("%w: batch %d", models.ErrNotFound, id)
	}
	return out, nil
}

// ListBatches returns all batches, most recent first.
func (s *FileStore) ListBatches() []*models.Batch {
	var out []*models.Batch
	s.withRead(func(snap *Snapshot) error {
		for _, b := range snap.Batches {
			out = append(out, cloneBatch(b))
		}
		return nil
	})
	return out
}

// ListBatchesByFarmer returns the farmer's own batches, most recent first.
func (s *FileStore) ListBatchesByFarmer(farmerID string) []*models.Batch {
	var out []*models.Batch
	s.withRead(func(snap *Snapshot) error {
		for _, b := range snap.Batches {
			if b.FarmerID == farmerID {
				out = append(out, cloneBatch(b))
			}
		}
		return nil
	})
	return out
}

// ListBatchesByStatus returns batches in any of the given stages,
// preserving the most-recent-first collection order.
func (s *FileStore) ListBatchesByStatus(statuses ...models.BatchStatus) []*models.Batch {
	want := make(map[models.BatchStatus]bool, len(statuses))
	for _, st := range statuses {
		want[st] = true
	}
	var out []*models.Batch
	s.withRead(func(snap *Snapshot) error {
		for _, b := range snap.Batches {
			if want[b.Status] {
				out = append(out, cloneBatch(b))
			}
		}
		return nil
	})
	return out
}

// AdvanceStatus moves a batch along the lifecycle graph. A transition to
// the current stage is a no-op that still succeeds, so repeated identical
// calls converge. Anything off the graph fails with ErrInvalidTransition.
func (s *FileStore) AdvanceStatus(ctx context.Context, id int64, newStatus models.BatchStatus) (*models.Batch, error) {
	if !models.ValidStatus(newStatus) {
		return nil, fmt.Errorf("%w: unknown status %q", models.ErrValidation, newStatus)
	}
	var updated *models.Batch
	err := s.withWrite(ctx, func(snap *Snapshot) error {
		b := findBatch(snap, id)
		if b == nil {
			return fmt.Errorf("%w: batch %d", models.ErrNotFound, id)
		}
		if !models.CanTransition(b.Status, newStatus) {
			return fmt.Errorf("%w: %s -> %s", models.ErrInvalidTransition, b.Status, newStatus)
		}
		b.Status = newStatus
		b.UpdatedAt = time.Now()
		updated = cloneBatch(b)
		return nil
	})
	if err != nil {
		if updated != nil {
			return updated, err
		}
		return nil, err
	}
	return updated, nil
}

// SetPrice sets or updates the retail price of a batch.
func (s *FileStore) SetPrice(ctx context.Context, id int64, price float64) (*models.Batch, error) {
	if price < 0 {
		return nil, fmt.Errorf("%w: price must not be negative", models.ErrValidation)
	}
	var updated *models.Batch
	err := s.withWrite(ctx, func(snap *Snapshot) error {
		b := findBatch(snap, id)
		if b == nil {
			return fmt.Errorf("%w: batch %d", models.ErrNotFound, id)
		}
		p := price
		b.Price = &p
		b.UpdatedAt = time.Now()
		updated = cloneBatch(b)
		return nil
	})
	if err != nil {
		if updated != nil {
			return updated, err
		}
		return nil, err
	}
	return updated, nil
}

// ApplyDiscount sets the discount percentage on an already priced batch.
func (s *FileStore) ApplyDiscount(ctx context.Context, id int64, percent float64) (*models.Batch, error) {
	if percent < 0 || percent > 90 {
		return nil, fmt.Errorf("%w: unreasonable discount value", models.ErrValidation)
	}
	var updated *models.Batch
	err := s.withWrite(ctx, func(snap *Snapshot) error {
		b := findBatch(snap, id)
		if b == nil {
			return fmt.Errorf("%w: batch %d", models.ErrNotFound, id)
		}
		b.DiscountPercent = percent
		b.UpdatedAt = time.Now()
		updated = cloneBatch(b)
		return nil
	})
	if err != nil {
		if updated != nil {
			return updated, err
		}
		return nil, err
	}
	return updated, nil
}

// AcceptBatch is the retailer's accept action: the batch transitions to
// Accepted, gets its first price and its shelf dates. Expiry is a simple
// shelf-life rule: seven days from the shelf date.
func (s *FileStore) AcceptBatch(ctx context.Context, id int64, price float64, shelfDate, category string) (*models.Batch, error) {
	if price < 0 {
		return nil, fmt.Errorf("%w: price must not be negative", models.ErrValidation)
	}
	shelf, err := time.Parse("2006-01-02", shelfDate)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid shelf date %q", models.ErrValidation, shelfDate)
	}
	var updated *models.Batch
	err = s.withWrite(ctx, func(snap *Snapshot) error {
		b := findBatch(snap, id)
		if b == nil {
			return fmt.Errorf("%w: batch %d", models.ErrNotFound, id)
		}
		if !models.CanTransition(b.Status, models.StatusAccepted) {
			return fmt.Errorf("%w: %s -> %s", models.ErrInvalidTransition, b.Status, models.StatusAccepted)
		}
		now := time.Now()
		p := price
		b.Status = models.StatusAccepted
		b.Price = &p
		b.ArrivalDate = now.Format("2006-01-02")
		b.ShelfDate = shelfDate
		b.ExpiryDate = shelf.AddDate(0, 0, 7).Format("2006-01-02")
		if category != "" {
			b.Category = category
		}
		b.UpdatedAt = now
		updated = cloneBatch(b)
		return nil
	})
	if err != nil {
		if updated != nil {
			return updated, err
		}
		return nil, err
	}
	return updated, nil
}

func findBatch(snap *Snapshot, id int64) *models.Batch {
	for _, b := range snap.Batches {
		if b.ID == id {
			return b
		}
	}
	return nil
}

func cloneBatch(b *models.Batch) *models.Batch {
	out := *b
	if b.AIAnalysis != nil {
		analysis := *b.AIAnalysis
		out.AIAnalysis = &analysis
	}
	if b.Price != nil {
		price := *b.Price
		out.Price = &price
	}
	return &out
}
