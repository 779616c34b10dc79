package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"farmtrace/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *FileStore {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "farmtrace.json"), 0)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func validInput() CreateBatchInput {
	return CreateBatchInput{
		CropName:    "Carrot",
		Quantity:    50,
		HarvestDate: time.Now().AddDate(0, 0, -1).Format("2006-01-02"),
		ImageURL:    "https://example.com/carrot.jpg",
	}
}

func TestSeedBatches(t *testing.T) {
	s := openTestStore(t)

	batches := s.ListBatches()
	require.Len(t, batches, 4)

	// Newest first
	assert.Equal(t, "BT004", batches[0].BatchCode)
	assert.Equal(t, "Onion", batches[0].CropName)
	assert.Equal(t, "BT001", batches[3].BatchCode)
	assert.Equal(t, "Tomato", batches[3].CropName)
	assert.Equal(t, models.StatusCreated, batches[3].Status)

	for _, b := range batches {
		assert.Equal(t, "user-farmer-demo", b.FarmerID)
		assert.NotNil(t, b.AIAnalysis)
	}
}

func TestCreateBatch(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	b, err := s.CreateBatch(ctx, "farmer-1", validInput())
	require.NoError(t, err)
	assert.Equal(t, int64(5), b.ID)
	assert.Equal(t, "BT005", b.BatchCode)
	assert.Equal(t, models.StatusCreated, b.Status)
	assert.Equal(t, "kg", b.Unit) // default unit

	// New batch goes to the front
	batches := s.ListBatches()
	require.Len(t, batches, 5)
	assert.Equal(t, "BT005", batches[0].BatchCode)
}

func TestCreateBatchIDsStayUnique(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	seen := map[int64]bool{}
	for i := 0; i < 20; i++ {
		b, err := s.CreateBatch(ctx, "farmer-1", validInput())
		require.NoError(t, err)
		require.False(t, seen[b.ID], "duplicate id %d", b.ID)
		seen[b.ID] = true
	}
}

func TestCreateBatchValidation(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	cases := map[string]CreateBatchInput{
		"zero quantity":     {CropName: "Carrot", Quantity: 0, HarvestDate: "2025-11-01", ImageURL: "https://example.com/a.jpg"},
		"negative quantity": {CropName: "Carrot", Quantity: -5, HarvestDate: "2025-11-01", ImageURL: "https://example.com/a.jpg"},
		"missing image":     {CropName: "Carrot", Quantity: 10, HarvestDate: "2025-11-01"},
		"bad date":          {CropName: "Carrot", Quantity: 10, HarvestDate: "01/11/2025", ImageURL: "https://example.com/a.jpg"},
		"future harvest":    {CropName: "Carrot", Quantity: 10, HarvestDate: time.Now().AddDate(0, 0, 7).Format("2006-01-02"), ImageURL: "https://example.com/a.jpg"},
	}

	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := s.CreateBatch(ctx, "farmer-1", in)
			assert.ErrorIs(t, err, models.ErrValidation)
		})
	}

	// Failed creates must not leave partial state behind
	assert.Len(t, s.ListBatches(), 4)
	b, err := s.CreateBatch(ctx, "farmer-1", validInput())
	require.NoError(t, err)
	assert.Equal(t, int64(5), b.ID)
}

func TestAdvanceStatus(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	// Seed batch 1 (Tomato) starts in Created
	b, err := s.AdvanceStatus(ctx, 1, models.StatusInTransit)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInTransit, b.Status)

	// Repeating the same transition converges on the same state
	b, err = s.AdvanceStatus(ctx, 1, models.StatusInTransit)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInTransit, b.Status)

	// Skipping stages is rejected and leaves the batch untouched
	_, err = s.AdvanceStatus(ctx, 1, models.StatusAccepted)
	assert.ErrorIs(t, err, models.ErrInvalidTransition)
	got, err := s.GetBatch(1)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInTransit, got.Status)

	// Delayed and back
	_, err = s.AdvanceStatus(ctx, 1, models.StatusDelayed)
	require.NoError(t, err)
	b, err = s.AdvanceStatus(ctx, 1, models.StatusAtWarehouse)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAtWarehouse, b.Status)

	// Unknown status and unknown batch
	_, err = s.AdvanceStatus(ctx, 1, "Shipped")
	assert.ErrorIs(t, err, models.ErrValidation)
	_, err = s.AdvanceStatus(ctx, 999, models.StatusInTransit)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestSetPrice(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	b, err := s.SetPrice(ctx, 3, 80)
	require.NoError(t, err)
	require.NotNil(t, b.Price)
	assert.Equal(t, 80.0, *b.Price)

	// Negative price rejected, existing price untouched
	_, err = s.SetPrice(ctx, 3, -5)
	assert.ErrorIs(t, err, models.ErrValidation)
	got, err := s.GetBatch(3)
	require.NoError(t, err)
	require.NotNil(t, got.Price)
	assert.Equal(t, 80.0, *got.Price)
}

func TestApplyDiscount(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.SetPrice(ctx, 3, 100)
	require.NoError(t, err)

	b, err := s.ApplyDiscount(ctx, 3, 30)
	require.NoError(t, err)
	assert.Equal(t, 30.0, b.DiscountPercent)
	require.NotNil(t, b.FinalPrice())
	assert.Equal(t, 70.0, *b.FinalPrice())

	_, err = s.ApplyDiscount(ctx, 3, 95)
	assert.ErrorIs(t, err, models.ErrValidation)
	_, err = s.ApplyDiscount(ctx, 3, -10)
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestAcceptBatch(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	// Seed batch 3 (Mango) is Delivered to Retailer
	b, err := s.AcceptBatch(ctx, 3, 120, "2026-09-01", "Fruits")
	require.NoError(t, err)
	assert.Equal(t, models.StatusAccepted, b.Status)
	require.NotNil(t, b.Price)
	assert.Equal(t, 120.0, *b.Price)
	assert.Equal(t, "2026-09-01", b.ShelfDate)
	assert.Equal(t, "2026-09-08", b.ExpiryDate) // shelf + 7 days
	assert.Equal(t, "Fruits", b.Category)
	assert.NotEmpty(t, b.ArrivalDate)

	// Accepting a batch still in Created skips stages
	_, err = s.AcceptBatch(ctx, 1, 50, "2026-09-01", "Vegetables")
	assert.ErrorIs(t, err, models.ErrInvalidTransition)

	// Bad shelf date
	_, err = s.AcceptBatch(ctx, 4, 40, "next week", "Vegetables")
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestListBatchesByStatusAndFarmer(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.CreateBatch(ctx, "farmer-2", validInput())
	require.NoError(t, err)

	created := s.ListBatchesByStatus(models.StatusCreated)
	assert.Len(t, created, 2) // seed Tomato + new batch

	inMotion := s.ListBatchesByStatus(models.StatusInTransit, models.StatusAtWarehouse)
	assert.Len(t, inMotion, 2) // seed Potato + Onion

	mine := s.ListBatchesByFarmer("farmer-2")
	require.Len(t, mine, 1)
	assert.Equal(t, "Carrot", mine[0].CropName)
}

func TestSnapshotSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "farmtrace.json")
	ctx := context.Background()

	s, err := Open(path, 0)
	require.NoError(t, err)

	created, err := s.CreateBatch(ctx, "farmer-1", validInput())
	require.NoError(t, err)
	_, err = s.AdvanceStatus(ctx, created.ID, models.StatusInTransit)
	require.NoError(t, err)
	rev := s.Revision()
	require.NoError(t, s.Close())

	s2, err := Open(path, 0)
	require.NoError(t, err)
	defer s2.Close()

	assert.Equal(t, rev, s2.Revision())
	got, err := s2.GetBatch(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Carrot", got.CropName)
	assert.Equal(t, models.StatusInTransit, got.Status)

	// Collection order survives too
	batches := s2.ListBatches()
	assert.Equal(t, created.BatchCode, batches[0].BatchCode)
}

func TestCreateBatchCancelledContext(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "farmtrace.json"), 50*time.Millisecond)
	require.NoError(t, err)
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = s.CreateBatch(ctx, "farmer-1", validInput())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, s.ListBatches(), 4)
}

func TestUsers(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	u := &models.User{
		UserID: "user-1",
		Name:   "Asha",
		Email:  "asha@farmtrace.dev",
		Role:   models.RoleFarmer,
	}
	require.NoError(t, s.CreateUser(ctx, u))

	// Duplicate email rejected
	err := s.CreateUser(ctx, &models.User{UserID: "user-2", Email: "asha@farmtrace.dev", Role: models.RoleRetailer})
	assert.ErrorIs(t, err, models.ErrValidation)

	got, err := s.GetUserByEmail("asha@farmtrace.dev")
	require.NoError(t, err)
	assert.Equal(t, "user-1", got.UserID)

	// Profile merge only touches supplied fields
	loc := "Highland Farm"
	updated, err := s.UpdateProfile(ctx, "user-1", ProfileUpdate{Location: &loc})
	require.NoError(t, err)
	assert.Equal(t, "Asha", updated.Name)
	assert.Equal(t, "Highland Farm", updated.Location)

	// Password hashes live separately
	_, err = s.GetPasswordHash("user-1")
	assert.ErrorIs(t, err, models.ErrNotFound)
	require.NoError(t, s.StorePasswordHash(ctx, "user-1", "hash"))
	hash, err := s.GetPasswordHash("user-1")
	require.NoError(t, err)
	assert.Equal(t, "hash", hash)
}

func TestAlerts(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first, err := s.CreateAlert(ctx, "user-1", 1, models.AlertPriceSpike, "price too high")
	require.NoError(t, err)
	second, err := s.CreateAlert(ctx, "user-1", 2, models.AlertDuplicateBatch, "duplicate suspected")
	require.NoError(t, err)
	_, err = s.CreateAlert(ctx, "user-2", 1, models.AlertPriceSpike, "someone else's alert")
	require.NoError(t, err)

	assert.Greater(t, second.ID, first.ID)

	alerts := s.ListAlertsByUser("user-1")
	require.Len(t, alerts, 2)
	// Most recent first
	assert.Equal(t, models.AlertDuplicateBatch, alerts[0].Type)
	assert.Equal(t, models.AlertPriceSpike, alerts[1].Type)
}
