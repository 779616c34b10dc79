package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"farmtrace/chain"
	"farmtrace/classifier"
	"farmtrace/db"
	"farmtrace/middleware"
	"farmtrace/models"
)

type FarmerHandler struct {
	store      *db.FileStore
	ledger     *chain.Ledger
	classifier classifier.Classifier
}

func NewFarmerHandler(store *db.FileStore, ledger *chain.Ledger, c classifier.Classifier) *FarmerHandler {
	return &FarmerHandler{
		store:      store,
		ledger:     ledger,
		classifier: c,
	}
}

type CreateBatchRequest struct {
	CropName    string  `json:"crop_name"`
	Quantity    float64 `json:"quantity"`
	Unit        string  `json:"unit,omitempty"`
	HarvestDate string  `json:"harvest_date"`
	ImageURL    string  `json:"image_url"`
}

// CreateBatch registers a new harvest. The quality analysis and the
// ledger entry are both best-effort: the batch is created even when the
// classifier or the ledger is down.
func (h *FarmerHandler) CreateBatch(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, "User not found in context", http.StatusUnauthorized)
		return
	}

	var req CreateBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	analysis, err := h.classifier.Analyze(r.Context(), req.ImageURL, req.CropName)
	if err != nil {
		if !errors.Is(err, models.ErrClassificationUnavailable) {
			log.Printf("Classifier error for %s: %v", req.CropName, err)
		}
		analysis = nil
	}

	batch, err := h.store.CreateBatch(r.Context(), user.UserID, db.CreateBatchInput{
		CropName:    req.CropName,
		Quantity:    req.Quantity,
		Unit:        req.Unit,
		HarvestDate: req.HarvestDate,
		ImageURL:    req.ImageURL,
		AIAnalysis:  analysis,
	})
	if err != nil && batch == nil {
		writeStoreError(w, err)
		return
	}
	if err != nil {
		log.Printf("Warning: batch %s created but not persisted: %v", batch.BatchCode, err)
	}

	h.ledger.Record(chain.EventBatchCreated, batch.BatchCode, map[string]string{
		"crop":         batch.CropName,
		"quantity":     fmt.Sprintf("%.2f %s", batch.Quantity, batch.Unit),
		"harvest_date": batch.HarvestDate,
		"farmer_id":    batch.FarmerID,
	})
	if batch.AIAnalysis != nil {
		h.ledger.Record(chain.EventAIQuality, batch.BatchCode, map[string]string{
			"freshness":  batch.AIAnalysis.Freshness,
			"quality":    batch.AIAnalysis.Quality,
			"confidence": fmt.Sprintf("%.0f", batch.AIAnalysis.Confidence),
		})
	}

	writeJSON(w, http.StatusCreated, batch)
}

// MyBatches lists the farmer's own batches, most recent first.
func (h *FarmerHandler) MyBatches(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, "User not found in context", http.StatusUnauthorized)
		return
	}

	batches := h.store.ListBatchesByFarmer(user.UserID)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"batches": batches,
		"count":   len(batches),
	})
}

// BatchDetail returns one of the farmer's batches with its trace history.
func (h *FarmerHandler) BatchDetail(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, "User not found in context", http.StatusUnauthorized)
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, "Invalid batch id", http.StatusBadRequest)
		return
	}

	batch, err := h.store.GetBatch(id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if batch.FarmerID != user.UserID {
		writeError(w, "Insufficient permissions", http.StatusForbidden)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"batch": batch,
		"trace": h.ledger.BlocksForBatch(batch.BatchCode),
	})
}
