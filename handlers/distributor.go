package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"farmtrace/chain"
	"farmtrace/db"
	"farmtrace/models"
)

type DistributorHandler struct {
	store  *db.FileStore
	ledger *chain.Ledger
}

func NewDistributorHandler(store *db.FileStore, ledger *chain.Ledger) *DistributorHandler {
	return &DistributorHandler{
		store:  store,
		ledger: ledger,
	}
}

// AvailableBatches lists batches still waiting for pickup.
func (h *DistributorHandler) AvailableBatches(w http.ResponseWriter, r *http.Request) {
	batches := h.store.ListBatchesByStatus(models.StatusCreated)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"batches": batches,
		"count":   len(batches),
	})
}

type PickupRequest struct {
	VehicleNumber string `json:"vehicle_number,omitempty"`
	Destination   string `json:"destination,omitempty"`
}

// Pickup moves a batch from Created into In Transit.
func (h *DistributorHandler) Pickup(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, "Invalid batch id", http.StatusBadRequest)
		return
	}

	var req PickupRequest
	if r.Body != nil {
		// Pickup details are optional; an empty body is fine.
		json.NewDecoder(r.Body).Decode(&req)
	}

	batch, err := h.store.AdvanceStatus(r.Context(), id, models.StatusInTransit)
	if err != nil && batch == nil {
		writeStoreError(w, err)
		return
	}
	if err != nil {
		log.Printf("Warning: pickup of batch %d applied but not persisted: %v", id, err)
	}

	payload := map[string]string{}
	if req.VehicleNumber != "" {
		payload["vehicle"] = req.VehicleNumber
	}
	if req.Destination != "" {
		payload["destination"] = req.Destination
	}
	h.ledger.Record(chain.EventPickup, batch.BatchCode, payload)

	writeJSON(w, http.StatusOK, batch)
}

type UpdateStatusRequest struct {
	Status models.BatchStatus `json:"status"`
}

// UpdateStatus advances a batch along the delivery stages. Skipping
// stages is rejected; marking a batch Delayed is always allowed.
func (h *DistributorHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, "Invalid batch id", http.StatusBadRequest)
		return
	}

	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	batch, err := h.store.AdvanceStatus(r.Context(), id, req.Status)
	if err != nil && batch == nil {
		writeStoreError(w, err)
		return
	}
	if err != nil {
		log.Printf("Warning: status change for batch %d applied but not persisted: %v", id, err)
	}

	if batch.Status == models.StatusDeliveredToRetailer {
		h.ledger.Record(chain.EventDelivery, batch.BatchCode, map[string]string{
			"quantity": fmt.Sprintf("%.2f %s", batch.Quantity, batch.Unit),
		})
	}

	writeJSON(w, http.StatusOK, batch)
}
