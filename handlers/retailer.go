package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"farmtrace/chain"
	"farmtrace/db"
	"farmtrace/middleware"
	"farmtrace/models"
)

type RetailerHandler struct {
	store  *db.FileStore
	ledger *chain.Ledger
}

func NewRetailerHandler(store *db.FileStore, ledger *chain.Ledger) *RetailerHandler {
	return &RetailerHandler{
		store:  store,
		ledger: ledger,
	}
}

// priceRanges bounds the plausible per-kg retail price for common crops.
// A price outside the band is rejected and raises a price_spike alert.
var priceRanges = map[string][2]float64{
	"Tomato": {20, 100},
	"Potato": {15, 60},
	"Mango":  {60, 180},
	"Rice":   {30, 80},
}

// IncomingBatches lists batches somewhere between pickup and acceptance.
func (h *RetailerHandler) IncomingBatches(w http.ResponseWriter, r *http.Request) {
	batches := h.store.ListBatchesByStatus(
		models.StatusInTransit,
		models.StatusAtWarehouse,
		models.StatusDeliveredToRetailer,
		models.StatusDelayed,
	)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"batches": batches,
		"count":   len(batches),
	})
}

type AcceptBatchRequest struct {
	Price     float64 `json:"price"`
	ShelfDate string  `json:"shelf_date"`
	Category  string  `json:"category,omitempty"`
}

// AcceptBatch stocks a delivered batch: it becomes Accepted, gets its
// retail price, shelf date and a derived expiry date.
func (h *RetailerHandler) AcceptBatch(w http.ResponseWriter, r *http.Request) {
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

	var req AcceptBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	current, err := h.store.GetBatch(id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if !h.priceWithinRange(w, r, user.UserID, current, req.Price) {
		return
	}

	batch, err := h.store.AcceptBatch(r.Context(), id, req.Price, req.ShelfDate, req.Category)
	if err != nil && batch == nil {
		writeStoreError(w, err)
		return
	}
	if err != nil {
		log.Printf("Warning: acceptance of batch %d applied but not persisted: %v", id, err)
	}

	h.ledger.Record(chain.EventRetailerPrice, batch.BatchCode, map[string]string{
		"price":       fmt.Sprintf("%.2f", req.Price),
		"shelf_date":  batch.ShelfDate,
		"expiry_date": batch.ExpiryDate,
	})
	logAuditEvent(user.UserID, "BATCH_ACCEPTED", fmt.Sprintf("Batch %s accepted at price %.2f", batch.BatchCode, req.Price))

	writeJSON(w, http.StatusOK, batch)
}

type UpdatePriceRequest struct {
	Price float64 `json:"price"`
}

// UpdatePrice changes the retail price of a stocked batch.
func (h *RetailerHandler) UpdatePrice(w http.ResponseWriter, r *http.Request) {
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

	var req UpdatePriceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	current, err := h.store.GetBatch(id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if !h.priceWithinRange(w, r, user.UserID, current, req.Price) {
		return
	}

	batch, err := h.store.SetPrice(r.Context(), id, req.Price)
	if err != nil && batch == nil {
		writeStoreError(w, err)
		return
	}
	if err != nil {
		log.Printf("Warning: price change for batch %d applied but not persisted: %v", id, err)
	}

	h.ledger.Record(chain.EventRetailerPrice, batch.BatchCode, map[string]string{
		"price": fmt.Sprintf("%.2f", req.Price),
	})
	logAuditEvent(user.UserID, "PRICE_UPDATE", fmt.Sprintf("Batch %s priced at %.2f", batch.BatchCode, req.Price))

	writeJSON(w, http.StatusOK, batch)
}

type ApplyDiscountRequest struct {
	DiscountPercent float64 `json:"discount_percent"`
}

// ApplyDiscount sets a percentage markdown on a stocked batch.
func (h *RetailerHandler) ApplyDiscount(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, "Invalid batch id", http.StatusBadRequest)
		return
	}

	var req ApplyDiscountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	batch, err := h.store.ApplyDiscount(r.Context(), id, req.DiscountPercent)
	if err != nil && batch == nil {
		writeStoreError(w, err)
		return
	}
	if err != nil {
		log.Printf("Warning: discount for batch %d applied but not persisted: %v", id, err)
	}

	writeJSON(w, http.StatusOK, batch)
}

// Analytics summarizes the shop: stock totals plus the latest arrivals.
func (h *RetailerHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	accepted := h.store.ListBatchesByStatus(models.StatusAccepted)
	incoming := h.store.ListBatchesByStatus(
		models.StatusInTransit,
		models.StatusAtWarehouse,
		models.StatusDeliveredToRetailer,
	)

	var totalQuantity, totalValue float64
	for _, b := range accepted {
		totalQuantity += b.Quantity
		if fp := b.FinalPrice(); fp != nil {
			totalValue += *fp * b.Quantity
		}
	}

	recent := accepted
	if len(recent) > 10 {
		recent = recent[:10]
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"accepted_count": len(accepted),
		"incoming_count": len(incoming),
		"total_quantity": totalQuantity,
		"stock_value":    totalValue,
		"recent_batches": recent,
	})
}

// StockByCategory aggregates accepted stock per crop category.
func (h *RetailerHandler) StockByCategory(w http.ResponseWriter, r *http.Request) {
	accepted := h.store.ListBatchesByStatus(models.StatusAccepted)

	stock := make(map[string]float64)
	for _, b := range accepted {
		key := b.Category
		if key == "" {
			key = b.CropName
		}
		stock[key] += b.Quantity
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"categories": stock,
	})
}

// priceWithinRange enforces the per-crop price band. An out-of-band
// price raises a price_spike alert for the retailer and writes a 400
// response; the caller stops handling when false is returned.
func (h *RetailerHandler) priceWithinRange(w http.ResponseWriter, r *http.Request, userID string, batch *models.Batch, price float64) bool {
	band, known := priceRanges[batch.CropName]
	if !known {
		return true
	}
	if price >= band[0] && price <= band[1] {
		return true
	}

	msg := fmt.Sprintf("Price %.2f for %s (batch %s) is outside the expected %.0f-%.0f range",
		price, batch.CropName, batch.BatchCode, band[0], band[1])
	if _, err := h.store.CreateAlert(r.Context(), userID, batch.ID, models.AlertPriceSpike, msg); err != nil {
		log.Printf("Warning: failed to record price alert for batch %d: %v", batch.ID, err)
	}

	writeError(w, msg, http.StatusBadRequest)
	return false
}
