package handlers

import (
	"net/http"
	"strconv"

	"farmtrace/chain"
	"farmtrace/db"
	"farmtrace/models"
)

type ConsumerHandler struct {
	store  *db.FileStore
	ledger *chain.Ledger
}

func NewConsumerHandler(store *db.FileStore, ledger *chain.Ledger) *ConsumerHandler {
	return &ConsumerHandler{
		store:  store,
		ledger: ledger,
	}
}

// Product is the consumer-facing view of a batch.
type Product struct {
	ID         int64              `json:"id"`
	BatchCode  string             `json:"batch_code"`
	CropName   string             `json:"crop_name"`
	Category   string             `json:"category,omitempty"`
	ImageURL   string             `json:"image_url"`
	Status     models.BatchStatus `json:"status"`
	Price      *float64           `json:"price,omitempty"`
	FinalPrice *float64           `json:"final_price,omitempty"`
	Discount   float64            `json:"discount_percent,omitempty"`
	ExpiryDate string             `json:"expiry_date,omitempty"`
}

func productView(b *models.Batch) Product {
	return Product{
		ID:         b.ID,
		BatchCode:  b.BatchCode,
		CropName:   b.CropName,
		Category:   b.Category,
		ImageURL:   b.ImageURL,
		Status:     b.Status,
		Price:      b.Price,
		FinalPrice: b.FinalPrice(),
		Discount:   b.DiscountPercent,
		ExpiryDate: b.ExpiryDate,
	}
}

// ListProducts shows every batch that has left the farm. Batches still
// in Created are not visible to consumers.
func (h *ConsumerHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	batches := h.store.ListBatchesByStatus(
		models.StatusInTransit,
		models.StatusAtWarehouse,
		models.StatusDeliveredToRetailer,
		models.StatusAccepted,
		models.StatusDelayed,
	)

	products := make([]Product, 0, len(batches))
	for _, b := range batches {
		products = append(products, productView(b))
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"products": products,
		"count":    len(products),
	})
}

// PriceBreakdown explains how the shelf price was formed.
type PriceBreakdown struct {
	RetailPrice     *float64 `json:"retail_price,omitempty"`
	DiscountPercent float64  `json:"discount_percent,omitempty"`
	FinalPrice      *float64 `json:"final_price,omitempty"`
}

// ProductDetail returns the full provenance view of one product.
func (h *ConsumerHandler) ProductDetail(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, "Invalid product id", http.StatusBadRequest)
		return
	}

	batch, err := h.store.GetBatch(id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if batch.Status == models.StatusCreated {
		writeError(w, "Product not available yet", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"product": productView(batch),
		"batch":   batch,
		"price_breakdown": PriceBreakdown{
			RetailPrice:     batch.Price,
			DiscountPercent: batch.DiscountPercent,
			FinalPrice:      batch.FinalPrice(),
		},
		"trace": h.ledger.BlocksForBatch(batch.BatchCode),
	})
}

// QRData returns the payload a client encodes into the product QR code.
func (h *ConsumerHandler) QRData(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, "Invalid product id", http.StatusBadRequest)
		return
	}

	batch, err := h.store.GetBatch(id)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"batch_code":       batch.BatchCode,
		"crop_name":        batch.CropName,
		"harvest_date":     batch.HarvestDate,
		"final_price":      batch.FinalPrice(),
		"verification_url": h.ledger.VerificationURL(batch.BatchCode),
	})
}
