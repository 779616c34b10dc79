package handlers

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	"farmtrace/db"
	"farmtrace/middleware"
)

type ExportHandler struct {
	store *db.FileStore
}

func NewExportHandler(store *db.FileStore) *ExportHandler {
	return &ExportHandler{store: store}
}

// Batches streams the full batch collection as a CSV download.
func (h *ExportHandler) Batches(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, "User not found in context", http.StatusUnauthorized)
		return
	}

	filename := fmt.Sprintf("batches_%s.csv", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)

	cw := csv.NewWriter(w)
	cw.Write([]string{"BatchCode", "Crop", "Category", "Quantity", "Unit", "Status", "HarvestDate", "Price", "DiscountPercent", "ExpiryDate", "CreatedAt"})

	for _, b := range h.store.ListBatches() {
		price := ""
		if b.Price != nil {
			price = fmt.Sprintf("%.2f", *b.Price)
		}
		cw.Write([]string{
			b.BatchCode,
			b.CropName,
			b.Category,
			fmt.Sprintf("%.2f", b.Quantity),
			b.Unit,
			string(b.Status),
			b.HarvestDate,
			price,
			fmt.Sprintf("%.1f", b.DiscountPercent),
			b.ExpiryDate,
			b.CreatedAt.Format(time.RFC3339),
		})
	}
	cw.Flush()

	logAuditEvent(user.UserID, "DATA_EXPORT", "Exported batch collection as CSV")
}
