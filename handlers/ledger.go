package handlers

import (
	"net/http"

	"farmtrace/chain"
)

type LedgerHandler struct {
	ledger *chain.Ledger
}

func NewLedgerHandler(ledger *chain.Ledger) *LedgerHandler {
	return &LedgerHandler{ledger: ledger}
}

// Blocks serves the public trace feed. With ?batch_code= it narrows to
// one batch's history, oldest first; otherwise the whole feed, newest
// first, together with a chain integrity flag.
func (h *LedgerHandler) Blocks(w http.ResponseWriter, r *http.Request) {
	if code := r.URL.Query().Get("batch_code"); code != "" {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"batch_code": code,
			"blocks":     h.ledger.BlocksForBatch(code),
			"verified":   h.ledger.Verify(),
		})
		return
	}

	blocks := h.ledger.Blocks()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"blocks":   blocks,
		"count":    len(blocks),
		"verified": h.ledger.Verify(),
	})
}
