package api

import (
	"encoding/json"
	"net/http"

	"github.com/rupaykg/exchange/internal/ledger"
)

// PurchaseRequest represents the request body for POST /credits/purchase.
type PurchaseRequest struct {
	RecordIDs []string `json:"record_ids"`
}

// WalletHandlers holds dependencies for wallet and credit purchase handlers.
type WalletHandlers struct {
	svc *ledger.Service
}

// NewWalletHandlers creates a new WalletHandlers instance.
func NewWalletHandlers(svc *ledger.Service) *WalletHandlers {
	return &WalletHandlers{svc: svc}
}

// Wallet handles GET /wallet - returns the caller's balance and carbon holdings.
func (h *WalletHandlers) Wallet(w http.ResponseWriter, r *http.Request) {
	account, err := h.svc.GetWallet(r.Context(), callerFrom(r))
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	writeJSON(w, r.Context(), http.StatusOK, account)
}

// Purchase handles POST /credits/purchase - a partner buys verified credits.
func (h *WalletHandlers) Purchase(w http.ResponseWriter, r *http.Request) {
	var req PurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON in request body")
		return
	}

	result, err := h.svc.PurchaseCredits(r.Context(), callerFrom(r), req.RecordIDs)
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	writeJSON(w, r.Context(), http.StatusOK, result)
}
