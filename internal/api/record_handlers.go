package api

import (
	"encoding/json"
	"net/http"

	"github.com/rupaykg/exchange/internal/ledger"
	"github.com/rupaykg/exchange/internal/middleware"
	"github.com/rupaykg/exchange/internal/user"
)

// callerFrom converts the authenticated caller in the request context into
// the identity the settlement core authorizes against.
func callerFrom(r *http.Request) ledger.Caller {
	c := middleware.GetCaller(r.Context())
	return ledger.Caller{ID: c.ID, Role: user.Role(c.Role)}
}

// FlagRequest represents the request body for POST /records/{id}/flag.
type FlagRequest struct {
	Reason string `json:"reason"`
}

// MRVRequest represents the request body for POST /records/{id}/mrv.
type MRVRequest struct {
	Decision string `json:"decision"`
}

// RecordHandlers holds dependencies for waste record HTTP handlers.
type RecordHandlers struct {
	svc *ledger.Service
}

// NewRecordHandlers creates a new RecordHandlers instance.
func NewRecordHandlers(svc *ledger.Service) *RecordHandlers {
	return &RecordHandlers{svc: svc}
}

// Submit handles POST /records - records a new waste submission.
func (h *RecordHandlers) Submit(w http.ResponseWriter, r *http.Request) {
	var in ledger.SubmitInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON in request body")
		return
	}

	result, err := h.svc.Submit(r.Context(), callerFrom(r), in)
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	writeJSON(w, r.Context(), http.StatusCreated, result)
}

// Pickup handles POST /records/{id}/pickup - aggregator collects the biomass.
func (h *RecordHandlers) Pickup(w http.ResponseWriter, r *http.Request) {
	recordID := r.PathValue("id")
	if recordID == "" {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeBadRequest, "Record ID is required")
		return
	}

	rec, err := h.svc.Pickup(r.Context(), callerFrom(r), recordID)
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	writeJSON(w, r.Context(), http.StatusOK, rec)
}

// Receipt handles POST /records/{id}/receipt - processor confirms receipt and
// the funding rails are debited.
func (h *RecordHandlers) Receipt(w http.ResponseWriter, r *http.Request) {
	recordID := r.PathValue("id")
	if recordID == "" {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeBadRequest, "Record ID is required")
		return
	}

	result, err := h.svc.Receipt(r.Context(), callerFrom(r), recordID)
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	writeJSON(w, r.Context(), http.StatusOK, result)
}

// Flag handles POST /records/{id}/flag - regulator routes a record to review.
func (h *RecordHandlers) Flag(w http.ResponseWriter, r *http.Request) {
	recordID := r.PathValue("id")
	if recordID == "" {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeBadRequest, "Record ID is required")
		return
	}

	var req FlagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON in request body")
		return
	}

	rec, err := h.svc.Flag(r.Context(), callerFrom(r), recordID, req.Reason)
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	writeJSON(w, r.Context(), http.StatusOK, rec)
}

// MRV handles POST /records/{id}/mrv - verifier decides a processed record.
func (h *RecordHandlers) MRV(w http.ResponseWriter, r *http.Request) {
	recordID := r.PathValue("id")
	if recordID == "" {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeBadRequest, "Record ID is required")
		return
	}

	var req MRVRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON in request body")
		return
	}

	result, err := h.svc.MRVVerify(r.Context(), callerFrom(r), recordID, req.Decision)
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	writeJSON(w, r.Context(), http.StatusOK, result)
}

// HistoryResponse represents the JSON response for GET /records.
type HistoryResponse struct {
	Records []*ledger.WasteRecord `json:"records"`
	Count   int                   `json:"count"`
}

// History handles GET /records - lists records visible to the caller,
// optionally filtered by query parameters.
func (h *RecordHandlers) History(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ledger.RecordFilter{
		CitizenID: q.Get("citizen_id"),
		Status:    ledger.Status(q.Get("status")),
		MRVStatus: ledger.MRVStatus(q.Get("mrv_status")),
		WasteType: q.Get("waste_type"),
	}

	records, err := h.svc.GetHistory(r.Context(), callerFrom(r), filter)
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	writeJSON(w, r.Context(), http.StatusOK, HistoryResponse{Records: records, Count: len(records)})
}
