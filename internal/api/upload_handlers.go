package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/rupaykg/exchange/internal/upload"
)

// SignUploadRequest represents the request body for POST /uploads/sign.
type SignUploadRequest struct {
	ContentType string  `json:"content_type"`
	SizeBytes   int64   `json:"size_bytes"`
	RecordID    *string `json:"record_id,omitempty"`
}

// SignUploadResponse represents the response for POST /uploads/sign.
type SignUploadResponse struct {
	URL       string `json:"url"`
	Key       string `json:"key"`
	ExpiresAt string `json:"expires_at"` // RFC 3339
}

// UploadHandlers holds dependencies for evidence upload HTTP handlers.
type UploadHandlers struct {
	uploadService *upload.Service
}

// NewUploadHandlers creates a new UploadHandlers instance.
func NewUploadHandlers(uploadService *upload.Service) *UploadHandlers {
	return &UploadHandlers{uploadService: uploadService}
}

// SignUpload handles POST /uploads/sign - generates a pre-signed PUT URL for
// an evidence photo.
func (h *UploadHandlers) SignUpload(w http.ResponseWriter, r *http.Request) {
	var req SignUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON in request body")
		return
	}

	if req.ContentType == "" {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, "content_type is required")
		return
	}
	if req.SizeBytes <= 0 {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, "size_bytes must be positive")
		return
	}

	signedURL, err := h.uploadService.GenerateSignedURL(r.Context(), upload.SignedURLRequest{
		ContentType: req.ContentType,
		SizeBytes:   req.SizeBytes,
		RecordID:    req.RecordID,
	})
	if err != nil {
		switch err {
		case upload.ErrUnsupportedType:
			WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeUnsupportedType,
				"Unsupported content type. Allowed types: image/jpeg, image/png")
		case upload.ErrFileTooLarge:
			WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, "File size exceeds maximum allowed")
		case upload.ErrInvalidRecordID:
			WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, "Invalid record ID")
		default:
			slog.ErrorContext(r.Context(), "failed to generate signed URL", "error", err)
			WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Failed to generate signed URL")
		}
		return
	}

	writeJSON(w, r.Context(), http.StatusOK, SignUploadResponse{
		URL:       signedURL.URL,
		Key:       signedURL.Key,
		ExpiresAt: signedURL.ExpiresAt.Format(time.RFC3339),
	})
}
