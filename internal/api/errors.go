// Package api provides HTTP API utilities including standardized error handling.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/rupaykg/exchange/internal/ledger"
	"github.com/rupaykg/exchange/internal/middleware"
	"github.com/rupaykg/exchange/internal/user"
)

// Common error codes used throughout the API.
const (
	// ErrCodeValidation indicates input validation failure.
	ErrCodeValidation = "validation_error"

	// ErrCodeAuthFailed indicates authentication failure.
	ErrCodeAuthFailed = "auth_failed"

	// ErrCodeNotFound indicates the requested resource was not found.
	ErrCodeNotFound = "not_found"

	// ErrCodeForbidden indicates the caller's role may not perform the operation.
	ErrCodeForbidden = "forbidden"

	// ErrCodeInvalidState indicates the record is not in a state that permits
	// the requested transition.
	ErrCodeInvalidState = "invalid_state"

	// ErrCodeInsufficientFunds indicates a wallet debit would overdraw.
	ErrCodeInsufficientFunds = "insufficient_funds"

	// ErrCodeAlreadyIssued indicates a carbon credit already exists for the record.
	ErrCodeAlreadyIssued = "already_issued"

	// ErrCodeConflict indicates a conflict with existing state, such as a
	// duplicate phone number at registration.
	ErrCodeConflict = "conflict"

	// ErrCodeBadRequest indicates a malformed request.
	ErrCodeBadRequest = "bad_request"

	// ErrCodeRateLimited indicates rate limit exceeded.
	ErrCodeRateLimited = "rate_limited"

	// ErrCodeInternal indicates an internal server error.
	ErrCodeInternal = "internal_error"

	// ErrCodeUnsupportedType indicates an unsupported content type for upload.
	ErrCodeUnsupportedType = "unsupported_type"
)

// ErrorResponse represents the standard error response format.
// All API errors return JSON in this structure: {"error": {"code": "...", "message": "..."}}
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains the error code and human-readable message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteError writes a standardized JSON error response.
// It writes the appropriate HTTP status code and returns a JSON error body.
//
// Format: {"error": {"code": "error_code", "message": "Error description"}}
//
// The error_code will be automatically logged by the logging middleware
// for all 4xx and 5xx responses; WriteError pushes the updated context back
// through the response writer chain so the middleware can see it.
func WriteError(w http.ResponseWriter, ctx context.Context, status int, code, message string) {
	ctx = middleware.SetErrorCode(ctx, code)
	middleware.UpdateResponseContext(w, ctx)

	errResp := ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	}

	data, err := json.Marshal(errResp)
	if err != nil {
		// Fallback to plain text if JSON marshaling fails
		slog.ErrorContext(ctx, "failed to marshal error response", "error", err)
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("Internal server error"))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		slog.ErrorContext(ctx, "failed to write error response", "error", err)
	}
}

// StatusCodeMapping returns the recommended HTTP status code for common error codes.
func StatusCodeMapping(code string) int {
	switch code {
	case ErrCodeValidation, ErrCodeBadRequest, ErrCodeUnsupportedType:
		return http.StatusBadRequest
	case ErrCodeAuthFailed:
		return http.StatusUnauthorized
	case ErrCodeInsufficientFunds:
		return http.StatusPaymentRequired
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeInvalidState, ErrCodeAlreadyIssued, ErrCodeConflict:
		return http.StatusConflict
	case ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case ErrCodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// WriteServiceError translates an error from the settlement core into the
// standard error envelope. Unrecognized errors become 500s and are logged;
// their message is not echoed back to the client.
func WriteServiceError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()

	var code string
	switch {
	case errors.Is(err, ledger.ErrValidation):
		code = ErrCodeValidation
	case errors.Is(err, ledger.ErrForbidden):
		code = ErrCodeForbidden
	case errors.Is(err, ledger.ErrNotFound), errors.Is(err, user.ErrUserNotFound):
		code = ErrCodeNotFound
	case errors.Is(err, ledger.ErrInvalidState):
		code = ErrCodeInvalidState
	case errors.Is(err, ledger.ErrInsufficientFunds):
		code = ErrCodeInsufficientFunds
	case errors.Is(err, ledger.ErrAlreadyIssued):
		code = ErrCodeAlreadyIssued
	case errors.Is(err, user.ErrPhoneExists):
		code = ErrCodeConflict
	default:
		slog.ErrorContext(ctx, "unexpected service error",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path,
		)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Internal server error")
		return
	}

	WriteError(w, ctx, StatusCodeMapping(code), code, err.Error())
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, ctx context.Context, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.ErrorContext(ctx, "failed to encode response", "error", err)
	}
}
