package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rupaykg/exchange/internal/idempotency"
)

// IdempotencyKeyHeader is the HTTP header clients use to supply an
// idempotency key.
const IdempotencyKeyHeader = "Idempotency-Key"

// idempotencyKeyCtx is the context key for the validated idempotency key.
type idempotencyKeyCtx struct{}

// SetIdempotencyKey stores the validated idempotency key in the context.
func SetIdempotencyKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, idempotencyKeyCtx{}, key)
}

// GetIdempotencyKey retrieves the idempotency key from context. Returns an
// empty string if not present.
func GetIdempotencyKey(ctx context.Context) string {
	if key, ok := ctx.Value(idempotencyKeyCtx{}).(string); ok {
		return key
	}
	return ""
}

// idempotencyResponseWriter captures the response so it can be cached and
// replayed for duplicate requests.
type idempotencyResponseWriter struct {
	http.ResponseWriter
	statusCode  int
	body        bytes.Buffer
	wroteHeader bool
}

func (rw *idempotencyResponseWriter) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}
	rw.statusCode = code
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *idempotencyResponseWriter) Write(b []byte) (int, error) {
	rw.body.Write(b)
	return rw.ResponseWriter.Write(b)
}

// Unwrap exposes the underlying writer so UpdateResponseContext can walk
// through to the logging writer.
func (rw *idempotencyResponseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// writeIdempotencyError writes a JSON error envelope matching the API error
// format without importing the api package, which would cycle.
func writeIdempotencyError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	UpdateResponseContext(w, SetErrorCode(r.Context(), code))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}

// Idempotency enforces idempotency keys on the configured POST routes. A
// request with a key that was already processed gets the cached response back
// instead of being executed again. Only 2xx responses are cached, so clients
// can retry failed requests with the same key.
func Idempotency(repo idempotency.Repository, routes map[string]bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost || !routes[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			key := r.Header.Get(IdempotencyKeyHeader)
			if key == "" {
				writeIdempotencyError(w, r, http.StatusBadRequest, "validation_error",
					"Idempotency-Key header is required for this operation")
				return
			}
			if err := idempotency.ValidateKey(key); err != nil {
				writeIdempotencyError(w, r, http.StatusBadRequest, "validation_error",
					"Invalid Idempotency-Key header")
				return
			}

			if cached, err := repo.Get(key); err == nil {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("X-Idempotency-Replayed", "true")
				w.WriteHeader(cached.ResponseStatusCode)
				w.Write([]byte(cached.ResponseBody))
				return
			}

			rw := &idempotencyResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(rw, r.WithContext(SetIdempotencyKey(r.Context(), key)))

			if rw.statusCode < 200 || rw.statusCode >= 300 {
				return
			}

			body := rw.body.String()
			record := &idempotency.Record{
				Key:                key,
				Method:             r.Method,
				Route:              r.URL.Path,
				CreatedAt:          time.Now(),
				ResponseHash:       idempotency.ComputeResponseHash(body),
				ResponseBody:       body,
				ResponseStatusCode: rw.statusCode,
			}
			// A concurrent duplicate may have stored the key first. The
			// stored response wins; this one was already sent.
			_ = repo.Store(record)
		})
	}
}
