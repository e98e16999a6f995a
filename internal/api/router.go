package api

import (
	"net/http"

	"github.com/rupaykg/exchange/internal/auth"
	"github.com/rupaykg/exchange/internal/middleware"
)

// RouterConfig holds the handlers and auth dependencies for route assembly.
// Upload may be nil when object storage is not configured; the route then
// returns 503.
type RouterConfig struct {
	Auth    *AuthHandlers
	Records *RecordHandlers
	Wallet  *WalletHandlers
	Audit   *AuditHandlers
	Upload  *UploadHandlers
	Health  *HealthHandlers

	JWT *auth.JWTService

	// MetricsHandler serves GET /metrics. Optional.
	MetricsHandler http.Handler

	// RateLimitStore backs the tighter per-IP limit on the auth endpoints.
	// Optional; when nil the auth endpoints are not separately limited.
	RateLimitStore middleware.RateLimitStore
	AuthLimit      middleware.RateLimitConfig
}

// NewRouter assembles the HTTP routes. Everything except registration, login,
// health probes, and metrics requires a valid token.
func NewRouter(cfg RouterConfig) *http.ServeMux {
	mux := http.NewServeMux()

	authed := middleware.Authenticate(cfg.JWT)

	limitAuth := func(h http.Handler) http.Handler { return h }
	if cfg.RateLimitStore != nil {
		limitAuth = middleware.RateLimiter(cfg.RateLimitStore, cfg.AuthLimit, middleware.IPKeyFunc())
	}

	// Public
	mux.Handle("POST /auth/register", limitAuth(http.HandlerFunc(cfg.Auth.Register)))
	mux.Handle("POST /auth/login", limitAuth(http.HandlerFunc(cfg.Auth.Login)))
	mux.HandleFunc("GET /health", cfg.Health.Health)
	mux.HandleFunc("GET /ready", cfg.Health.Ready)
	if cfg.MetricsHandler != nil {
		mux.Handle("GET /metrics", cfg.MetricsHandler)
	}

	// Authenticated
	mux.Handle("GET /me", authed(http.HandlerFunc(cfg.Auth.Me)))

	mux.Handle("POST /records", authed(http.HandlerFunc(cfg.Records.Submit)))
	mux.Handle("GET /records", authed(http.HandlerFunc(cfg.Records.History)))
	mux.Handle("POST /records/{id}/pickup", authed(http.HandlerFunc(cfg.Records.Pickup)))
	mux.Handle("POST /records/{id}/receipt", authed(http.HandlerFunc(cfg.Records.Receipt)))
	mux.Handle("POST /records/{id}/flag", authed(http.HandlerFunc(cfg.Records.Flag)))
	mux.Handle("POST /records/{id}/mrv", authed(http.HandlerFunc(cfg.Records.MRV)))

	mux.Handle("GET /wallet", authed(http.HandlerFunc(cfg.Wallet.Wallet)))
	mux.Handle("POST /credits/purchase", authed(http.HandlerFunc(cfg.Wallet.Purchase)))

	mux.Handle("GET /audit-logs", authed(http.HandlerFunc(cfg.Audit.AuditLog)))
	mux.Handle("GET /audit-logs/live", authed(http.HandlerFunc(cfg.Audit.Live)))
	mux.Handle("GET /dashboard", authed(http.HandlerFunc(cfg.Audit.Dashboard)))

	if cfg.Upload != nil {
		mux.Handle("POST /uploads/sign", authed(http.HandlerFunc(cfg.Upload.SignUpload)))
	} else {
		mux.Handle("POST /uploads/sign", authed(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			WriteError(w, r.Context(), http.StatusServiceUnavailable, ErrCodeInternal, "Object storage is not configured")
		})))
	}

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			WriteError(w, r.Context(), http.StatusNotFound, ErrCodeNotFound, "The requested resource was not found")
			return
		}
		writeJSON(w, r.Context(), http.StatusOK, map[string]string{
			"service": "rupaykg-exchange",
			"version": "0.1.0",
		})
	})

	return mux
}
