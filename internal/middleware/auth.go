package middleware

import (
	"net/http"
	"strings"

	"github.com/rupaykg/exchange/internal/auth"
)

// Authenticate is a middleware that validates the Bearer token and stores the
// caller identity in the request context. Requests without a valid token get
// 401; downstream role checks belong to the ledger capability table, not
// here.
func Authenticate(jwtService *auth.JWTService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" || !strings.HasPrefix(header, "Bearer ") {
				ctx := SetErrorCode(r.Context(), "unauthorized")
				r = r.WithContext(ctx)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			token := strings.TrimPrefix(header, "Bearer ")
			claims, err := jwtService.ValidateToken(token)
			if err != nil {
				ctx := SetErrorCode(r.Context(), "invalid_token")
				r = r.WithContext(ctx)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := SetCaller(r.Context(), CallerInfo{
				ID:   claims.Subject,
				Role: string(claims.Role),
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
