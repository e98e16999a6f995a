package api

import (
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/rupaykg/exchange/internal/audit"
	"github.com/rupaykg/exchange/internal/ledger"
	"github.com/rupaykg/exchange/internal/middleware"
)

// originChecker builds the websocket origin policy. Origins on the allowlist
// may connect from anywhere; with no allowlist only same-host browser clients
// pass. Requests without an Origin header are non-browser clients and are
// admitted, matching the library default.
func originChecker(allowedOrigins []string) func(*http.Request) bool {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if trimmed := strings.TrimSpace(o); trimmed != "" {
			allowed[strings.ToLower(trimmed)] = true
		}
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if allowed[strings.ToLower(origin)] {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return strings.EqualFold(u.Host, r.Host)
	}
}

// AuditLogResponse represents the JSON response for GET /audit-logs.
type AuditLogResponse struct {
	Entries []*audit.Entry `json:"entries"`
	Count   int            `json:"count"`
}

// AuditHandlers holds dependencies for audit trail HTTP handlers.
type AuditHandlers struct {
	svc         *ledger.Service
	broadcaster *audit.Broadcaster
	upgrader    websocket.Upgrader
}

// NewAuditHandlers creates a new AuditHandlers instance. allowedOrigins lists
// the dashboard origins admitted to the live audit stream in addition to
// same-host clients.
func NewAuditHandlers(svc *ledger.Service, broadcaster *audit.Broadcaster, allowedOrigins []string) *AuditHandlers {
	return &AuditHandlers{
		svc:         svc,
		broadcaster: broadcaster,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

// AuditLog handles GET /audit-logs - returns recent audit entries, newest
// first. Access is gated by the capability table.
func (h *AuditHandlers) AuditLog(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, "Invalid limit parameter")
			return
		}
		limit = parsed
	}

	entries, err := h.svc.GetAuditLog(r.Context(), callerFrom(r), limit)
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	writeJSON(w, r.Context(), http.StatusOK, AuditLogResponse{Entries: entries, Count: len(entries)})
}

// Live handles GET /audit-logs/live - upgrades to a WebSocket and streams
// audit entries as they are appended. The same roles that may read the audit
// log may subscribe to the live feed.
func (h *AuditHandlers) Live(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := callerFrom(r)

	if !ledger.Allowed(caller.Role, ledger.OpAuditLog) {
		WriteError(w, ctx, http.StatusForbidden, ErrCodeForbidden, "Role may not subscribe to the audit stream")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.ErrorContext(ctx, "failed to upgrade websocket connection", "error", err)
		return
	}

	h.broadcaster.Subscribe(conn)

	requestID := middleware.GetRequestID(ctx)
	slog.InfoContext(ctx, "websocket client subscribed to audit stream",
		"caller_id", caller.ID,
		"request_id", requestID,
	)

	defer func() {
		h.broadcaster.Unsubscribe(conn)
		conn.Close()
		slog.InfoContext(ctx, "websocket client unsubscribed from audit stream",
			"caller_id", caller.ID,
			"request_id", requestID,
		)
	}()

	// Clients do not send messages; reading detects disconnection.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.WarnContext(ctx, "websocket connection closed unexpectedly",
					"error", err,
					"caller_id", caller.ID,
				)
			}
			break
		}
	}
}

// Dashboard handles GET /dashboard - aggregate counters for oversight roles.
func (h *AuditHandlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Dashboard(r.Context(), callerFrom(r))
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	writeJSON(w, r.Context(), http.StatusOK, stats)
}
