package api

import (
	"net/http/httptest"
	"testing"
)

// TestOriginChecker_Policy tests the websocket origin policy: allowlisted
// origins pass, same-host origins pass, everything else is refused.
func TestOriginChecker_Policy(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		host    string
		want    bool
	}{
		{"no origin header", nil, "", "api.example.kg", true},
		{"same host", nil, "https://api.example.kg", "api.example.kg", true},
		{"same host case insensitive", nil, "https://API.Example.KG", "api.example.kg", true},
		{"cross origin without allowlist", nil, "https://evil.example.com", "api.example.kg", false},
		{"allowlisted origin", []string{"https://dashboard.example.kg"}, "https://dashboard.example.kg", "api.example.kg", true},
		{"allowlisted origin case insensitive", []string{"https://Dashboard.Example.KG"}, "https://dashboard.example.kg", "api.example.kg", true},
		{"not on allowlist", []string{"https://dashboard.example.kg"}, "https://evil.example.com", "api.example.kg", false},
		{"allowlist keeps same host working", []string{"https://dashboard.example.kg"}, "https://api.example.kg", "api.example.kg", true},
		{"unparseable origin", nil, "://bad", "api.example.kg", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check := originChecker(tt.allowed)

			req := httptest.NewRequest("GET", "/audit-logs/live", nil)
			req.Host = tt.host
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}

			if got := check(req); got != tt.want {
				t.Errorf("origin %q against host %q = %v, want %v", tt.origin, tt.host, got, tt.want)
			}
		})
	}
}
