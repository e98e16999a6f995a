package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/rupaykg/exchange/internal/auth"
	"github.com/rupaykg/exchange/internal/ledger"
	"github.com/rupaykg/exchange/internal/middleware"
	"github.com/rupaykg/exchange/internal/user"
	"github.com/rupaykg/exchange/internal/validate"
)

// RegisterRequest represents the request body for POST /auth/register.
type RegisterRequest struct {
	Phone    string `json:"phone"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Role     string `json:"role"`
	District string `json:"district,omitempty"`
	State    string `json:"state,omitempty"`
	OrgName  string `json:"org_name,omitempty"`
}

// LoginRequest represents the request body for POST /auth/login.
type LoginRequest struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// AuthResponse is returned by both register and login.
type AuthResponse struct {
	Token string     `json:"token"`
	User  *user.User `json:"user"`
}

// AuthHandlers holds dependencies for authentication HTTP handlers.
type AuthHandlers struct {
	users user.Repository
	svc   *ledger.Service
	jwt   *auth.JWTService
}

// NewAuthHandlers creates a new AuthHandlers instance.
func NewAuthHandlers(users user.Repository, svc *ledger.Service, jwt *auth.JWTService) *AuthHandlers {
	return &AuthHandlers{users: users, svc: svc, jwt: jwt}
}

// Register handles POST /auth/register. It creates the actor account with a
// zero-balance wallet and returns a signed token so the client can proceed
// without a separate login round trip.
func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON in request body")
		return
	}

	phone, err := validate.Phone(req.Phone)
	if err != nil {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, "invalid phone number")
		return
	}
	name, err := validate.PersonName(req.Name)
	if err != nil {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, "invalid name")
		return
	}
	if req.Password == "" {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, "password is required")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to hash password", "error", err)
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Failed to register")
		return
	}

	u := &user.User{
		Phone:        phone,
		Name:         name,
		Role:         user.Role(req.Role),
		District:     req.District,
		State:        req.State,
		OrgName:      req.OrgName,
		PasswordHash: hash,
	}

	if err := h.svc.RegisterUser(r.Context(), u); err != nil {
		WriteServiceError(w, r, err)
		return
	}

	token, err := h.jwt.GenerateToken(u)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to generate token", "error", err, "user_id", u.ID)
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Failed to generate token")
		return
	}

	writeJSON(w, r.Context(), http.StatusCreated, AuthResponse{Token: token, User: u})
}

// Login handles POST /auth/login. Failed lookups and wrong passwords return
// the same message so the endpoint does not leak which phone numbers exist.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON in request body")
		return
	}

	u, err := h.users.GetByPhone(strings.TrimSpace(req.Phone))
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			WriteError(w, r.Context(), http.StatusUnauthorized, ErrCodeAuthFailed, "Invalid phone or password")
			return
		}
		slog.ErrorContext(r.Context(), "failed to look up user", "error", err)
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Failed to log in")
		return
	}

	if !auth.CheckPassword(u.PasswordHash, req.Password) {
		WriteError(w, r.Context(), http.StatusUnauthorized, ErrCodeAuthFailed, "Invalid phone or password")
		return
	}

	token, err := h.jwt.GenerateToken(u)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to generate token", "error", err, "user_id", u.ID)
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Failed to generate token")
		return
	}

	writeJSON(w, r.Context(), http.StatusOK, AuthResponse{Token: token, User: u})
}

// Me handles GET /me. It returns the authenticated caller's profile.
func (h *AuthHandlers) Me(w http.ResponseWriter, r *http.Request) {
	caller := middleware.GetCaller(r.Context())
	if caller.ID == "" {
		WriteError(w, r.Context(), http.StatusUnauthorized, ErrCodeAuthFailed, "Authentication required")
		return
	}

	u, err := h.users.GetByID(caller.ID)
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	writeJSON(w, r.Context(), http.StatusOK, u)
}
