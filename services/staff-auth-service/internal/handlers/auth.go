package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/md-rashed-zaman/staffportal/libs/auth"
	"github.com/md-rashed-zaman/staffportal/libs/httpx"
	"github.com/md-rashed-zaman/staffportal/services/staff-auth-service/internal/audit"
	"github.com/md-rashed-zaman/staffportal/services/staff-auth-service/internal/storage"
	"golang.org/x/crypto/bcrypt"
)

type UserStore interface {
	GetByEmail(ctx context.Context, email string) (storage.User, error)
	GetByID(ctx context.Context, id string) (storage.User, error)
}

type AuditLog interface {
	Record(ctx context.Context, action, actorID string, metadata map[string]any) error
	RecordWithOutbox(ctx context.Context, action, eventType, actorID string, metadata map[string]any) error
	ListRecent(ctx context.Context, limit int) ([]audit.Event, error)
}

type AuthHandler struct {
	signer *Signer
	users  UserStore
	audit  AuditLog
	logger *slog.Logger
}

func NewAuthHandler(signer *Signer, users UserStore, auditLog AuditLog, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{signer: signer, users: users, audit: auditLog, logger: logger}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userView struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type loginResponse struct {
	Token   string   `json:"token"`
	User    userView `json:"user"`
	Message string   `json:"message"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type meResponse struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   string `json:"role"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteJSON(w, http.StatusBadRequest, messageResponse{Message: "Email and password are required"})
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		httpx.WriteJSON(w, http.StatusBadRequest, messageResponse{Message: "Email and password are required"})
		return
	}

	ctx := r.Context()
	user, err := h.users.GetByEmail(ctx, req.Email)
	if err != nil && !storage.IsNotFound(err) {
		h.logger.Error("staff lookup failed", "err", err)
		httpx.WriteJSON(w, http.StatusInternalServerError, errorResponse{Error: "Login failed"})
		return
	}
	if err != nil || !user.IsActive || !verifyPassword(user.PasswordHash, req.Password) {
		h.recordFailure(ctx, r, req.Email)
		httpx.WriteJSON(w, http.StatusUnauthorized, messageResponse{Message: "Invalid credentials"})
		return
	}

	token, err := h.signer.Issue(user)
	if err != nil {
		h.logger.Error("token signing failed", "err", err)
		httpx.WriteJSON(w, http.StatusInternalServerError, errorResponse{Error: "Login failed"})
		return
	}

	if err := h.audit.RecordWithOutbox(ctx, audit.ActionLogin, audit.EventLogin, user.ID, map[string]any{
		"email":      user.Email,
		"role":       user.Role,
		"ip_address": httpx.ClientIP(r),
		"user_agent": r.UserAgent(),
	}); err != nil {
		h.logger.Warn("login audit not recorded", "user_id", user.ID, "err", err)
	}
	httpx.Annotate(ctx, "user_id", user.ID, "role", user.Role)

	httpx.WriteJSON(w, http.StatusOK, loginResponse{
		Token: token,
		User: userView{
			ID:    user.ID,
			Name:  user.Name,
			Email: user.Email,
			Role:  user.Role,
		},
		Message: "Staff login successful!",
	})
}

func (h *AuthHandler) recordFailure(ctx context.Context, r *http.Request, email string) {
	err := h.audit.Record(ctx, audit.ActionLoginFailed, "", map[string]any{
		"email":      email,
		"ip_address": httpx.ClientIP(r),
		"user_agent": r.UserAgent(),
	})
	if err != nil {
		h.logger.Warn("failed login not audited", "err", err)
	}
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	httpx.WriteJSON(w, http.StatusOK, meResponse{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
		Role:   user.Role,
	})
}

// Audit lists recent audit events. Admin only.
func (h *AuthHandler) Audit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	if user.Role != "admin" {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	events, err := h.audit.ListRecent(r.Context(), limit)
	if err != nil {
		h.logger.Error("audit list failed", "err", err)
		http.Error(w, "failed to load audit events", http.StatusInternalServerError)
		return
	}
	if events == nil {
		events = []audit.Event{}
	}
	httpx.WriteJSON(w, http.StatusOK, events)
}

// currentUser verifies the bearer token and reloads its subject, so a
// deactivated or deleted account loses access before its token expires.
// Name and role come from the store, not the token.
func (h *AuthHandler) currentUser(w http.ResponseWriter, r *http.Request) (storage.User, bool) {
	token, ok := auth.BearerToken(r)
	if !ok {
		http.Error(w, "missing or invalid Authorization header", http.StatusUnauthorized)
		return storage.User{}, false
	}
	claims, err := h.signer.Verify(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return storage.User{}, false
	}
	user, err := h.users.GetByID(r.Context(), claims.Sub)
	switch {
	case storage.IsNotFound(err):
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return storage.User{}, false
	case err != nil:
		h.logger.Error("staff lookup failed", "user_id", claims.Sub, "err", err)
		http.Error(w, "failed to load user", http.StatusInternalServerError)
		return storage.User{}, false
	case !user.IsActive:
		http.Error(w, "account disabled", http.StatusUnauthorized)
		return storage.User{}, false
	}
	return user, true
}

func verifyPassword(hash string, raw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(raw)) == nil
}
