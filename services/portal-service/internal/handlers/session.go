package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/md-rashed-zaman/staffportal/libs/httpx"
	"github.com/md-rashed-zaman/staffportal/services/portal-service/internal/routes"
	"github.com/md-rashed-zaman/staffportal/services/portal-service/internal/session"
)

const (
	msgInvalidCredentials = "Invalid credentials. Only authorized staff can access this portal."
	msgLoginFailed        = "Login failed. Please try again."
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	User     session.Identity `json:"user"`
	Redirect string           `json:"redirect"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type currentResponse struct {
	User  session.Identity `json:"user"`
	State string           `json:"state"`
	Home  string           `json:"home"`
}

func (p *Portal) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		http.Error(w, "email and password required", http.StatusBadRequest)
		return
	}

	// A login always starts a fresh session id. The previous one is ended
	// only once the new login has succeeded.
	old, _, _ := p.open(r)
	s := p.registry.Open(p.registry.NewID())
	id, err := s.Authenticate(r.Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, session.ErrInvalidCredentials):
		httpx.WriteJSON(w, http.StatusUnauthorized, errorResponse{Error: msgInvalidCredentials})
		return
	case errors.Is(err, session.ErrLoginInProgress):
		http.Error(w, "login already in progress", http.StatusConflict)
		return
	case err != nil:
		httpx.WriteJSON(w, http.StatusServiceUnavailable, errorResponse{Error: msgLoginFailed})
		return
	}

	if old != nil && old.ID() != s.ID() {
		if err := old.End(r.Context()); err != nil {
			p.logger.Warn("previous session not cleared", "err", err)
		}
	}
	httpx.Annotate(r.Context(), "user_id", id.ID, "role", string(id.Role))
	p.setCookie(w, s.ID())
	httpx.WriteJSON(w, http.StatusOK, loginResponse{User: id, Redirect: routes.HomeFor(id.Role)})
}

func (p *Portal) Logout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s, _, _ := p.open(r); s != nil {
		if err := s.End(r.Context()); err != nil {
			p.logger.Warn("logout failed to clear store", "err", err)
		}
	}
	p.clearCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (p *Portal) Current(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s, id, ok := p.open(r)
	if !ok {
		p.clearCookie(w)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, currentResponse{
		User:  id,
		State: s.State().String(),
		Home:  routes.HomeFor(id.Role),
	})
}

// Navigate resolves a screen path through the route guard.
func (p *Portal) Navigate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var ident *session.Identity
	if _, id, ok := p.open(r); ok {
		ident = &id
	}
	httpx.WriteJSON(w, http.StatusOK, routes.Guard(r.URL.Query().Get("path"), ident))
}
