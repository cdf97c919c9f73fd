package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/staffportal/libs/auth"
)

// Grant is what the credential check hands back: a bearer token plus the
// staff profile it was issued for.
type Grant struct {
	Token string
	User  Identity
}

// Authenticator checks credentials against the auth endpoint. Rejections
// must wrap ErrInvalidCredentials; every other error is treated as the
// service being unavailable.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (Grant, error)
}

// TokenVerifier decides whether a persisted token may still back id.
type TokenVerifier func(token string, id Identity, now time.Time) error

// HS256Verifier checks signature and expiry locally with the shared secret
// and that the claims still describe the persisted identity.
func HS256Verifier(secret string) TokenVerifier {
	return func(token string, id Identity, now time.Time) error {
		claims, err := auth.ParseAndVerifyHS256(token, secret, now)
		if err != nil {
			return err
		}
		if claims.Sub != "" && claims.Sub != id.ID {
			return fmt.Errorf("token subject %q does not match identity: %w", claims.Sub, auth.ErrInvalidToken)
		}
		if claims.Role != "" && Role(claims.Role) != id.Role {
			return fmt.Errorf("token role %q does not match identity: %w", claims.Role, auth.ErrInvalidToken)
		}
		return nil
	}
}

type Option func(*Session)

func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) { s.logger = logger }
}

// WithTokenVerifier turns restore into verify-on-read instead of trust-on-read.
func WithTokenVerifier(v TokenVerifier) Option {
	return func(s *Session) { s.verify = v }
}

// Session is the state of one browser session, bound to its own store namespace.
type Session struct {
	id     string
	store  Store
	auth   Authenticator
	verify TokenVerifier
	now    func() time.Time
	logger *slog.Logger

	mu       sync.Mutex
	state    State
	identity *Identity
	token    string
}

func New(id string, store Store, authn Authenticator, opts ...Option) *Session {
	s := &Session{
		id:     id,
		store:  store,
		auth:   authn,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) ID() string { return s.id }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Identity returns the in-memory identity, if any.
func (s *Session) Identity() (Identity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity == nil {
		return Identity{}, false
	}
	return *s.identity, true
}

func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Authenticate runs the credential check and, on success, persists the
// identity under the session's token and user keys.
func (s *Session) Authenticate(ctx context.Context, email, password string) (Identity, error) {
	s.mu.Lock()
	if s.state == StateAuthenticating {
		s.mu.Unlock()
		return Identity{}, ErrLoginInProgress
	}
	s.state = StateAuthenticating
	s.identity = nil
	s.token = ""
	s.mu.Unlock()

	grant, err := s.auth.Login(ctx, strings.TrimSpace(email), password)
	if err != nil {
		s.fail()
		if errors.Is(err, ErrInvalidCredentials) {
			s.logger.Info("session login rejected", "sid", s.id, "email", email)
			return Identity{}, ErrInvalidCredentials
		}
		s.logger.Warn("session login failed", "sid", s.id, "err", err)
		return Identity{}, fmt.Errorf("%w: %w", ErrAuthServiceUnavailable, err)
	}

	id := grant.User
	if id.Email == "" {
		id.Email = strings.TrimSpace(email)
	}
	if _, ok := ParseRole(string(id.Role)); !ok {
		s.fail()
		return Identity{}, fmt.Errorf("%w: unknown role %q", ErrAuthServiceUnavailable, id.Role)
	}
	id.LoginTime = s.now().UTC()

	if err := s.persist(ctx, grant.Token, id); err != nil {
		s.fail()
		return Identity{}, fmt.Errorf("%w: %w", ErrAuthServiceUnavailable, err)
	}

	s.mu.Lock()
	s.state = StateAuthenticated
	s.identity = &id
	s.token = grant.Token
	s.mu.Unlock()

	s.logger.Info("session authenticated", "sid", s.id, "user_id", id.ID, "role", id.Role)
	return id, nil
}

// Restore hydrates the session from the store. Missing or unreadable entries
// yield no identity; malformed ones are also cleared.
func (s *Session) Restore(ctx context.Context) (Identity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateAuthenticated && s.identity != nil {
		return *s.identity, true
	}
	if s.state == StateAuthenticating {
		return Identity{}, false
	}

	raw, ok, err := s.store.Get(ctx, s.id, KeyUser)
	if err != nil {
		s.logger.Warn("session restore failed", "sid", s.id, "err", err)
		return Identity{}, false
	}
	if !ok {
		return Identity{}, false
	}
	token, _, err := s.store.Get(ctx, s.id, KeyToken)
	if err != nil {
		s.logger.Warn("session restore failed", "sid", s.id, "err", err)
		return Identity{}, false
	}

	var id Identity
	if err := json.Unmarshal([]byte(raw), &id); err != nil || id.ID == "" {
		s.discardLocked(ctx, "malformed identity")
		return Identity{}, false
	}
	if _, ok := ParseRole(string(id.Role)); !ok {
		s.discardLocked(ctx, "unknown role")
		return Identity{}, false
	}
	if s.verify != nil {
		if err := s.verify(token, id, s.now()); err != nil {
			s.discardLocked(ctx, err.Error())
			return Identity{}, false
		}
	}

	s.state = StateAuthenticated
	s.identity = &id
	s.token = token
	return id, true
}

// End clears the in-memory and persisted identity. Safe to call repeatedly.
func (s *Session) End(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
	if err := s.store.Delete(ctx, s.id, KeyToken, KeyUser); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	s.logger.Info("session ended", "sid", s.id)
	return nil
}

// Invalidate is End triggered by an authorization failure from the backend.
func (s *Session) Invalidate(ctx context.Context, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.discardLocked(ctx, reason)
}

func (s *Session) persist(ctx context.Context, token string, id Identity) error {
	blob, err := json.Marshal(id)
	if err != nil {
		return err
	}
	if err := s.store.Set(ctx, s.id, KeyToken, token); err != nil {
		return fmt.Errorf("persist token: %w", err)
	}
	if err := s.store.Set(ctx, s.id, KeyUser, string(blob)); err != nil {
		return fmt.Errorf("persist user: %w", err)
	}
	return nil
}

func (s *Session) fail() {
	s.mu.Lock()
	s.clearLocked()
	s.mu.Unlock()
}

func (s *Session) clearLocked() {
	s.state = StateUnauthenticated
	s.identity = nil
	s.token = ""
}

func (s *Session) discardLocked(ctx context.Context, reason string) {
	s.clearLocked()
	if err := s.store.Delete(ctx, s.id, KeyToken, KeyUser); err != nil {
		s.logger.Warn("session clear failed", "sid", s.id, "err", err)
	}
	s.logger.Info("session invalidated", "sid", s.id, "reason", reason)
}

// Registry opens sessions by id. Sessions are rebuilt per request; the
// store is the only shared state.
type Registry struct {
	store Store
	auth  Authenticator
	opts  []Option
}

func NewRegistry(store Store, authn Authenticator, opts ...Option) *Registry {
	return &Registry{store: store, auth: authn, opts: opts}
}

func (r *Registry) Open(sid string) *Session {
	return New(sid, r.store, r.auth, r.opts...)
}

// NewID returns a fresh opaque session id.
func (r *Registry) NewID() string {
	return uuid.NewString()
}
