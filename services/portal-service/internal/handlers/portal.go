package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/md-rashed-zaman/staffportal/libs/httpx"
	"github.com/md-rashed-zaman/staffportal/services/portal-service/internal/appointments"
	"github.com/md-rashed-zaman/staffportal/services/portal-service/internal/backend"
	"github.com/md-rashed-zaman/staffportal/services/portal-service/internal/events"
	"github.com/md-rashed-zaman/staffportal/services/portal-service/internal/payments"
	"github.com/md-rashed-zaman/staffportal/services/portal-service/internal/routes"
	"github.com/md-rashed-zaman/staffportal/services/portal-service/internal/session"
)

// SourceFactory returns the appointment source a session reads and writes.
type SourceFactory func(s *session.Session) appointments.Source

// MemorySources serves every session from one shared in-memory source.
func MemorySources(src *appointments.MemorySource) SourceFactory {
	return func(*session.Session) appointments.Source { return src }
}

// BackendSources gives each session a backend source carrying its token.
// A 401 from the backend invalidates that session.
func BackendSources(c *backend.Client) SourceFactory {
	return func(s *session.Session) appointments.Source {
		return c.Appointments(s.Token(), func(ctx context.Context) {
			s.Invalidate(ctx, "backend returned 401")
		})
	}
}

type CookieConfig struct {
	Name   string
	Secure bool
	MaxAge time.Duration
}

type Options struct {
	Cookie   CookieConfig
	Location *time.Location
	Now      func() time.Time
	// LoginLimit guards POST /api/v1/session/login when set.
	LoginLimit httpx.Middleware
}

type Portal struct {
	registry *session.Registry
	sources  SourceFactory
	payments *payments.Simulator
	events   events.Publisher
	logger   *slog.Logger
	cookie   CookieConfig
	loc      *time.Location
	now      func() time.Time
	limit    httpx.Middleware
}

func NewPortal(
	registry *session.Registry,
	sources SourceFactory,
	paySim *payments.Simulator,
	publisher events.Publisher,
	logger *slog.Logger,
	opts Options,
) *Portal {
	if opts.Cookie.Name == "" {
		opts.Cookie.Name = "portal_sid"
	}
	if opts.Cookie.MaxAge <= 0 {
		opts.Cookie.MaxAge = 24 * time.Hour
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Portal{
		registry: registry,
		sources:  sources,
		payments: paySim,
		events:   publisher,
		logger:   logger,
		cookie:   opts.Cookie,
		loc:      opts.Location,
		now:      opts.Now,
		limit:    opts.LoginLimit,
	}
}

func (p *Portal) Register(mux *http.ServeMux) {
	login := http.Handler(http.HandlerFunc(p.Login))
	if p.limit != nil {
		login = p.limit(login)
	}
	mux.Handle("/api/v1/session/login", login)
	mux.HandleFunc("/api/v1/session/logout", p.Logout)
	mux.HandleFunc("/api/v1/session", p.Current)
	mux.HandleFunc("/api/v1/navigate", p.Navigate)

	mux.HandleFunc("/api/v1/appointments", p.requireIntent(routes.IntentView, p.ListAppointments))
	mux.HandleFunc("/api/v1/appointments/summary", p.requireIntent(routes.IntentView, p.Summary))
	mux.HandleFunc("/api/v1/appointments/calendar", p.requireIntent(routes.IntentView, p.Calendar))
	mux.HandleFunc("/api/v1/appointments/billing", p.requireIntent(routes.IntentPay, p.Billing))
	mux.HandleFunc("/api/v1/appointments/lab-results", p.requireIntent(routes.IntentView, p.LabResults))
	mux.HandleFunc("/api/v1/appointments/book", p.requireIntent(routes.IntentBook, p.Book))
	mux.HandleFunc("/api/v1/appointments/cancel", p.requireIntent(routes.IntentCancel, p.Cancel))
	mux.HandleFunc("/api/v1/appointments/reschedule", p.requireIntent(routes.IntentReschedule, p.Reschedule))
	mux.HandleFunc("/api/v1/appointments/pay", p.requireIntent(routes.IntentPay, p.Pay))
}

type ctxKey int

const ctxKeySession ctxKey = iota

func sessionFrom(ctx context.Context) *session.Session {
	s, _ := ctx.Value(ctxKeySession).(*session.Session)
	return s
}

// open returns the session named by the request cookie, restored from the store.
func (p *Portal) open(r *http.Request) (*session.Session, session.Identity, bool) {
	c, err := r.Cookie(p.cookie.Name)
	if err != nil || c.Value == "" {
		return nil, session.Identity{}, false
	}
	s := p.registry.Open(c.Value)
	id, ok := s.Restore(r.Context())
	return s, id, ok
}

func (p *Portal) requireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, id, ok := p.open(r)
		if !ok {
			p.clearCookie(w)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		httpx.Annotate(r.Context(), "user_id", id.ID, "role", string(id.Role))
		next(w, r.WithContext(context.WithValue(r.Context(), ctxKeySession, s)))
	}
}

func (p *Portal) requireIntent(intent routes.Intent, next http.HandlerFunc) http.HandlerFunc {
	return p.requireSession(func(w http.ResponseWriter, r *http.Request) {
		id, _ := sessionFrom(r.Context()).Identity()
		if !routes.CanPerform(id, intent) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		next(w, r)
	})
}

func (p *Portal) setCookie(w http.ResponseWriter, sid string) {
	http.SetCookie(w, &http.Cookie{
		Name:     p.cookie.Name,
		Value:    sid,
		Path:     "/",
		MaxAge:   int(p.cookie.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   p.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (p *Portal) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     p.cookie.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   p.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// sourceError maps appointment source and intent errors to responses.
func (p *Portal) sourceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, backend.ErrUnauthorized):
		p.clearCookie(w)
		http.Error(w, "session expired", http.StatusUnauthorized)
	case errors.Is(err, appointments.ErrNotFound):
		http.Error(w, "appointment not found", http.StatusNotFound)
	case errors.Is(err, appointments.ErrInvalidTransition):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, appointments.ErrInvalidSchedule):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		p.logger.Error("appointment source failed", "err", err, "path", r.URL.Path)
		http.Error(w, "backend unavailable", http.StatusBadGateway)
	}
}
