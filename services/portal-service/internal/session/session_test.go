package session

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/md-rashed-zaman/staffportal/libs/auth"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAuth struct {
	users map[string]string
	grant map[string]Grant
	err   error
	calls int
}

func (a *stubAuth) Login(_ context.Context, email, password string) (Grant, error) {
	a.calls++
	if a.err != nil {
		return Grant{}, a.err
	}
	if pw, ok := a.users[email]; !ok || pw != password {
		return Grant{}, ErrInvalidCredentials
	}
	return a.grant[email], nil
}

var fixedNow = time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)

func doctorAuth(t *testing.T, secret string) *stubAuth {
	t.Helper()
	token, err := auth.SignHS256(auth.Claims{
		Sub:   "doc-1",
		Email: "doctor@healthcare.com",
		Name:  "Dr. Sarah Wilson",
		Role:  "doctor",
		Exp:   fixedNow.Add(24 * time.Hour).Unix(),
	}, secret)
	require.NoError(t, err)
	return &stubAuth{
		users: map[string]string{"doctor@healthcare.com": "doctor123"},
		grant: map[string]Grant{
			"doctor@healthcare.com": {
				Token: token,
				User:  Identity{ID: "doc-1", Name: "Dr. Sarah Wilson", Email: "doctor@healthcare.com", Role: RoleDoctor},
			},
		},
	}
}

func newTestSession(sid string, store Store, a Authenticator, opts ...Option) *Session {
	opts = append([]Option{WithClock(func() time.Time { return fixedNow }), WithLogger(slog.New(slog.DiscardHandler))}, opts...)
	return New(sid, store, a, opts...)
}

func TestLoginThenRestoreAfterReload(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	store := NewRedisStore(rdb, "portal:session", time.Hour)
	stub := doctorAuth(t, "s3cret")

	s := newTestSession("sid-1", store, stub)
	id, err := s.Authenticate(context.Background(), "doctor@healthcare.com", "doctor123")
	require.NoError(t, err)
	assert.Equal(t, RoleDoctor, id.Role)
	assert.Equal(t, fixedNow, id.LoginTime)
	assert.Equal(t, StateAuthenticated, s.State())
	assert.True(t, mr.Exists("portal:session:sid-1:token"))
	assert.True(t, mr.Exists("portal:session:sid-1:user"))

	reloaded := newTestSession("sid-1", store, stub)
	assert.Equal(t, StateUnauthenticated, reloaded.State())
	restored, ok := reloaded.Restore(context.Background())
	require.True(t, ok)
	assert.Equal(t, RoleDoctor, restored.Role)
	assert.Equal(t, "doc-1", restored.ID)
	assert.Equal(t, StateAuthenticated, reloaded.State())
	assert.NotEmpty(t, reloaded.Token())
	assert.Equal(t, 1, stub.calls, "restore never calls the auth endpoint")

	other := newTestSession("sid-2", store, stub)
	_, ok = other.Restore(context.Background())
	assert.False(t, ok, "sessions are namespaced by id")
}

func TestRedisStoreSlidesTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	store := NewRedisStore(rdb, "", time.Hour)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "abc", KeyUser, "{}"))
	mr.FastForward(50 * time.Minute)
	_, ok, err := store.Get(ctx, "abc", KeyUser)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, time.Hour, mr.TTL("portal:session:abc:user"))

	mr.FastForward(2 * time.Hour)
	_, ok, err = store.Get(ctx, "abc", KeyUser)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, store.Ping(ctx))
}

func TestAuthenticateErrors(t *testing.T) {
	store := NewMemoryStore()
	stub := doctorAuth(t, "s3cret")

	s := newTestSession("sid", store, stub)
	_, err := s.Authenticate(context.Background(), "doctor@healthcare.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, StateUnauthenticated, s.State())

	stub.err = errors.New("dial tcp: connection refused")
	_, err = s.Authenticate(context.Background(), "doctor@healthcare.com", "doctor123")
	assert.ErrorIs(t, err, ErrAuthServiceUnavailable)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, StateUnauthenticated, s.State())

	_, ok, _ := store.Get(context.Background(), "sid", KeyUser)
	assert.False(t, ok, "failed logins persist nothing")
}

func TestAuthenticateRejectsUnknownRole(t *testing.T) {
	stub := &stubAuth{
		users: map[string]string{"x@healthcare.com": "pw"},
		grant: map[string]Grant{"x@healthcare.com": {Token: "t", User: Identity{ID: "1", Role: "janitor"}}},
	}
	s := newTestSession("sid", NewMemoryStore(), stub)
	_, err := s.Authenticate(context.Background(), "x@healthcare.com", "pw")
	assert.ErrorIs(t, err, ErrAuthServiceUnavailable)
}

func TestRestoreClearsMalformedEntries(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "sid", KeyToken, "tok"))
	require.NoError(t, store.Set(ctx, "sid", KeyUser, "{not json"))

	s := newTestSession("sid", store, &stubAuth{})
	_, ok := s.Restore(ctx)
	assert.False(t, ok)

	_, ok, _ = store.Get(ctx, "sid", KeyUser)
	assert.False(t, ok)
	_, ok, _ = store.Get(ctx, "sid", KeyToken)
	assert.False(t, ok)

	_, ok = newTestSession("empty", store, &stubAuth{}).Restore(ctx)
	assert.False(t, ok)
}

func TestRestoreWithVerifier(t *testing.T) {
	store := NewMemoryStore()
	stub := doctorAuth(t, "s3cret")
	ctx := context.Background()

	s := newTestSession("sid", store, stub)
	_, err := s.Authenticate(ctx, "doctor@healthcare.com", "doctor123")
	require.NoError(t, err)

	ok := func(opts ...Option) bool {
		_, restored := newTestSession("sid", store, stub, opts...).Restore(ctx)
		return restored
	}
	assert.True(t, ok(WithTokenVerifier(HS256Verifier("s3cret"))))

	later := WithClock(func() time.Time { return fixedNow.Add(25 * time.Hour) })
	assert.False(t, ok(WithTokenVerifier(HS256Verifier("s3cret")), later), "expired token")
	assert.False(t, ok(), "rejected tokens clear the store")
}

func TestRestoreWithWrongSecret(t *testing.T) {
	store := NewMemoryStore()
	stub := doctorAuth(t, "s3cret")
	ctx := context.Background()
	_, err := newTestSession("sid", store, stub).Authenticate(ctx, "doctor@healthcare.com", "doctor123")
	require.NoError(t, err)

	_, ok := newTestSession("sid", store, stub, WithTokenVerifier(HS256Verifier("other"))).Restore(ctx)
	assert.False(t, ok)
}

func TestEndIsIdempotent(t *testing.T) {
	store := NewMemoryStore()
	stub := doctorAuth(t, "s3cret")
	ctx := context.Background()
	s := newTestSession("sid", store, stub)
	_, err := s.Authenticate(ctx, "doctor@healthcare.com", "doctor123")
	require.NoError(t, err)

	require.NoError(t, s.End(ctx))
	require.NoError(t, s.End(ctx))
	_, ok := s.Identity()
	assert.False(t, ok)
	assert.Equal(t, StateUnauthenticated, s.State())
	_, ok = newTestSession("sid", store, stub).Restore(ctx)
	assert.False(t, ok)
}

func TestInvalidate(t *testing.T) {
	store := NewMemoryStore()
	stub := doctorAuth(t, "s3cret")
	ctx := context.Background()
	reg := NewRegistry(store, stub, WithClock(func() time.Time { return fixedNow }), WithLogger(slog.New(slog.DiscardHandler)))
	sid := reg.NewID()
	require.NotEmpty(t, sid)

	_, err := reg.Open(sid).Authenticate(ctx, "doctor@healthcare.com", "doctor123")
	require.NoError(t, err)

	s := reg.Open(sid)
	_, ok := s.Restore(ctx)
	require.True(t, ok)
	s.Invalidate(ctx, "backend returned 401")
	assert.Equal(t, StateUnauthenticated, s.State())

	_, ok = reg.Open(sid).Restore(ctx)
	assert.False(t, ok)
}

func TestAuthorize(t *testing.T) {
	doctor := Identity{ID: "1", Role: RoleDoctor}
	assert.True(t, Authorize(doctor))
	assert.True(t, Authorize(doctor, RoleDoctor, RoleNurse))
	assert.False(t, Authorize(doctor, RoleAdmin))
}

func TestParseRole(t *testing.T) {
	r, ok := ParseRole(" Receptionist ")
	assert.True(t, ok)
	assert.Equal(t, RoleReceptionist, r)
	_, ok = ParseRole("patient")
	assert.False(t, ok)
	assert.Equal(t, "authenticating", StateAuthenticating.String())
}
