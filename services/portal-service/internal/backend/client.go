// Package backend talks to the healthcare REST backend with resty.
package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/md-rashed-zaman/staffportal/services/portal-service/internal/session"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// ErrUnauthorized is returned when the backend answers 401 to a call that
// carried a bearer token.
var ErrUnauthorized = errors.New("backend rejected token")

// StatusError is any other non-2xx answer.
type StatusError struct {
	Op     string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: backend status %d: %s", e.Op, e.Status, e.Body)
}

type Client struct {
	http   *resty.Client
	logger *slog.Logger
}

// New builds a client for baseURL (for example http://localhost:5000/api).
// Calls are single-shot: no retries.
func New(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetTransport(otelhttp.NewTransport(http.DefaultTransport)).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	return &Client{http: httpClient, logger: logger}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginUser struct {
	ID       string `json:"id"`
	LegacyID string `json:"_id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

type loginResponse struct {
	Token   string    `json:"token"`
	User    loginUser `json:"user"`
	Message string    `json:"message"`
}

// Login implements session.Authenticator against POST /staff/auth/login.
func (c *Client) Login(ctx context.Context, email, password string) (session.Grant, error) {
	var out loginResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(loginRequest{Email: email, Password: password}).
		SetResult(&out).
		Post("/staff/auth/login")
	if err != nil {
		return session.Grant{}, fmt.Errorf("staff login: %w", err)
	}
	switch {
	case resp.StatusCode() == http.StatusUnauthorized:
		return session.Grant{}, fmt.Errorf("staff login: %w", session.ErrInvalidCredentials)
	case resp.IsError():
		return session.Grant{}, statusError("staff login", resp)
	}
	if out.Token == "" {
		return session.Grant{}, errors.New("staff login: response carried no token")
	}

	id := out.User.ID
	if id == "" {
		id = out.User.LegacyID
	}
	role, _ := session.ParseRole(out.User.Role)
	return session.Grant{
		Token: out.Token,
		User: session.Identity{
			ID:    id,
			Name:  out.User.Name,
			Email: out.User.Email,
			Role:  role,
		},
	}, nil
}

func statusError(op string, resp *resty.Response) error {
	body := strings.TrimSpace(string(resp.Body()))
	if len(body) > 200 {
		body = body[:200]
	}
	return &StatusError{Op: op, Status: resp.StatusCode(), Body: body}
}
