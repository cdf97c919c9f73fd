package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-resty/resty/v2"
	"github.com/md-rashed-zaman/staffportal/services/portal-service/internal/appointments"
)

const pageSize = 100

// AppointmentSource reads and writes /staff/appointments with one staff
// member's token. A 401 runs onUnauthorized before ErrUnauthorized is returned.
type AppointmentSource struct {
	c              *Client
	token          string
	onUnauthorized func(context.Context)
}

func (c *Client) Appointments(token string, onUnauthorized func(context.Context)) *AppointmentSource {
	return &AppointmentSource{c: c, token: token, onUnauthorized: onUnauthorized}
}

// appointmentPage keeps records raw so one malformed record cannot fail the page.
type appointmentPage struct {
	Appointments []json.RawMessage `json:"appointments"`
	Total        int               `json:"total"`
	Page         int               `json:"page"`
	TotalPages   int               `json:"totalPages"`
}

// List walks every page of the backend listing.
func (s *AppointmentSource) List(ctx context.Context) ([]appointments.Record, error) {
	var all []appointments.Record
	for page := 1; ; page++ {
		var out appointmentPage
		resp, err := s.request(ctx).
			SetQueryParams(map[string]string{
				"page":  strconv.Itoa(page),
				"limit": strconv.Itoa(pageSize),
			}).
			SetResult(&out).
			Get("/staff/appointments")
		if err := s.check(ctx, "list appointments", resp, err); err != nil {
			return nil, err
		}
		all = append(all, appointments.ParseRecords(out.Appointments, s.c.logger)...)
		if page >= out.TotalPages || len(out.Appointments) == 0 {
			break
		}
	}
	return all, nil
}

func (s *AppointmentSource) Create(ctx context.Context, rec appointments.Record) error {
	resp, err := s.request(ctx).SetBody(rec).Post("/staff/appointments")
	return s.check(ctx, "create appointment", resp, err)
}

func (s *AppointmentSource) Update(ctx context.Context, rec appointments.Record) error {
	id := rec.ID
	if id == "" {
		id = rec.LegacyID
	}
	resp, err := s.request(ctx).
		SetPathParam("id", id).
		SetBody(rec).
		Put("/staff/appointments/{id}")
	if resp != nil && resp.StatusCode() == http.StatusNotFound {
		return fmt.Errorf("%w: %s", appointments.ErrNotFound, id)
	}
	return s.check(ctx, "update appointment", resp, err)
}

func (s *AppointmentSource) request(ctx context.Context) *resty.Request {
	return s.c.http.R().SetContext(ctx).SetAuthToken(s.token)
}

func (s *AppointmentSource) check(ctx context.Context, op string, resp *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if resp.StatusCode() == http.StatusUnauthorized {
		s.c.logger.Info("backend rejected session token", "op", op)
		if s.onUnauthorized != nil {
			s.onUnauthorized(ctx)
		}
		return fmt.Errorf("%s: %w", op, ErrUnauthorized)
	}
	if resp.IsError() {
		return statusError(op, resp)
	}
	return nil
}

var _ appointments.Source = (*AppointmentSource)(nil)
