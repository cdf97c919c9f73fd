package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/md-rashed-zaman/staffportal/libs/httpx"
	"github.com/md-rashed-zaman/staffportal/services/portal-service/internal/appointments"
	"github.com/md-rashed-zaman/staffportal/services/portal-service/internal/events"
	"github.com/md-rashed-zaman/staffportal/services/portal-service/internal/payments"
)

type listResponse struct {
	Appointments []appointments.Appointment `json:"appointments"`
	Count        int                        `json:"count"`
}

type summaryResponse struct {
	Counts      appointments.Counts       `json:"counts"`
	Next        *appointments.Appointment `json:"nextAppointment"`
	Suggestions []appointments.Suggestion `json:"suggestions"`
	Reminders   []appointments.Reminder   `json:"reminders"`
}

type billingResponse struct {
	Invoices []appointments.Invoice       `json:"invoices"`
	Count    int                          `json:"count"`
	Overview appointments.BillingOverview `json:"overview"`
}

type labResultsResponse struct {
	Results []appointments.LabResult `json:"results"`
	Count   int                      `json:"count"`
	Stats   appointments.LabStats    `json:"stats"`
}

type changeResponse struct {
	Appointment appointments.Appointment `json:"appointment"`
	Fee         int                      `json:"fee"`
}

type payResponse struct {
	Appointment appointments.Appointment `json:"appointment"`
	Payment     payments.Result          `json:"payment"`
}

type idRequest struct {
	ID string `json:"id"`
}

type rescheduleRequest struct {
	ID   string `json:"id"`
	Date string `json:"date"`
	Time string `json:"time"`
}

type payRequest struct {
	ID     string `json:"id"`
	Method string `json:"method"`
}

// load reads and decodes the session's appointments. Bad records are logged and skipped.
func (p *Portal) load(ctx context.Context) (appointments.Source, []appointments.Appointment, error) {
	src := p.sources(sessionFrom(ctx))
	recs, err := src.List(ctx)
	if err != nil {
		return nil, nil, err
	}
	return src, appointments.DecodeAll(recs, p.loc, p.logger), nil
}

func (p *Portal) nowIn() time.Time {
	return p.now().In(p.loc)
}

func (p *Portal) ListAppointments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	_, list, err := p.load(r.Context())
	if err != nil {
		p.sourceError(w, r, err)
		return
	}
	q := r.URL.Query()
	now := p.nowIn()

	key := appointments.SortKey(strings.ToLower(q.Get("sort")))
	if key == "" {
		key = appointments.SortByDate
	}
	dir := appointments.Asc
	if strings.EqualFold(q.Get("order"), string(appointments.Desc)) {
		dir = appointments.Desc
	}
	out := appointments.Sort(appointments.Filter(list, q.Get("filter"), now), key, dir)
	httpx.WriteJSON(w, http.StatusOK, listResponse{Appointments: out, Count: len(out)})
}

func (p *Portal) Summary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	_, list, err := p.load(r.Context())
	if err != nil {
		p.sourceError(w, r, err)
		return
	}
	now := p.nowIn()
	resp := summaryResponse{
		Counts:      appointments.AggregateCounts(list, now),
		Suggestions: appointments.SuggestFollowUps(list, now),
		Reminders:   appointments.Reminders(list, now),
	}
	if next, ok := appointments.NextUpcoming(list, now); ok {
		resp.Next = &next
	}
	if resp.Reminders == nil {
		resp.Reminders = []appointments.Reminder{}
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

func (p *Portal) Calendar(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	q := r.URL.Query()
	cursor := p.nowIn()
	if raw := q.Get("date"); raw != "" {
		d, err := time.ParseInLocation(time.DateOnly, raw, p.loc)
		if err != nil {
			http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		cursor = d
	}
	view := strings.ToLower(q.Get("view"))
	if view != "" && view != "month" && view != "week" {
		http.Error(w, "view must be month or week", http.StatusBadRequest)
		return
	}

	_, list, err := p.load(r.Context())
	if err != nil {
		p.sourceError(w, r, err)
		return
	}
	if view == "week" {
		httpx.WriteJSON(w, http.StatusOK, appointments.BucketByWeek(list, cursor))
		return
	}
	httpx.WriteJSON(w, http.StatusOK, appointments.BucketByDay(list, cursor))
}

// Billing lists invoices filtered by status, category, department, range and
// q, sorted by date (default, newest first) or amount. The overview always
// covers every invoice.
func (p *Portal) Billing(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	q := r.URL.Query()
	key := appointments.SortKey(strings.ToLower(q.Get("sort")))
	switch key {
	case "":
		key = appointments.SortByDate
	case appointments.SortByDate, appointments.SortByAmount:
	default:
		http.Error(w, "sort must be date or amount", http.StatusBadRequest)
		return
	}
	dir := appointments.Desc
	if strings.EqualFold(q.Get("order"), string(appointments.Asc)) {
		dir = appointments.Asc
	}

	_, list, err := p.load(r.Context())
	if err != nil {
		p.sourceError(w, r, err)
		return
	}
	now := p.nowIn()
	all := appointments.Invoices(list, now)
	filtered, err := appointments.FilterInvoices(all, appointments.InvoiceFilter{
		Status:     q.Get("status"),
		Category:   q.Get("category"),
		Department: q.Get("department"),
		Range:      q.Get("range"),
		Search:     q.Get("q"),
	}, now)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	out := appointments.SortInvoices(filtered, key, dir)
	httpx.WriteJSON(w, http.StatusOK, billingResponse{
		Invoices: out,
		Count:    len(out),
		Overview: appointments.SummarizeBilling(all),
	})
}

// LabResults lists lab tests filtered by department, status, priority, the
// from/to day range and q. Stats always cover every test.
func (p *Portal) LabResults(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	q := r.URL.Query()
	f := appointments.LabFilter{
		Department: q.Get("department"),
		Status:     q.Get("status"),
		Priority:   q.Get("priority"),
		Search:     q.Get("q"),
	}
	for _, bound := range []struct {
		name string
		dst  *time.Time
	}{{"from", &f.From}, {"to", &f.To}} {
		raw := q.Get(bound.name)
		if raw == "" {
			continue
		}
		d, err := time.ParseInLocation(time.DateOnly, raw, p.loc)
		if err != nil {
			http.Error(w, bound.name+" must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		*bound.dst = d
	}

	_, list, err := p.load(r.Context())
	if err != nil {
		p.sourceError(w, r, err)
		return
	}
	all := appointments.LabResults(list)
	out := appointments.FilterLabResults(all, f)
	httpx.WriteJSON(w, http.StatusOK, labResultsResponse{
		Results: out,
		Count:   len(out),
		Stats:   appointments.CountLabResults(all),
	})
}

func (p *Portal) Book(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req appointments.BookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	a, err := appointments.Book(req, p.nowIn())
	if err != nil {
		p.sourceError(w, r, err)
		return
	}
	src := p.sources(sessionFrom(r.Context()))
	if err := src.Create(r.Context(), appointments.Encode(a)); err != nil {
		p.sourceError(w, r, err)
		return
	}
	p.publish(r.Context(), "booked", a, nil)
	httpx.WriteJSON(w, http.StatusCreated, changeResponse{Appointment: a})
}

func (p *Portal) Cancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req idRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == "" {
		http.Error(w, "id required", http.StatusBadRequest)
		return
	}
	src, list, err := p.load(r.Context())
	if err != nil {
		p.sourceError(w, r, err)
		return
	}
	a, err := appointments.Find(list, req.ID)
	if err != nil {
		p.sourceError(w, r, err)
		return
	}
	cancelled, fee, err := appointments.Cancel(a, p.nowIn())
	if err != nil {
		p.sourceError(w, r, err)
		return
	}
	if err := src.Update(r.Context(), appointments.Encode(cancelled)); err != nil {
		p.sourceError(w, r, err)
		return
	}
	p.publish(r.Context(), "cancelled", cancelled, map[string]any{"fee": fee})
	httpx.WriteJSON(w, http.StatusOK, changeResponse{Appointment: cancelled, Fee: fee})
}

func (p *Portal) Reschedule(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req rescheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == "" {
		http.Error(w, "id required", http.StatusBadRequest)
		return
	}
	date, err := time.ParseInLocation(time.DateOnly, strings.TrimSpace(req.Date), p.loc)
	if err != nil {
		http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	src, list, err := p.load(r.Context())
	if err != nil {
		p.sourceError(w, r, err)
		return
	}
	a, err := appointments.Find(list, req.ID)
	if err != nil {
		p.sourceError(w, r, err)
		return
	}
	moved, fee, err := appointments.Reschedule(a, date, req.Time, p.nowIn())
	if err != nil {
		p.sourceError(w, r, err)
		return
	}
	if err := src.Update(r.Context(), appointments.Encode(moved)); err != nil {
		p.sourceError(w, r, err)
		return
	}
	p.publish(r.Context(), "rescheduled", moved, map[string]any{"fee": fee, "previous_date": appointments.DayKey(a.Date), "previous_time": a.Time})
	httpx.WriteJSON(w, http.StatusOK, changeResponse{Appointment: moved, Fee: fee})
}

// Pay runs the simulated gateway and waits for its single result. If the
// client goes away first the payment still completes, but its result is dropped.
func (p *Portal) Pay(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req payRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == "" {
		http.Error(w, "id required", http.StatusBadRequest)
		return
	}
	method, err := payments.ParseMethod(req.Method)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	src, list, err := p.load(r.Context())
	if err != nil {
		p.sourceError(w, r, err)
		return
	}
	a, err := appointments.Find(list, req.ID)
	if err != nil {
		p.sourceError(w, r, err)
		return
	}
	amount := a.Doctor.ConsultationFee
	if a.Billing != nil {
		amount = a.Billing.Amount
	}
	// Reject before charging so a settled bill is never charged twice.
	if _, err := appointments.MarkPaid(a, "precheck"); err != nil {
		p.sourceError(w, r, err)
		return
	}
	results, err := p.payments.Charge(a.ID, method, amount)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var res payments.Result
	select {
	case res = <-results:
	case <-r.Context().Done():
		p.logger.Warn("payment result dropped", "appointment_id", a.ID, "err", r.Context().Err())
		return
	}

	paid, err := appointments.MarkPaid(a, res.InvoiceID)
	if err != nil {
		p.sourceError(w, r, err)
		return
	}
	if err := src.Update(r.Context(), appointments.Encode(paid)); err != nil {
		p.sourceError(w, r, err)
		return
	}
	p.publish(r.Context(), "paid", paid, map[string]any{"invoice_id": paid.Billing.InvoiceID, "method": string(method), "total": res.Quote.Total})
	httpx.WriteJSON(w, http.StatusOK, payResponse{Appointment: paid, Payment: res})
}

func (p *Portal) publish(ctx context.Context, action string, a appointments.Appointment, extra map[string]any) {
	payload := map[string]any{
		"appointment_id": a.ID,
		"status":         string(a.Status),
		"date":           appointments.DayKey(a.Date),
		"time":           a.Time,
		"doctor":         a.Doctor.Name,
		"occurred_at":    p.now().UTC().Format(time.RFC3339),
	}
	if id, ok := sessionFrom(ctx).Identity(); ok {
		payload["actor_id"] = id.ID
		payload["actor_role"] = string(id.Role)
	}
	for k, v := range extra {
		payload[k] = v
	}
	err := p.events.Publish(ctx, events.Event{Type: events.Type(action), AggregateID: a.ID, Payload: payload})
	if err != nil && !errors.Is(err, context.Canceled) {
		p.logger.Warn("appointment event not published", "action", action, "appointment_id", a.ID, "err", err)
	}
}
