package appointments

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"time"
)

// InvoiceDueDays is how long after the visit a pending bill falls due.
const InvoiceDueDays = 15

const InvoiceOverdue = "overdue"

const (
	RangeAll         = "all"
	RangeLast30Days  = "last30days"
	RangeLast3Months = "last3months"
	RangeLast6Months = "last6months"
)

const SortByAmount SortKey = "amount"

// upcomingLimit caps BillingOverview.Upcoming.
const upcomingLimit = 3

// Invoice is the billing view of one appointment that carries a bill.
// Status is paid, pending or overdue.
type Invoice struct {
	AppointmentID string    `json:"appointmentId"`
	InvoiceID     string    `json:"invoiceId,omitempty"`
	PatientName   string    `json:"patientName,omitempty"`
	Description   string    `json:"description"`
	Doctor        string    `json:"doctor"`
	Department    string    `json:"department"`
	Category      string    `json:"category"`
	Date          time.Time `json:"date"`
	DueDate       time.Time `json:"dueDate"`
	Amount        float64   `json:"amount"`
	Status        string    `json:"status"`
}

// Invoices lists the bills of list. A pending bill past its due date at now
// is overdue. Appointments without billing are left out.
func Invoices(list []Appointment, now time.Time) []Invoice {
	out := make([]Invoice, 0, len(list))
	for _, a := range list {
		if a.Billing == nil {
			continue
		}
		due := a.Date.AddDate(0, 0, InvoiceDueDays)
		status := BillingPending
		switch {
		case strings.EqualFold(a.Billing.Status, BillingPaid):
			status = BillingPaid
		case now.After(due):
			status = InvoiceOverdue
		}
		out = append(out, Invoice{
			AppointmentID: a.ID,
			InvoiceID:     a.Billing.InvoiceID,
			PatientName:   a.PatientName,
			Description:   fmt.Sprintf("%s with %s", a.Type, a.Doctor.Name),
			Doctor:        a.Doctor.Name,
			Department:    a.Doctor.Specialization,
			Category:      a.Type,
			Date:          a.Date,
			DueDate:       due,
			Amount:        a.Billing.Amount,
			Status:        status,
		})
	}
	return out
}

type InvoiceFilter struct {
	Status     string
	Category   string
	Department string
	// Range is one of the Range constants; empty means all.
	Range  string
	Search string
}

// FilterInvoices applies every non-empty criterion. Status, category and
// department match case-insensitively; Search matches a substring of the
// invoice id, description, doctor or department.
func FilterInvoices(list []Invoice, f InvoiceFilter, now time.Time) ([]Invoice, error) {
	var since time.Time
	switch strings.ToLower(strings.TrimSpace(f.Range)) {
	case "", RangeAll:
	case RangeLast30Days:
		since = now.AddDate(0, 0, -30)
	case RangeLast3Months:
		since = now.AddDate(0, -3, 0)
	case RangeLast6Months:
		since = now.AddDate(0, -6, 0)
	default:
		return nil, fmt.Errorf("%w: range %q", ErrInvalidFilter, f.Range)
	}
	search := strings.ToLower(strings.TrimSpace(f.Search))

	out := make([]Invoice, 0, len(list))
	for _, inv := range list {
		switch {
		case !matchesOption(inv.Status, f.Status),
			!matchesOption(inv.Category, f.Category),
			!matchesOption(inv.Department, f.Department),
			!since.IsZero() && inv.Date.Before(since),
			search != "" && !containsAny(search, inv.InvoiceID, inv.Description, inv.Doctor, inv.Department):
			continue
		}
		out = append(out, inv)
	}
	return out, nil
}

// SortInvoices is stable and sorts by date or amount. Unknown keys return
// the input order.
func SortInvoices(list []Invoice, key SortKey, dir Direction) []Invoice {
	out := slices.Clone(list)
	var cmp func(a, b Invoice) int
	switch key {
	case SortByDate:
		cmp = func(a, b Invoice) int { return a.Date.Compare(b.Date) }
	case SortByAmount:
		cmp = func(a, b Invoice) int { return compareFloat(a.Amount, b.Amount) }
	default:
		return out
	}
	if dir == Desc {
		asc := cmp
		cmp = func(a, b Invoice) int { return -asc(a, b) }
	}
	slices.SortStableFunc(out, cmp)
	return out
}

type BillingOverview struct {
	TotalDue      float64        `json:"totalDue"`
	LifetimePaid  float64        `json:"lifetimePaid"`
	OverdueAmount float64        `json:"overdueAmount"`
	PendingAmount float64        `json:"pendingAmount"`
	TotalInvoices int            `json:"totalInvoices"`
	ByStatus      map[string]int `json:"byStatus"`
	// Upcoming holds the unpaid invoices that fall due first.
	Upcoming []Invoice `json:"upcomingPayments"`
}

// SummarizeBilling totals invoices by status. TotalDue is everything not
// yet paid, so it equals PendingAmount plus OverdueAmount.
func SummarizeBilling(list []Invoice) BillingOverview {
	o := BillingOverview{
		TotalInvoices: len(list),
		ByStatus:      map[string]int{BillingPaid: 0, BillingPending: 0, InvoiceOverdue: 0},
		Upcoming:      []Invoice{},
	}
	var unpaid []Invoice
	for _, inv := range list {
		o.ByStatus[inv.Status]++
		switch inv.Status {
		case BillingPaid:
			o.LifetimePaid += inv.Amount
			continue
		case InvoiceOverdue:
			o.OverdueAmount += inv.Amount
		default:
			o.PendingAmount += inv.Amount
		}
		o.TotalDue += inv.Amount
		unpaid = append(unpaid, inv)
	}
	o.TotalDue = roundCents(o.TotalDue)
	o.LifetimePaid = roundCents(o.LifetimePaid)
	o.OverdueAmount = roundCents(o.OverdueAmount)
	o.PendingAmount = roundCents(o.PendingAmount)

	slices.SortStableFunc(unpaid, func(a, b Invoice) int { return a.DueDate.Compare(b.DueDate) })
	if len(unpaid) > upcomingLimit {
		unpaid = unpaid[:upcomingLimit]
	}
	o.Upcoming = append(o.Upcoming, unpaid...)
	return o
}

// matchesOption treats "", "all" and the "All <things>" labels as no filter.
func matchesOption(value, want string) bool {
	want = strings.ToLower(strings.TrimSpace(want))
	if want == "" || want == "all" || strings.HasPrefix(want, "all ") {
		return true
	}
	return strings.EqualFold(value, want)
}

func containsAny(needle string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
