package appointments

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func billedList() []Appointment {
	paid := apt("paid", "Dr. Smith", now.AddDate(0, 0, -40), StatusCompleted)
	paid.Type = "Consultation"
	paid.Doctor.Specialization = "Cardiology"
	paid.Billing = &Billing{Amount: 500, Status: "Paid", InvoiceID: "INV-2026-001"}

	overdue := apt("overdue", "Dr. Johnson", now.AddDate(0, 0, -20), StatusCompleted)
	overdue.Type = "Laboratory"
	overdue.Doctor.Specialization = "Pathology"
	overdue.Billing = &Billing{Amount: 300.25, Status: BillingPending}

	pending := apt("pending", "Dr. Lee", now.AddDate(0, 0, -3), StatusCompleted)
	pending.Type = "Consultation"
	pending.Doctor.Specialization = "Neurology"
	pending.Billing = &Billing{Amount: 1200.5, Status: BillingPending}

	future := apt("future", "Dr. Smith", now.AddDate(0, 0, 4), StatusConfirmed)
	future.Type = "Follow-up"
	future.Doctor.Specialization = "Cardiology"
	future.Billing = &Billing{Amount: 800, Status: BillingPending}

	unbilled := apt("unbilled", "Dr. Smith", now.AddDate(0, 0, 6), StatusConfirmed)
	return []Appointment{paid, overdue, pending, future, unbilled}
}

func invoiceIDs(list []Invoice) []string {
	out := make([]string, 0, len(list))
	for _, inv := range list {
		out = append(out, inv.AppointmentID)
	}
	return out
}

func TestInvoicesDeriveStatus(t *testing.T) {
	invs := Invoices(billedList(), now)
	require.Equal(t, []string{"paid", "overdue", "pending", "future"}, invoiceIDs(invs))
	assert.Equal(t, BillingPaid, invs[0].Status)
	assert.Equal(t, InvoiceOverdue, invs[1].Status, "pending and 20 days old")
	assert.Equal(t, BillingPending, invs[2].Status)
	assert.Equal(t, now.AddDate(0, 0, -3+InvoiceDueDays), invs[2].DueDate)
	assert.Equal(t, "Consultation with Dr. Lee", invs[2].Description)
	assert.Equal(t, "Neurology", invs[2].Department)
}

func TestFilterInvoices(t *testing.T) {
	invs := Invoices(billedList(), now)

	got, err := FilterInvoices(invs, InvoiceFilter{Status: "All Status", Category: "consultation"}, now)
	require.NoError(t, err)
	assert.Equal(t, []string{"paid", "pending"}, invoiceIDs(got))

	got, err = FilterInvoices(invs, InvoiceFilter{Status: "Overdue"}, now)
	require.NoError(t, err)
	assert.Equal(t, []string{"overdue"}, invoiceIDs(got))

	got, err = FilterInvoices(invs, InvoiceFilter{Range: RangeLast30Days}, now)
	require.NoError(t, err)
	assert.Equal(t, []string{"overdue", "pending", "future"}, invoiceIDs(got))

	got, err = FilterInvoices(invs, InvoiceFilter{Search: "inv-2026", Department: "All Departments"}, now)
	require.NoError(t, err)
	assert.Equal(t, []string{"paid"}, invoiceIDs(got))

	got, err = FilterInvoices(invs, InvoiceFilter{Search: "cardio"}, now)
	require.NoError(t, err)
	assert.Equal(t, []string{"paid", "future"}, invoiceIDs(got))

	_, err = FilterInvoices(invs, InvoiceFilter{Range: "last-week"}, now)
	assert.ErrorIs(t, err, ErrInvalidFilter)
}

func TestSortInvoices(t *testing.T) {
	invs := Invoices(billedList(), now)
	assert.Equal(t, []string{"future", "pending", "overdue", "paid"}, invoiceIDs(SortInvoices(invs, SortByDate, Desc)))
	assert.Equal(t, []string{"overdue", "paid", "future", "pending"}, invoiceIDs(SortInvoices(invs, SortByAmount, Asc)))
	assert.Equal(t, []string{"pending", "future", "paid", "overdue"}, invoiceIDs(SortInvoices(invs, SortByAmount, Desc)))
	assert.Equal(t, invoiceIDs(invs), invoiceIDs(SortInvoices(invs, "size", Asc)))
}

func TestSummarizeBilling(t *testing.T) {
	o := SummarizeBilling(Invoices(billedList(), now))
	assert.Equal(t, 4, o.TotalInvoices)
	assert.Equal(t, 500.0, o.LifetimePaid)
	assert.Equal(t, 300.25, o.OverdueAmount)
	assert.Equal(t, 2000.5, o.PendingAmount)
	assert.Equal(t, 2300.75, o.TotalDue)
	assert.Equal(t, map[string]int{BillingPaid: 1, BillingPending: 2, InvoiceOverdue: 1}, o.ByStatus)
	assert.Equal(t, []string{"overdue", "pending", "future"}, invoiceIDs(o.Upcoming), "unpaid, earliest due first")
}

func TestSummarizeBillingEmpty(t *testing.T) {
	o := SummarizeBilling(nil)
	assert.Zero(t, o.TotalDue)
	assert.NotNil(t, o.Upcoming)
	assert.Equal(t, map[string]int{BillingPaid: 0, BillingPending: 0, InvoiceOverdue: 0}, o.ByStatus)
}
