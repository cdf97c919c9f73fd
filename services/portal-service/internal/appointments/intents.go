package appointments

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Confirm moves a pending appointment to confirmed.
func Confirm(a Appointment) (Appointment, error) {
	if a.Status != StatusPending {
		return a, fmt.Errorf("%w: confirm from %s", ErrInvalidTransition, a.Status)
	}
	a.Status = StatusConfirmed
	return a, nil
}

// Complete moves a confirmed appointment to completed.
func Complete(a Appointment) (Appointment, error) {
	if a.Status != StatusConfirmed {
		return a, fmt.Errorf("%w: complete from %s", ErrInvalidTransition, a.Status)
	}
	a.Status = StatusCompleted
	return a, nil
}

// Cancel cancels any non-terminal appointment and returns the fee owed
// under its cancellation policy.
func Cancel(a Appointment, now time.Time) (Appointment, int, error) {
	if a.Status.Terminal() {
		return a, 0, fmt.Errorf("%w: cancel from %s", ErrInvalidTransition, a.Status)
	}
	fee := LateChangeFee(a, now)
	a.Status = StatusCancelled
	return a, fee, nil
}

// Reschedule moves the appointment to a new slot and back to pending. It is
// the only way out of a terminal status.
func Reschedule(a Appointment, date time.Time, slot string, now time.Time) (Appointment, int, error) {
	slot = strings.TrimSpace(slot)
	if slot == "" {
		return a, 0, fmt.Errorf("%w: missing time slot", ErrInvalidSchedule)
	}
	moved := a
	moved.Date = date
	moved.Time = slot
	if !moved.StartsAt().After(now) {
		return a, 0, fmt.Errorf("%w: %s %s is not in the future", ErrInvalidSchedule, DayKey(date), slot)
	}
	var fee int
	if !a.Status.Terminal() {
		fee = LateChangeFee(a, now)
	}
	moved.Status = StatusPending
	return moved, fee, nil
}

// LateChangeFee is the policy fee when now falls inside the free window
// before the appointment starts, else zero.
func LateChangeFee(a Appointment, now time.Time) int {
	free := time.Duration(a.CancellationPolicy.FreeCancellationHours) * time.Hour
	if a.StartsAt().Sub(now) < free {
		return a.CancellationPolicy.CancellationFee
	}
	return 0
}

// MarkPaid settles the bill. Appointments without billing are billed at the
// doctor's consultation fee first.
func MarkPaid(a Appointment, invoiceID string) (Appointment, error) {
	if a.Status == StatusCancelled {
		return a, fmt.Errorf("%w: pay for cancelled appointment", ErrInvalidTransition)
	}
	billing := Billing{Amount: a.Doctor.ConsultationFee, Status: BillingPending}
	if a.Billing != nil {
		billing = *a.Billing
	}
	if billing.Status == BillingPaid {
		return a, fmt.Errorf("%w: already paid", ErrInvalidTransition)
	}
	billing.Status = BillingPaid
	if billing.InvoiceID == "" {
		billing.InvoiceID = invoiceID
	}
	a.Billing = &billing
	return a, nil
}

// BookRequest is what a receptionist fills in on the add-appointment screen.
type BookRequest struct {
	PatientID   string `json:"patientId"`
	PatientName string `json:"patientName"`
	DoctorID    string `json:"doctorId"`
	DoctorName  string `json:"doctorName"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Type        string `json:"type"`
	Urgency     string `json:"urgency"`
	Duration    string `json:"duration"`
	Location    string `json:"location"`
	Reason      string `json:"reason"`
	Notes       string `json:"notes"`
}

// Book creates a new pending appointment with a fresh id.
func Book(req BookRequest, now time.Time) (Appointment, error) {
	if strings.TrimSpace(req.DoctorName) == "" {
		return Appointment{}, fmt.Errorf("%w: doctor required", ErrInvalidSchedule)
	}
	rec := Record{
		ID:          uuid.NewString(),
		PatientID:   req.PatientID,
		PatientName: req.PatientName,
		DoctorID:    req.DoctorID,
		DoctorName:  strings.TrimSpace(req.DoctorName),
		Date:        req.Date,
		Time:        strings.TrimSpace(req.Time),
		Status:      string(StatusPending),
		Urgency:     req.Urgency,
		Type:        req.Type,
		Duration:    req.Duration,
		Location:    req.Location,
		Reason:      req.Reason,
		Notes:       req.Notes,
	}
	a, err := Decode(rec, now.Location())
	if err != nil {
		return Appointment{}, fmt.Errorf("%w: %w", ErrInvalidSchedule, err)
	}
	if a.Time == "" {
		return Appointment{}, fmt.Errorf("%w: missing time slot", ErrInvalidSchedule)
	}
	if !a.StartsAt().After(now) {
		return Appointment{}, fmt.Errorf("%w: %s %s is not in the future", ErrInvalidSchedule, DayKey(a.Date), a.Time)
	}
	return a, nil
}
