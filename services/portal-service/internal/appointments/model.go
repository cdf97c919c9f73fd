// Package appointments derives the display projections of the appointment
// screens: filtered and sorted lists, calendar buckets, counts, follow-up
// suggestions and reminders. Everything here is pure; "now" is always a
// parameter.
package appointments

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrInvalidRecord     = errors.New("invalid appointment record")
	ErrInvalidTransition = errors.New("invalid appointment transition")
	ErrInvalidSchedule   = errors.New("invalid appointment schedule")
	ErrInvalidFilter     = errors.New("invalid filter")
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

// ParseStatus canonicalizes the four known statuses and keeps anything else verbatim.
func ParseStatus(raw string) Status {
	trimmed := strings.TrimSpace(raw)
	for _, s := range []Status{StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted} {
		if strings.EqualFold(trimmed, string(s)) {
			return s
		}
	}
	if trimmed == "" {
		return StatusPending
	}
	return Status(trimmed)
}

// Terminal statuses only change through Reschedule.
func (s Status) Terminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

type Urgency string

const (
	UrgencyNormal    Urgency = "normal"
	UrgencyUrgent    Urgency = "urgent"
	UrgencyEmergency Urgency = "emergency"
)

func ParseUrgency(raw string) Urgency {
	switch u := Urgency(strings.ToLower(strings.TrimSpace(raw))); u {
	case UrgencyUrgent, UrgencyEmergency:
		return u
	default:
		return UrgencyNormal
	}
}

const (
	BillingPending = "pending"
	BillingPaid    = "paid"
)

type Doctor struct {
	Name            string  `json:"name"`
	Specialization  string  `json:"specialization"`
	Rating          int     `json:"rating"`
	Experience      int     `json:"experience"`
	ConsultationFee float64 `json:"consultationFee"`
	IsOnline        bool    `json:"isOnline"`
}

type Billing struct {
	Amount    float64 `json:"amount"`
	Status    string  `json:"status"`
	InvoiceID string  `json:"invoiceId,omitempty"`
}

type Prescription struct {
	Name      string `json:"name"`
	Dosage    string `json:"dosage,omitempty"`
	Frequency string `json:"frequency,omitempty"`
	Duration  string `json:"duration,omitempty"`
}

type LabTest struct {
	Name   string `json:"name"`
	Code   string `json:"code,omitempty"`
	Status string `json:"status,omitempty"`
	Result string `json:"result,omitempty"`
}

type Teleconsultation struct {
	Available bool   `json:"available"`
	Platform  string `json:"platform,omitempty"`
	MeetingID string `json:"meetingId,omitempty"`
}

type CancellationPolicy struct {
	FreeCancellationHours int `json:"freeCancellationHours"`
	CancellationFee       int `json:"cancellationFee"`
}

// Appointment is a decoded record. Billing, Teleconsultation, Prescriptions
// and LabTests are nil when the backend sent nothing for them.
type Appointment struct {
	ID                 string             `json:"id"`
	PatientID          string             `json:"patientId,omitempty"`
	PatientName        string             `json:"patientName,omitempty"`
	DoctorID           string             `json:"doctorId,omitempty"`
	Doctor             Doctor             `json:"doctor"`
	Date               time.Time          `json:"date"`
	Time               string             `json:"time"`
	Status             Status             `json:"status"`
	Urgency            Urgency            `json:"urgency"`
	Type               string             `json:"type"`
	Duration           string             `json:"duration"`
	Location           string             `json:"location"`
	Reason             string             `json:"reason"`
	Notes              string             `json:"notes,omitempty"`
	Billing            *Billing           `json:"billing,omitempty"`
	Prescriptions      []Prescription     `json:"prescriptions,omitempty"`
	LabTests           []LabTest          `json:"labTests,omitempty"`
	Teleconsultation   *Teleconsultation  `json:"teleconsultation,omitempty"`
	CancellationPolicy CancellationPolicy `json:"cancellationPolicy"`
}

// StartsAt combines the calendar date with the slot label when the label is
// a clock time ("10:00" or "3:04 PM"). Other labels fall back to the date.
func (a Appointment) StartsAt() time.Time {
	slot := strings.TrimSpace(a.Time)
	for _, layout := range []string{"15:04", "3:04 PM", "3:04PM"} {
		t, err := time.Parse(layout, slot)
		if err == nil {
			y, m, d := a.Date.Date()
			return time.Date(y, m, d, t.Hour(), t.Minute(), 0, 0, a.Date.Location())
		}
	}
	return a.Date
}

// DayKey is the calendar-day key used by every bucketing map.
func DayKey(t time.Time) string {
	return t.Format(time.DateOnly)
}
