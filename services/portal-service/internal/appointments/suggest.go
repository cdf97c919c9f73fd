package appointments

import (
	"fmt"
	"time"
)

const (
	SuggestionFollowUp   = "followup"
	SuggestionAnnual     = "annual"
	SuggestionPreventive = "preventive"

	maxSuggestions = 3
	lookback       = 30 * 24 * time.Hour
	day            = 24 * time.Hour
)

type Suggestion struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Doctor      Doctor `json:"doctor"`
	Priority    string `json:"priority"`
	Action      string `json:"action"`
}

var preventive = []Suggestion{
	{
		ID:          "preventive-1",
		Type:        SuggestionPreventive,
		Title:       "Preventive Care",
		Description: "Schedule your annual preventive health checkup",
		Doctor:      Doctor{Name: "Dr. Preventive Care", Specialization: "General Medicine"},
		Priority:    "high",
		Action:      "Book Preventive Care",
	},
	{
		ID:          "preventive-2",
		Type:        SuggestionPreventive,
		Title:       "General Checkup",
		Description: "Schedule your regular health checkup",
		Doctor:      Doctor{Name: "Dr. General Care", Specialization: "General Medicine"},
		Priority:    "medium",
		Action:      "Book General Checkup",
	},
}

// SuggestFollowUps looks at completed appointments from the last 30 days.
// Two weeks or more since the visit yields a follow-up; a year or more an
// annual checkup, which the 30-day window never admits. Two preventive-care
// entries always follow, and the result is capped at three.
func SuggestFollowUps(list []Appointment, now time.Time) []Suggestion {
	from := now.Add(-lookback)
	var out []Suggestion
	for _, a := range list {
		if a.Status != StatusCompleted || a.Date.Before(from) || a.Date.After(now) {
			continue
		}
		age := int(now.Sub(a.Date) / day)
		if age >= 14 {
			out = append(out, Suggestion{
				ID:          "followup-" + a.ID,
				Type:        SuggestionFollowUp,
				Title:       "Follow-up Recommended",
				Description: fmt.Sprintf("Book a follow-up with %s for your %s", a.Doctor.Name, a.Reason),
				Doctor:      a.Doctor,
				Priority:    "medium",
				Action:      "Book Follow-up",
			})
		}
		if age >= 365 {
			out = append(out, Suggestion{
				ID:          "annual-" + a.ID,
				Type:        SuggestionAnnual,
				Title:       "Annual Checkup Due",
				Description: fmt.Sprintf("It's been a year since your last visit with %s", a.Doctor.Name),
				Doctor:      a.Doctor,
				Priority:    "high",
				Action:      "Book Annual Checkup",
			})
		}
	}
	out = append(out, preventive...)
	if len(out) > maxSuggestions {
		out = out[:maxSuggestions]
	}
	return out
}

const (
	ReminderWarning = "warning"
	ReminderInfo    = "info"
)

type Reminder struct {
	AppointmentID string `json:"appointmentId"`
	Level         string `json:"level"`
	Message       string `json:"message"`
}

// Reminders flags confirmed appointments on now's calendar day and the day after.
func Reminders(list []Appointment, now time.Time) []Reminder {
	today := DayKey(now)
	tomorrow := DayKey(now.AddDate(0, 0, 1))
	var out []Reminder
	for _, a := range list {
		if a.Status != StatusConfirmed {
			continue
		}
		switch DayKey(a.Date.In(now.Location())) {
		case today:
			out = append(out, Reminder{
				AppointmentID: a.ID,
				Level:         ReminderWarning,
				Message:       fmt.Sprintf("You have an appointment with %s today at %s", a.Doctor.Name, a.Time),
			})
		case tomorrow:
			out = append(out, Reminder{
				AppointmentID: a.ID,
				Level:         ReminderInfo,
				Message:       fmt.Sprintf("Reminder: You have an appointment with %s tomorrow at %s", a.Doctor.Name, a.Time),
			})
		}
	}
	return out
}
