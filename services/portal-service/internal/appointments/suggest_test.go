package appointments

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completedDaysAgo(id string, days int) Appointment {
	a := apt(id, "Dr. Smith", now.AddDate(0, 0, -days), StatusCompleted)
	a.Reason = "Migraine"
	return a
}

func TestFollowUpBoundary(t *testing.T) {
	got := SuggestFollowUps([]Appointment{completedDaysAgo("x", 14)}, now)
	require.Len(t, got, 3)
	assert.Equal(t, SuggestionFollowUp, got[0].Type)
	assert.Equal(t, "followup-x", got[0].ID)
	assert.Equal(t, "Book a follow-up with Dr. Smith for your Migraine", got[0].Description)

	got = SuggestFollowUps([]Appointment{completedDaysAgo("x", 13)}, now)
	require.Len(t, got, 2)
	assert.Equal(t, SuggestionPreventive, got[0].Type)
	assert.Equal(t, SuggestionPreventive, got[1].Type)
}

func TestFollowUpWindow(t *testing.T) {
	list := []Appointment{
		completedDaysAgo("old", 31),
		completedDaysAgo("year", 400),
		apt("confirmed", "Dr. Smith", now.AddDate(0, 0, -20), StatusConfirmed),
		apt("future", "Dr. Smith", now.AddDate(0, 0, 20), StatusCompleted),
	}
	got := SuggestFollowUps(list, now)
	require.Len(t, got, 2)
	for _, s := range got {
		assert.NotEqual(t, SuggestionAnnual, s.Type, "the 30-day window never reaches a year")
	}
}

func TestFollowUpCap(t *testing.T) {
	list := []Appointment{
		completedDaysAgo("1", 20),
		completedDaysAgo("2", 25),
		completedDaysAgo("3", 15),
		completedDaysAgo("4", 16),
	}
	got := SuggestFollowUps(list, now)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"followup-1", "followup-2", "followup-3"}, []string{got[0].ID, got[1].ID, got[2].ID})
}

func TestReminders(t *testing.T) {
	today := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	list := []Appointment{
		apt("today", "Dr. Smith", today, StatusConfirmed),
		apt("tomorrow", "Dr. Johnson", today.AddDate(0, 0, 1), StatusConfirmed),
		apt("pending", "Dr. Smith", today, StatusPending),
		apt("later", "Dr. Smith", today.AddDate(0, 0, 2), StatusConfirmed),
	}
	list[0].Time = "16:00"
	list[1].Time = "09:30"

	got := Reminders(list, now)
	require.Len(t, got, 2)
	assert.Equal(t, Reminder{
		AppointmentID: "today",
		Level:         ReminderWarning,
		Message:       "You have an appointment with Dr. Smith today at 16:00",
	}, got[0])
	assert.Equal(t, ReminderInfo, got[1].Level)
	assert.Equal(t, "Reminder: You have an appointment with Dr. Johnson tomorrow at 09:30", got[1].Message)
}
