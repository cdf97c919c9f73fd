package appointments

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func labList() []Appointment {
	older := apt("older", "Dr. Johnson", now.AddDate(0, 0, -10), StatusCompleted)
	older.Doctor.Specialization = "Cardiology"
	older.Urgency = UrgencyNormal
	older.LabTests = []LabTest{
		{Name: "Lipid Panel", Code: "LIP-01", Status: "Completed", Result: "Abnormal - high LDL"},
		{Name: "Complete Blood Count", Code: "CBC-01", Status: "completed", Result: "Normal"},
	}

	recent := apt("recent", "Dr. Patel", now.AddDate(0, 0, -1), StatusCompleted)
	recent.Doctor.Specialization = "Neurology"
	recent.Urgency = UrgencyUrgent
	recent.LabTests = []LabTest{{Name: "MRI Brain", Code: "MRI-07"}}

	none := apt("none", "Dr. Smith", now.AddDate(0, 0, 2), StatusConfirmed)
	return []Appointment{older, recent, none}
}

func testNames(list []LabResult) []string {
	out := make([]string, 0, len(list))
	for _, r := range list {
		out = append(out, r.TestName)
	}
	return out
}

func TestLabResultsFlatten(t *testing.T) {
	rs := LabResults(labList())
	require.Equal(t, []string{"MRI Brain", "Lipid Panel", "Complete Blood Count"}, testNames(rs))
	assert.Equal(t, LabPending, rs[0].Status)
	assert.Equal(t, UrgencyUrgent, rs[0].Priority)
	assert.Equal(t, "Neurology", rs[0].Department)
	assert.Equal(t, LabCompleted, rs[1].Status)
	assert.True(t, rs[1].Abnormal)
	assert.False(t, rs[2].Abnormal)

	assert.NotNil(t, LabResults(nil))
}

func TestFilterLabResults(t *testing.T) {
	rs := LabResults(labList())

	assert.Equal(t, []string{"Lipid Panel", "Complete Blood Count"}, testNames(FilterLabResults(rs, LabFilter{Department: "cardiology", Status: "All Status"})))
	assert.Equal(t, []string{"MRI Brain"}, testNames(FilterLabResults(rs, LabFilter{Priority: "Urgent"})))
	assert.Equal(t, []string{"MRI Brain"}, testNames(FilterLabResults(rs, LabFilter{Status: "Pending"})))
	assert.Equal(t, []string{"Complete Blood Count"}, testNames(FilterLabResults(rs, LabFilter{Search: "cbc"})))
	assert.Equal(t, []string{"Lipid Panel", "Complete Blood Count"}, testNames(FilterLabResults(rs, LabFilter{Search: "johnson"})))

	// The day bounds are inclusive.
	assert.Equal(t, []string{"Lipid Panel", "Complete Blood Count"}, testNames(FilterLabResults(rs, LabFilter{
		From: now.AddDate(0, 0, -10),
		To:   now.AddDate(0, 0, -2),
	})))
	assert.Equal(t, []string{"MRI Brain"}, testNames(FilterLabResults(rs, LabFilter{From: now.AddDate(0, 0, -1)})))
	assert.Empty(t, FilterLabResults(rs, LabFilter{To: now.AddDate(0, 0, -11)}))
}

func TestCountLabResults(t *testing.T) {
	assert.Equal(t, LabStats{Total: 3, Completed: 2, Pending: 1, Abnormal: 1}, CountLabResults(LabResults(labList())))
}
