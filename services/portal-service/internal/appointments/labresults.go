package appointments

import (
	"slices"
	"strings"
	"time"
)

const (
	LabCompleted = "completed"
	LabPending   = "pending"
)

// LabResult is one lab test flattened out of the appointment that ordered
// it. Department is the ordering doctor's specialization and Priority the
// appointment's urgency.
type LabResult struct {
	AppointmentID string    `json:"appointmentId"`
	PatientName   string    `json:"patientName,omitempty"`
	TestName      string    `json:"testName"`
	TestCode      string    `json:"testCode,omitempty"`
	Doctor        string    `json:"doctor"`
	Department    string    `json:"department"`
	Date          time.Time `json:"date"`
	Status        string    `json:"status"`
	Priority      Urgency   `json:"priority"`
	Result        string    `json:"result,omitempty"`
	Abnormal      bool      `json:"abnormal"`
}

// LabResults flattens every lab test in list, newest appointment first.
// Tests without a status are pending.
func LabResults(list []Appointment) []LabResult {
	var out []LabResult
	for _, a := range list {
		for _, t := range a.LabTests {
			status := strings.ToLower(strings.TrimSpace(t.Status))
			if status == "" {
				status = LabPending
			}
			out = append(out, LabResult{
				AppointmentID: a.ID,
				PatientName:   a.PatientName,
				TestName:      t.Name,
				TestCode:      t.Code,
				Doctor:        a.Doctor.Name,
				Department:    a.Doctor.Specialization,
				Date:          a.Date,
				Status:        status,
				Priority:      a.Urgency,
				Result:        t.Result,
				Abnormal:      isAbnormal(t.Result),
			})
		}
	}
	slices.SortStableFunc(out, func(a, b LabResult) int { return b.Date.Compare(a.Date) })
	if out == nil {
		out = []LabResult{}
	}
	return out
}

type LabFilter struct {
	Department string
	Status     string
	Priority   string
	// From and To bound the appointment day, inclusive. Zero is open.
	From   time.Time
	To     time.Time
	Search string
}

// FilterLabResults applies every non-empty criterion. Search matches a
// substring of the test name, test code or doctor.
func FilterLabResults(list []LabResult, f LabFilter) []LabResult {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	from, to := "", ""
	if !f.From.IsZero() {
		from = DayKey(f.From)
	}
	if !f.To.IsZero() {
		to = DayKey(f.To)
	}
	out := make([]LabResult, 0, len(list))
	for _, r := range list {
		day := DayKey(r.Date)
		switch {
		case !matchesOption(r.Department, f.Department),
			!matchesOption(r.Status, f.Status),
			!matchesOption(string(r.Priority), f.Priority),
			from != "" && day < from,
			to != "" && day > to,
			search != "" && !containsAny(search, r.TestName, r.TestCode, r.Doctor):
			continue
		}
		out = append(out, r)
	}
	return out
}

type LabStats struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Pending   int `json:"pending"`
	Abnormal  int `json:"abnormal"`
}

func CountLabResults(list []LabResult) LabStats {
	s := LabStats{Total: len(list)}
	for _, r := range list {
		switch r.Status {
		case LabCompleted:
			s.Completed++
		case LabPending:
			s.Pending++
		}
		if r.Abnormal {
			s.Abnormal++
		}
	}
	return s
}

// isAbnormal reads free-text results such as "Abnormal" or "abnormal - high LDL".
func isAbnormal(result string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(result)), "abnormal")
}
