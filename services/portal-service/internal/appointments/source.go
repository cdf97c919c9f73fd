package appointments

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"
)

var ErrNotFound = errors.New("appointment not found")

// Source is where raw appointment records live: the healthcare backend, or
// the in-memory demo data when no backend is configured.
type Source interface {
	List(ctx context.Context) ([]Record, error)
	Create(ctx context.Context, rec Record) error
	Update(ctx context.Context, rec Record) error
}

// MemorySource is a mutex-guarded in-process Source.
type MemorySource struct {
	mu      sync.RWMutex
	records []Record
}

func NewMemorySource(seed []Record) *MemorySource {
	return &MemorySource{records: slices.Clone(seed)}
}

func (s *MemorySource) List(_ context.Context) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.records), nil
}

func (s *MemorySource) Create(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index(recordID(rec)) >= 0 {
		return fmt.Errorf("appointment %q already exists", recordID(rec))
	}
	s.records = append(s.records, rec)
	return nil
}

func (s *MemorySource) Update(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(recordID(rec))
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, recordID(rec))
	}
	s.records[i] = rec
	return nil
}

func (s *MemorySource) index(id string) int {
	return slices.IndexFunc(s.records, func(r Record) bool { return recordID(r) == id })
}

func recordID(r Record) string {
	if r.ID != "" {
		return r.ID
	}
	return r.LegacyID
}

// Find returns the appointment with id from list.
func Find(list []Appointment, id string) (Appointment, error) {
	for _, a := range list {
		if a.ID == id {
			return a, nil
		}
	}
	return Appointment{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// DemoRecords seeds the memory source: the two fixed records from the
// staff-portal demo data plus a handful placed around now so every
// projection has something to show.
func DemoRecords(now time.Time) []Record {
	d := func(days int) string { return DayKey(now.AddDate(0, 0, days)) }
	return []Record{
		{LegacyID: "1", PatientID: "1", PatientName: "John Doe", DoctorID: "doc1", DoctorName: "Dr. Smith",
			Date: "2024-01-20", Time: "10:00", Status: "scheduled", Reason: "Regular checkup", Notes: "Patient requested annual physical"},
		{LegacyID: "2", PatientID: "2", PatientName: "Jane Smith", DoctorID: "doc2", DoctorName: "Dr. Johnson",
			Date: "2024-01-20", Time: "11:00", Status: "completed", Reason: "Follow-up appointment", Notes: "Asthma management review"},
		{LegacyID: "3", PatientID: "1", PatientName: "John Doe", DoctorID: "doc3", DoctorName: "Dr. Sarah Wilson",
			Date: d(1), Time: "09:30", Status: "confirmed", Type: "Consultation", Reason: "Chest pain evaluation", Urgency: "urgent",
			Billing: &Billing{Amount: 1200, Status: BillingPending}},
		{LegacyID: "4", PatientID: "3", PatientName: "Mike Johnson", DoctorID: "doc2", DoctorName: "Dr. Johnson",
			Date: d(6), Time: "14:00", Status: "pending", Reason: "Blood pressure review"},
		{LegacyID: "5", PatientID: "2", PatientName: "Jane Smith", DoctorID: "doc1", DoctorName: "Dr. Smith",
			Date: d(-16), Time: "11:30", Status: "completed", Reason: "Migraine",
			Prescriptions: []Prescription{{Name: "Paracetamol", Dosage: "500mg", Frequency: "Twice daily", Duration: "5 days"}},
			LabTests:      []LabTest{{Name: "Blood Test", Status: "completed", Result: "Normal"}},
			Billing:       &Billing{Amount: 800, Status: BillingPaid, InvoiceID: "INV-DEMO-5"}},
		{LegacyID: "6", PatientID: "3", PatientName: "Mike Johnson", DoctorID: "doc3", DoctorName: "Dr. Sarah Wilson",
			Date: d(-3), Time: "16:00", Status: "cancelled", Reason: "Annual physical"},
		{LegacyID: "7", PatientID: "4", PatientName: "Emily Davis", DoctorID: "doc4", DoctorName: "Dr. Emily Chen",
			Date: d(12), Time: "10:30", Status: "confirmed", Type: "Follow-up", Reason: "Skin allergy follow-up",
			Teleconsultation: &Teleconsultation{Available: true, Platform: "Zoom", MeetingID: "demo-7"}},
	}
}
