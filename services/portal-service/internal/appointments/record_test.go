package appointments

import (
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeDefaults(t *testing.T) {
	var rec Record
	require.NoError(t, json.Unmarshal([]byte(`{
		"_id": "1",
		"doctorName": "Dr. Smith",
		"date": "2024-01-20",
		"time": "10:00",
		"status": "Confirmed"
	}`), &rec))

	a, err := Decode(rec, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, "1", a.ID)
	assert.Equal(t, time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC), a.Date)
	assert.Equal(t, StatusConfirmed, a.Status)
	assert.Equal(t, UrgencyNormal, a.Urgency)
	assert.Equal(t, "Consultation", a.Type)
	assert.Equal(t, "30 Minutes", a.Duration)
	assert.Equal(t, "Main Clinic", a.Location)
	assert.Equal(t, "Regular Checkup", a.Reason)
	assert.Equal(t, CancellationPolicy{FreeCancellationHours: 24, CancellationFee: 100}, a.CancellationPolicy)
	assert.Nil(t, a.Billing)
	assert.Nil(t, a.Teleconsultation)
	assert.Nil(t, a.Prescriptions)
	assert.Equal(t, "Dermatology", a.Doctor.Specialization)
}

func TestDecodeDoctorObjectAndRFC3339(t *testing.T) {
	var rec Record
	require.NoError(t, json.Unmarshal([]byte(`{
		"id": "9",
		"doctor": {"name": "Dr. Emily Chen", "specialization": "Pediatrics", "rating": 5, "isOnline": false},
		"date": "2026-03-20T09:00:00Z",
		"status": "scheduled",
		"urgency": "EMERGENCY"
	}`), &rec))

	kolkata, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)
	a, err := Decode(rec, kolkata)
	require.NoError(t, err)
	assert.Equal(t, "Dr. Emily Chen", a.Doctor.Name)
	assert.Equal(t, "Pediatrics", a.Doctor.Specialization)
	assert.Equal(t, 5, a.Doctor.Rating)
	assert.False(t, a.Doctor.IsOnline)
	assert.Equal(t, Status("scheduled"), a.Status, "unknown statuses are kept")
	assert.Equal(t, UrgencyEmergency, a.Urgency)
	assert.Equal(t, kolkata, a.Date.Location())
	assert.True(t, a.Date.Equal(time.Date(2026, 3, 20, 9, 0, 0, 0, time.UTC)))
}

func TestDecodeInvalidDate(t *testing.T) {
	for _, raw := range []string{"", "20/01/2024", "2024-13-01"} {
		_, err := Decode(Record{ID: "bad", DoctorName: "Dr. Smith", Date: raw}, time.UTC)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidRecord)
		var recErr *RecordError
		require.True(t, errors.As(err, &recErr))
		assert.Equal(t, "bad", recErr.ID)
	}
}

func TestDecodeAllSkipsBadRecords(t *testing.T) {
	recs := []Record{
		{ID: "1", DoctorName: "Dr. Smith", Date: "2026-03-01"},
		{ID: "2", DoctorName: "Dr. Smith", Date: "tomorrow"},
		{ID: "3", DoctorName: "Dr. Smith", Date: "2026-03-02"},
	}
	got := DecodeAll(recs, time.UTC, slog.New(slog.DiscardHandler))
	assert.Equal(t, []string{"1", "3"}, ids(got))
}

func TestDecodeMalformedDoctorFallsBackToName(t *testing.T) {
	for _, doc := range []string{`42`, `[1, 2]`, `{"name": 5}`, `true`} {
		a, err := Decode(Record{ID: "7", Doctor: json.RawMessage(doc), DoctorName: "Dr. Smith", Date: "2026-03-01"}, time.UTC)
		require.NoError(t, err, doc)
		assert.Equal(t, "Dr. Smith", a.Doctor.Name, doc)
		assert.Equal(t, enrich(doctorRecord{Name: "Dr. Smith"}), a.Doctor, doc)
	}

	a, err := Decode(Record{ID: "8", Doctor: json.RawMessage(`{"name": "Dr. Lee", "rating": "high", "consultationFee": 650.5}`), Date: "2026-03-01"}, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, "Dr. Lee", a.Doctor.Name)
	assert.Equal(t, 650.5, a.Doctor.ConsultationFee)
}

func TestParseRecordsDropsBadFields(t *testing.T) {
	raws := []json.RawMessage{
		json.RawMessage(`{"id": "1", "date": "2026-03-01", "billing": {"amount": 99.99, "status": "paid"}}`),
		json.RawMessage(`{"id": "2", "date": "2026-03-02", "billing": {"amount": "lots"}, "notes": "keep me"}`),
		json.RawMessage(`17`),
	}
	recs := ParseRecords(raws, slog.New(slog.DiscardHandler))
	require.Len(t, recs, 2)
	assert.Equal(t, 99.99, recs[0].Billing.Amount)
	assert.Equal(t, "2", recs[1].ID)
	assert.Nil(t, recs[1].Billing)
	assert.Equal(t, "keep me", recs[1].Notes)
}

func TestEnrichmentIsDeterministic(t *testing.T) {
	a := enrich(doctorRecord{Name: "Dr. Sarah Wilson"})
	b := enrich(doctorRecord{Name: "Dr. Sarah Wilson"})
	assert.Equal(t, a, b)
	assert.GreaterOrEqual(t, a.Rating, 4)
	assert.LessOrEqual(t, a.Rating, 5)
	assert.GreaterOrEqual(t, a.Experience, 5)
	assert.Less(t, a.Experience, 15)
	assert.GreaterOrEqual(t, a.ConsultationFee, 500.0)
	assert.Less(t, a.ConsultationFee, 1500.0)

	fee := 900.0
	assert.Equal(t, 900.0, enrich(doctorRecord{Name: "Dr. Sarah Wilson", ConsultationFee: &fee}).ConsultationFee)
}

func TestEncodeRoundTripsThroughDecode(t *testing.T) {
	for _, rec := range DemoRecords(now) {
		a, err := Decode(rec, time.UTC)
		require.NoError(t, err)
		back, err := Decode(Encode(a), time.UTC)
		require.NoError(t, err)
		assert.Equal(t, a, back)
	}
}
