package appointments

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"time"
)

const (
	defaultType     = "Consultation"
	defaultDuration = "30 Minutes"
	defaultLocation = "Main Clinic"
	defaultReason   = "Regular Checkup"
)

var defaultPolicy = CancellationPolicy{FreeCancellationHours: 24, CancellationFee: 100}

// Record is the backend's wire shape. The doctor arrives either as a plain
// name or as an object; ids arrive as id or _id.
type Record struct {
	ID                 string              `json:"id,omitempty"`
	LegacyID           string              `json:"_id,omitempty"`
	PatientID          string              `json:"patientId,omitempty"`
	PatientName        string              `json:"patientName,omitempty"`
	DoctorID           string              `json:"doctorId,omitempty"`
	Doctor             json.RawMessage     `json:"doctor,omitempty"`
	DoctorName         string              `json:"doctorName,omitempty"`
	Date               string              `json:"date"`
	Time               string              `json:"time,omitempty"`
	Status             string              `json:"status,omitempty"`
	Urgency            string              `json:"urgency,omitempty"`
	Type               string              `json:"type,omitempty"`
	Duration           string              `json:"duration,omitempty"`
	Location           string              `json:"location,omitempty"`
	Reason             string              `json:"reason,omitempty"`
	Notes              string              `json:"notes,omitempty"`
	Billing            *Billing            `json:"billing,omitempty"`
	Prescriptions      []Prescription      `json:"prescriptions,omitempty"`
	LabTests           []LabTest           `json:"labTests,omitempty"`
	Teleconsultation   *Teleconsultation   `json:"teleconsultation,omitempty"`
	CancellationPolicy *CancellationPolicy `json:"cancellationPolicy,omitempty"`
}

type doctorRecord struct {
	Name            string   `json:"name"`
	Specialization  string   `json:"specialization"`
	Rating          *float64 `json:"rating"`
	Experience      *float64 `json:"experience"`
	ConsultationFee *float64 `json:"consultationFee"`
	IsOnline        *bool    `json:"isOnline"`
}

// RecordError names the record that failed to decode.
type RecordError struct {
	ID     string
	Reason string
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("appointment %q: %s", e.ID, e.Reason)
}

func (e *RecordError) Unwrap() error { return ErrInvalidRecord }

// Decode turns a record into an Appointment. Bare dates are midnight in loc.
func Decode(rec Record, loc *time.Location) (Appointment, error) {
	if loc == nil {
		loc = time.UTC
	}
	id := rec.ID
	if id == "" {
		id = rec.LegacyID
	}
	date, err := ParseDate(rec.Date, loc)
	if err != nil {
		return Appointment{}, &RecordError{ID: id, Reason: err.Error()}
	}
	doc := decodeDoctor(rec)

	policy := defaultPolicy
	if rec.CancellationPolicy != nil {
		policy = *rec.CancellationPolicy
	}
	return Appointment{
		ID:                 id,
		PatientID:          rec.PatientID,
		PatientName:        rec.PatientName,
		DoctorID:           rec.DoctorID,
		Doctor:             doc,
		Date:               date,
		Time:               rec.Time,
		Status:             ParseStatus(rec.Status),
		Urgency:            ParseUrgency(rec.Urgency),
		Type:               orDefault(rec.Type, defaultType),
		Duration:           orDefault(rec.Duration, defaultDuration),
		Location:           orDefault(rec.Location, defaultLocation),
		Reason:             orDefault(rec.Reason, defaultReason),
		Notes:              rec.Notes,
		Billing:            rec.Billing,
		Prescriptions:      rec.Prescriptions,
		LabTests:           rec.LabTests,
		Teleconsultation:   rec.Teleconsultation,
		CancellationPolicy: policy,
	}, nil
}

// DecodeAll decodes every record, logging and skipping the ones that fail.
func DecodeAll(recs []Record, loc *time.Location, logger *slog.Logger) []Appointment {
	out := make([]Appointment, 0, len(recs))
	for _, rec := range recs {
		a, err := Decode(rec, loc)
		if err != nil {
			if logger != nil {
				logger.Warn("appointment record skipped", "err", err)
			}
			continue
		}
		out = append(out, a)
	}
	return out
}

// Encode is the inverse of Decode, used when writing an appointment back.
func Encode(a Appointment) Record {
	doc, _ := json.Marshal(a.Doctor)
	policy := a.CancellationPolicy
	return Record{
		ID:                 a.ID,
		PatientID:          a.PatientID,
		PatientName:        a.PatientName,
		DoctorID:           a.DoctorID,
		Doctor:             doc,
		DoctorName:         a.Doctor.Name,
		Date:               DayKey(a.Date),
		Time:               a.Time,
		Status:             string(a.Status),
		Urgency:            string(a.Urgency),
		Type:               a.Type,
		Duration:           a.Duration,
		Location:           a.Location,
		Reason:             a.Reason,
		Notes:              a.Notes,
		Billing:            a.Billing,
		Prescriptions:      a.Prescriptions,
		LabTests:           a.LabTests,
		Teleconsultation:   a.Teleconsultation,
		CancellationPolicy: &policy,
	}
}

// ParseDate accepts YYYY-MM-DD (midnight in loc) or an RFC 3339 instant.
func ParseDate(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("missing date")
	}
	if t, err := time.ParseInLocation(time.DateOnly, raw, loc); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.In(loc), nil
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", raw)
}

// decodeDoctor never fails: a doctor value that is neither a name nor an
// object falls back to doctorName, and object fields of the wrong type are dropped.
func decodeDoctor(rec Record) Doctor {
	raw := bytes.TrimSpace(rec.Doctor)
	var dr doctorRecord
	switch {
	case len(raw) == 0 || bytes.Equal(raw, []byte("null")):
	case raw[0] == '"':
		_ = json.Unmarshal(raw, &dr.Name)
	default:
		parsed, _, err := lenientUnmarshal[doctorRecord](raw)
		if err == nil {
			dr = parsed
		}
	}
	if dr.Name == "" {
		dr.Name = rec.DoctorName
	}
	return enrich(dr)
}

// ParseRecords unmarshals one page of backend records. A record that is not
// a JSON object is logged and skipped; fields whose value does not fit their
// type are logged and dropped so the rest of the record still renders.
func ParseRecords(raws []json.RawMessage, logger *slog.Logger) []Record {
	out := make([]Record, 0, len(raws))
	for i, raw := range raws {
		rec, dropped, err := lenientUnmarshal[Record](raw)
		if err != nil {
			if logger != nil {
				logger.Warn("appointment record skipped", "index", i, "err", err)
			}
			continue
		}
		if len(dropped) > 0 && logger != nil {
			id := rec.ID
			if id == "" {
				id = rec.LegacyID
			}
			logger.Warn("appointment record fields dropped", "appointment_id", id, "fields", dropped)
		}
		out = append(out, rec)
	}
	return out
}

// lenientUnmarshal decodes raw into a T. When the strict decode fails it
// retries key by key, keeping every key that decodes and returning the
// names of the ones that did not. Only non-object input is an error.
func lenientUnmarshal[T any](raw []byte) (T, []string, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err == nil {
		return v, nil, nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		var zero T
		return zero, nil, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	var zero T
	v = zero
	var dropped []string
	for _, key := range slices.Sorted(maps.Keys(fields)) {
		one, err := json.Marshal(map[string]json.RawMessage{key: fields[key]})
		if err != nil {
			dropped = append(dropped, key)
			continue
		}
		next := v
		if err := json.Unmarshal(one, &next); err != nil {
			dropped = append(dropped, key)
			continue
		}
		v = next
	}
	return v, dropped, nil
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
