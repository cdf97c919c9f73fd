package appointments

import (
	"hash/fnv"
	"math"
	"unicode/utf8"
)

var specializations = []string{
	"Cardiology", "Dermatology", "Neurology", "Orthopedics",
	"Pediatrics", "Gynecology", "General Medicine", "Psychiatry",
}

// Specialization is the fallback when the backend does not send one.
func Specialization(name string) string {
	return specializations[utf8.RuneCountInString(name)%len(specializations)]
}

// enrich fills the doctor attributes the backend left out. Values come from
// a hash of the name, so the same doctor renders the same everywhere.
func enrich(dr doctorRecord) Doctor {
	h := fnv.New32a()
	_, _ = h.Write([]byte(dr.Name))
	sum := h.Sum32()

	d := Doctor{
		Name:            dr.Name,
		Specialization:  dr.Specialization,
		Rating:          4 + int(sum%2),
		Experience:      5 + int((sum>>1)%10),
		ConsultationFee: float64(500 + (sum>>5)%1000),
		IsOnline:        (sum>>15)&1 == 1,
	}
	if d.Specialization == "" {
		d.Specialization = Specialization(dr.Name)
	}
	if dr.Rating != nil {
		d.Rating = int(math.Round(*dr.Rating))
	}
	if dr.Experience != nil {
		d.Experience = int(math.Round(*dr.Experience))
	}
	if dr.ConsultationFee != nil {
		d.ConsultationFee = *dr.ConsultationFee
	}
	if dr.IsOnline != nil {
		d.IsOnline = *dr.IsOnline
	}
	return d
}
