package storage

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"
)

// DemoStaff is one account of the demo roster, with its plain password.
type DemoStaff struct {
	Name           string
	Email          string
	Password       string
	Role           string
	Specialization string
	Department     string
}

var DemoRoster = []DemoStaff{
	{Name: "Admin User", Email: "admin@healthcare.com", Password: "admin123", Role: "admin"},
	{Name: "Admin Manager", Email: "admin2@healthcare.com", Password: "admin456", Role: "admin"},
	{Name: "Dr. Smith", Email: "doctor@healthcare.com", Password: "doctor123", Role: "doctor", Specialization: "Cardiology"},
	{Name: "Dr. Johnson", Email: "doctor2@healthcare.com", Password: "doctor456", Role: "doctor", Specialization: "Neurology"},
	{Name: "Nurse Williams", Email: "nurse@healthcare.com", Password: "nurse123", Role: "nurse", Department: "Emergency"},
	{Name: "Nurse Brown", Email: "nurse2@healthcare.com", Password: "nurse456", Role: "nurse", Department: "ICU"},
	{Name: "Receptionist Davis", Email: "receptionist@healthcare.com", Password: "receptionist123", Role: "receptionist"},
	{Name: "Receptionist Wilson", Email: "receptionist2@healthcare.com", Password: "receptionist456", Role: "receptionist"},
	{Name: "Pharmacist Taylor", Email: "pharmacist@healthcare.com", Password: "pharmacist123", Role: "pharmacist"},
	{Name: "Pharmacist Anderson", Email: "pharmacist2@healthcare.com", Password: "pharmacist456", Role: "pharmacist"},
}

type Upserter interface {
	Upsert(ctx context.Context, u User) (bool, error)
}

// SeedDemo writes the roster, re-hashing every password so reruns reset them.
func SeedDemo(ctx context.Context, users Upserter, roster []DemoStaff, cost int, logger *slog.Logger) error {
	var created, updated int
	for _, s := range roster {
		hash, err := bcrypt.GenerateFromPassword([]byte(s.Password), cost)
		if err != nil {
			return fmt.Errorf("hash password for %s: %w", s.Email, err)
		}
		isNew, err := users.Upsert(ctx, User{
			Name:           s.Name,
			Email:          s.Email,
			PasswordHash:   string(hash),
			Role:           s.Role,
			Specialization: s.Specialization,
			Department:     s.Department,
			IsActive:       true,
		})
		if err != nil {
			return fmt.Errorf("seed %s: %w", s.Email, err)
		}
		if isNew {
			created++
		} else {
			updated++
		}
	}
	logger.Info("demo staff seeded", "created", created, "updated", updated)
	return nil
}
