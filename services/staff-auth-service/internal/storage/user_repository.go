package storage

import (
	"context"
	_ "embed"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/staffportal/libs/db"
)

//go:embed schema.sql
var schema string

// Migrate creates the staff, audit and outbox tables when missing.
func Migrate(ctx context.Context, pool *db.Pool) error {
	_, err := pool.Exec(ctx, schema)
	return err
}

type User struct {
	ID             string
	Name           string
	Email          string
	PasswordHash   string
	Role           string
	Specialization string
	Department     string
	IsActive       bool
	CreatedAt      time.Time
}

type UserRepository struct {
	pool *db.Pool
}

func NewUserRepository(pool *db.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

const userColumns = `id::text, name, email, password_hash, role, specialization, department, is_active, created_at`

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.Specialization, &u.Department, &u.IsActive, &u.CreatedAt)
	if err != nil {
		return User{}, err
	}
	return u, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (User, error) {
	return scanUser(r.pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM staff_users
		WHERE lower(email) = lower($1)
	`, email))
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (User, error) {
	return scanUser(r.pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM staff_users
		WHERE id = $1
	`, id))
}

// Upsert inserts the user or refreshes every field except id and created_at.
// It reports whether a row was created.
func (r *UserRepository) Upsert(ctx context.Context, u User) (bool, error) {
	var created bool
	err := r.pool.QueryRow(ctx, `
		INSERT INTO staff_users (name, email, password_hash, role, specialization, department, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (email) DO UPDATE SET
			name = EXCLUDED.name,
			password_hash = EXCLUDED.password_hash,
			role = EXCLUDED.role,
			specialization = EXCLUDED.specialization,
			department = EXCLUDED.department,
			is_active = EXCLUDED.is_active,
			updated_at = now()
		RETURNING (xmax = 0)
	`, u.Name, u.Email, u.PasswordHash, u.Role, u.Specialization, u.Department, u.IsActive).Scan(&created)
	return created, err
}

func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
