package session

import (
	"errors"
	"strings"
	"time"
)

type Role string

const (
	RoleAdmin        Role = "admin"
	RoleDoctor       Role = "doctor"
	RoleNurse        Role = "nurse"
	RoleReceptionist Role = "receptionist"
	RolePharmacist   Role = "pharmacist"
)

var (
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrAuthServiceUnavailable = errors.New("auth service unavailable")
	ErrLoginInProgress        = errors.New("login already in progress")
)

// ParseRole accepts the five staff roles, case-insensitively.
func ParseRole(raw string) (Role, bool) {
	switch r := Role(strings.ToLower(strings.TrimSpace(raw))); r {
	case RoleAdmin, RoleDoctor, RoleNurse, RoleReceptionist, RolePharmacist:
		return r, true
	default:
		return "", false
	}
}

// Identity is the authenticated staff principal. The JSON form is what gets
// persisted under the "user" key.
type Identity struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	LoginTime time.Time `json:"loginTime"`
}

// Authorize reports whether id may enter something gated by required.
// An empty set admits any authenticated identity.
func Authorize(id Identity, required ...Role) bool {
	if len(required) == 0 {
		return true
	}
	for _, r := range required {
		if r == id.Role {
			return true
		}
	}
	return false
}

type State int

const (
	StateUnauthenticated State = iota
	StateAuthenticating
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unauthenticated"
	}
}
