package handlers

import (
	"time"

	"github.com/md-rashed-zaman/staffportal/libs/auth"
	"github.com/md-rashed-zaman/staffportal/services/staff-auth-service/internal/storage"
)

// Signer issues and checks HS256 staff tokens.
type Signer struct {
	secret string
	ttl    time.Duration
	now    func() time.Time
}

func NewSigner(secret string, ttl time.Duration) *Signer {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Signer{secret: secret, ttl: ttl, now: time.Now}
}

func (s *Signer) Issue(u storage.User) (string, error) {
	now := s.now()
	return auth.SignHS256(auth.Claims{
		Sub:   u.ID,
		Email: u.Email,
		Name:  u.Name,
		Role:  u.Role,
		Iat:   now.Unix(),
		Exp:   now.Add(s.ttl).Unix(),
	}, s.secret)
}

func (s *Signer) Verify(token string) (*auth.Claims, error) {
	return auth.ParseAndVerifyHS256(token, s.secret, s.now())
}
