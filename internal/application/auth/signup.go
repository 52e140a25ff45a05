package auth

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/baechuer/eprocure-portal/internal/domain"
)

const minPasswordLen = 8

// SignUp creates an identity without an app role claim and signs it in.
// The portal profile is completed separately.
func (s *Service) SignUp(ctx context.Context, email, password string) (domain.Session, error) {
	email = normalizeEmail(email)
	if email == "" {
		return domain.Session{}, domain.ErrMissingField("email")
	}
	if !strings.Contains(email, "@") {
		return domain.Session{}, domain.ErrInvalidField("email", "must be an email address")
	}
	if utf8.RuneCountInString(password) < minPasswordLen {
		return domain.Session{}, domain.ErrWeakPassword("must be at least 8 characters")
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return domain.Session{}, err
	}

	c, err := s.creds.Create(ctx, domain.Credential{
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    s.now(),
	})
	if err != nil {
		return domain.Session{}, err
	}

	sess, err := s.issueSession(ctx, c)
	if err != nil {
		return domain.Session{}, err
	}

	s.audit("identity.signup", map[string]string{"user_id": c.ID, "email": c.Email})
	return sess, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
