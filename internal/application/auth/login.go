package auth

import (
	"context"

	"github.com/baechuer/eprocure-portal/internal/domain"
)

// SignIn authenticates with email and password.
// Must not leak whether the email exists.
func (s *Service) SignIn(ctx context.Context, email, password string) (domain.Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return domain.Session{}, domain.ErrInvalidCredentials()
	}

	c, err := s.creds.GetByEmail(ctx, email)
	if err != nil {
		if domain.KindOf(err) == domain.KindNotFound {
			return domain.Session{}, domain.ErrInvalidCredentials()
		}
		return domain.Session{}, err
	}

	if err := s.hasher.Compare(c.PasswordHash, password); err != nil {
		s.audit("identity.signin_failed", map[string]string{"user_id": c.ID})
		return domain.Session{}, domain.ErrInvalidCredentials()
	}

	sess, err := s.issueSession(ctx, c)
	if err != nil {
		return domain.Session{}, err
	}

	s.audit("identity.signin", map[string]string{"user_id": c.ID, "email": c.Email})
	return sess, nil
}
