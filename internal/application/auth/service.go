package auth

import (
	"context"
	"time"

	"github.com/baechuer/eprocure-portal/internal/domain"
)

// Service emulates the hosted auth provider: identities, password sign-in
// and cookie-carried sessions.
type Service struct {
	creds    CredentialRepo
	hasher   PasswordHasher
	signer   TokenSigner
	sessions SessionStore

	accessTTL  time.Duration
	refreshTTL time.Duration
	audit      func(action string, fields map[string]string)
	now        func() time.Time
}

type Config struct {
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

func NewService(creds CredentialRepo, hasher PasswordHasher, signer TokenSigner, sessions SessionStore, cfg Config) *Service {
	accessTTL := cfg.AccessTTL
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	refreshTTL := cfg.RefreshTTL
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	return &Service{
		creds:      creds,
		hasher:     hasher,
		signer:     signer,
		sessions:   sessions,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		audit:      func(string, map[string]string) {},
		now:        time.Now,
	}
}

func (s *Service) WithAudit(fn func(action string, fields map[string]string)) *Service {
	if fn != nil {
		s.audit = fn
	}
	return s
}

func (s *Service) RefreshTTL() time.Duration { return s.refreshTTL }

// issueSession signs an access token carrying the credential's app role as
// the embedded claim and creates a fresh refresh token.
func (s *Service) issueSession(ctx context.Context, c domain.Credential) (domain.Session, error) {
	access, err := s.signer.SignAccessToken(c.ID, c.Email, string(c.AppRole), s.accessTTL)
	if err != nil {
		return domain.Session{}, domain.ErrTokenSignFailed(err)
	}

	refresh, err := s.sessions.CreateRefreshToken(ctx, c.ID, s.refreshTTL)
	if err != nil {
		return domain.Session{}, domain.ErrRedisUnavailable(err)
	}

	return domain.Session{
		Identity:     identityOf(c),
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    s.now().Add(s.accessTTL),
	}, nil
}

func identityOf(c domain.Credential) domain.Identity {
	id := domain.Identity{ID: c.ID, Email: c.Email}
	if c.AppRole.Valid() {
		id.RoleClaim = c.AppRole
	}
	return id
}

// IdentityFromClaims maps verified token claims to an Identity. Unknown role
// claims are dropped rather than trusted.
func IdentityFromClaims(c TokenClaims) domain.Identity {
	id := domain.Identity{ID: c.UserID, Email: c.Email}
	if r, ok := domain.ParseRole(c.Role); ok {
		id.RoleClaim = r
	}
	return id
}
