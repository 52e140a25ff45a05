package auth

import (
	"context"

	"github.com/baechuer/eprocure-portal/internal/domain"
)

// RefreshSession rotates a refresh token and re-signs the access token.
// The old refresh token is invalid once used. Token problems come back as
// refresh_token_invalid; store outages keep their infrastructure kind so
// callers can tell them apart.
func (s *Service) RefreshSession(ctx context.Context, refreshToken string) (domain.Session, error) {
	if refreshToken == "" {
		return domain.Session{}, domain.ErrRefreshTokenInvalid()
	}

	userID, err := s.sessions.GetUserIDByRefreshToken(ctx, refreshToken)
	if err != nil {
		return domain.Session{}, sessionErr(err)
	}

	c, err := s.creds.GetByID(ctx, userID)
	if err != nil {
		if domain.KindOf(err) == domain.KindNotFound {
			return domain.Session{}, domain.ErrRefreshTokenInvalid()
		}
		return domain.Session{}, err
	}

	newRefresh, err := s.sessions.RotateRefreshToken(ctx, refreshToken, s.refreshTTL)
	if err != nil {
		return domain.Session{}, sessionErr(err)
	}

	access, err := s.signer.SignAccessToken(c.ID, c.Email, string(c.AppRole), s.accessTTL)
	if err != nil {
		return domain.Session{}, domain.ErrTokenSignFailed(err)
	}

	return domain.Session{
		Identity:     identityOf(c),
		AccessToken:  access,
		RefreshToken: newRefresh,
		ExpiresAt:    s.now().Add(s.accessTTL),
	}, nil
}

func sessionErr(err error) error {
	switch {
	case domain.Is(err, "refresh_token_invalid"), domain.KindOf(err) == domain.KindValidation:
		return domain.ErrRefreshTokenInvalid()
	case domain.KindOf(err) == "":
		return domain.ErrRedisUnavailable(err)
	default:
		return err
	}
}

// CurrentIdentity verifies an access token and returns the identity it
// carries.
func (s *Service) CurrentIdentity(accessToken string) (domain.Identity, error) {
	if accessToken == "" {
		return domain.Identity{}, domain.ErrUnauthenticated()
	}
	claims, err := s.signer.VerifyAccessToken(accessToken)
	if err != nil {
		return domain.Identity{}, err
	}
	return IdentityFromClaims(claims), nil
}
