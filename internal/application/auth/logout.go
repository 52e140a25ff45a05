package auth

import "context"

// SignOut revokes the current refresh token. Empty tokens are a no-op.
func (s *Service) SignOut(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	if err := s.sessions.RevokeRefreshToken(ctx, refreshToken); err != nil {
		return err
	}
	s.audit("identity.signout", nil)
	return nil
}

// SignOutEverywhere bumps the identity's refresh generation so all of its
// refresh tokens stop working.
func (s *Service) SignOutEverywhere(ctx context.Context, userID string) error {
	if err := s.sessions.RevokeAll(ctx, userID); err != nil {
		return err
	}
	s.audit("identity.signout_all", map[string]string{"user_id": userID})
	return nil
}
