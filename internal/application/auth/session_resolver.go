package auth

import (
	"context"
	"net/http"
	"time"

	"github.com/baechuer/eprocure-portal/internal/domain"
)

// SessionRefresher is the slice of Service the resolver needs.
type SessionRefresher interface {
	RefreshSession(ctx context.Context, refreshToken string) (domain.Session, error)
}

// SessionResolver turns request cookies into a validated session, refreshing
// an expired access token when a refresh cookie is present.
type SessionResolver struct {
	tokens     TokenSigner
	refresher  SessionRefresher
	cookies    SessionCookies
	refreshTTL time.Duration
}

func NewSessionResolver(tokens TokenSigner, refresher SessionRefresher, cookies SessionCookies, refreshTTL time.Duration) *SessionResolver {
	return &SessionResolver{
		tokens:     tokens,
		refresher:  refresher,
		cookies:    cookies,
		refreshTTL: refreshTTL,
	}
}

// ResolveSession returns (nil, nil) when the request carries no usable
// session and (nil, err) when a backing store failed. On rotation the new
// cookie pair is set on w and written back into r's Cookie header.
func (sr *SessionResolver) ResolveSession(w http.ResponseWriter, r *http.Request) (*domain.Session, error) {
	access, refresh := sr.cookies.Read(r)

	if access != "" {
		claims, err := sr.tokens.VerifyAccessToken(access)
		if err == nil {
			return &domain.Session{
				Identity:     IdentityFromClaims(claims),
				AccessToken:  access,
				RefreshToken: refresh,
				ExpiresAt:    claims.Exp,
			}, nil
		}
		// only expiry is recoverable; a forged or garbled token is not
		if !domain.Is(err, "token_expired") {
			return nil, nil
		}
	}

	if refresh == "" {
		return nil, nil
	}

	sess, err := sr.refresher.RefreshSession(r.Context(), refresh)
	if err != nil {
		if domain.KindOf(err) == domain.KindAuth {
			return nil, nil
		}
		return nil, err
	}

	sess.Rotated = true
	sr.cookies.Write(w, sess, sr.refreshTTL)
	sr.cookies.ApplyToRequest(r, sess)
	return &sess, nil
}
