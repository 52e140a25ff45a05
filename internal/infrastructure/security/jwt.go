package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/baechuer/eprocure-portal/internal/application/auth"
	"github.com/baechuer/eprocure-portal/internal/domain"
)

// JWTSigner issues and verifies HS256 portal access tokens.
type JWTSigner struct {
	key    []byte
	issuer string
	now    func() time.Time
	parser *jwt.Parser
}

func NewJWTSigner(secret string, issuer string) *JWTSigner {
	s := &JWTSigner{key: []byte(secret), issuer: issuer, now: time.Now}
	s.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return s.now() }),
	)
	return s
}

// portalClaims: AppRole is omitted from the payload when the identity has none,
// so the role resolver falls through to the profile.
type portalClaims struct {
	UID     string `json:"uid"`
	Email   string `json:"email"`
	AppRole string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

func (s *JWTSigner) SignAccessToken(userID, email, role string, ttl time.Duration) (string, error) {
	issued := s.now()
	c := &portalClaims{UID: userID, Email: email, AppRole: role}
	c.Issuer = s.issuer
	c.Subject = userID
	c.IssuedAt = jwt.NewNumericDate(issued)
	c.ExpiresAt = jwt.NewNumericDate(issued.Add(ttl))

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.key)
	if err != nil {
		return "", domain.ErrTokenSignFailed(err)
	}
	return signed, nil
}

func (s *JWTSigner) keyFor(t *jwt.Token) (any, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, domain.ErrTokenInvalid()
	}
	return s.key, nil
}

func (s *JWTSigner) VerifyAccessToken(token string) (auth.TokenClaims, error) {
	var c portalClaims
	parsed, err := s.parser.ParseWithClaims(token, &c, s.keyFor)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return auth.TokenClaims{}, domain.ErrTokenExpired()
	case err != nil, !parsed.Valid, c.UID == "":
		return auth.TokenClaims{}, domain.ErrTokenInvalid()
	}

	out := auth.TokenClaims{UserID: c.UID, Email: c.Email, Role: c.AppRole}
	if c.ExpiresAt != nil {
		out.Exp = c.ExpiresAt.Time
	}
	return out, nil
}
