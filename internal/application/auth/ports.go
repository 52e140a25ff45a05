package auth

import (
	"context"
	"net/http"
	"time"

	"github.com/baechuer/eprocure-portal/internal/domain"
)

/*
CredentialRepo
--------------
Persistence port for the auth provider's identities.
*/
type CredentialRepo interface {
	GetByEmail(ctx context.Context, email string) (domain.Credential, error)
	GetByID(ctx context.Context, id string) (domain.Credential, error)
	Create(ctx context.Context, c domain.Credential) (domain.Credential, error)
	SetAppRole(ctx context.Context, id string, role domain.Role) error
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash string, password string) error // nil if match
}

/*
TokenSigner
-----------
Issues and verifies access tokens (JWT). Role is the embedded role claim
and may be empty.
*/
type TokenClaims struct {
	UserID string
	Email  string
	Role   string
	Exp    time.Time
}

type TokenSigner interface {
	SignAccessToken(userID, email, role string, ttl time.Duration) (string, error)
	VerifyAccessToken(token string) (TokenClaims, error)
}

/*
SessionStore
------------
Opaque refresh tokens. Backed by Redis or memory.
*/
type SessionStore interface {
	CreateRefreshToken(ctx context.Context, userID string, ttl time.Duration) (token string, err error)
	RotateRefreshToken(ctx context.Context, oldToken string, ttl time.Duration) (newToken string, err error)
	RevokeRefreshToken(ctx context.Context, token string) error
	RevokeAll(ctx context.Context, userID string) error
	GetUserIDByRefreshToken(ctx context.Context, token string) (string, error)
}

/*
SessionCookies
--------------
Reads and writes the access/refresh cookie pair. ApplyToRequest rewrites the
inbound Cookie header so later resolution in the same request sees a rotated
pair.
*/
type SessionCookies interface {
	Read(r *http.Request) (access, refresh string)
	Write(w http.ResponseWriter, s domain.Session, refreshTTL time.Duration)
	ApplyToRequest(r *http.Request, s domain.Session)
	Clear(w http.ResponseWriter)
}

// ProfileRoleReader reads the role column of a profile. Missing profiles
// return a not-found domain error.
type ProfileRoleReader interface {
	GetRole(ctx context.Context, userID string) (domain.Role, error)
}
