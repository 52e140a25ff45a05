package domain

import "time"

// Identity is owned by the auth provider and read-only to the portal.
// RoleClaim is the embedded role claim; empty when the provider carries none.
type Identity struct {
	ID        string
	Email     string
	RoleClaim Role
}

// Credential is the auth provider's stored record for an identity.
// AppRole feeds the embedded role claim on issued tokens.
type Credential struct {
	ID           string
	Email        string
	PasswordHash string
	AppRole      Role
	CreatedAt    time.Time
}

// Session is a server-validated proof of authenticated identity, carried via cookies.
type Session struct {
	Identity     Identity
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	// Rotated is true when the resolver refreshed the cookie pair during this request.
	Rotated bool
}
