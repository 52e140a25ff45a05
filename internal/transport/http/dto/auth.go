package dto

import (
	"time"

	"github.com/baechuer/eprocure-portal/internal/domain"
)

type SignUpRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,max=254"`
	Password string `json:"password" validate:"required,max=128"`
	// Redirect is the raw post-login target; unsafe values are dropped.
	Redirect string `json:"redirect,omitempty"`
}

type IdentityView struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	RoleClaim string `json:"role_claim,omitempty"`
}

// SessionView never carries tokens; they travel in HttpOnly cookies only.
type SessionView struct {
	User      IdentityView `json:"user"`
	Role      domain.Role  `json:"role"`
	ExpiresAt time.Time    `json:"expires_at"`
	Redirect  string       `json:"redirect,omitempty"`
}

func ToIdentityView(id domain.Identity) IdentityView {
	return IdentityView{ID: id.ID, Email: id.Email, RoleClaim: string(id.RoleClaim)}
}

func ToSessionView(s domain.Session, role domain.Role) SessionView {
	return SessionView{
		User:      ToIdentityView(s.Identity),
		Role:      role,
		ExpiresAt: s.ExpiresAt.UTC(),
	}
}
