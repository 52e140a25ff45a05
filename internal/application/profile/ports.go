package profile

import (
	"context"

	"github.com/baechuer/eprocure-portal/internal/domain"
)

// Repo is the profile store. GetByID/GetRole/Update return
// ErrProfileNotFound for unknown ids; Create returns ErrProfileAlreadyExists.
type Repo interface {
	Create(ctx context.Context, p domain.Profile) (domain.Profile, error)
	GetByID(ctx context.Context, id string) (domain.Profile, error)
	GetRole(ctx context.Context, id string) (domain.Role, error)
	Update(ctx context.Context, p domain.Profile) (domain.Profile, error)
	List(ctx context.Context, f ListFilter) ([]domain.Profile, error)
	ListIDsByRole(ctx context.Context, role domain.Role) ([]string, error)
}

type ListFilter struct {
	Role   domain.Role // empty = any
	Limit  int
	Offset int
}

// IdentityRoles updates the auth provider's app role claim so the next
// issued token carries the new role.
type IdentityRoles interface {
	SetAppRole(ctx context.Context, id string, role domain.Role) error
}

// SessionRevoker drops every refresh token of a user.
type SessionRevoker interface {
	RevokeAll(ctx context.Context, userID string) error
}

// Auditor records admin changes to profiles.
type Auditor interface {
	RoleChanged(ctx context.Context, targetID, actorID, oldRole, newRole string)
	ProfileUpdated(ctx context.Context, targetID, actorID string)
}
