package auth

import (
	"context"

	"github.com/baechuer/eprocure-portal/internal/domain"
	"github.com/baechuer/eprocure-portal/internal/logger"
)

// RoleResolver derives the effective role for an identity:
// embedded claim, then profile row, then the default role.
type RoleResolver struct {
	profiles    ProfileRoleReader
	defaultRole domain.Role
}

// NewRoleResolver falls back to domain.DefaultRole if defaultRole is not a
// least-privileged role.
func NewRoleResolver(profiles ProfileRoleReader, defaultRole domain.Role) *RoleResolver {
	if !domain.IsLeastPrivileged(defaultRole) {
		defaultRole = domain.DefaultRole
	}
	return &RoleResolver{profiles: profiles, defaultRole: defaultRole}
}

func (rr *RoleResolver) DefaultRole() domain.Role { return rr.defaultRole }

// ResolveRole never fails. A lookup error degrades to the default role,
// which is never admin.
func (rr *RoleResolver) ResolveRole(ctx context.Context, id domain.Identity) domain.Role {
	if id.RoleClaim.Valid() {
		return id.RoleClaim
	}
	if rr.profiles == nil || id.ID == "" {
		return rr.defaultRole
	}

	role, err := rr.profiles.GetRole(ctx, id.ID)
	if err != nil {
		if domain.KindOf(err) != domain.KindNotFound {
			logger.WithCtx(ctx).Warn().Err(err).Str("user_id", id.ID).Msg("role lookup failed, using default role")
		}
		return rr.defaultRole
	}
	if !role.Valid() {
		logger.WithCtx(ctx).Debug().Str("user_id", id.ID).Str("stored_role", string(role)).Msg("unknown profile role, using default role")
		return rr.defaultRole
	}
	return role
}
