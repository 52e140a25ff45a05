package profile

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baechuer/eprocure-portal/internal/domain"
)

func ptr[T any](v T) *T { return &v }

func TestCompleteSignup_AlwaysSupplier(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil, nil)

	p, err := svc.CompleteSignup(context.Background(), domain.Identity{ID: "u1", RoleClaim: domain.RoleAdmin}, "  Ada Lovelace ", "+44", "UK")
	require.NoError(t, err)

	assert.Equal(t, domain.RoleSupplier, p.Role)
	assert.Equal(t, "Ada Lovelace", p.FullName)
	assert.False(t, p.CreatedAt.IsZero())
}

func TestCompleteSignup_Errors(t *testing.T) {
	repo := newFakeRepo(domain.Profile{ID: "exists", Role: domain.RoleSupplier})
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	_, err := svc.CompleteSignup(ctx, domain.Identity{}, "x", "", "")
	assert.True(t, domain.Is(err, "unauthenticated"))

	_, err = svc.CompleteSignup(ctx, domain.Identity{ID: "u2"}, "   ", "", "")
	assert.True(t, domain.Is(err, "missing_field"))

	_, err = svc.CompleteSignup(ctx, domain.Identity{ID: "u2"}, strings.Repeat("a", 121), "", "")
	assert.True(t, domain.Is(err, "invalid_field"))

	_, err = svc.CompleteSignup(ctx, domain.Identity{ID: "exists"}, "Bob", "", "")
	assert.True(t, domain.Is(err, "profile_already_exists"))
}

func TestUpdateMine_OnlyDetails(t *testing.T) {
	repo := newFakeRepo(domain.Profile{ID: "u1", FullName: "Old", Role: domain.RoleSupplier})
	svc := NewService(repo, nil, nil)

	p, err := svc.UpdateMine(context.Background(), "u1", Details{FullName: ptr(" New "), Country: ptr("FR")})
	require.NoError(t, err)

	assert.Equal(t, "New", p.FullName)
	assert.Equal(t, "FR", p.Country)
	assert.Equal(t, domain.RoleSupplier, p.Role)
}

func TestUpdateMine_Errors(t *testing.T) {
	svc := NewService(newFakeRepo(), nil, nil)
	ctx := context.Background()

	_, err := svc.UpdateMine(ctx, "", Details{FullName: ptr("x")})
	assert.True(t, domain.Is(err, "unauthenticated"))

	_, err = svc.UpdateMine(ctx, "u1", Details{})
	assert.True(t, domain.Is(err, "invalid_field"))

	_, err = svc.UpdateMine(ctx, "u1", Details{FullName: ptr("x")})
	assert.True(t, domain.Is(err, "profile_not_found"))
}

func TestAdminUpdate_PromoteSyncsClaimAndAudits(t *testing.T) {
	repo := newFakeRepo(
		domain.Profile{ID: "admin", Role: domain.RoleAdmin},
		domain.Profile{ID: "sup", Role: domain.RoleSupplier},
	)
	ids := &fakeIdentities{}
	aud := &fakeAuditor{}
	svc := NewService(repo, ids, aud)

	p, err := svc.AdminUpdate(context.Background(), "admin", domain.RoleAdmin, "sup", domain.ProfilePatch{Role: ptr(domain.RoleAdmin)})
	require.NoError(t, err)

	assert.Equal(t, domain.RoleAdmin, p.Role)
	require.Len(t, ids.calls, 1)
	assert.Equal(t, "sup", ids.calls[0].id)
	assert.Equal(t, domain.RoleAdmin, ids.calls[0].role)
	require.Len(t, aud.entries, 1)
	assert.Equal(t, auditEntry{"role_changed", "sup", "admin", "supplier", "admin"}, aud.entries[0])
}

func TestAdminUpdate_DetailsOnlyDoesNotTouchClaim(t *testing.T) {
	repo := newFakeRepo(domain.Profile{ID: "sup", Role: domain.RoleSupplier})
	ids := &fakeIdentities{}
	aud := &fakeAuditor{}
	svc := NewService(repo, ids, aud)

	p, err := svc.AdminUpdate(context.Background(), "admin", domain.RoleAdmin, "sup", domain.ProfilePatch{SupplierID: ptr(" ACME-1 ")})
	require.NoError(t, err)

	require.NotNil(t, p.SupplierID)
	assert.Equal(t, "ACME-1", *p.SupplierID)
	assert.Empty(t, ids.calls)
	require.Len(t, aud.entries, 1)
	assert.Equal(t, "profile_updated", aud.entries[0].action)
}

func TestAdminUpdate_ClearSupplierLink(t *testing.T) {
	repo := newFakeRepo(domain.Profile{ID: "sup", Role: domain.RoleSupplier, SupplierID: ptr("X")})
	svc := NewService(repo, nil, nil)

	p, err := svc.AdminUpdate(context.Background(), "admin", domain.RoleAdmin, "sup", domain.ProfilePatch{SupplierID: ptr("")})
	require.NoError(t, err)
	assert.Nil(t, p.SupplierID)
}

func TestAdminUpdate_Rules(t *testing.T) {
	base := func() *fakeRepo {
		return newFakeRepo(
			domain.Profile{ID: "a1", Role: domain.RoleAdmin},
			domain.Profile{ID: "s1", Role: domain.RoleSupplier},
		)
	}

	cases := []struct {
		name    string
		actor   string
		role    domain.Role
		target  string
		patch   domain.ProfilePatch
		code    string
		prepare func(*fakeRepo)
	}{
		{"non admin", "s1", domain.RoleSupplier, "s1", domain.ProfilePatch{FullName: ptr("x")}, "insufficient_role", nil},
		{"missing target", "a1", domain.RoleAdmin, " ", domain.ProfilePatch{FullName: ptr("x")}, "missing_field", nil},
		{"empty patch", "a1", domain.RoleAdmin, "s1", domain.ProfilePatch{}, "invalid_field", nil},
		{"invalid role", "a1", domain.RoleAdmin, "s1", domain.ProfilePatch{Role: ptr(domain.Role("root"))}, "invalid_role", nil},
		{"self demote", "a1", domain.RoleAdmin, "a1", domain.ProfilePatch{Role: ptr(domain.RoleSupplier)}, "cannot_affect_self", nil},
		{"unknown target", "a1", domain.RoleAdmin, "nope", domain.ProfilePatch{FullName: ptr("x")}, "profile_not_found", nil},
		{"last admin", "a2", domain.RoleAdmin, "a1", domain.ProfilePatch{Role: ptr(domain.RoleSupplier)}, "last_admin_protected", nil},
		{"admin count fails", "a2", domain.RoleAdmin, "a1", domain.ProfilePatch{Role: ptr(domain.RoleSupplier)}, "db_unavailable", func(r *fakeRepo) {
			r.listIDsErr = domain.ErrDBUnavailable(errors.New("down"))
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := base()
			if tc.prepare != nil {
				tc.prepare(repo)
			}
			svc := NewService(repo, nil, nil)

			_, err := svc.AdminUpdate(context.Background(), tc.actor, tc.role, tc.target, tc.patch)
			require.Error(t, err)
			assert.Truef(t, domain.Is(err, tc.code), "got %v", err)
			assert.Equal(t, 0, repo.updateCalls)
		})
	}
}

func TestAdminUpdate_DemoteWithAnotherAdmin(t *testing.T) {
	repo := newFakeRepo(
		domain.Profile{ID: "a1", Role: domain.RoleAdmin},
		domain.Profile{ID: "a2", Role: domain.RoleAdmin},
	)
	ids := &fakeIdentities{err: domain.ErrIdentityNotFound()}
	svc := NewService(repo, ids, nil)

	p, err := svc.AdminUpdate(context.Background(), "a2", domain.RoleAdmin, "a1", domain.ProfilePatch{Role: ptr(domain.RoleSupplier)})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleSupplier, p.Role)
	assert.Len(t, ids.calls, 1)
}

func twoAdmins() *fakeRepo {
	return newFakeRepo(
		domain.Profile{ID: "a1", Role: domain.RoleAdmin},
		domain.Profile{ID: "a2", Role: domain.RoleAdmin},
	)
}

func TestAdminUpdate_DemoteClaimFailureAborts(t *testing.T) {
	repo := twoAdmins()
	ids := &fakeIdentities{err: domain.ErrDBUnavailable(errors.New("conn refused"))}
	rev := &fakeRevoker{}
	aud := &fakeAuditor{}
	svc := NewService(repo, ids, aud).WithSessions(rev)

	_, err := svc.AdminUpdate(context.Background(), "a2", domain.RoleAdmin, "a1", domain.ProfilePatch{Role: ptr(domain.RoleSupplier)})
	require.Error(t, err)
	assert.True(t, domain.Is(err, "db_unavailable"))

	// neither the claim nor the row moved, and nothing reports success
	cur, _ := repo.GetByID(context.Background(), "a1")
	assert.Equal(t, domain.RoleAdmin, cur.Role)
	assert.Equal(t, 0, repo.updateCalls)
	assert.Empty(t, rev.revoked)
	assert.Empty(t, aud.entries)
}

func TestAdminUpdate_DemoteLowersClaimBeforeProfile(t *testing.T) {
	repo := twoAdmins()
	repo.updateErr = domain.ErrDBUnavailable(errors.New("write timeout"))
	ids := &fakeIdentities{}
	svc := NewService(repo, ids, nil)

	_, err := svc.AdminUpdate(context.Background(), "a2", domain.RoleAdmin, "a1", domain.ProfilePatch{Role: ptr(domain.RoleSupplier)})
	require.Error(t, err)

	// the claim outranks the row, so a1 already resolves to supplier
	require.Len(t, ids.calls, 1)
	assert.Equal(t, domain.RoleSupplier, ids.calls[0].role)
}

func TestAdminUpdate_DemoteRevokesSessions(t *testing.T) {
	repo := twoAdmins()
	rev := &fakeRevoker{}
	svc := NewService(repo, &fakeIdentities{}, nil).WithSessions(rev)

	_, err := svc.AdminUpdate(context.Background(), "a2", domain.RoleAdmin, "a1", domain.ProfilePatch{Role: ptr(domain.RoleSupplier)})
	require.NoError(t, err)
	assert.Equal(t, []string{"a1"}, rev.revoked)

	// a failed revocation does not undo a demotion that already took effect
	rev.err = errors.New("redis down")
	_, err = svc.AdminUpdate(context.Background(), "a1", domain.RoleAdmin, "a2", domain.ProfilePatch{FullName: ptr("Second")})
	require.NoError(t, err)
	assert.Len(t, rev.revoked, 1)
}

func TestAdminUpdate_PromoteClaimFailureRevertsProfile(t *testing.T) {
	repo := newFakeRepo(
		domain.Profile{ID: "admin", Role: domain.RoleAdmin},
		domain.Profile{ID: "sup", Role: domain.RoleSupplier},
	)
	ids := &fakeIdentities{err: domain.ErrDBUnavailable(errors.New("conn refused"))}
	rev := &fakeRevoker{}
	svc := NewService(repo, ids, nil).WithSessions(rev)

	_, err := svc.AdminUpdate(context.Background(), "admin", domain.RoleAdmin, "sup", domain.ProfilePatch{Role: ptr(domain.RoleAdmin)})
	require.Error(t, err)

	cur, _ := repo.GetByID(context.Background(), "sup")
	assert.Equal(t, domain.RoleSupplier, cur.Role)
	assert.Equal(t, 2, repo.updateCalls)
	assert.Empty(t, rev.revoked)
}

func TestList(t *testing.T) {
	repo := newFakeRepo(
		domain.Profile{ID: "a1", Role: domain.RoleAdmin},
		domain.Profile{ID: "s1", Role: domain.RoleSupplier},
		domain.Profile{ID: "s2", Role: domain.RoleSupplier},
	)
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	_, err := svc.List(ctx, domain.RoleSupplier, ListFilter{})
	assert.True(t, domain.Is(err, "insufficient_role"))

	_, err = svc.List(ctx, domain.RoleAdmin, ListFilter{Role: "root"})
	assert.True(t, domain.Is(err, "invalid_role"))

	ps, err := svc.List(ctx, domain.RoleAdmin, ListFilter{Role: domain.RoleSupplier})
	require.NoError(t, err)
	assert.Len(t, ps, 2)
}
