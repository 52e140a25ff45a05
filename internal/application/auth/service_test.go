package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baechuer/eprocure-portal/internal/domain"
)

type harness struct {
	svc      *Service
	creds    *fakeCreds
	signer   *fakeSigner
	sessions *fakeSessions
	audit    *auditSink
}

func newHarness(cs ...domain.Credential) *harness {
	h := &harness{
		creds:    newFakeCreds(cs...),
		signer:   newFakeSigner(),
		sessions: newFakeSessions(),
		audit:    &auditSink{},
	}
	h.svc = NewService(h.creds, fakeHasher{}, h.signer, h.sessions, Config{}).WithAudit(h.audit.record)
	return h
}

func adminCred() domain.Credential {
	return domain.Credential{ID: "admin-1", Email: "admin@example.com", PasswordHash: "hashed:password1", AppRole: domain.RoleAdmin}
}

func supplierCred() domain.Credential {
	return domain.Credential{ID: "sup-1", Email: "sup@example.com", PasswordHash: "hashed:password1"}
}

func TestSignUp_CreatesIdentityWithoutClaim(t *testing.T) {
	h := newHarness()

	sess, err := h.svc.SignUp(context.Background(), "  New@Example.com ", "password1")
	require.NoError(t, err)

	assert.Equal(t, "new@example.com", sess.Identity.Email)
	assert.Empty(t, sess.Identity.RoleClaim)
	assert.NotEmpty(t, sess.AccessToken)
	assert.NotEmpty(t, sess.RefreshToken)
	assert.Equal(t, "", h.signer.claims[sess.AccessToken].Role)
	assert.Equal(t, []string{"identity.signup"}, h.audit.actions())
}

func TestSignUp_Validation(t *testing.T) {
	h := newHarness(supplierCred())
	ctx := context.Background()

	cases := []struct {
		name, email, pw, code string
	}{
		{"missing email", " ", "password1", "missing_field"},
		{"not an email", "nobody", "password1", "invalid_field"},
		{"short password", "a@b.c", "short", "weak_password"},
		{"duplicate", "sup@example.com", "password1", "email_already_exists"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := h.svc.SignUp(ctx, tc.email, tc.pw)
			assert.Truef(t, domain.Is(err, tc.code), "got %v", err)
		})
	}
}

func TestSignIn_EmbedsAppRole(t *testing.T) {
	h := newHarness(adminCred())

	sess, err := h.svc.SignIn(context.Background(), "ADMIN@example.com", "password1")
	require.NoError(t, err)

	assert.Equal(t, domain.RoleAdmin, sess.Identity.RoleClaim)
	assert.Equal(t, "admin", h.signer.claims[sess.AccessToken].Role)
	assert.Equal(t, []string{"identity.signin"}, h.audit.actions())
}

func TestSignIn_NoEnumeration(t *testing.T) {
	h := newHarness(supplierCred())
	ctx := context.Background()

	_, errUnknown := h.svc.SignIn(ctx, "nobody@example.com", "password1")
	_, errWrong := h.svc.SignIn(ctx, "sup@example.com", "wrong-password")
	_, errEmpty := h.svc.SignIn(ctx, "", "")

	for _, err := range []error{errUnknown, errWrong, errEmpty} {
		assert.True(t, domain.Is(err, "invalid_credentials"))
	}
	assert.Equal(t, []string{"identity.signin_failed"}, h.audit.actions())
}

func TestSignIn_StoreDown(t *testing.T) {
	h := newHarness(supplierCred())
	h.sessions.createErr = errors.New("redis down")

	_, err := h.svc.SignIn(context.Background(), "sup@example.com", "password1")
	assert.True(t, domain.Is(err, "redis_unavailable"))
}

func TestSignIn_SignFailure(t *testing.T) {
	h := newHarness(supplierCred())
	h.signer.signErr = errors.New("boom")

	_, err := h.svc.SignIn(context.Background(), "sup@example.com", "password1")
	assert.True(t, domain.Is(err, "token_sign_failed"))
}

func TestSignOut(t *testing.T) {
	h := newHarness(supplierCred())
	ctx := context.Background()

	sess, err := h.svc.SignIn(ctx, "sup@example.com", "password1")
	require.NoError(t, err)

	require.NoError(t, h.svc.SignOut(ctx, ""))
	require.NoError(t, h.svc.SignOut(ctx, sess.RefreshToken))
	require.NoError(t, h.svc.SignOut(ctx, sess.RefreshToken))

	_, err = h.svc.RefreshSession(ctx, sess.RefreshToken)
	assert.True(t, domain.Is(err, "refresh_token_invalid"))
}

func TestSignOutEverywhere(t *testing.T) {
	h := newHarness(supplierCred())
	ctx := context.Background()

	s1, err := h.svc.SignIn(ctx, "sup@example.com", "password1")
	require.NoError(t, err)
	s2, err := h.svc.SignIn(ctx, "sup@example.com", "password1")
	require.NoError(t, err)

	require.NoError(t, h.svc.SignOutEverywhere(ctx, "sup-1"))

	for _, rt := range []string{s1.RefreshToken, s2.RefreshToken} {
		_, err := h.svc.RefreshSession(ctx, rt)
		assert.True(t, domain.Is(err, "refresh_token_invalid"))
	}
}

func TestRefreshSession_RotatesAndPicksUpRoleChange(t *testing.T) {
	h := newHarness(supplierCred())
	ctx := context.Background()

	sess, err := h.svc.SignIn(ctx, "sup@example.com", "password1")
	require.NoError(t, err)
	require.NoError(t, h.creds.SetAppRole(ctx, "sup-1", domain.RoleAdmin))

	next, err := h.svc.RefreshSession(ctx, sess.RefreshToken)
	require.NoError(t, err)

	assert.NotEqual(t, sess.RefreshToken, next.RefreshToken)
	assert.NotEqual(t, sess.AccessToken, next.AccessToken)
	assert.Equal(t, domain.RoleAdmin, next.Identity.RoleClaim)

	// old token is single use
	_, err = h.svc.RefreshSession(ctx, sess.RefreshToken)
	assert.True(t, domain.Is(err, "refresh_token_invalid"))
}

func TestRefreshSession_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("empty", func(t *testing.T) {
		_, err := newHarness().svc.RefreshSession(ctx, "")
		assert.True(t, domain.Is(err, "refresh_token_invalid"))
	})

	t.Run("identity deleted", func(t *testing.T) {
		h := newHarness()
		rt, err := h.sessions.CreateRefreshToken(ctx, "ghost", 0)
		require.NoError(t, err)

		_, err = h.svc.RefreshSession(ctx, rt)
		assert.True(t, domain.Is(err, "refresh_token_invalid"))
	})

	t.Run("store down on lookup", func(t *testing.T) {
		h := newHarness(supplierCred())
		h.sessions.lookupErr = errors.New("dial tcp: refused")

		_, err := h.svc.RefreshSession(ctx, "refresh-x")
		assert.True(t, domain.Is(err, "redis_unavailable"))
	})

	t.Run("store down on rotate", func(t *testing.T) {
		h := newHarness(supplierCred())
		rt, err := h.sessions.CreateRefreshToken(ctx, "sup-1", 0)
		require.NoError(t, err)
		h.sessions.rotateErr = domain.ErrRedisUnavailable(errors.New("timeout"))

		_, err = h.svc.RefreshSession(ctx, rt)
		assert.True(t, domain.Is(err, "redis_unavailable"))
	})

	t.Run("credential db down", func(t *testing.T) {
		h := newHarness(supplierCred())
		rt, err := h.sessions.CreateRefreshToken(ctx, "sup-1", 0)
		require.NoError(t, err)
		h.creds.getByIDErr = domain.ErrDBUnavailable(errors.New("down"))

		_, err = h.svc.RefreshSession(ctx, rt)
		assert.True(t, domain.Is(err, "db_unavailable"))
	})
}

func TestCurrentIdentity(t *testing.T) {
	h := newHarness(adminCred())

	sess, err := h.svc.SignIn(context.Background(), "admin@example.com", "password1")
	require.NoError(t, err)

	id, err := h.svc.CurrentIdentity(sess.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "admin-1", id.ID)
	assert.Equal(t, domain.RoleAdmin, id.RoleClaim)

	_, err = h.svc.CurrentIdentity("")
	assert.True(t, domain.Is(err, "unauthenticated"))

	_, err = h.svc.CurrentIdentity("garbage")
	assert.True(t, domain.Is(err, "token_invalid"))
}

func TestIdentityFromClaims_DropsUnknownRole(t *testing.T) {
	id := IdentityFromClaims(TokenClaims{UserID: "u", Role: "superuser"})
	assert.Empty(t, id.RoleClaim)

	id = IdentityFromClaims(TokenClaims{UserID: "u", Role: " Admin "})
	assert.Equal(t, domain.RoleAdmin, id.RoleClaim)
}
