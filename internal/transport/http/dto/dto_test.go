package dto

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baechuer/eprocure-portal/internal/domain"
)

func ptr[T any](v T) *T { return &v }

func TestValidate_SignUp(t *testing.T) {
	cases := []struct {
		name  string
		req   SignUpRequest
		code  string
		field string
	}{
		{"ok", SignUpRequest{Email: "a@example.com", Password: "longenough"}, "", ""},
		{"missing email", SignUpRequest{Password: "longenough"}, "missing_field", "email"},
		{"bad email", SignUpRequest{Email: "nope", Password: "longenough"}, "invalid_field", "email"},
		{"short password", SignUpRequest{Email: "a@example.com", Password: "short"}, "invalid_field", "password"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.req)
			if tc.code == "" {
				assert.NoError(t, err)
				return
			}
			require.True(t, domain.Is(err, tc.code), "got %v", err)
			var de *domain.Error
			require.ErrorAs(t, err, &de)
			assert.Equal(t, tc.field, de.Meta["field"])
		})
	}
}

func TestValidate_AdminPatchRole(t *testing.T) {
	assert.NoError(t, Validate(AdminProfilePatch{Role: ptr("admin")}))
	assert.NoError(t, Validate(AdminProfilePatch{}))

	err := Validate(AdminProfilePatch{Role: ptr("root")})
	assert.True(t, domain.Is(err, "invalid_role"))
}

func TestValidate_Proposal(t *testing.T) {
	assert.NoError(t, Validate(SubmitProposalRequest{Amount: 100, Currency: "EUR"}))
	assert.True(t, domain.Is(Validate(SubmitProposalRequest{Currency: "EUR"}), "missing_field"))
	assert.True(t, domain.Is(Validate(SubmitProposalRequest{Amount: -1, Currency: "EUR"}), "invalid_field"))
	assert.True(t, domain.Is(Validate(SubmitProposalRequest{Amount: 1, Currency: "EURO"}), "invalid_field"))
}

func TestValidate_Decision(t *testing.T) {
	assert.NoError(t, Validate(DecisionRequest{Status: "accepted"}))
	assert.True(t, domain.Is(Validate(DecisionRequest{Status: "withdrawn"}), "invalid_field"))
}

func TestValidate_TenderDeadlineRequired(t *testing.T) {
	err := Validate(CreateTenderRequest{Title: "Pipes"})
	require.True(t, domain.Is(err, "missing_field"))

	assert.NoError(t, Validate(CreateTenderRequest{Title: "Pipes", Deadline: time.Now().Add(time.Hour)}))
}

func TestAdminProfilePatch_ToDomain(t *testing.T) {
	p := AdminProfilePatch{Role: ptr("supplier"), SupplierID: ptr("SUP-1")}.ToDomain()
	require.NotNil(t, p.Role)
	assert.Equal(t, domain.RoleSupplier, *p.Role)
	assert.Equal(t, "SUP-1", *p.SupplierID)
	assert.Nil(t, p.FullName)
}

func TestToSessionView_NoTokens(t *testing.T) {
	s := domain.Session{
		Identity:     domain.Identity{ID: "u1", Email: "a@example.com", RoleClaim: domain.RoleAdmin},
		AccessToken:  "secret-access",
		RefreshToken: "secret-refresh",
	}
	v := ToSessionView(s, domain.RoleAdmin)
	assert.Equal(t, "admin", v.User.RoleClaim)
	assert.Equal(t, domain.RoleAdmin, v.Role)
}
