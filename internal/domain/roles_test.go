package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	cases := []struct {
		in   string
		want Role
		ok   bool
	}{
		{"admin", RoleAdmin, true},
		{" Supplier ", RoleSupplier, true},
		{"ADMIN", RoleAdmin, true},
		{"", "", false},
		{"root", "", false},
		{"admins", "", false},
	}
	for _, tc := range cases {
		got, ok := ParseRole(tc.in)
		assert.Equalf(t, tc.ok, ok, "ParseRole(%q)", tc.in)
		assert.Equal(t, tc.want, got)
	}
}

func TestDefaultRoleIsLeastPrivileged(t *testing.T) {
	assert.True(t, IsLeastPrivileged(DefaultRole))
	assert.False(t, IsLeastPrivileged(RoleAdmin))
	assert.False(t, IsLeastPrivileged(""))
}
