package domain

import "strings"

type Role string

const (
	// Admin users manage tenders, review proposals and administer profiles.
	RoleAdmin Role = "admin"
	// Supplier users browse published tenders and submit proposals.
	RoleSupplier Role = "supplier"
)

// DefaultRole is the role assigned when neither an embedded claim nor a
// profile row yields one. It must stay least-privileged: new signups that are
// still mid-provisioning land here instead of being locked out.
const DefaultRole = RoleSupplier

func (r Role) String() string { return string(r) }

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleSupplier
}

func IsValidRole(r string) bool {
	return Role(r).Valid()
}

// ParseRole normalizes case and whitespace. ok is false for unknown roles.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", false
	}
	return r, true
}

// IsLeastPrivileged reports whether r may be used as a fallback role.
func IsLeastPrivileged(r Role) bool {
	return r == RoleSupplier
}
