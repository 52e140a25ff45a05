package domain

import "time"

// Profile is the durable per-identity record holding role and personal details.
type Profile struct {
	ID         string
	FullName   string
	Phone      string
	Country    string
	Role       Role
	SupplierID *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ProfilePatch carries optional updates; nil fields are left untouched.
type ProfilePatch struct {
	FullName   *string
	Phone      *string
	Country    *string
	Role       *Role
	SupplierID *string
}

func (p ProfilePatch) Empty() bool {
	return p.FullName == nil && p.Phone == nil && p.Country == nil && p.Role == nil && p.SupplierID == nil
}

// Apply returns a copy of pr with the patch applied.
func (p ProfilePatch) Apply(pr Profile) Profile {
	if p.FullName != nil {
		pr.FullName = *p.FullName
	}
	if p.Phone != nil {
		pr.Phone = *p.Phone
	}
	if p.Country != nil {
		pr.Country = *p.Country
	}
	if p.Role != nil {
		pr.Role = *p.Role
	}
	if p.SupplierID != nil {
		if *p.SupplierID == "" {
			pr.SupplierID = nil
		} else {
			v := *p.SupplierID
			pr.SupplierID = &v
		}
	}
	return pr
}
