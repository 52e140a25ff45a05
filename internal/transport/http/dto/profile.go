package dto

import (
	"time"

	"github.com/baechuer/eprocure-portal/internal/domain"
)

type CompleteSignupRequest struct {
	FullName string `json:"full_name" validate:"required,max=120"`
	Phone    string `json:"phone" validate:"max=32"`
	Country  string `json:"country" validate:"max=64"`
}

type UpdateProfileRequest struct {
	FullName *string `json:"full_name" validate:"omitempty,max=120"`
	Phone    *string `json:"phone" validate:"omitempty,max=32"`
	Country  *string `json:"country" validate:"omitempty,max=64"`
}

type AdminProfilePatch struct {
	FullName   *string `json:"full_name" validate:"omitempty,max=120"`
	Phone      *string `json:"phone" validate:"omitempty,max=32"`
	Country    *string `json:"country" validate:"omitempty,max=64"`
	Role       *string `json:"role" validate:"omitempty,role"`
	SupplierID *string `json:"supplier_id" validate:"omitempty,max=64"`
}

func (p AdminProfilePatch) ToDomain() domain.ProfilePatch {
	out := domain.ProfilePatch{
		FullName:   p.FullName,
		Phone:      p.Phone,
		Country:    p.Country,
		SupplierID: p.SupplierID,
	}
	if p.Role != nil {
		role := domain.Role(*p.Role)
		out.Role = &role
	}
	return out
}

type ProfileView struct {
	ID         string      `json:"id"`
	FullName   string      `json:"full_name"`
	Phone      string      `json:"phone,omitempty"`
	Country    string      `json:"country,omitempty"`
	Role       domain.Role `json:"role"`
	SupplierID *string     `json:"supplier_id,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

func ToProfileView(p domain.Profile) ProfileView {
	return ProfileView{
		ID:         p.ID,
		FullName:   p.FullName,
		Phone:      p.Phone,
		Country:    p.Country,
		Role:       p.Role,
		SupplierID: p.SupplierID,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}

func ToProfileViews(ps []domain.Profile) []ProfileView {
	out := make([]ProfileView, 0, len(ps))
	for _, p := range ps {
		out = append(out, ToProfileView(p))
	}
	return out
}
