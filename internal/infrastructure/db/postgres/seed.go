package postgres

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/baechuer/eprocure-portal/internal/domain"
)

type SeederHasher interface {
	Hash(password string) (string, error)
}

type SeederCredentials interface {
	Create(ctx context.Context, c domain.Credential) (domain.Credential, error)
}

type SeederProfiles interface {
	Create(ctx context.Context, p domain.Profile) (domain.Profile, error)
}

type seedIdentity struct {
	Email    string
	Pass     string
	Name     string
	AppRole  domain.Role // embedded claim; empty => resolved from profile
	Profiled domain.Role
}

var devSeeds = []seedIdentity{
	{Email: "admin@example.com", Pass: "AdminPassword123!", Name: "Portal Admin", AppRole: domain.RoleAdmin, Profiled: domain.RoleAdmin},
	{Email: "supplier@example.com", Pass: "SupplierPassword123!", Name: "Acme Supplies", Profiled: domain.RoleSupplier},
}

// SeedDev creates the dev admin and supplier identities with profiles.
// Restart safe: duplicates are skipped.
func SeedDev(ctx context.Context, creds SeederCredentials, profiles SeederProfiles, hasher SeederHasher) int {
	created := 0
	for _, s := range devSeeds {
		hash, err := hasher.Hash(s.Pass)
		if err != nil {
			log.Warn().Err(err).Str("email", s.Email).Msg("seed: hash failed")
			continue
		}

		now := time.Now().UTC()
		c, err := creds.Create(ctx, domain.Credential{
			Email:        s.Email,
			PasswordHash: hash,
			AppRole:      s.AppRole,
			CreatedAt:    now,
		})
		if err != nil {
			// already seeded
			continue
		}

		if _, err := profiles.Create(ctx, domain.Profile{
			ID:        c.ID,
			FullName:  s.Name,
			Role:      s.Profiled,
			CreatedAt: now,
			UpdatedAt: now,
		}); err != nil {
			log.Warn().Err(err).Str("email", s.Email).Msg("seed: profile create failed")
			continue
		}
		created++
	}

	log.Info().Int("created", created).Msg("seed: dev identities ready")
	return created
}
