package profile

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/baechuer/eprocure-portal/internal/domain"
	"github.com/baechuer/eprocure-portal/internal/logger"
)

const (
	maxNameLen    = 120
	maxPhoneLen   = 32
	maxCountryLen = 64
)

type Service struct {
	repo       Repo
	identities IdentityRoles
	sessions   SessionRevoker
	audit      Auditor
	now        func() time.Time
}

// NewService wires the profile use cases. identities and audit may be nil.
func NewService(repo Repo, identities IdentityRoles, audit Auditor) *Service {
	return &Service{
		repo:       repo,
		identities: identities,
		audit:      audit,
		now:        time.Now,
	}
}

// WithSessions revokes a target's refresh tokens when an admin demotes them.
func (s *Service) WithSessions(r SessionRevoker) *Service {
	s.sessions = r
	return s
}

// Details are the user-editable profile fields.
type Details struct {
	FullName *string
	Phone    *string
	Country  *string
}

func (d Details) Empty() bool {
	return d.FullName == nil && d.Phone == nil && d.Country == nil
}

// CompleteSignup inserts the caller's profile. The role is always supplier;
// admins are promoted afterwards.
func (s *Service) CompleteSignup(ctx context.Context, id domain.Identity, fullName, phone, country string) (domain.Profile, error) {
	if strings.TrimSpace(id.ID) == "" {
		return domain.Profile{}, domain.ErrUnauthenticated()
	}

	d := Details{FullName: &fullName, Phone: &phone, Country: &country}
	if err := validateDetails(d, true); err != nil {
		return domain.Profile{}, err
	}

	now := s.now().UTC()
	return s.repo.Create(ctx, domain.Profile{
		ID:        id.ID,
		FullName:  strings.TrimSpace(fullName),
		Phone:     strings.TrimSpace(phone),
		Country:   strings.TrimSpace(country),
		Role:      domain.RoleSupplier,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func (s *Service) GetMine(ctx context.Context, userID string) (domain.Profile, error) {
	if userID == "" {
		return domain.Profile{}, domain.ErrUnauthenticated()
	}
	return s.repo.GetByID(ctx, userID)
}

// UpdateMine edits the caller's personal details. Role and supplier linkage
// are not reachable from here.
func (s *Service) UpdateMine(ctx context.Context, userID string, d Details) (domain.Profile, error) {
	if userID == "" {
		return domain.Profile{}, domain.ErrUnauthenticated()
	}
	if d.Empty() {
		return domain.Profile{}, domain.ErrInvalidField("body", "no fields to update")
	}
	if err := validateDetails(d, false); err != nil {
		return domain.Profile{}, err
	}

	cur, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return domain.Profile{}, err
	}

	next := domain.ProfilePatch{
		FullName: trimmed(d.FullName),
		Phone:    trimmed(d.Phone),
		Country:  trimmed(d.Country),
	}.Apply(cur)
	next.UpdatedAt = s.now().UTC()

	return s.repo.Update(ctx, next)
}

// AdminUpdate applies an admin's patch to another profile, including role
// and supplier linkage. Admins cannot demote themselves and the last admin
// cannot be demoted.
func (s *Service) AdminUpdate(ctx context.Context, actorID string, actorRole domain.Role, targetID string, patch domain.ProfilePatch) (domain.Profile, error) {
	targetID = strings.TrimSpace(targetID)

	if actorRole != domain.RoleAdmin {
		return domain.Profile{}, domain.ErrInsufficientRole(string(domain.RoleAdmin))
	}
	if targetID == "" {
		return domain.Profile{}, domain.ErrMissingField("id")
	}
	if patch.Empty() {
		return domain.Profile{}, domain.ErrInvalidField("body", "no fields to update")
	}
	if patch.Role != nil && !patch.Role.Valid() {
		return domain.Profile{}, domain.ErrInvalidRole(string(*patch.Role))
	}
	if err := validateDetails(Details{FullName: patch.FullName, Phone: patch.Phone, Country: patch.Country}, false); err != nil {
		return domain.Profile{}, err
	}
	if patch.SupplierID != nil && len(*patch.SupplierID) > 64 {
		return domain.Profile{}, domain.ErrInvalidField("supplier_id", "at most 64 chars")
	}

	demoting := patch.Role != nil && *patch.Role != domain.RoleAdmin
	if demoting && actorID == targetID {
		return domain.Profile{}, domain.ErrCannotAffectSelf()
	}

	cur, err := s.repo.GetByID(ctx, targetID)
	if err != nil {
		return domain.Profile{}, err
	}

	if demoting && cur.Role == domain.RoleAdmin {
		admins, err := s.repo.ListIDsByRole(ctx, domain.RoleAdmin)
		if err != nil {
			return domain.Profile{}, err
		}
		if len(admins) <= 1 {
			return domain.Profile{}, domain.ErrLastAdminProtected()
		}
	}

	patch.FullName = trimmed(patch.FullName)
	patch.Phone = trimmed(patch.Phone)
	patch.Country = trimmed(patch.Country)
	patch.SupplierID = trimmed(patch.SupplierID)

	next := patch.Apply(cur)
	next.UpdatedAt = s.now().UTC()

	updated, err := s.applyAdminUpdate(ctx, cur, next)
	if err != nil {
		return domain.Profile{}, err
	}

	roleChanged := updated.Role != cur.Role
	if roleChanged && cur.Role == domain.RoleAdmin {
		s.revokeSessions(ctx, targetID)
	}

	if s.audit != nil {
		if roleChanged {
			s.audit.RoleChanged(ctx, targetID, actorID, string(cur.Role), string(updated.Role))
		} else {
			s.audit.ProfileUpdated(ctx, targetID, actorID)
		}
	}
	return updated, nil
}

// applyAdminUpdate writes the profile row and, on a role change, the
// embedded claim. The write that lowers privilege runs first and the one
// that raises it runs last, so a failure in between leaves the target with
// the lesser of the two roles. Both failures are returned.
func (s *Service) applyAdminUpdate(ctx context.Context, cur, next domain.Profile) (domain.Profile, error) {
	if next.Role == cur.Role {
		return s.repo.Update(ctx, next)
	}

	if next.Role != domain.RoleAdmin {
		// The claim outranks the profile, so it must drop before the row does.
		if err := s.setClaim(ctx, next.ID, next.Role); err != nil {
			return domain.Profile{}, err
		}
		return s.repo.Update(ctx, next)
	}

	updated, err := s.repo.Update(ctx, next)
	if err != nil {
		return domain.Profile{}, err
	}
	if err := s.setClaim(ctx, next.ID, next.Role); err != nil {
		if _, rerr := s.repo.Update(ctx, cur); rerr != nil {
			logger.WithCtx(ctx).Error().Err(rerr).Str("user_id", cur.ID).Msg("revert promotion failed")
		}
		return domain.Profile{}, err
	}
	return updated, nil
}

// setClaim keeps the embedded role claim in step with the profile so the
// next issued token agrees with it. Profiles without a provider identity
// (seeded rows) have no claim to update.
func (s *Service) setClaim(ctx context.Context, id string, role domain.Role) error {
	if s.identities == nil {
		return nil
	}
	err := s.identities.SetAppRole(ctx, id, role)
	if err != nil && domain.KindOf(err) != domain.KindNotFound {
		logger.WithCtx(ctx).Warn().Err(err).Str("user_id", id).Str("role", string(role)).Msg("sync app role claim failed")
		return err
	}
	return nil
}

// revokeSessions ends a demoted admin's refresh tokens. The claim is already
// lowered, so a failure here only delays the cut-off to the access token TTL.
func (s *Service) revokeSessions(ctx context.Context, id string) {
	if s.sessions == nil {
		return
	}
	if err := s.sessions.RevokeAll(ctx, id); err != nil {
		logger.WithCtx(ctx).Warn().Err(err).Str("user_id", id).Msg("revoke sessions after demotion failed")
	}
}

func (s *Service) List(ctx context.Context, actorRole domain.Role, f ListFilter) ([]domain.Profile, error) {
	if actorRole != domain.RoleAdmin {
		return nil, domain.ErrInsufficientRole(string(domain.RoleAdmin))
	}
	if f.Role != "" && !f.Role.Valid() {
		return nil, domain.ErrInvalidRole(string(f.Role))
	}
	return s.repo.List(ctx, f)
}

func validateDetails(d Details, requireName bool) error {
	if d.FullName != nil {
		name := strings.TrimSpace(*d.FullName)
		if name == "" {
			return domain.ErrMissingField("full_name")
		}
		if utf8.RuneCountInString(name) > maxNameLen {
			return domain.ErrInvalidField("full_name", "at most 120 chars")
		}
	} else if requireName {
		return domain.ErrMissingField("full_name")
	}
	if d.Phone != nil && utf8.RuneCountInString(strings.TrimSpace(*d.Phone)) > maxPhoneLen {
		return domain.ErrInvalidField("phone", "at most 32 chars")
	}
	if d.Country != nil && utf8.RuneCountInString(strings.TrimSpace(*d.Country)) > maxCountryLen {
		return domain.ErrInvalidField("country", "at most 64 chars")
	}
	return nil
}

func trimmed(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	return &v
}
