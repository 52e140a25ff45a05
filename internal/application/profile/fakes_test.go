package profile

import (
	"context"
	"sort"
	"sync"

	"github.com/baechuer/eprocure-portal/internal/domain"
)

type fakeRepo struct {
	mu   sync.Mutex
	byID map[string]domain.Profile

	updateCalls int
	updateErr   error
	listIDsErr  error
}

func newFakeRepo(ps ...domain.Profile) *fakeRepo {
	r := &fakeRepo{byID: map[string]domain.Profile{}}
	for _, p := range ps {
		r.byID[p.ID] = p
	}
	return r
}

func (f *fakeRepo) Create(_ context.Context, p domain.Profile) (domain.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[p.ID]; ok {
		return domain.Profile{}, domain.ErrProfileAlreadyExists()
	}
	f.byID[p.ID] = p
	return p, nil
}

func (f *fakeRepo) GetByID(_ context.Context, id string) (domain.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[id]
	if !ok {
		return domain.Profile{}, domain.ErrProfileNotFound()
	}
	return p, nil
}

func (f *fakeRepo) GetRole(ctx context.Context, id string) (domain.Role, error) {
	p, err := f.GetByID(ctx, id)
	return p.Role, err
}

func (f *fakeRepo) Update(_ context.Context, p domain.Profile) (domain.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateCalls++
	if f.updateErr != nil {
		return domain.Profile{}, f.updateErr
	}
	if _, ok := f.byID[p.ID]; !ok {
		return domain.Profile{}, domain.ErrProfileNotFound()
	}
	f.byID[p.ID] = p
	return p, nil
}

func (f *fakeRepo) List(_ context.Context, lf ListFilter) ([]domain.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Profile
	for _, p := range f.byID {
		if lf.Role == "" || p.Role == lf.Role {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeRepo) ListIDsByRole(_ context.Context, role domain.Role) ([]string, error) {
	if f.listIDsErr != nil {
		return nil, f.listIDsErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []string
	for id, p := range f.byID {
		if p.Role == role {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

type fakeIdentities struct {
	calls []struct {
		id   string
		role domain.Role
	}
	err error
}

func (f *fakeIdentities) SetAppRole(_ context.Context, id string, role domain.Role) error {
	f.calls = append(f.calls, struct {
		id   string
		role domain.Role
	}{id, role})
	return f.err
}

type fakeRevoker struct {
	revoked []string
	err     error
}

func (f *fakeRevoker) RevokeAll(_ context.Context, userID string) error {
	f.revoked = append(f.revoked, userID)
	return f.err
}

type auditEntry struct {
	action, target, actor, oldRole, newRole string
}

type fakeAuditor struct {
	entries []auditEntry
}

func (f *fakeAuditor) RoleChanged(_ context.Context, targetID, actorID, oldRole, newRole string) {
	f.entries = append(f.entries, auditEntry{"role_changed", targetID, actorID, oldRole, newRole})
}

func (f *fakeAuditor) ProfileUpdated(_ context.Context, targetID, actorID string) {
	f.entries = append(f.entries, auditEntry{action: "profile_updated", target: targetID, actor: actorID})
}
