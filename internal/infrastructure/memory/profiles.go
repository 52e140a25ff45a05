package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/baechuer/eprocure-portal/internal/application/profile"
	"github.com/baechuer/eprocure-portal/internal/domain"
)

type ProfileRepo struct {
	mu   sync.RWMutex
	byID map[string]domain.Profile
}

func NewProfileRepo() *ProfileRepo {
	return &ProfileRepo{byID: make(map[string]domain.Profile)}
}

func (r *ProfileRepo) Create(ctx context.Context, p domain.Profile) (domain.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[p.ID]; ok {
		return domain.Profile{}, domain.ErrProfileAlreadyExists()
	}
	r.byID[p.ID] = p
	return p, nil
}

func (r *ProfileRepo) GetByID(ctx context.Context, id string) (domain.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byID[id]
	if !ok {
		return domain.Profile{}, domain.ErrProfileNotFound()
	}
	return p, nil
}

func (r *ProfileRepo) GetRole(ctx context.Context, id string) (domain.Role, error) {
	p, err := r.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return p.Role, nil
}

func (r *ProfileRepo) Update(ctx context.Context, p domain.Profile) (domain.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.byID[p.ID]
	if !ok {
		return domain.Profile{}, domain.ErrProfileNotFound()
	}
	p.CreatedAt = cur.CreatedAt
	r.byID[p.ID] = p
	return p, nil
}

func (r *ProfileRepo) List(ctx context.Context, f profile.ListFilter) ([]domain.Profile, error) {
	r.mu.RLock()
	out := make([]domain.Profile, 0, len(r.byID))
	for _, p := range r.byID {
		if f.Role == "" || p.Role == f.Role {
			out = append(out, p)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return page(out, f.Offset, f.Limit, 50), nil
}

func (r *ProfileRepo) ListIDsByRole(ctx context.Context, role domain.Role) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var ids []string
	for id, p := range r.byID {
		if p.Role == role {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func page[T any](all []T, offset, limit, def int) []T {
	if limit <= 0 {
		limit = def
	}
	if offset < 0 || offset >= len(all) {
		return []T{}
	}
	end := min(offset+limit, len(all))
	return all[offset:end]
}
