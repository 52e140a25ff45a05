package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/baechuer/eprocure-portal/internal/domain"
)

type CredentialRepo struct {
	mu      sync.RWMutex
	byID    map[string]domain.Credential
	byEmail map[string]string // email -> id
}

func NewCredentialRepo() *CredentialRepo {
	return &CredentialRepo{
		byID:    make(map[string]domain.Credential),
		byEmail: make(map[string]string),
	}
}

func (r *CredentialRepo) GetByEmail(ctx context.Context, email string) (domain.Credential, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return domain.Credential{}, domain.ErrIdentityNotFound()
	}
	return r.byID[id], nil
}

func (r *CredentialRepo) GetByID(ctx context.Context, id string) (domain.Credential, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.byID[id]
	if !ok {
		return domain.Credential{}, domain.ErrIdentityNotFound()
	}
	return c, nil
}

func (r *CredentialRepo) Create(ctx context.Context, c domain.Credential) (domain.Credential, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	if _, exists := r.byEmail[c.Email]; exists {
		return domain.Credential{}, domain.ErrEmailAlreadyExists()
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	r.byID[c.ID] = c
	r.byEmail[c.Email] = c.ID
	return c, nil
}

func (r *CredentialRepo) SetAppRole(ctx context.Context, id string, role domain.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.byID[id]
	if !ok {
		return domain.ErrIdentityNotFound()
	}
	c.AppRole = role
	r.byID[id] = c
	return nil
}
