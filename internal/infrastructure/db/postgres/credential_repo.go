package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/baechuer/eprocure-portal/internal/domain"
)

// CredentialRepo stores auth-provider identities.
type CredentialRepo struct {
	db *sql.DB
}

func NewCredentialRepo(db *sql.DB) *CredentialRepo {
	return &CredentialRepo{db: db}
}

const credentialCols = `id, email, password_hash, app_role, created_at`

func scanCredential(row rowScanner) (domain.Credential, error) {
	var (
		c    domain.Credential
		role string
	)
	if err := row.Scan(&c.ID, &c.Email, &c.PasswordHash, &role, &c.CreatedAt); err != nil {
		return domain.Credential{}, err
	}
	c.AppRole = domain.Role(role)
	return c, nil
}

func (r *CredentialRepo) GetByEmail(ctx context.Context, email string) (domain.Credential, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return domain.Credential{}, domain.ErrMissingField("email")
	}

	q := `SELECT ` + credentialCols + ` FROM identities WHERE email = $1 LIMIT 1`
	c, err := scanCredential(r.db.QueryRowContext(ctx, q, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Credential{}, domain.ErrIdentityNotFound()
		}
		return domain.Credential{}, domain.ErrDBUnavailable(err)
	}
	return c, nil
}

func (r *CredentialRepo) GetByID(ctx context.Context, id string) (domain.Credential, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Credential{}, domain.ErrMissingField("id")
	}

	q := `SELECT ` + credentialCols + ` FROM identities WHERE id = $1 LIMIT 1`
	c, err := scanCredential(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Credential{}, domain.ErrIdentityNotFound()
		}
		return domain.Credential{}, domain.ErrDBUnavailable(err)
	}
	return c, nil
}

func (r *CredentialRepo) Create(ctx context.Context, c domain.Credential) (domain.Credential, error) {
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	if c.Email == "" {
		return domain.Credential{}, domain.ErrMissingField("email")
	}
	if c.PasswordHash == "" {
		return domain.Credential{}, domain.ErrMissingField("password_hash")
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	q := `
INSERT INTO identities (id, email, password_hash, app_role, created_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + credentialCols

	out, err := scanCredential(r.db.QueryRowContext(ctx, q, c.ID, c.Email, c.PasswordHash, string(c.AppRole), c.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Credential{}, domain.ErrEmailAlreadyExists()
		}
		return domain.Credential{}, domain.ErrDBUnavailable(err)
	}
	return out, nil
}

func (r *CredentialRepo) SetAppRole(ctx context.Context, id string, role domain.Role) error {
	if strings.TrimSpace(id) == "" {
		return domain.ErrMissingField("id")
	}
	if role != "" && !role.Valid() {
		return domain.ErrInvalidRole(string(role))
	}

	res, err := r.db.ExecContext(ctx, `UPDATE identities SET app_role = $2 WHERE id = $1`, id, string(role))
	if err != nil {
		return domain.ErrDBUnavailable(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.ErrDBUnavailable(err)
	}
	if n == 0 {
		return domain.ErrIdentityNotFound()
	}
	return nil
}
