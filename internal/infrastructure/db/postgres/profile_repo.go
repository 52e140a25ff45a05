package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/baechuer/eprocure-portal/internal/application/profile"
	"github.com/baechuer/eprocure-portal/internal/domain"
)

type ProfileRepo struct {
	db *sql.DB
}

func NewProfileRepo(db *sql.DB) *ProfileRepo {
	return &ProfileRepo{db: db}
}

const profileCols = `id, full_name, phone, country, role, supplier_id, created_at, updated_at`

func scanProfile(row rowScanner) (domain.Profile, error) {
	var (
		p          domain.Profile
		role       string
		supplierID sql.NullString
	)
	err := row.Scan(&p.ID, &p.FullName, &p.Phone, &p.Country, &role, &supplierID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return domain.Profile{}, err
	}
	p.Role = domain.Role(role)
	p.SupplierID = stringPtr(supplierID)
	return p, nil
}

// Create inserts the signup profile once; a second insert for the same id
// is a conflict.
func (r *ProfileRepo) Create(ctx context.Context, p domain.Profile) (domain.Profile, error) {
	if strings.TrimSpace(p.ID) == "" {
		return domain.Profile{}, domain.ErrMissingField("id")
	}

	q := `
INSERT INTO profiles (id, full_name, phone, country, role, supplier_id, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (id) DO NOTHING
RETURNING ` + profileCols

	out, err := scanProfile(r.db.QueryRowContext(ctx, q,
		p.ID, p.FullName, p.Phone, p.Country, string(p.Role), nullString(p.SupplierID), p.CreatedAt, p.UpdatedAt,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Profile{}, domain.ErrProfileAlreadyExists()
		}
		if isForeignKeyViolation(err) {
			return domain.Profile{}, domain.ErrIdentityNotFound()
		}
		return domain.Profile{}, domain.ErrDBUnavailable(err)
	}
	return out, nil
}

func (r *ProfileRepo) GetByID(ctx context.Context, id string) (domain.Profile, error) {
	q := `SELECT ` + profileCols + ` FROM profiles WHERE id = $1`
	p, err := scanProfile(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Profile{}, domain.ErrProfileNotFound()
		}
		return domain.Profile{}, domain.ErrDBUnavailable(err)
	}
	return p, nil
}

// GetRole reads only the role column; this is the per-request hot path.
func (r *ProfileRepo) GetRole(ctx context.Context, id string) (domain.Role, error) {
	var role string
	err := r.db.QueryRowContext(ctx, `SELECT role FROM profiles WHERE id = $1`, id).Scan(&role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", domain.ErrProfileNotFound()
		}
		return "", domain.ErrDBUnavailable(err)
	}
	return domain.Role(role), nil
}

func (r *ProfileRepo) Update(ctx context.Context, p domain.Profile) (domain.Profile, error) {
	q := `
UPDATE profiles
SET full_name = $2, phone = $3, country = $4, role = $5, supplier_id = $6, updated_at = $7
WHERE id = $1
RETURNING ` + profileCols

	out, err := scanProfile(r.db.QueryRowContext(ctx, q,
		p.ID, p.FullName, p.Phone, p.Country, string(p.Role), nullString(p.SupplierID), p.UpdatedAt,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Profile{}, domain.ErrProfileNotFound()
		}
		return domain.Profile{}, domain.ErrDBUnavailable(err)
	}
	return out, nil
}

func (r *ProfileRepo) List(ctx context.Context, f profile.ListFilter) ([]domain.Profile, error) {
	q := `
SELECT ` + profileCols + `
FROM profiles
WHERE ($1::text = '' OR role = $1::text)
ORDER BY created_at DESC, id
LIMIT $2 OFFSET $3`

	rows, err := r.db.QueryContext(ctx, q, string(f.Role), clampLimit(f.Limit, 50, 200), max(f.Offset, 0))
	if err != nil {
		return nil, domain.ErrDBUnavailable(err)
	}
	defer rows.Close()

	out := make([]domain.Profile, 0)
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, domain.ErrDBUnavailable(err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrDBUnavailable(err)
	}
	return out, nil
}

func (r *ProfileRepo) ListIDsByRole(ctx context.Context, role domain.Role) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM profiles WHERE role = $1 ORDER BY id`, string(role))
	if err != nil {
		return nil, domain.ErrDBUnavailable(err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, domain.ErrDBUnavailable(err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrDBUnavailable(err)
	}
	return ids, nil
}
