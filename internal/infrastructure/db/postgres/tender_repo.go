package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/baechuer/eprocure-portal/internal/application/tender"
	"github.com/baechuer/eprocure-portal/internal/domain"
)

type TenderRepo struct {
	db *sql.DB
}

func NewTenderRepo(db *sql.DB) *TenderRepo {
	return &TenderRepo{db: db}
}

const tenderCols = `id, reference, title, description, deadline, status, created_by, published_at, closed_at, created_at, updated_at`

func scanTender(row rowScanner) (domain.Tender, error) {
	var (
		t                   domain.Tender
		status              string
		publishedAt, closed sql.NullTime
	)
	err := row.Scan(
		&t.ID, &t.Reference, &t.Title, &t.Description, &t.Deadline, &status, &t.CreatedBy,
		&publishedAt, &closed, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return domain.Tender{}, err
	}
	t.Status = domain.TenderStatus(status)
	t.PublishedAt = timePtr(publishedAt)
	t.ClosedAt = timePtr(closed)
	return t, nil
}

func (r *TenderRepo) CreateTender(ctx context.Context, t domain.Tender) error {
	q := `
INSERT INTO tenders (` + tenderCols + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.db.ExecContext(ctx, q,
		t.ID, t.Reference, t.Title, t.Description, t.Deadline, string(t.Status), t.CreatedBy,
		t.PublishedAt, t.ClosedAt, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return domain.ErrDBUnavailable(err)
	}
	return nil
}

func (r *TenderRepo) GetTender(ctx context.Context, id string) (domain.Tender, error) {
	q := `SELECT ` + tenderCols + ` FROM tenders WHERE id = $1`
	t, err := scanTender(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Tender{}, domain.ErrTenderNotFound()
		}
		return domain.Tender{}, domain.ErrDBUnavailable(err)
	}
	return t, nil
}

func (r *TenderRepo) UpdateTenderStatus(ctx context.Context, t domain.Tender) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE tenders SET status = $2, published_at = $3, closed_at = $4, updated_at = $5 WHERE id = $1`,
		t.ID, string(t.Status), t.PublishedAt, t.ClosedAt, t.UpdatedAt,
	)
	if err != nil {
		return domain.ErrDBUnavailable(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrTenderNotFound()
	}
	return nil
}

func (r *TenderRepo) ListTenders(ctx context.Context, f tender.TenderFilter) ([]domain.Tender, error) {
	var (
		sb   strings.Builder
		args []any
	)
	sb.WriteString(`SELECT ` + tenderCols + ` FROM tenders`)
	if len(f.Statuses) > 0 {
		marks := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			args = append(args, string(s))
			marks[i] = fmt.Sprintf("$%d", i+1)
		}
		sb.WriteString(` WHERE status IN (` + strings.Join(marks, ", ") + `)`)
	}
	args = append(args, clampLimit(f.Limit, 50, 200), max(f.Offset, 0))
	fmt.Fprintf(&sb, ` ORDER BY deadline ASC, id LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, domain.ErrDBUnavailable(err)
	}
	defer rows.Close()

	out := make([]domain.Tender, 0)
	for rows.Next() {
		t, err := scanTender(rows)
		if err != nil {
			return nil, domain.ErrDBUnavailable(err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrDBUnavailable(err)
	}
	return out, nil
}
