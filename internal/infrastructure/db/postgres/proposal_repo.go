package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/baechuer/eprocure-portal/internal/domain"
)

type ProposalRepo struct {
	db *sql.DB
}

func NewProposalRepo(db *sql.DB) *ProposalRepo {
	return &ProposalRepo{db: db}
}

const proposalCols = `id, tender_id, supplier_id, amount, currency, cover_note, status, created_at, updated_at`

func scanProposal(row rowScanner) (domain.Proposal, error) {
	var (
		p      domain.Proposal
		status string
	)
	err := row.Scan(&p.ID, &p.TenderID, &p.SupplierID, &p.Amount, &p.Currency, &p.CoverNote, &status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return domain.Proposal{}, err
	}
	p.Status = domain.ProposalStatus(status)
	return p, nil
}

// CreateProposal relies on proposals_one_active_idx for the one-active rule.
func (r *ProposalRepo) CreateProposal(ctx context.Context, p domain.Proposal) error {
	q := `
INSERT INTO proposals (` + proposalCols + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.ExecContext(ctx, q,
		p.ID, p.TenderID, p.SupplierID, p.Amount, p.Currency, p.CoverNote, string(p.Status), p.CreatedAt, p.UpdatedAt,
	)
	switch {
	case err == nil:
		return nil
	case isUniqueViolation(err):
		return domain.ErrProposalAlreadyExists()
	case isForeignKeyViolation(err):
		return domain.ErrTenderNotFound()
	default:
		return domain.ErrDBUnavailable(err)
	}
}

func (r *ProposalRepo) GetProposal(ctx context.Context, id string) (domain.Proposal, error) {
	q := `SELECT ` + proposalCols + ` FROM proposals WHERE id = $1`
	p, err := scanProposal(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Proposal{}, domain.ErrProposalNotFound()
		}
		return domain.Proposal{}, domain.ErrDBUnavailable(err)
	}
	return p, nil
}

func (r *ProposalRepo) UpdateProposalStatus(ctx context.Context, p domain.Proposal) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE proposals SET status = $2, updated_at = $3 WHERE id = $1`,
		p.ID, string(p.Status), p.UpdatedAt,
	)
	if err != nil {
		return domain.ErrDBUnavailable(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrProposalNotFound()
	}
	return nil
}

func (r *ProposalRepo) ListByTender(ctx context.Context, tenderID string) ([]domain.Proposal, error) {
	return r.list(ctx, `SELECT `+proposalCols+` FROM proposals WHERE tender_id = $1 ORDER BY created_at, id`, tenderID)
}

func (r *ProposalRepo) ListBySupplier(ctx context.Context, supplierID string) ([]domain.Proposal, error) {
	return r.list(ctx, `SELECT `+proposalCols+` FROM proposals WHERE supplier_id = $1 ORDER BY created_at DESC, id`, supplierID)
}

func (r *ProposalRepo) list(ctx context.Context, q string, arg string) ([]domain.Proposal, error) {
	rows, err := r.db.QueryContext(ctx, q, arg)
	if err != nil {
		return nil, domain.ErrDBUnavailable(err)
	}
	defer rows.Close()

	out := make([]domain.Proposal, 0)
	for rows.Next() {
		p, err := scanProposal(rows)
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

const attachmentCols = `id, proposal_id, object_key, file_name, content_type, size, created_at`

func (r *ProposalRepo) CreateAttachment(ctx context.Context, a domain.Attachment) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO attachments (`+attachmentCols+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, a.ProposalID, a.Key, a.FileName, a.ContentType, a.Size, a.CreatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrProposalNotFound()
		}
		return domain.ErrDBUnavailable(err)
	}
	return nil
}

func (r *ProposalRepo) ListAttachments(ctx context.Context, proposalID string) ([]domain.Attachment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+attachmentCols+` FROM attachments WHERE proposal_id = $1 ORDER BY created_at, id`,
		proposalID,
	)
	if err != nil {
		return nil, domain.ErrDBUnavailable(err)
	}
	defer rows.Close()

	out := make([]domain.Attachment, 0)
	for rows.Next() {
		var a domain.Attachment
		if err := rows.Scan(&a.ID, &a.ProposalID, &a.Key, &a.FileName, &a.ContentType, &a.Size, &a.CreatedAt); err != nil {
			return nil, domain.ErrDBUnavailable(err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrDBUnavailable(err)
	}
	return out, nil
}
