package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/baechuer/eprocure-portal/internal/domain"
)

// insertBatch keeps each multi-row INSERT well under the 65535 bind limit.
const insertBatch = 500

type NotificationRepo struct {
	db *sql.DB
}

func NewNotificationRepo(db *sql.DB) *NotificationRepo {
	return &NotificationRepo{db: db}
}

const notificationCols = `id, user_id, title, body, link, read_at, created_at`

func scanNotification(row rowScanner) (domain.Notification, error) {
	var (
		n      domain.Notification
		readAt sql.NullTime
	)
	if err := row.Scan(&n.ID, &n.UserID, &n.Title, &n.Body, &n.Link, &readAt, &n.CreatedAt); err != nil {
		return domain.Notification{}, err
	}
	n.ReadAt = timePtr(readAt)
	return n, nil
}

func (r *NotificationRepo) InsertMany(ctx context.Context, ns []domain.Notification) error {
	for start := 0; start < len(ns); start += insertBatch {
		end := min(start+insertBatch, len(ns))
		if err := r.insertChunk(ctx, ns[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (r *NotificationRepo) insertChunk(ctx context.Context, ns []domain.Notification) error {
	const perRow = 6
	var (
		sb   strings.Builder
		args = make([]any, 0, len(ns)*perRow)
	)
	sb.WriteString(`INSERT INTO notifications (id, user_id, title, body, link, created_at) VALUES `)
	for i, n := range ns {
		if i > 0 {
			sb.WriteString(", ")
		}
		b := i * perRow
		fmt.Fprintf(&sb, "($%d, $%d, $%d, $%d, $%d, $%d)", b+1, b+2, b+3, b+4, b+5, b+6)
		args = append(args, n.ID, n.UserID, n.Title, n.Body, n.Link, n.CreatedAt)
	}

	if _, err := r.db.ExecContext(ctx, sb.String(), args...); err != nil {
		return domain.ErrDBUnavailable(err)
	}
	return nil
}

func (r *NotificationRepo) ListByUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]domain.Notification, error) {
	q := `
SELECT ` + notificationCols + `
FROM notifications
WHERE user_id = $1 AND ($2::bool = false OR read_at IS NULL)
ORDER BY created_at DESC, id DESC
LIMIT $3`

	rows, err := r.db.QueryContext(ctx, q, userID, unreadOnly, clampLimit(limit, 20, 100))
	if err != nil {
		return nil, domain.ErrDBUnavailable(err)
	}
	defer rows.Close()

	out := make([]domain.Notification, 0)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, domain.ErrDBUnavailable(err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrDBUnavailable(err)
	}
	return out, nil
}

// MarkRead keeps the first read timestamp.
func (r *NotificationRepo) MarkRead(ctx context.Context, userID, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET read_at = COALESCE(read_at, $3) WHERE id = $1 AND user_id = $2`,
		id, userID, at,
	)
	if err != nil {
		return domain.ErrDBUnavailable(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.ErrDBUnavailable(err)
	}
	if n == 0 {
		return domain.ErrNotificationNotFound()
	}
	return nil
}

func (r *NotificationRepo) MarkAllRead(ctx context.Context, userID string, at time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET read_at = $2 WHERE user_id = $1 AND read_at IS NULL`,
		userID, at,
	)
	if err != nil {
		return 0, domain.ErrDBUnavailable(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, domain.ErrDBUnavailable(err)
	}
	return n, nil
}
