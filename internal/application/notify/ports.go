package notify

import (
	"context"
	"time"

	"github.com/baechuer/eprocure-portal/internal/domain"
)

type Repo interface {
	InsertMany(ctx context.Context, ns []domain.Notification) error
	ListByUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]domain.Notification, error)
	// MarkRead returns ErrNotificationNotFound unless id belongs to userID.
	MarkRead(ctx context.Context, userID, id string, at time.Time) error
	MarkAllRead(ctx context.Context, userID string, at time.Time) (int64, error)
}

// RoleDirectory resolves a role to the ids of every profile holding it.
type RoleDirectory interface {
	ListIDsByRole(ctx context.Context, role domain.Role) ([]string, error)
}
