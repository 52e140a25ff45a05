package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/baechuer/eprocure-portal/internal/domain"
)

type NotificationRepo struct {
	mu   sync.RWMutex
	byID map[string]domain.Notification
}

func NewNotificationRepo() *NotificationRepo {
	return &NotificationRepo{byID: make(map[string]domain.Notification)}
}

func (r *NotificationRepo) InsertMany(ctx context.Context, ns []domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range ns {
		r.byID[n.ID] = n
	}
	return nil
}

func (r *NotificationRepo) ListByUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]domain.Notification, error) {
	r.mu.RLock()
	out := make([]domain.Notification, 0)
	for _, n := range r.byID {
		if n.UserID != userID || (unreadOnly && n.Read()) {
			continue
		}
		out = append(out, n)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return page(out, 0, limit, 20), nil
}

func (r *NotificationRepo) MarkRead(ctx context.Context, userID, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.byID[id]
	if !ok || n.UserID != userID {
		return domain.ErrNotificationNotFound()
	}
	if n.ReadAt == nil {
		n.ReadAt = &at
		r.byID[id] = n
	}
	return nil
}

func (r *NotificationRepo) MarkAllRead(ctx context.Context, userID string, at time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var count int64
	for id, n := range r.byID {
		if n.UserID == userID && n.ReadAt == nil {
			n.ReadAt = &at
			r.byID[id] = n
			count++
		}
	}
	return count, nil
}
