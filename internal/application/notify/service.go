package notify

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/baechuer/eprocure-portal/internal/domain"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
	maxTitleLen      = 200
	maxBodyLen       = 2000
)

type Service struct {
	repo      Repo
	directory RoleDirectory
	now       func() time.Time
}

func NewService(repo Repo, directory RoleDirectory) *Service {
	return &Service{repo: repo, directory: directory, now: time.Now}
}

// NotifyUsers writes one notification row per distinct recipient.
func (s *Service) NotifyUsers(ctx context.Context, userIDs []string, msg domain.Message) error {
	msg, err := normalizeMessage(msg)
	if err != nil {
		return err
	}

	now := s.now().UTC()
	seen := make(map[string]struct{}, len(userIDs))
	rows := make([]domain.Notification, 0, len(userIDs))
	for _, id := range userIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		rows = append(rows, domain.Notification{
			ID:        uuid.NewString(),
			UserID:    id,
			Title:     msg.Title,
			Body:      msg.Body,
			Link:      msg.Link,
			CreatedAt: now,
		})
	}
	if len(rows) == 0 {
		return nil
	}
	return s.repo.InsertMany(ctx, rows)
}

// NotifyRole fans a message out to every profile holding role.
func (s *Service) NotifyRole(ctx context.Context, role domain.Role, msg domain.Message) error {
	if !role.Valid() {
		return domain.ErrInvalidRole(string(role))
	}
	ids, err := s.directory.ListIDsByRole(ctx, role)
	if err != nil {
		return err
	}
	return s.NotifyUsers(ctx, ids, msg)
}

func (s *Service) ListMine(ctx context.Context, userID string, unreadOnly bool, limit int) ([]domain.Notification, error) {
	if userID == "" {
		return nil, domain.ErrUnauthenticated()
	}
	switch {
	case limit <= 0:
		limit = defaultListLimit
	case limit > maxListLimit:
		limit = maxListLimit
	}
	return s.repo.ListByUser(ctx, userID, unreadOnly, limit)
}

// MarkRead only touches the caller's own notifications; someone else's id
// is reported as not found.
func (s *Service) MarkRead(ctx context.Context, userID, id string) error {
	if userID == "" {
		return domain.ErrUnauthenticated()
	}
	if strings.TrimSpace(id) == "" {
		return domain.ErrMissingField("id")
	}
	return s.repo.MarkRead(ctx, userID, id, s.now().UTC())
}

func (s *Service) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	if userID == "" {
		return 0, domain.ErrUnauthenticated()
	}
	return s.repo.MarkAllRead(ctx, userID, s.now().UTC())
}

func normalizeMessage(m domain.Message) (domain.Message, error) {
	m.Title = strings.TrimSpace(m.Title)
	m.Body = strings.TrimSpace(m.Body)
	m.Link = strings.TrimSpace(m.Link)

	if m.Title == "" {
		return m, domain.ErrMissingField("title")
	}
	if len(m.Title) > maxTitleLen {
		return m, domain.ErrInvalidField("title", "at most 200 chars")
	}
	if len(m.Body) > maxBodyLen {
		return m, domain.ErrInvalidField("body", "at most 2000 chars")
	}
	// Links point inside the portal only.
	if m.Link != "" && (!strings.HasPrefix(m.Link, "/") || strings.HasPrefix(m.Link, "//")) {
		return m, domain.ErrInvalidField("link", "must be a portal path")
	}
	return m, nil
}
