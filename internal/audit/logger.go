package audit

import (
	"context"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	appCtx "github.com/baechuer/eprocure-portal/internal/pkg/context"
)

// Logger provides structured audit logging for identity and authorization events.
type Logger struct {
	log zerolog.Logger
}

func New(log zerolog.Logger) *Logger {
	return &Logger{
		log: log.With().Bool("audit", true).Logger(),
	}
}

// Record logs a generic audit action. An "email" field is masked. It has the
// shape the auth service accepts in WithAudit.
func (l *Logger) Record(action string, fields map[string]string) {
	ev := l.log.Info().Str("action", action)
	if strings.HasSuffix(action, "_failed") {
		ev = l.log.Warn().Str("action", action)
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := fields[k]
		if k == "email" {
			v = MaskEmail(v)
		}
		ev = ev.Str(k, v)
	}
	ev.Msg("audit")
}

// RoleChanged logs an admin changing a profile role.
func (l *Logger) RoleChanged(ctx context.Context, targetID, actorID, oldRole, newRole string) {
	l.log.Warn().
		Str("action", "role_changed").
		Str("target_user_id", targetID).
		Str("actor_user_id", actorID).
		Str("old_role", oldRole).
		Str("new_role", newRole).
		Str("request_id", appCtx.GetRequestID(ctx)).
		Msg("Profile role changed")
}

// ProfileUpdated logs an admin edit that did not touch the role.
func (l *Logger) ProfileUpdated(ctx context.Context, targetID, actorID string) {
	l.log.Info().
		Str("action", "profile_updated").
		Str("target_user_id", targetID).
		Str("actor_user_id", actorID).
		Str("request_id", appCtx.GetRequestID(ctx)).
		Msg("Profile updated by admin")
}

// MaskEmail keeps the first two characters of the local part and the domain.
func MaskEmail(email string) string {
	if len(email) < 5 {
		return "***"
	}
	at := strings.IndexByte(email, '@')
	if at < 0 {
		return email[:2] + "***"
	}
	if at < 2 {
		return email[:1] + "***" + email[at:]
	}
	return email[:2] + "***" + email[at:]
}
