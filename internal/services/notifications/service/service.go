// Package service contains notification workflows
package service

import (
	"context"
	"strings"

	"popreel/internal/core/model"
	"popreel/internal/modkit/repokit"
	perr "popreel/internal/platform/errors"
	"popreel/internal/platform/logger"
	ptime "popreel/internal/platform/time"
	"popreel/internal/services/notifications/domain"
	"popreel/internal/services/notifications/repo"
)

// Service defines the service contract for notifications
type Service interface{ domain.ServicePort }

// Svc implements the Service interface
type Svc struct {
	Repo  repo.Repo
	clock ptime.Clock
}

// New creates a new notifications service
func New(db repokit.Client, binder repokit.Binder[repo.Repo], clock ptime.Clock) *Svc {
	if db == nil {
		panic("notifications.Service requires a non nil docstore client")
	}
	return &Svc{Repo: repokit.MustBind(binder, db), clock: clock}
}

// Notify stores n for its target; acting on your own content notifies nobody
func (s *Svc) Notify(ctx context.Context, n model.Notification) error {
	if n.TargetUserID == "" || n.SourceUserID == "" {
		return perr.Validationf("targetUserId", "target and source are required")
	}
	if n.TargetUserID == n.SourceUserID {
		return nil
	}
	switch n.Type {
	case model.NotifyLike, model.NotifyComment, model.NotifyFollow:
	default:
		return perr.Validationf("type", "unknown notification type %q", n.Type)
	}
	if n.CreatedAt == 0 {
		n.CreatedAt = s.clock.NowMillis()
	}
	n.Read = false
	id, err := s.Repo.Create(ctx, n)
	if err != nil {
		return perr.WrapKeep(err, perr.ErrorCodeUnavailable, "failed to create notification")
	}
	logger.C(ctx).Debug().Str("notification", id).Str("type", n.Type).Str("target", n.TargetUserID).Msg("notified")
	return nil
}

// List returns the newest notifications of userID first
func (s *Svc) List(ctx context.Context, userID string, limit int) ([]model.Notification, error) {
	if userID == "" {
		return nil, perr.Unauthorizedf("sign in to read notifications")
	}
	if limit <= 0 {
		limit = domain.DefaultLimit
	}
	out, err := s.Repo.List(ctx, userID, limit)
	if err != nil {
		return nil, perr.WrapKeep(err, perr.ErrorCodeUnavailable, "failed to list notifications")
	}
	return out, nil
}

// MarkRead flags one of userID's notifications as read
// someone else's notification reads as missing
func (s *Svc) MarkRead(ctx context.Context, userID, id string) error {
	if userID == "" {
		return perr.Unauthorizedf("sign in to read notifications")
	}
	if strings.TrimSpace(id) == "" {
		return perr.Validationf("id", "notification id is required")
	}
	n, err := s.Repo.Get(ctx, id)
	if err != nil {
		return perr.WrapKeep(err, perr.ErrorCodeUnavailable, "failed to read notification")
	}
	if n.TargetUserID != userID {
		return perr.NotFoundf("notification %s not found", id)
	}
	if n.Read {
		return nil
	}
	return perr.WrapKeep(s.Repo.MarkRead(ctx, id), perr.ErrorCodeUnavailable, "failed to mark notification read")
}
