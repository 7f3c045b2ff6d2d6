// Package service contains follow workflows
package service

import (
	"context"
	"strings"

	"popreel/internal/core/keylock"
	"popreel/internal/core/model"
	"popreel/internal/modkit/repokit"
	perr "popreel/internal/platform/errors"
	"popreel/internal/platform/logger"
	ptime "popreel/internal/platform/time"
	"popreel/internal/services/follows/domain"
	"popreel/internal/services/follows/repo"
	notifydom "popreel/internal/services/notifications/domain"
	profiledom "popreel/internal/services/profiles/domain"
)

// Service defines the service contract for follows
type Service interface{ domain.ServicePort }

// Svc implements the Service interface
type Svc struct {
	Repo  repo.Repo
	db    repokit.Client
	locks *keylock.Locks
	clock ptime.Clock

	notify notifydom.Sink
	stats  profiledom.StatsCache
}

// New creates a new follows service; notify and stats may be nil
func New(db repokit.Client, binder repokit.Binder[repo.Repo], clock ptime.Clock, notify notifydom.Sink, stats profiledom.StatsCache) *Svc {
	if db == nil {
		panic("follows.Service requires a non nil docstore client")
	}
	if stats == nil {
		stats = profiledom.NopStats{}
	}
	return &Svc{Repo: repokit.MustBind(binder, db), db: db, locks: keylock.New(), clock: clock, notify: notify, stats: stats}
}

// ToggleFollow flips whether by follows target
// the follower's own following set decides the current state
func (s *Svc) ToggleFollow(ctx context.Context, target string, by model.Author) (bool, error) {
	if by.UID == "" {
		return false, perr.Unauthorizedf("sign in to follow")
	}
	target = strings.TrimSpace(target)
	if target == "" {
		return false, perr.Validationf("uid", "user id is required")
	}
	if target == by.UID {
		return false, perr.Validationf("uid", "you cannot follow yourself")
	}
	ok, err := s.Repo.UserExists(ctx, target)
	if err != nil {
		return false, perr.WrapKeep(err, perr.ErrorCodeUnavailable, "failed to follow")
	}
	if !ok {
		return false, perr.NotFoundf("user %s not found", target)
	}

	unlock, err := s.locks.Lock(ctx, by.UID)
	if err != nil {
		return false, perr.Wrap(err, perr.ErrorCodeUnavailable, "failed to follow")
	}
	defer unlock()

	var e repo.Edge
	err = repokit.WithBatch(ctx, s.db, repokit.DefaultAttempts, func(ctx context.Context, b repokit.Batch) error {
		followers, err := s.Repo.Set(ctx, model.Followers, target)
		if err != nil {
			return err
		}
		following, err := s.Repo.Set(ctx, model.Following, by.UID)
		if err != nil {
			return err
		}
		e = repo.Edge{Target: target, Current: by.UID, Follow: !following.Has(target)}
		s.Repo.Stage(b, followers, following, e)
		return nil
	})
	if err != nil {
		return false, perr.WrapKeep(err, perr.ErrorCodeUnavailable, "failed to follow")
	}

	s.stats.Invalidate(ctx, target, by.UID)
	if e.Follow && s.notify != nil {
		n := model.Notification{
			Type:             model.NotifyFollow,
			TargetUserID:     target,
			SourceUserID:     by.UID,
			SourceUserName:   by.Name,
			SourceUserAvatar: by.Avatar,
			CreatedAt:        s.clock.NowMillis(),
		}
		if err := s.notify.Notify(ctx, n); err != nil {
			logger.C(ctx).Warn().Err(err).Str("target", target).Msg("follow notification dropped")
		}
	}
	return e.Follow, nil
}

// IsFollowing reports whether current follows target
func (s *Svc) IsFollowing(ctx context.Context, target, current string) (bool, error) {
	if current == "" || target == "" {
		return false, nil
	}
	set, err := s.Repo.Set(ctx, model.Following, current)
	if err != nil {
		return false, perr.WrapKeep(err, perr.ErrorCodeUnavailable, "failed to read follow")
	}
	return set.Has(target), nil
}

// Followers lists who follows uid
func (s *Svc) Followers(ctx context.Context, uid string) ([]string, error) {
	return s.members(ctx, model.Followers, uid)
}

// Following lists who uid follows
func (s *Svc) Following(ctx context.Context, uid string) ([]string, error) {
	return s.members(ctx, model.Following, uid)
}

func (s *Svc) members(ctx context.Context, collection, uid string) ([]string, error) {
	set, err := s.Repo.Set(ctx, collection, uid)
	if err != nil {
		return nil, perr.WrapKeep(err, perr.ErrorCodeUnavailable, "failed to list "+collection)
	}
	if set.Users == nil {
		return []string{}, nil
	}
	return set.Users, nil
}
