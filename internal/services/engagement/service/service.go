// Package service contains the engagement ledger
// like toggles on one video are serialized in process by a per-video lock and across
// processes by the membership document's version; each toggle commits the membership
// change, both counters and a write-ahead log entry in one batch
package service

import (
	"context"
	"strings"
	"sync"

	"popreel/internal/core/keylock"
	"popreel/internal/core/model"
	"popreel/internal/modkit/repokit"
	"popreel/internal/platform/docstore"
	perr "popreel/internal/platform/errors"
	"popreel/internal/platform/logger"
	ptime "popreel/internal/platform/time"
	"popreel/internal/services/engagement/domain"
	"popreel/internal/services/engagement/repo"
	notifydom "popreel/internal/services/notifications/domain"
	profiledom "popreel/internal/services/profiles/domain"
)

// Service defines the service contract for engagement
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

// Option configures optional collaborators
type Option func(*Svc)

// WithNotifier sends a like notification to the author on every new like
func WithNotifier(n notifydom.Sink) Option { return func(s *Svc) { s.notify = n } }

// WithStatsCache invalidates the author's cached counters after a toggle
func WithStatsCache(c profiledom.StatsCache) Option { return func(s *Svc) { s.stats = c } }

// New creates a new engagement service
func New(db repokit.Client, binder repokit.Binder[repo.Repo], clock ptime.Clock, opts ...Option) *Svc {
	if db == nil {
		panic("engagement.Service requires a non nil docstore client")
	}
	s := &Svc{Repo: repokit.MustBind(binder, db), db: db, locks: keylock.New(), clock: clock, stats: profiledom.NopStats{}}
	for _, o := range opts {
		o(s)
	}
	return s
}

// ToggleLike flips by's like on videoID and returns the new state
func (s *Svc) ToggleLike(ctx context.Context, videoID string, by model.Author) (bool, error) {
	if by.UID == "" {
		return false, perr.Unauthorizedf("sign in to like videos")
	}
	videoID = strings.TrimSpace(videoID)
	if videoID == "" {
		return false, perr.Validationf("videoId", "video id is required")
	}

	unlock, err := s.locks.Lock(ctx, videoID)
	if err != nil {
		return false, likeFailed(err)
	}
	defer unlock()

	var t repo.Toggle
	err = repokit.WithBatch(ctx, s.db, repokit.DefaultAttempts, func(ctx context.Context, b repokit.Batch) error {
		v, err := s.Repo.Video(ctx, videoID)
		if err != nil {
			return err
		}
		cur, err := s.Repo.Likes(ctx, videoID)
		if err != nil {
			return err
		}
		t = repo.Toggle{
			VideoID:  videoID,
			AuthorID: v.UserID,
			UserID:   by.UID,
			Like:     !cur.Has(by.UID),
			At:       s.clock.NowMillis(),
		}
		s.Repo.Stage(b, cur, t)
		return nil
	})
	if err != nil {
		logger.C(ctx).Warn().Err(err).Str("video", videoID).Msg("like toggle failed")
		return false, likeFailed(err)
	}

	s.stats.Invalidate(ctx, t.AuthorID)
	if t.Like && s.notify != nil && t.AuthorID != "" {
		n := model.Notification{
			Type:             model.NotifyLike,
			TargetUserID:     t.AuthorID,
			SourceUserID:     by.UID,
			SourceUserName:   by.Name,
			SourceUserAvatar: by.Avatar,
			VideoID:          videoID,
			CreatedAt:        t.At,
		}
		if err := s.notify.Notify(ctx, n); err != nil {
			logger.C(ctx).Warn().Err(err).Str("video", videoID).Msg("like notification dropped")
		}
	}
	return t.Like, nil
}

// IsLiked is a point read of the membership set
func (s *Svc) IsLiked(ctx context.Context, videoID, userID string) (bool, error) {
	if userID == "" {
		return false, nil
	}
	cur, err := s.Repo.Likes(ctx, videoID)
	if err != nil {
		return false, perr.WrapKeep(err, perr.ErrorCodeUnavailable, "failed to read like")
	}
	return cur.Has(userID), nil
}

// WatchLikeCount mirrors the video's likeCount until ctx ends or the subscription is dropped
// writes to other fields of the video are not redelivered
func (s *Svc) WatchLikeCount(ctx context.Context, videoID string, fn func(int64, error)) (docstore.Subscription, error) {
	if _, err := s.Repo.Video(ctx, videoID); err != nil {
		return nil, perr.WrapKeep(err, perr.ErrorCodeUnavailable, "failed to watch likes")
	}
	var (
		mu   sync.Mutex
		last int64
		sent bool
	)
	return s.Repo.WatchVideo(ctx, videoID, func(docs []docstore.Doc, err error) {
		if err != nil {
			mu.Lock()
			sent = false
			mu.Unlock()
			fn(0, perr.WrapKeep(err, perr.ErrorCodeUnavailable, "like count unavailable"))
			return
		}
		var n int64
		if len(docs) > 0 {
			n = docs[0].Int("likeCount")
		}
		mu.Lock()
		if sent && n == last {
			mu.Unlock()
			return
		}
		sent, last = true, n
		mu.Unlock()
		fn(n, nil)
	})
}

// likeFailed keeps the codes a caller can act on and turns the rest into Unavailable
func likeFailed(err error) error {
	switch perr.CodeOf(err) {
	case perr.ErrorCodeValidation, perr.ErrorCodeNotFound, perr.ErrorCodeUnauthorized, perr.ErrorCodeConflict:
		return perr.WrapKeep(err, perr.ErrorCodeUnavailable, "failed to like video")
	}
	return perr.Wrap(err, perr.ErrorCodeUnavailable, "failed to like video")
}
