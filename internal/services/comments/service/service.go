// Package service contains the comment stream
package service

import (
	"context"
	"strings"

	"popreel/internal/core/model"
	"popreel/internal/modkit/repokit"
	"popreel/internal/platform/docstore"
	perr "popreel/internal/platform/errors"
	"popreel/internal/platform/logger"
	str "popreel/internal/platform/strings"
	ptime "popreel/internal/platform/time"
	"popreel/internal/services/comments/domain"
	"popreel/internal/services/comments/repo"
	notifydom "popreel/internal/services/notifications/domain"
)

// Service defines the service contract for comments
type Service interface{ domain.ServicePort }

// Svc implements the Service interface
type Svc struct {
	Repo   repo.Repo
	db     repokit.Client
	clock  ptime.Clock
	notify notifydom.Sink
}

// New creates a new comments service; notify may be nil
func New(db repokit.Client, binder repokit.Binder[repo.Repo], clock ptime.Clock, notify notifydom.Sink) *Svc {
	if db == nil {
		panic("comments.Service requires a non nil docstore client")
	}
	return &Svc{Repo: repokit.MustBind(binder, db), db: db, clock: clock, notify: notify}
}

// Subscribe delivers the full ordered comment list of videoID on every change
// an unknown video is just an empty list
func (s *Svc) Subscribe(ctx context.Context, videoID string, fn func([]model.Comment, error)) (docstore.Subscription, error) {
	if strings.TrimSpace(videoID) == "" {
		return nil, perr.Validationf("videoId", "video id is required")
	}
	sub, err := s.Repo.Watch(ctx, videoID, func(docs []docstore.Doc, err error) {
		if err != nil {
			fn(nil, perr.WrapKeep(err, perr.ErrorCodeUnavailable, "comments unavailable"))
			return
		}
		cs, err := repo.Decode(docs)
		if err != nil {
			fn(nil, perr.Wrap(err, perr.ErrorCodeUnavailable, "comments unavailable"))
			return
		}
		fn(cs, nil)
	})
	if err != nil {
		return nil, perr.WrapKeep(err, perr.ErrorCodeUnavailable, "failed to subscribe to comments")
	}
	return sub, nil
}

// WatchCount is Subscribe reduced to the number of comments
func (s *Svc) WatchCount(ctx context.Context, videoID string, fn func(int, error)) (docstore.Subscription, error) {
	return s.Subscribe(ctx, videoID, func(cs []model.Comment, err error) { fn(len(cs), err) })
}

// Post stores one immutable comment and bumps the video's cached count in the same batch
func (s *Svc) Post(ctx context.Context, videoID, text string, by model.Author) (string, error) {
	if by.UID == "" {
		return "", perr.Unauthorizedf("sign in to comment")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", perr.Validationf("text", "comment text is empty")
	}
	if str.RuneLen(text) > domain.MaxTextRunes {
		return "", perr.Validationf("text", "comment text is longer than %d characters", domain.MaxTextRunes)
	}
	if strings.TrimSpace(videoID) == "" {
		return "", perr.Validationf("videoId", "video id is required")
	}

	author, err := s.Repo.VideoAuthor(ctx, videoID)
	if err != nil {
		return "", perr.WrapKeep(err, perr.ErrorCodeUnavailable, "failed to post comment")
	}
	c := model.Comment{
		VideoID:    videoID,
		Text:       text,
		UserID:     by.UID,
		UserName:   by.Name,
		UserAvatar: by.Avatar,
		CreatedAt:  s.clock.NowMillis(),
	}
	b := s.db.Batch()
	id := s.Repo.Stage(b, c)
	if err := b.Commit(ctx); err != nil {
		return "", perr.WrapKeep(err, perr.ErrorCodeUnavailable, "failed to post comment")
	}

	if s.notify != nil && author != "" {
		n := model.Notification{
			Type:             model.NotifyComment,
			TargetUserID:     author,
			SourceUserID:     by.UID,
			SourceUserName:   by.Name,
			SourceUserAvatar: by.Avatar,
			VideoID:          videoID,
			CreatedAt:        c.CreatedAt,
		}
		if err := s.notify.Notify(ctx, n); err != nil {
			logger.C(ctx).Warn().Err(err).Str("video", videoID).Msg("comment notification dropped")
		}
	}
	return id, nil
}

// List is a one-shot read of the newest comments
func (s *Svc) List(ctx context.Context, videoID string, limit int) ([]model.Comment, error) {
	switch {
	case limit <= 0:
		limit = domain.DefaultLimit
	case limit > domain.MaxLimit:
		limit = domain.MaxLimit
	}
	out, err := s.Repo.List(ctx, videoID, limit)
	if err != nil {
		return nil, perr.WrapKeep(err, perr.ErrorCodeUnavailable, "failed to list comments")
	}
	return out, nil
}
