// Package service contains the upload workflow
package service

import (
	"context"
	"strings"
	"time"

	"popreel/internal/adapters/media"
	"popreel/internal/core/hashtag"
	cmedia "popreel/internal/core/media"
	"popreel/internal/core/model"
	"popreel/internal/modkit/repokit"
	"popreel/internal/platform/docstore"
	perr "popreel/internal/platform/errors"
	"popreel/internal/platform/logger"
	ptime "popreel/internal/platform/time"
	profiledom "popreel/internal/services/profiles/domain"
	"popreel/internal/services/uploads/domain"
	"popreel/internal/services/uploads/repo"
)

// Service defines the service contract for uploads
type Service interface{ domain.ServicePort }

// Svc implements the Service interface
type Svc struct {
	Repo   repo.Repo
	db     repokit.Client
	origin media.Origin
	clock  ptime.Clock
	stats  profiledom.StatsCache
}

// Option tunes Svc
type Option func(*Svc)

// WithStatsCache drops the uploader's cached stats after a publish
func WithStatsCache(c profiledom.StatsCache) Option {
	return func(s *Svc) {
		if c != nil {
			s.stats = c
		}
	}
}

// New creates a new upload service
func New(db repokit.Client, binder repokit.Binder[repo.Repo], origin media.Origin, clock ptime.Clock, opts ...Option) *Svc {
	if db == nil {
		panic("uploads.Service requires a non nil docstore client")
	}
	if origin == nil {
		panic("uploads.Service requires a media origin")
	}
	s := &Svc{Repo: repokit.MustBind(binder, db), db: db, origin: origin, clock: clock, stats: profiledom.NopStats{}}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Publish validates the declared metadata before any bytes go to the origin
func (s *Svc) Publish(ctx context.Context, by model.Author, in domain.PublishInput, clip domain.Clip) (model.Video, error) {
	if by.UID == "" {
		return model.Video{}, perr.Unauthorizedf("sign in to upload")
	}
	if clip.Body == nil {
		return model.Video{}, perr.Validationf("file", "file is required")
	}
	caption := strings.TrimSpace(in.Caption)
	if len([]rune(caption)) > domain.MaxCaptionRunes {
		return model.Video{}, perr.Validationf("caption", "caption is limited to %d characters", domain.MaxCaptionRunes)
	}
	meta := cmedia.Meta{
		Filename:    clip.Filename,
		ContentType: clip.ContentType,
		Size:        clip.Size,
		Duration:    time.Duration(in.Duration * float64(time.Second)),
		Width:       in.Width,
		Height:      in.Height,
	}
	if err := cmedia.Validate(meta); err != nil {
		return model.Video{}, err
	}

	asset, err := s.origin.Upload(ctx, media.Object{Body: clip.Body, Meta: meta})
	if err != nil {
		return model.Video{}, perr.WrapKeep(err, perr.ErrorCodeUnavailable, "failed to upload video")
	}

	v := videoFor(by, caption, meta, asset)
	v.ID = docstore.NewID()
	v.CreatedAt = s.clock.NowMillis()

	b := s.db.Batch()
	if err := s.Repo.Stage(b, v); err != nil {
		return model.Video{}, perr.Wrap(err, perr.ErrorCodeUnknown, "failed to publish video")
	}
	if err := b.Commit(ctx); err != nil {
		// the asset stays at the origin without a document pointing at it
		logger.C(ctx).Error().Err(err).Str("url", asset.URL).Msg("video stored but not recorded")
		return model.Video{}, perr.WrapKeep(err, perr.ErrorCodeUnavailable, "failed to publish video")
	}

	s.stats.Invalidate(ctx, by.UID)
	logger.C(ctx).Info().Str("video", v.ID).Int("tags", len(v.Hashtags)).Msg("video published")
	return v, nil
}

// videoFor prefers what the origin measured over what the client declared
func videoFor(by model.Author, caption string, meta cmedia.Meta, a media.Asset) model.Video {
	v := model.Video{
		URL:        a.URL,
		Thumbnail:  a.Thumbnail,
		Caption:    caption,
		UserID:     by.UID,
		UserName:   by.Name,
		UserAvatar: by.Avatar,
		Duration:   a.Duration,
		Format:     a.Format,
		Width:      a.Width,
		Height:     a.Height,
		Hashtags:   hashtag.Extract(caption),
	}
	if v.Thumbnail == "" {
		v.Thumbnail = v.URL
	}
	if v.Duration <= 0 {
		v.Duration = int64(meta.Duration.Round(time.Second).Seconds())
	}
	if v.Width <= 0 || v.Height <= 0 {
		v.Width, v.Height = meta.Width, meta.Height
	}
	if v.Hashtags == nil {
		v.Hashtags = []string{}
	}
	return v
}
