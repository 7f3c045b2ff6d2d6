// Package service contains the feed paginator and video lookups
package service

import (
	"context"
	"strings"

	"popreel/internal/core/hashtag"
	"popreel/internal/core/model"
	"popreel/internal/modkit/repokit"
	perr "popreel/internal/platform/errors"
	"popreel/internal/services/feed/domain"
	"popreel/internal/services/feed/repo"
)

// Service defines the service contract for the feed
type Service interface{ domain.ServicePort }

// Svc implements the Service interface
type Svc struct {
	Repo repo.Repo
}

// New creates a new feed service
func New(db repokit.Client, binder repokit.Binder[repo.Repo]) *Svc {
	if db == nil {
		panic("feed.Service requires a non nil docstore client")
	}
	return &Svc{Repo: repokit.MustBind(binder, db)}
}

// FetchPage returns the next pageSize videos newest first
// a short page hands out the exhausted cursor; an exhausted cursor yields an empty page
func (s *Svc) FetchPage(ctx context.Context, pageSize int, cursor string) (domain.Page, error) {
	switch {
	case pageSize <= 0:
		pageSize = domain.DefaultPageSize
	case pageSize > domain.MaxPageSize:
		pageSize = domain.MaxPageSize
	}
	cur, first, done, err := domain.DecodeCursor(cursor)
	if err != nil {
		return domain.Page{}, err
	}
	if done {
		return domain.Page{Videos: []model.Video{}, Next: domain.Exhausted, PageSize: pageSize}, nil
	}

	var after *repo.After
	if !first {
		after = &repo.After{CreatedAt: cur.CreatedAt, ID: cur.ID}
	}
	vids, err := s.Repo.Latest(ctx, pageSize, after)
	if err != nil {
		return domain.Page{}, perr.WrapKeep(err, perr.ErrorCodeUnavailable, "failed to load feed")
	}

	page := domain.Page{Videos: vids, Next: domain.Exhausted, PageSize: pageSize}
	if len(vids) == pageSize {
		last := vids[len(vids)-1]
		page.Next = domain.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}.Encode()
	}
	return page, nil
}

// Get returns one video
func (s *Svc) Get(ctx context.Context, videoID string) (model.Video, error) {
	if strings.TrimSpace(videoID) == "" {
		return model.Video{}, perr.Validationf("id", "video id is required")
	}
	v, err := s.Repo.Get(ctx, videoID)
	return v, perr.WrapKeep(err, perr.ErrorCodeUnavailable, "failed to load video")
}

// Search matches captions starting with term
func (s *Svc) Search(ctx context.Context, term string, limit int) ([]model.Video, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return []model.Video{}, nil
	}
	out, err := s.Repo.CaptionPrefix(ctx, term, clamp(limit, domain.DefaultSearchLimit, domain.MaxSearchLimit))
	if err != nil {
		return nil, perr.WrapKeep(err, perr.ErrorCodeUnavailable, "failed to search videos")
	}
	return out, nil
}

// ByHashtag lists videos carrying tag, newest first; the tag may be given with or without #
func (s *Svc) ByHashtag(ctx context.Context, tag string, limit int) ([]model.Video, error) {
	norm := hashtag.Normalize(tag)
	if norm == "" {
		return nil, perr.Validationf("tag", "hashtag is empty")
	}
	out, err := s.Repo.Tagged(ctx, norm, clamp(limit, domain.DefaultSearchLimit, domain.MaxSearchLimit))
	if err != nil {
		return nil, perr.WrapKeep(err, perr.ErrorCodeUnavailable, "failed to list hashtag")
	}
	return out, nil
}

func clamp(n, def, max int) int {
	if n <= 0 {
		return def
	}
	if n > max {
		return max
	}
	return n
}
