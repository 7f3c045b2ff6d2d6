// Package service contains the profile aggregator
package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"popreel/internal/core/model"
	"popreel/internal/modkit/repokit"
	"popreel/internal/platform/docstore"
	perr "popreel/internal/platform/errors"
	"popreel/internal/platform/logger"
	"popreel/internal/platform/store/rds"
	str "popreel/internal/platform/strings"
	ptime "popreel/internal/platform/time"
	"popreel/internal/services/profiles/domain"
	"popreel/internal/services/profiles/repo"

	"golang.org/x/sync/errgroup"
)

// Service defines the service contract for profiles
type Service interface {
	domain.ServicePort
	domain.StatsCache
}

// Cache is the slice of redis the stats cache uses
type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) error
	SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// Svc implements the Service interface
type Svc struct {
	Repo  repo.Repo
	clock ptime.Clock

	cache Cache
	ttl   time.Duration

	listed int
}

// Option configures the service
type Option func(*Svc)

// WithCache keeps stats in c for ttl; a nil c leaves stats uncached
func WithCache(c Cache, ttl time.Duration) Option {
	return func(s *Svc) {
		if c != nil && ttl > 0 {
			s.cache, s.ttl = c, ttl
		}
	}
}

// New creates a new profiles service
func New(db repokit.Client, binder repokit.Binder[repo.Repo], clock ptime.Clock, opts ...Option) *Svc {
	if db == nil {
		panic("profiles.Service requires a non nil docstore client")
	}
	s := &Svc{Repo: repokit.MustBind(binder, db), clock: clock, listed: domain.MaxListed}
	for _, o := range opts {
		o(s)
	}
	return s
}

// LoadProfile gathers a profile page; the sections are fetched in parallel
// visitors get the public profile (created on first sight), owners get their liked videos
func (s *Svc) LoadProfile(ctx context.Context, targetUserID string, viewerIsOwner bool) (domain.View, error) {
	if strings.TrimSpace(targetUserID) == "" {
		return domain.View{}, perr.Validationf("uid", "user id is required")
	}
	view := domain.View{UID: targetUserID, Owner: viewerIsOwner}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		view.Videos, err = s.userVideos(gctx, targetUserID)
		return err
	})
	g.Go(func() (err error) {
		view.Stats, err = s.Stats(gctx, targetUserID)
		return err
	})
	if !viewerIsOwner {
		g.Go(func() error {
			p, err := s.ensureDefault(gctx, targetUserID)
			if err != nil {
				return err
			}
			view.Profile = &p
			return nil
		})
	} else {
		g.Go(func() error {
			ids, err := s.Repo.LikedVideoIDs(gctx, targetUserID, s.listed)
			if err != nil {
				return err
			}
			view.Liked, err = s.Repo.Videos(gctx, ids)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return domain.View{}, perr.WrapKeep(err, perr.ErrorCodeUnavailable, "failed to load profile")
	}
	if view.Videos == nil {
		view.Videos = []model.Video{}
	}
	if viewerIsOwner && view.Liked == nil {
		view.Liked = []model.Video{}
	}
	return view, nil
}

// userVideos reads a user's newest videos
// without the userId+createdAt index it reads them all, sorts here and keeps the newest
func (s *Svc) userVideos(ctx context.Context, uid string) ([]model.Video, error) {
	vids, err := s.Repo.VideosByUser(ctx, uid, true, s.listed)
	if !perr.IsCode(err, perr.ErrorCodeFailedPrecondition) {
		return vids, err
	}
	logger.C(ctx).Warn().Err(err).Str("uid", uid).Msg("videos by user: index missing, sorting in process")
	vids, err = s.Repo.VideosByUser(ctx, uid, false, 0)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(vids, func(i, j int) bool {
		if vids[i].CreatedAt != vids[j].CreatedAt {
			return vids[i].CreatedAt > vids[j].CreatedAt
		}
		return vids[i].ID > vids[j].ID
	})
	if len(vids) > s.listed {
		vids = vids[:s.listed]
	}
	return vids, nil
}

func statsKey(uid string) string { return "stats:" + uid }

// Stats reads the counters of uid; a user without a profile has all zeros
func (s *Svc) Stats(ctx context.Context, uid string) (model.Stats, error) {
	var st model.Stats
	if s.cache != nil {
		err := s.cache.GetJSON(ctx, statsKey(uid), &st)
		if err == nil {
			return st, nil
		}
		if !errors.Is(err, rds.ErrMiss) {
			logger.C(ctx).Debug().Err(err).Str("uid", uid).Msg("stats cache read failed")
		}
	}

	p, err := s.Repo.Profile(ctx, uid)
	switch {
	case perr.IsCode(err, perr.ErrorCodeNotFound):
		st = model.Stats{}
	case err != nil:
		return model.Stats{}, err
	default:
		st = model.StatsOf(p)
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, statsKey(uid), st, s.ttl); err != nil {
			logger.C(ctx).Debug().Err(err).Str("uid", uid).Msg("stats cache write failed")
		}
	}
	return st, nil
}

// Invalidate drops cached stats after a counter moved
func (s *Svc) Invalidate(ctx context.Context, uids ...string) {
	if s.cache == nil || len(uids) == 0 {
		return
	}
	keys := make([]string, 0, len(uids))
	for _, u := range uids {
		if u != "" {
			keys = append(keys, statsKey(u))
		}
	}
	if err := s.cache.Del(ctx, keys...); err != nil {
		logger.C(ctx).Warn().Err(err).Strs("uids", uids).Msg("stats cache invalidation failed")
	}
}

func (s *Svc) defaultProfile(uid string) model.Profile {
	return model.Profile{UID: uid, DisplayName: model.DefaultDisplayName, CreatedAt: s.clock.NowMillis()}
}

// ensureDefault returns uid's profile, creating the placeholder profile when there is none
func (s *Svc) ensureDefault(ctx context.Context, uid string) (model.Profile, error) {
	return s.ensure(ctx, s.defaultProfile(uid))
}

func (s *Svc) ensure(ctx context.Context, fresh model.Profile) (model.Profile, error) {
	p, err := s.Repo.Profile(ctx, fresh.UID)
	switch {
	case err == nil && p.DisplayName == "":
		// counters were written before the profile itself
		if err := s.Repo.MergeProfile(ctx, fresh.UID, identityFields(fresh)); err != nil {
			return model.Profile{}, err
		}
		return s.Repo.Profile(ctx, fresh.UID)
	case !perr.IsCode(err, perr.ErrorCodeNotFound):
		return p, err
	}
	err = s.Repo.CreateProfile(ctx, fresh)
	switch {
	case err == nil:
		logger.C(ctx).Info().Str("uid", fresh.UID).Msg("profile created")
		return fresh, nil
	case perr.IsCode(err, perr.ErrorCodeConflict):
		// created concurrently
		return s.Repo.Profile(ctx, fresh.UID)
	}
	return model.Profile{}, err
}

func identityFields(p model.Profile) docstore.Fields {
	f := docstore.Fields{"uid": p.UID, "displayName": p.DisplayName, "photoURL": nil, "createdAt": p.CreatedAt}
	if p.PhotoURL != nil {
		f["photoURL"] = *p.PhotoURL
	}
	if p.Email != "" {
		f["email"] = p.Email
	}
	return f
}

// EnsureProfile creates the signed in user's profile from their identity on first sight
// an existing profile is returned untouched apart from filling a missing email
func (s *Svc) EnsureProfile(ctx context.Context, who model.Author, email string) (model.Profile, error) {
	if who.UID == "" {
		return model.Profile{}, perr.Unauthorizedf("sign in to load your profile")
	}
	fresh := model.Profile{
		UID:         who.UID,
		DisplayName: str.Or(strings.TrimSpace(who.Name), model.DefaultDisplayName),
		PhotoURL:    str.Ptr(who.Avatar),
		Email:       email,
		CreatedAt:   s.clock.NowMillis(),
	}
	p, err := s.ensure(ctx, fresh)
	if err != nil {
		return model.Profile{}, perr.WrapKeep(err, perr.ErrorCodeUnavailable, "failed to load profile")
	}
	if p.Email == "" && email != "" {
		if err := s.Repo.MergeProfile(ctx, who.UID, docstore.Fields{"email": email}); err != nil {
			return model.Profile{}, perr.WrapKeep(err, perr.ErrorCodeUnavailable, "failed to load profile")
		}
		p.Email = email
	}
	return p, nil
}

// UpdateProfile changes the display name and photo of uid; an empty photo clears it
func (s *Svc) UpdateProfile(ctx context.Context, uid string, in domain.UpdateInput) (model.Profile, error) {
	if uid == "" {
		return model.Profile{}, perr.Unauthorizedf("sign in to edit your profile")
	}
	fields := docstore.Fields{}
	if in.DisplayName != nil {
		name := strings.TrimSpace(*in.DisplayName)
		if name == "" {
			return model.Profile{}, perr.Validationf("displayName", "display name is empty")
		}
		fields["displayName"] = name
	}
	if in.PhotoURL != nil {
		if u := str.Ptr(*in.PhotoURL); u != nil {
			fields["photoURL"] = strings.TrimSpace(*u)
		} else {
			fields["photoURL"] = nil
		}
	}
	if len(fields) == 0 {
		return model.Profile{}, perr.Validationf("displayName", "nothing to update")
	}
	if _, err := s.ensureDefault(ctx, uid); err != nil {
		return model.Profile{}, perr.WrapKeep(err, perr.ErrorCodeUnavailable, "failed to update profile")
	}
	if err := s.Repo.MergeProfile(ctx, uid, fields); err != nil {
		return model.Profile{}, perr.WrapKeep(err, perr.ErrorCodeUnavailable, "failed to update profile")
	}
	p, err := s.Repo.Profile(ctx, uid)
	return p, perr.WrapKeep(err, perr.ErrorCodeUnavailable, "failed to update profile")
}
