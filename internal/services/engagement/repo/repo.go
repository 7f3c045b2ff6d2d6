// Package repo provides document store access for likes
package repo

import (
	"context"

	"popreel/internal/core/model"
	"popreel/internal/modkit/repokit"
	"popreel/internal/platform/docstore"
	perr "popreel/internal/platform/errors"
)

// LikeSet is the membership document of one video as read
type LikeSet struct {
	Users   []string
	Version int64
	Exists  bool
}

// Has reports whether uid currently likes the video
func (s LikeSet) Has(uid string) bool {
	for _, u := range s.Users {
		if u == uid {
			return true
		}
	}
	return false
}

// Toggle is one staged like flip
type Toggle struct {
	VideoID  string
	AuthorID string
	UserID   string
	Like     bool
	At       int64
}

// Delta is the counter change the toggle applies
func (t Toggle) Delta() int64 {
	if t.Like {
		return 1
	}
	return -1
}

// Repo defines the repository contract for likes
type Repo interface {
	Video(ctx context.Context, videoID string) (model.Video, error)
	Likes(ctx context.Context, videoID string) (LikeSet, error)
	// Stage adds the writes of t to b, guarded by the membership version in cur
	Stage(b repokit.Batch, cur LikeSet, t Toggle)
	WatchVideo(ctx context.Context, videoID string, fn func([]docstore.Doc, error)) (docstore.Subscription, error)
}

type (
	// Docs implements Repo on the document store
	Docs struct{}

	queries struct{ c repokit.Client }
)

// New creates a document store repository binder
func New() repokit.Binder[Repo] { return Docs{} }

// Bind binds a store client to the Repo implementation
func (Docs) Bind(c repokit.Client) Repo { return &queries{c: c} }

func (r *queries) Video(ctx context.Context, videoID string) (model.Video, error) {
	d, err := r.c.Get(ctx, docstore.Ref{Collection: model.Videos, ID: videoID})
	if err != nil {
		if perr.IsCode(err, perr.ErrorCodeNotFound) {
			return model.Video{}, perr.NotFoundf("video %s not found", videoID)
		}
		return model.Video{}, err
	}
	return docstore.Decode[model.Video](d)
}

// Likes reads the membership set; an absent document is the empty set
func (r *queries) Likes(ctx context.Context, videoID string) (LikeSet, error) {
	d, err := r.c.Get(ctx, docstore.Ref{Collection: model.Likes, ID: videoID})
	if perr.IsCode(err, perr.ErrorCodeNotFound) {
		return LikeSet{}, nil
	}
	if err != nil {
		return LikeSet{}, err
	}
	return LikeSet{Users: d.Strings("users"), Version: d.Version, Exists: true}, nil
}

func (r *queries) Stage(b repokit.Batch, cur LikeSet, t Toggle) {
	likes := docstore.Ref{Collection: model.Likes, ID: t.VideoID}
	switch {
	case !cur.Exists:
		b.Create(likes, docstore.Fields{"users": []string{t.UserID}})
	case t.Like:
		b.Update(likes, []docstore.Update{{Path: "users", Value: docstore.ArrayUnion(t.UserID)}}, docstore.LastVersion(cur.Version))
	default:
		b.Update(likes, []docstore.Update{{Path: "users", Value: docstore.ArrayRemove(t.UserID)}}, docstore.LastVersion(cur.Version))
	}

	b.Update(docstore.Ref{Collection: model.Videos, ID: t.VideoID},
		[]docstore.Update{{Path: "likeCount", Value: docstore.IncrementFloor(t.Delta(), 0)}})

	if t.AuthorID != "" {
		b.Set(docstore.Ref{Collection: model.Users, ID: t.AuthorID},
			docstore.Fields{"likeCount": docstore.IncrementFloor(t.Delta(), 0)}, docstore.Merge())
	}

	b.Create(docstore.NewRef(model.EngagementLog), docstore.Fields{
		"videoId":   t.VideoID,
		"userId":    t.UserID,
		"delta":     t.Delta(),
		"createdAt": t.At,
		"shipped":   false,
	})
}

func (r *queries) WatchVideo(ctx context.Context, videoID string, fn func([]docstore.Doc, error)) (docstore.Subscription, error) {
	q := docstore.From(model.Videos).Where(docstore.IDPath, docstore.OpEq, videoID)
	return r.c.Subscribe(ctx, q, fn)
}
