// Package repo provides document store access for comments
package repo

import (
	"context"

	"popreel/internal/core/model"
	"popreel/internal/modkit/repokit"
	"popreel/internal/platform/docstore"
	perr "popreel/internal/platform/errors"
)

// Indexes are the composite indexes the queries below need
var Indexes = []docstore.Index{
	{Collection: model.Comments, Filters: []string{"videoId"}, Orders: []string{"createdAt"}},
}

// Repo defines the repository contract for comments
type Repo interface {
	VideoAuthor(ctx context.Context, videoID string) (string, error)
	// Stage adds the comment and the video's counter bump to b and returns the new id
	Stage(b repokit.Batch, c model.Comment) string
	List(ctx context.Context, videoID string, limit int) ([]model.Comment, error)
	Watch(ctx context.Context, videoID string, fn func([]docstore.Doc, error)) (docstore.Subscription, error)
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

func byVideo(videoID string) docstore.Query {
	return docstore.From(model.Comments).
		Where("videoId", docstore.OpEq, videoID).
		OrderBy("createdAt", docstore.Desc)
}

func (r *queries) VideoAuthor(ctx context.Context, videoID string) (string, error) {
	d, err := r.c.Get(ctx, docstore.Ref{Collection: model.Videos, ID: videoID})
	if perr.IsCode(err, perr.ErrorCodeNotFound) {
		return "", perr.NotFoundf("video %s not found", videoID)
	}
	if err != nil {
		return "", err
	}
	return d.Str("userId"), nil
}

func (r *queries) Stage(b repokit.Batch, c model.Comment) string {
	ref := docstore.NewRef(model.Comments)
	b.Create(ref, docstore.Fields{
		"videoId":    c.VideoID,
		"text":       c.Text,
		"userId":     c.UserID,
		"userName":   c.UserName,
		"userAvatar": c.UserAvatar,
		"createdAt":  c.CreatedAt,
	})
	b.Update(docstore.Ref{Collection: model.Videos, ID: c.VideoID},
		[]docstore.Update{{Path: "commentCount", Value: docstore.Increment(1)}})
	return ref.ID
}

func (r *queries) List(ctx context.Context, videoID string, limit int) ([]model.Comment, error) {
	docs, err := r.c.Query(ctx, byVideo(videoID).Limit(limit))
	if err != nil {
		return nil, err
	}
	return Decode(docs)
}

func (r *queries) Watch(ctx context.Context, videoID string, fn func([]docstore.Doc, error)) (docstore.Subscription, error) {
	return r.c.Subscribe(ctx, byVideo(videoID), fn)
}

// Decode maps comment documents in order
func Decode(docs []docstore.Doc) ([]model.Comment, error) {
	out := make([]model.Comment, 0, len(docs))
	for _, d := range docs {
		c, err := docstore.Decode[model.Comment](d)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}
