// Package repo provides document store access for the feed
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
	{Collection: model.Videos, Filters: []string{"caption"}, Orders: []string{"caption", "createdAt"}},
	{Collection: model.Hashtags, Filters: []string{"tag"}, Orders: []string{"createdAt"}},
}

// After is a keyset position in the createdAt desc order
type After struct {
	CreatedAt int64
	ID        string
}

// Repo defines the repository contract for the feed
type Repo interface {
	// Latest returns up to n videos newest first, strictly after a when it is set
	Latest(ctx context.Context, n int, a *After) ([]model.Video, error)
	Get(ctx context.Context, id string) (model.Video, error)
	CaptionPrefix(ctx context.Context, prefix string, n int) ([]model.Video, error)
	Tagged(ctx context.Context, tag string, n int) ([]model.Video, error)
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

func (r *queries) Latest(ctx context.Context, n int, a *After) ([]model.Video, error) {
	q := docstore.From(model.Videos).OrderBy("createdAt", docstore.Desc).Limit(n)
	if a != nil {
		q = q.StartAfter(docstore.Doc{
			Ref:    docstore.Ref{Collection: model.Videos, ID: a.ID},
			Fields: docstore.Fields{"createdAt": a.CreatedAt},
		})
	}
	return r.videos(ctx, q)
}

func (r *queries) Get(ctx context.Context, id string) (model.Video, error) {
	d, err := r.c.Get(ctx, docstore.Ref{Collection: model.Videos, ID: id})
	if err != nil {
		if perr.IsCode(err, perr.ErrorCodeNotFound) {
			return model.Video{}, perr.NotFoundf("video %s not found", id)
		}
		return model.Video{}, err
	}
	return docstore.Decode[model.Video](d)
}

// CaptionPrefix is a range scan over captions starting with prefix
func (r *queries) CaptionPrefix(ctx context.Context, prefix string, n int) ([]model.Video, error) {
	q := docstore.From(model.Videos).
		Where("caption", docstore.OpGte, prefix).
		Where("caption", docstore.OpLte, prefix+"\uf8ff").
		OrderBy("caption", docstore.Asc).
		OrderBy("createdAt", docstore.Desc).
		Limit(n)
	return r.videos(ctx, q)
}

// Tagged resolves hashtag entries to their videos, newest first
// entries whose video is gone are skipped
func (r *queries) Tagged(ctx context.Context, tag string, n int) ([]model.Video, error) {
	q := docstore.From(model.Hashtags).
		Where("tag", docstore.OpEq, tag).
		OrderBy("createdAt", docstore.Desc).
		Limit(n)
	entries, err := r.c.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if id := e.Str("videoId"); id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return []model.Video{}, nil
	}
	docs, err := r.c.GetAll(ctx, repokit.Refs(model.Videos, ids))
	if err != nil {
		return nil, err
	}
	return decode(docs)
}

func (r *queries) videos(ctx context.Context, q docstore.Query) ([]model.Video, error) {
	docs, err := r.c.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	return decode(docs)
}

func decode(docs []docstore.Doc) ([]model.Video, error) {
	out := make([]model.Video, 0, len(docs))
	for _, d := range docs {
		v, err := docstore.Decode[model.Video](d)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
