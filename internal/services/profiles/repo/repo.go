// Package repo provides document store access for profiles
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
	{Collection: model.Videos, Filters: []string{"userId"}, Orders: []string{"createdAt"}},
}

// Repo defines the repository contract for profiles
type Repo interface {
	// Profile reads users/{uid}; NotFound when it was never created
	Profile(ctx context.Context, uid string) (model.Profile, error)
	// CreateProfile stores p unless a profile already exists; Conflict when it does
	CreateProfile(ctx context.Context, p model.Profile) error
	// MergeProfile writes fields into users/{uid}, creating it when absent
	MergeProfile(ctx context.Context, uid string, fields docstore.Fields) error
	// VideosByUser lists uid's videos; ordered asks for createdAt desc from the store
	VideosByUser(ctx context.Context, uid string, ordered bool, limit int) ([]model.Video, error)
	// LikedVideoIDs lists the videos whose membership set holds uid
	LikedVideoIDs(ctx context.Context, uid string, limit int) ([]string, error)
	Videos(ctx context.Context, ids []string) ([]model.Video, error)
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

func userRef(uid string) docstore.Ref { return docstore.Ref{Collection: model.Users, ID: uid} }

func (r *queries) Profile(ctx context.Context, uid string) (model.Profile, error) {
	d, err := r.c.Get(ctx, userRef(uid))
	if err != nil {
		return model.Profile{}, err
	}
	p, err := docstore.Decode[model.Profile](d)
	if err != nil {
		return model.Profile{}, err
	}
	if p.UID == "" {
		p.UID = uid
	}
	return p, nil
}

func (r *queries) CreateProfile(ctx context.Context, p model.Profile) error {
	f, err := docstore.FieldsOf(p)
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeInvalidArgument, "encode profile")
	}
	return r.c.Batch().Create(userRef(p.UID), f).Commit(ctx)
}

func (r *queries) MergeProfile(ctx context.Context, uid string, fields docstore.Fields) error {
	return r.c.Set(ctx, userRef(uid), fields, docstore.Merge())
}

func (r *queries) VideosByUser(ctx context.Context, uid string, ordered bool, limit int) ([]model.Video, error) {
	q := docstore.From(model.Videos).Where("userId", docstore.OpEq, uid).Limit(limit)
	if ordered {
		q = q.OrderBy("createdAt", docstore.Desc)
	}
	docs, err := r.c.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	return decodeVideos(docs)
}

func (r *queries) LikedVideoIDs(ctx context.Context, uid string, limit int) ([]string, error) {
	q := docstore.From(model.Likes).Where("users", docstore.OpArrayContains, uid).Limit(limit)
	docs, err := r.c.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.ID()
	}
	return ids, nil
}

func (r *queries) Videos(ctx context.Context, ids []string) ([]model.Video, error) {
	if len(ids) == 0 {
		return []model.Video{}, nil
	}
	docs, err := r.c.GetAll(ctx, repokit.Refs(model.Videos, ids))
	if err != nil {
		return nil, err
	}
	return decodeVideos(docs)
}

func decodeVideos(docs []docstore.Doc) ([]model.Video, error) {
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
