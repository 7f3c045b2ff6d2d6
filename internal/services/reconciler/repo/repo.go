// Package repo provides storage for the reconciler: the document store for the log and
// the counters, clickhouse for shipped events
package repo

import (
	"context"

	"popreel/internal/core/model"
	"popreel/internal/modkit/repokit"
	"popreel/internal/platform/docstore"
	perr "popreel/internal/platform/errors"
	"popreel/internal/services/reconciler/domain"
)

// Indexes are the composite indexes the queries below need
var Indexes = []docstore.Index{
	{Collection: model.EngagementLog, Filters: []string{"shipped"}, Orders: []string{"createdAt"}},
}

type (
	// Docs implements domain.StorageRepo on the document store
	Docs struct{}

	queries struct{ c repokit.Client }
)

// New creates a document store repository binder
func New() repokit.Binder[domain.StorageRepo] { return Docs{} }

// Bind binds a store client to the repo implementation
func (Docs) Bind(c repokit.Client) domain.StorageRepo { return &queries{c: c} }

func (r *queries) Pending(ctx context.Context, limit int) ([]model.EngagementEntry, error) {
	q := docstore.From(model.EngagementLog).
		Where("shipped", docstore.OpEq, false).
		OrderBy("createdAt", docstore.Asc).
		Limit(limit)
	docs, err := r.c.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	out := make([]model.EngagementEntry, 0, len(docs))
	for _, d := range docs {
		e, err := docstore.Decode[model.EngagementEntry](d)
		if err != nil {
			return nil, perr.Wrapf(err, perr.ErrorCodeUnknown, "decode %s", d.Ref.Path())
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *queries) Audit(ctx context.Context, videoID string) (domain.Drift, error) {
	d := domain.Drift{VideoID: videoID}
	v, err := r.c.Get(ctx, docstore.Ref{Collection: model.Videos, ID: videoID})
	if perr.IsCode(err, perr.ErrorCodeNotFound) {
		return d, nil
	}
	if err != nil {
		return d, err
	}
	d.Exists, d.LikeCount, d.Version = true, v.Int("likeCount"), v.Version

	likes, err := r.c.Get(ctx, docstore.Ref{Collection: model.Likes, ID: videoID})
	switch {
	case perr.IsCode(err, perr.ErrorCodeNotFound):
	case err != nil:
		return d, err
	default:
		d.Members = int64(len(likes.Strings("users")))
	}
	return d, nil
}

func (r *queries) Repair(b repokit.Batch, d domain.Drift) {
	b.Update(docstore.Ref{Collection: model.Videos, ID: d.VideoID},
		[]docstore.Update{{Path: "likeCount", Value: docstore.Increment(d.Delta())}},
		docstore.LastVersion(d.Version))
}

func (r *queries) MarkShipped(b repokit.Batch, entries []model.EngagementEntry) {
	for _, e := range entries {
		b.Update(docstore.Ref{Collection: model.EngagementLog, ID: e.ID},
			[]docstore.Update{{Path: "shipped", Value: true}})
	}
}
