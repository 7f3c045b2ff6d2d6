// Package repo provides document store access for notifications
package repo

import (
	"context"

	"popreel/internal/core/model"
	"popreel/internal/modkit/repokit"
	"popreel/internal/platform/docstore"
)

// Repo defines the repository contract for notifications
type Repo interface {
	Create(ctx context.Context, n model.Notification) (string, error)
	List(ctx context.Context, userID string, limit int) ([]model.Notification, error)
	Get(ctx context.Context, id string) (model.Notification, error)
	MarkRead(ctx context.Context, id string) error
}

// Indexes are the composite indexes the queries below need
var Indexes = []docstore.Index{
	{Collection: model.Notifications, Filters: []string{"targetUserId"}, Orders: []string{"createdAt"}},
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

func (r *queries) Create(ctx context.Context, n model.Notification) (string, error) {
	f, err := docstore.FieldsOf(n)
	if err != nil {
		return "", err
	}
	delete(f, "id")
	ref, err := r.c.Create(ctx, model.Notifications, f)
	if err != nil {
		return "", err
	}
	return ref.ID, nil
}

func (r *queries) List(ctx context.Context, userID string, limit int) ([]model.Notification, error) {
	q := docstore.From(model.Notifications).
		Where("targetUserId", docstore.OpEq, userID).
		OrderBy("createdAt", docstore.Desc).
		Limit(limit)
	docs, err := r.c.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	out := make([]model.Notification, 0, len(docs))
	for _, d := range docs {
		n, err := docstore.Decode[model.Notification](d)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func (r *queries) Get(ctx context.Context, id string) (model.Notification, error) {
	d, err := r.c.Get(ctx, docstore.Ref{Collection: model.Notifications, ID: id})
	if err != nil {
		return model.Notification{}, err
	}
	return docstore.Decode[model.Notification](d)
}

func (r *queries) MarkRead(ctx context.Context, id string) error {
	return r.c.Update(ctx, docstore.Ref{Collection: model.Notifications, ID: id},
		[]docstore.Update{{Path: "read", Value: true}})
}
