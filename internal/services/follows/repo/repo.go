// Package repo provides document store access for the follow graph
package repo

import (
	"context"

	"popreel/internal/core/model"
	"popreel/internal/modkit/repokit"
	"popreel/internal/platform/docstore"
	perr "popreel/internal/platform/errors"
)

// Set is one membership document as read
type Set struct {
	Users   []string
	Version int64
	Exists  bool
}

// Has reports whether uid is in the set
func (s Set) Has(uid string) bool {
	for _, u := range s.Users {
		if u == uid {
			return true
		}
	}
	return false
}

// Edge is one staged follow or unfollow of Target by Current
type Edge struct {
	Target  string
	Current string
	Follow  bool
}

// Repo defines the repository contract for follows
type Repo interface {
	UserExists(ctx context.Context, uid string) (bool, error)
	// Set reads followers/{uid} or following/{uid}; absent is the empty set
	Set(ctx context.Context, collection, uid string) (Set, error)
	// Stage adds both membership changes and both counters to b
	Stage(b repokit.Batch, followers, following Set, e Edge)
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

func (r *queries) UserExists(ctx context.Context, uid string) (bool, error) {
	return repokit.Exists(ctx, r.c, docstore.Ref{Collection: model.Users, ID: uid})
}

func (r *queries) Set(ctx context.Context, collection, uid string) (Set, error) {
	d, err := r.c.Get(ctx, docstore.Ref{Collection: collection, ID: uid})
	if perr.IsCode(err, perr.ErrorCodeNotFound) {
		return Set{}, nil
	}
	if err != nil {
		return Set{}, err
	}
	return Set{Users: d.Strings("users"), Version: d.Version, Exists: true}, nil
}

func stageMember(b repokit.Batch, ref docstore.Ref, cur Set, uid string, add bool) {
	switch {
	case !cur.Exists && add:
		b.Create(ref, docstore.Fields{"users": []string{uid}})
	case !cur.Exists:
	case add:
		b.Update(ref, []docstore.Update{{Path: "users", Value: docstore.ArrayUnion(uid)}}, docstore.LastVersion(cur.Version))
	default:
		b.Update(ref, []docstore.Update{{Path: "users", Value: docstore.ArrayRemove(uid)}}, docstore.LastVersion(cur.Version))
	}
}

func (r *queries) Stage(b repokit.Batch, followers, following Set, e Edge) {
	delta := int64(-1)
	if e.Follow {
		delta = 1
	}
	stageMember(b, docstore.Ref{Collection: model.Followers, ID: e.Target}, followers, e.Current, e.Follow)
	stageMember(b, docstore.Ref{Collection: model.Following, ID: e.Current}, following, e.Target, e.Follow)
	b.Set(docstore.Ref{Collection: model.Users, ID: e.Target},
		docstore.Fields{"followerCount": docstore.IncrementFloor(delta, 0)}, docstore.Merge())
	b.Set(docstore.Ref{Collection: model.Users, ID: e.Current},
		docstore.Fields{"followingCount": docstore.IncrementFloor(delta, 0)}, docstore.Merge())
}
