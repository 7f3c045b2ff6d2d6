// Package repo provides document store access for uploads
package repo

import (
	"popreel/internal/core/hashtag"
	"popreel/internal/core/model"
	"popreel/internal/modkit/repokit"
	"popreel/internal/platform/docstore"
)

// Repo defines the repository contract for uploads
type Repo interface {
	// Stage adds the video, its hashtag entries and the uploader's counter to b
	Stage(b repokit.Batch, v model.Video) error
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

func (r *queries) Stage(b repokit.Batch, v model.Video) error {
	f, err := docstore.FieldsOf(v)
	if err != nil {
		return err
	}
	delete(f, "id")
	b.Create(docstore.Ref{Collection: model.Videos, ID: v.ID}, f)

	for _, tag := range v.Hashtags {
		b.Set(docstore.Ref{Collection: model.Hashtags, ID: hashtag.DocID(tag, v.ID)}, docstore.Fields{
			"tag":       tag,
			"videoId":   v.ID,
			"createdAt": v.CreatedAt,
		})
	}

	b.Set(docstore.Ref{Collection: model.Users, ID: v.UserID},
		docstore.Fields{"videoCount": docstore.Increment(1)}, docstore.Merge())
	return nil
}
