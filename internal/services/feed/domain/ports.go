package domain

import (
	"context"

	"popreel/internal/core/model"
)

// ServicePort defines the service contract for the feed
type ServicePort interface {
	FetchPage(ctx context.Context, pageSize int, cursor string) (Page, error)
	Get(ctx context.Context, videoID string) (model.Video, error)
	Search(ctx context.Context, term string, limit int) ([]model.Video, error)
	ByHashtag(ctx context.Context, tag string, limit int) ([]model.Video, error)
}
