package domain

import (
	"context"

	"popreel/internal/core/model"
	"popreel/internal/platform/docstore"
)

// ServicePort defines the service contract for comments
type ServicePort interface {
	// Subscribe delivers the video's comments, newest first, now and after every change
	Subscribe(ctx context.Context, videoID string, fn func([]model.Comment, error)) (docstore.Subscription, error)
	Post(ctx context.Context, videoID, text string, by model.Author) (string, error)
	List(ctx context.Context, videoID string, limit int) ([]model.Comment, error)
	// WatchCount delivers the live number of comments on the video
	WatchCount(ctx context.Context, videoID string, fn func(int, error)) (docstore.Subscription, error)
}
