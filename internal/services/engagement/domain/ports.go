package domain

import (
	"context"

	"popreel/internal/core/model"
	"popreel/internal/platform/docstore"
)

// ServicePort defines the service contract for the engagement ledger
type ServicePort interface {
	// ToggleLike flips by's like on videoID and returns the new state
	ToggleLike(ctx context.Context, videoID string, by model.Author) (bool, error)
	IsLiked(ctx context.Context, videoID, userID string) (bool, error)
	// WatchLikeCount calls fn with the video's like count now and after every change
	WatchLikeCount(ctx context.Context, videoID string, fn func(int64, error)) (docstore.Subscription, error)
}
