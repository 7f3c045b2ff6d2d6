package module

import (
	"context"

	"popreel/internal/core/model"
	"popreel/internal/platform/docstore"
	likesdom "popreel/internal/services/engagement/domain"
	likessvc "popreel/internal/services/engagement/service"
)

// Ports is what engagement offers other modules
type Ports struct {
	Likes likesdom.ServicePort
}

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

// adaptLikesPort exposes the ledger to other modules
type adaptLikesPort struct{ svc likessvc.Service }

func (a adaptLikesPort) ToggleLike(ctx context.Context, videoID string, by model.Author) (bool, error) {
	return a.svc.ToggleLike(ctx, videoID, by)
}

func (a adaptLikesPort) IsLiked(ctx context.Context, videoID, userID string) (bool, error) {
	return a.svc.IsLiked(ctx, videoID, userID)
}

func (a adaptLikesPort) WatchLikeCount(ctx context.Context, videoID string, fn func(int64, error)) (docstore.Subscription, error) {
	return a.svc.WatchLikeCount(ctx, videoID, fn)
}
