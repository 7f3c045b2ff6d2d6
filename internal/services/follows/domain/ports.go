package domain

import (
	"context"

	"popreel/internal/core/model"
)

// ServicePort defines the service contract for follows
type ServicePort interface {
	// ToggleFollow flips whether by follows target and returns the new state
	ToggleFollow(ctx context.Context, target string, by model.Author) (bool, error)
	IsFollowing(ctx context.Context, target, current string) (bool, error)
	Followers(ctx context.Context, uid string) ([]string, error)
	Following(ctx context.Context, uid string) ([]string, error)
}
