package domain

import (
	"context"

	"popreel/internal/core/model"
)

// StatsCache drops cached profile counters after something changed them
type StatsCache interface {
	Invalidate(ctx context.Context, uids ...string)
}

// NopStats is the StatsCache used when profiles run uncached
type NopStats struct{}

// Invalidate does nothing
func (NopStats) Invalidate(context.Context, ...string) {}

// ServicePort defines the service contract for profiles
type ServicePort interface {
	LoadProfile(ctx context.Context, targetUserID string, viewerIsOwner bool) (View, error)
	EnsureProfile(ctx context.Context, who model.Author, email string) (model.Profile, error)
	UpdateProfile(ctx context.Context, uid string, in UpdateInput) (model.Profile, error)
	Stats(ctx context.Context, uid string) (model.Stats, error)
}
