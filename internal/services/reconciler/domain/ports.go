// Package domain defines reconciler ports and types
package domain

import (
	"context"

	"popreel/internal/core/model"
	"popreel/internal/modkit/repokit"
)

// RunnerPort is the entrypoint the worker binary drives
type RunnerPort interface {
	// RunOnce leases one batch of the engagement log, ships it and audits the touched videos
	RunOnce(ctx context.Context) (Report, error)

	// Run repeats RunOnce every interval until ctx ends
	Run(ctx context.Context) error
}

// StorageRepo is everything the reconciler reads and writes in the document store
type StorageRepo interface {
	// Pending returns up to limit unshipped entries, oldest first
	Pending(ctx context.Context, limit int) ([]model.EngagementEntry, error)

	// Audit compares a video's likeCount to the size of its membership set
	Audit(ctx context.Context, videoID string) (Drift, error)

	// Repair stages an increment that brings likeCount back to the membership size
	// guarded by the video version the audit saw
	Repair(b repokit.Batch, d Drift)

	// MarkShipped stages shipped=true on every entry
	MarkShipped(b repokit.Batch, entries []model.EngagementEntry)
}

// Sink receives shipped engagement entries
type Sink interface {
	Ship(ctx context.Context, entries []model.EngagementEntry) error
}
