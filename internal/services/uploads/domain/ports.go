// Package domain defines upload types and ports
package domain

import (
	"context"

	"popreel/internal/core/model"
)

// ServicePort is the upload contract
type ServicePort interface {
	// Publish checks the clip, stores it at the origin and records the video
	Publish(ctx context.Context, by model.Author, in PublishInput, clip Clip) (model.Video, error)
}
