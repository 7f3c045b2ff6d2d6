// Package media defines the origin that stores uploaded clips and the drivers behind it
package media

import (
	"context"
	"io"

	cmedia "popreel/internal/core/media"
)

// Object is one clip on its way to the origin
// Body is rewound before every attempt so drivers can retry
type Object struct {
	Body io.ReadSeeker
	Meta cmedia.Meta
}

// Asset is what the origin reports back
type Asset struct {
	URL       string `json:"url"`
	Thumbnail string `json:"thumbnail"`
	Duration  int64  `json:"duration"`
	Format    string `json:"format"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

// Origin stores clips and returns their public addresses
type Origin interface {
	Upload(ctx context.Context, obj Object) (Asset, error)
}
