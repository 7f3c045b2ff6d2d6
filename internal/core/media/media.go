// Package media holds the upload limits and the metadata checks run before any bytes leave the server
package media

import (
	"fmt"
	"mime"
	"path"
	"strings"
	"time"

	perr "popreel/internal/platform/errors"
)

const (
	// MaxBytes is the largest accepted upload
	MaxBytes int64 = 100 << 20
	// MaxDuration is the longest accepted clip
	MaxDuration = 60 * time.Second
	// MinAspect is the minimum height/width ratio; vertical video only
	MinAspect = 1.6
)

// Meta is what the client declares about a clip before upload
type Meta struct {
	Filename    string
	ContentType string
	Size        int64
	Duration    time.Duration
	Width       int
	Height      int
}

// Aspect returns height/width, 0 when width is unknown
func (m Meta) Aspect() float64 {
	if m.Width <= 0 {
		return 0
	}
	return float64(m.Height) / float64(m.Width)
}

// Validate rejects clips outside the limits; the first failing rule wins
func Validate(m Meta) error {
	switch {
	case m.Size <= 0:
		return perr.Validationf("file", "file is empty")
	case m.Size > MaxBytes:
		return perr.Validationf("file", "file is %s, the limit is %s", human(m.Size), human(MaxBytes))
	case !IsVideo(m.ContentType) && !unlabeled(m.ContentType):
		return perr.Validationf("file", "unsupported content type %q", m.ContentType)
	case m.Duration <= 0:
		return perr.Validationf("duration", "duration is required")
	case m.Duration > MaxDuration:
		return perr.Validationf("duration", "video is %s long, the limit is %s", m.Duration.Round(time.Second), MaxDuration)
	case m.Width <= 0 || m.Height <= 0:
		return perr.Validationf("width", "width and height are required")
	case m.Aspect() < MinAspect:
		return perr.Validationf("height", "video must be vertical (height/width >= %.1f), got %.2f", MinAspect, m.Aspect())
	}
	return nil
}

// IsVideo reports whether a content type names a video
func IsVideo(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return strings.HasPrefix(mt, "video/")
}

// unlabeled content types say nothing about the payload; the size and shape checks still apply
func unlabeled(contentType string) bool {
	mt, _, _ := mime.ParseMediaType(contentType)
	return contentType == "" || mt == "application/octet-stream"
}

// Ext picks a file extension from the filename, then the content type
func Ext(filename, contentType string) string {
	if e := strings.ToLower(path.Ext(filename)); e != "" && len(e) <= 6 {
		return e
	}
	if exts, _ := mime.ExtensionsByType(contentType); len(exts) > 0 {
		return exts[0]
	}
	return ".mp4"
}

func human(n int64) string {
	const mib = 1 << 20
	return fmt.Sprintf("%.1f MiB", float64(n)/mib)
}
