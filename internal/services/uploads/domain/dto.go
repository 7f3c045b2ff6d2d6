package domain

import "io"

// MaxCaptionRunes caps a caption
const MaxCaptionRunes = 2200

// PublishInput is what the client declares alongside the file
// Duration is in seconds, as reported by the player
type PublishInput struct {
	Caption  string  `form:"caption" json:"caption" validate:"max=2200"`
	Duration float64 `form:"duration" json:"duration" validate:"gte=0"`
	Width    int     `form:"width" json:"width" validate:"gte=0"`
	Height   int     `form:"height" json:"height" validate:"gte=0"`
}

// Clip is the uploaded file
type Clip struct {
	Body        io.ReadSeeker
	Filename    string
	ContentType string
	Size        int64
}
