// Package domain holds DTOs and ports for the engagement ledger
package domain

// LikeState is what the like endpoints answer with
type LikeState struct {
	VideoID string `json:"videoId"`
	Liked   bool   `json:"liked"`
}

// LikeCount is one delivery of the like-count mirror
type LikeCount struct {
	VideoID   string `json:"videoId"`
	LikeCount int64  `json:"likeCount"`
}
