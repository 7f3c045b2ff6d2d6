// Package domain holds DTOs and ports for comment streams
package domain

const (
	// MaxTextRunes caps a comment body
	MaxTextRunes = 500

	DefaultLimit = 50
	MaxLimit     = 200
)

// PostInput is the body of POST /videos/{id}/comments
type PostInput struct {
	Text string `json:"text" validate:"required,notblank" example:"so good"`
}

// Posted is returned after a comment is stored
type Posted struct {
	ID      string `json:"id"`
	VideoID string `json:"videoId"`
}

// ListInput is the query of GET /videos/{id}/comments
type ListInput struct {
	Limit int `query:"limit" json:"limit,omitempty" validate:"omitempty,min=1,max=200" example:"50"`
}
