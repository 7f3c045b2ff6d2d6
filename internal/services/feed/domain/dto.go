// Package domain holds DTOs, cursors and ports for the feed
package domain

import "popreel/internal/core/model"

const (
	DefaultPageSize = 5
	MaxPageSize     = 50

	DefaultSearchLimit = 10
	MaxSearchLimit     = 50
)

// PageInput is the query of GET /feed
type PageInput struct {
	PageSize int    `query:"page_size" json:"page_size,omitempty" validate:"omitempty,min=1,max=50" example:"5"`
	Cursor   string `query:"cursor" json:"cursor,omitempty" validate:"omitempty,max=512"`
}

// SearchInput is the query of GET /search
type SearchInput struct {
	Q     string `query:"q" json:"q" validate:"max=100" example:"dance"`
	Limit int    `query:"limit" json:"limit,omitempty" validate:"omitempty,min=1,max=50" example:"10"`
}

// TagInput is the query of GET /hashtags/{tag}
type TagInput struct {
	Limit int `query:"limit" json:"limit,omitempty" validate:"omitempty,min=1,max=50" example:"20"`
}

// Page is one feed page; Next is Exhausted when nothing follows
type Page struct {
	Videos   []model.Video `json:"videos"`
	Next     string        `json:"next"`
	PageSize int           `json:"pageSize"`
}
