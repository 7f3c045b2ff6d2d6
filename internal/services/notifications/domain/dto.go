// Package domain holds DTOs and ports for notifications
package domain

// DefaultLimit is how many notifications a list returns when none is asked for
const DefaultLimit = 20

// ListInput is the query of GET /notifications
type ListInput struct {
	Limit int `query:"limit" json:"limit,omitempty" validate:"omitempty,min=1,max=100" example:"20"`
}

// Read is the body returned after marking a notification read
type Read struct {
	ID   string `json:"id"`
	Read bool   `json:"read"`
}
