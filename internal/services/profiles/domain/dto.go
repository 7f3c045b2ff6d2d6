// Package domain holds DTOs and ports for profiles
package domain

import "popreel/internal/core/model"

// MaxListed caps the videos a profile view lists per section
const MaxListed = 200

// View is one profile page
// Profile is set for visitors, Liked only for the owner
type View struct {
	UID     string         `json:"uid"`
	Profile *model.Profile `json:"profile,omitempty"`
	Stats   model.Stats    `json:"stats"`
	Videos  []model.Video  `json:"videos"`
	Liked   []model.Video  `json:"liked,omitempty"`
	Owner   bool           `json:"owner"`
}

// Me is the signed in user's view plus their own profile document
type Me struct {
	View
	Me model.Profile `json:"me"`
}

// UpdateInput is the body of PATCH /profiles/me; absent fields are left alone
type UpdateInput struct {
	DisplayName *string `json:"displayName,omitempty" validate:"omitempty,notblank,max=50" example:"Ann"`
	PhotoURL    *string `json:"photoURL,omitempty" validate:"omitempty,url,max=2048" example:"https://cdn.example/a.png"`
}
