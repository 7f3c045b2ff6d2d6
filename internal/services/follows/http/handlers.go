// Package http provides http transport for follows
package http

import (
	stdhttp "net/http"

	"popreel/internal/modkit/httpkit"
	"popreel/internal/platform/net/middleware"
	"popreel/internal/services/follows/domain"
	svc "popreel/internal/services/follows/service"
)

// Register mounts follow endpoints under /profiles
func Register(r httpkit.Router, s svc.Service, auth middleware.AuthPort) {
	h := &handlers{svc: s}
	httpkit.Protected(r, auth, func(pr httpkit.Router) {
		httpkit.Post(pr, "/{uid}/follow", h.toggle)
		httpkit.Get(pr, "/{uid}/follow", h.state)
	})
	httpkit.Get(r, "/{uid}/followers", h.followers)
	httpkit.Get(r, "/{uid}/following", h.following)
}

type handlers struct{ svc svc.Service }

// @Summary Follow or unfollow a user
// @Tags Follows
// @Produce json
// @Param uid path string true "User id"
// @Success 200 {object} domain.FollowState "new state"
// @Router /profiles/{uid}/follow [post]
func (h *handlers) toggle(r *stdhttp.Request) (any, error) {
	who, err := httpkit.Author(r)
	if err != nil {
		return nil, err
	}
	uid := httpkit.Param(r, "uid")
	following, err := h.svc.ToggleFollow(r.Context(), uid, who)
	if err != nil {
		return nil, err
	}
	return domain.FollowState{UID: uid, Following: following}, nil
}

// @Summary Whether the signed in user follows a user
// @Tags Follows
// @Produce json
// @Param uid path string true "User id"
// @Success 200 {object} domain.FollowState "state"
// @Router /profiles/{uid}/follow [get]
func (h *handlers) state(r *stdhttp.Request) (any, error) {
	me, err := httpkit.User(r)
	if err != nil {
		return nil, err
	}
	uid := httpkit.Param(r, "uid")
	following, err := h.svc.IsFollowing(r.Context(), uid, me)
	if err != nil {
		return nil, err
	}
	return domain.FollowState{UID: uid, Following: following}, nil
}

// @Summary Who follows a user
// @Tags Follows
// @Produce json
// @Param uid path string true "User id"
// @Success 200 {object} domain.Members "ok"
// @Router /profiles/{uid}/followers [get]
func (h *handlers) followers(r *stdhttp.Request) (any, error) {
	uid := httpkit.Param(r, "uid")
	users, err := h.svc.Followers(r.Context(), uid)
	if err != nil {
		return nil, err
	}
	return domain.Members{UID: uid, Users: users}, nil
}

// @Summary Who a user follows
// @Tags Follows
// @Produce json
// @Param uid path string true "User id"
// @Success 200 {object} domain.Members "ok"
// @Router /profiles/{uid}/following [get]
func (h *handlers) following(r *stdhttp.Request) (any, error) {
	uid := httpkit.Param(r, "uid")
	users, err := h.svc.Following(r.Context(), uid)
	if err != nil {
		return nil, err
	}
	return domain.Members{UID: uid, Users: users}, nil
}
