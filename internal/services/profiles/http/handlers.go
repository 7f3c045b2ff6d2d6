// Package http provides http transport for profiles
package http

import (
	stdhttp "net/http"

	"popreel/internal/modkit/httpkit"
	pnet "popreel/internal/platform/net"
	"popreel/internal/platform/net/middleware"
	"popreel/internal/services/profiles/domain"
	svc "popreel/internal/services/profiles/service"
)

// Register mounts profile endpoints
func Register(r httpkit.Router, s svc.Service, auth middleware.AuthPort) {
	h := &handlers{svc: s}
	httpkit.Protected(r, auth, func(pr httpkit.Router) {
		httpkit.Get(pr, "/me", h.me)
		httpkit.PatchJSON[domain.UpdateInput](pr, "/me", h.update)
	})
	httpkit.Public(r, auth, func(pr httpkit.Router) {
		httpkit.Get(pr, "/{uid}", h.profile)
	})
}

type handlers struct{ svc svc.Service }

// @Summary The signed in user's profile page, created on first call
// @Tags Profiles
// @Produce json
// @Success 200 {object} domain.Me "ok"
// @Router /profiles/me [get]
func (h *handlers) me(r *stdhttp.Request) (any, error) {
	who, err := httpkit.Author(r)
	if err != nil {
		return nil, err
	}
	p, _ := httpkit.Principal(r)
	me, err := h.svc.EnsureProfile(r.Context(), who, p.Email)
	if err != nil {
		return nil, err
	}
	view, err := h.svc.LoadProfile(r.Context(), who.UID, true)
	if err != nil {
		return nil, err
	}
	return domain.Me{View: view, Me: me}, nil
}

// @Summary Edit the signed in user's name or photo
// @Tags Profiles
// @Accept json
// @Produce json
// @Param payload body domain.UpdateInput true "Changes"
// @Success 200 {object} model.Profile "ok"
// @Router /profiles/me [patch]
func (h *handlers) update(r *stdhttp.Request, in domain.UpdateInput) (any, error) {
	uid, err := httpkit.User(r)
	if err != nil {
		return nil, err
	}
	return h.svc.UpdateProfile(r.Context(), uid, in)
}

// @Summary A user's profile page; the owner also sees liked videos
// @Tags Profiles
// @Produce json
// @Param uid path string true "User id"
// @Success 200 {object} domain.View "ok"
// @Router /profiles/{uid} [get]
func (h *handlers) profile(r *stdhttp.Request) (any, error) {
	uid := httpkit.Param(r, "uid")
	owner := uid != "" && pnet.UserID(r.Context()) == uid
	return h.svc.LoadProfile(r.Context(), uid, owner)
}
