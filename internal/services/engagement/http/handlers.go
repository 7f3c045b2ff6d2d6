// Package http provides http transport for likes
package http

import (
	"context"
	stdhttp "net/http"

	"popreel/internal/modkit/httpkit"
	perr "popreel/internal/platform/errors"
	"popreel/internal/platform/net/middleware"
	"popreel/internal/services/engagement/domain"
	svc "popreel/internal/services/engagement/service"
)

// Register mounts like endpoints under /videos
func Register(r httpkit.Router, s svc.Service, auth middleware.AuthPort) {
	h := &handlers{svc: s}
	httpkit.Protected(r, auth, func(pr httpkit.Router) {
		httpkit.Post(pr, "/{id}/like", h.toggle)
		httpkit.Get(pr, "/{id}/like", h.liked)
	})
	httpkit.Stream(r, "/{id}/likes/stream", h.stream)
}

type handlers struct{ svc svc.Service }

// @Summary Like or unlike a video
// @Tags Likes
// @Produce json
// @Param id path string true "Video id"
// @Success 200 {object} domain.LikeState "new state"
// @Router /videos/{id}/like [post]
func (h *handlers) toggle(r *stdhttp.Request) (any, error) {
	who, err := httpkit.Author(r)
	if err != nil {
		return nil, err
	}
	id := httpkit.Param(r, "id")
	liked, err := h.svc.ToggleLike(r.Context(), id, who)
	if err != nil {
		return nil, err
	}
	return domain.LikeState{VideoID: id, Liked: liked}, nil
}

// @Summary Whether the signed in user likes a video
// @Tags Likes
// @Produce json
// @Param id path string true "Video id"
// @Success 200 {object} domain.LikeState "state"
// @Router /videos/{id}/like [get]
func (h *handlers) liked(r *stdhttp.Request) (any, error) {
	uid, err := httpkit.User(r)
	if err != nil {
		return nil, err
	}
	id := httpkit.Param(r, "id")
	liked, err := h.svc.IsLiked(r.Context(), id, uid)
	if err != nil {
		return nil, err
	}
	return domain.LikeState{VideoID: id, Liked: liked}, nil
}

// @Summary Live like count of a video as server-sent events
// @Tags Likes
// @Produce text/event-stream
// @Param id path string true "Video id"
// @Router /videos/{id}/likes/stream [get]
func (h *handlers) stream(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	id := httpkit.Param(r, "id")
	httpkit.ServeEvents(w, r, func(ctx context.Context, emit func(httpkit.Event)) (func(), error) {
		sub, err := h.svc.WatchLikeCount(ctx, id, func(n int64, err error) {
			if err != nil {
				emit(httpkit.Event{Name: "error", Data: perr.WireFrom(err)})
				return
			}
			emit(httpkit.Event{Name: "likes", Data: domain.LikeCount{VideoID: id, LikeCount: n}})
		})
		if err != nil {
			return nil, err
		}
		return sub.Unsubscribe, nil
	})
}

