// Package http provides http transport for comments
package http

import (
	"context"
	stdhttp "net/http"

	"popreel/internal/core/model"
	"popreel/internal/modkit/httpkit"
	perr "popreel/internal/platform/errors"
	"popreel/internal/platform/net/middleware"
	"popreel/internal/services/comments/domain"
	svc "popreel/internal/services/comments/service"
)

// Register mounts comment endpoints under /videos
func Register(r httpkit.Router, s svc.Service, auth middleware.AuthPort) {
	h := &handlers{svc: s}
	httpkit.GetQuery[domain.ListInput](r, "/{id}/comments", h.list)
	httpkit.Stream(r, "/{id}/comments/stream", h.stream)
	httpkit.Protected(r, auth, func(pr httpkit.Router) {
		httpkit.PostJSON[domain.PostInput](pr, "/{id}/comments", h.post)
	})
}

type handlers struct{ svc svc.Service }

// @Summary Newest comments of a video
// @Tags Comments
// @Produce json
// @Param id path string true "Video id"
// @Param limit query int false "Max items"
// @Success 200 {array} model.Comment "ok"
// @Router /videos/{id}/comments [get]
func (h *handlers) list(r *stdhttp.Request, in domain.ListInput) (any, error) {
	return h.svc.List(r.Context(), httpkit.Param(r, "id"), in.Limit)
}

// @Summary Comment on a video
// @Tags Comments
// @Accept json
// @Produce json
// @Param id path string true "Video id"
// @Param payload body domain.PostInput true "Comment"
// @Success 201 {object} domain.Posted "created"
// @Router /videos/{id}/comments [post]
func (h *handlers) post(r *stdhttp.Request, in domain.PostInput) (any, error) {
	who, err := httpkit.Author(r)
	if err != nil {
		return nil, err
	}
	videoID := httpkit.Param(r, "id")
	id, err := h.svc.Post(r.Context(), videoID, in.Text, who)
	if err != nil {
		return nil, err
	}
	return httpkit.Created(domain.Posted{ID: id, VideoID: videoID}), nil
}

// @Summary Live comments of a video as server-sent events
// @Tags Comments
// @Produce text/event-stream
// @Param id path string true "Video id"
// @Router /videos/{id}/comments/stream [get]
func (h *handlers) stream(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	id := httpkit.Param(r, "id")
	httpkit.ServeEvents(w, r, func(ctx context.Context, emit func(httpkit.Event)) (func(), error) {
		sub, err := h.svc.Subscribe(ctx, id, func(cs []model.Comment, err error) {
			if err != nil {
				emit(httpkit.Event{Name: "error", Data: perr.WireFrom(err)})
				return
			}
			emit(httpkit.Event{Name: "comments", Data: cs})
		})
		if err != nil {
			return nil, err
		}
		return sub.Unsubscribe, nil
	})
}
